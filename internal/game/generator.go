package game

import (
	"fmt"
	"math/rand"

	"gatewarden/internal/models"
)

// The town gate is the default target of allow effects.
const TownTemplateID = "town"

// StructureTemplates returns the structures a new session starts with.
// Only the town is active; the rest are unlocked by story beats.
func StructureTemplates() []models.Structure {
	return []models.Structure{
		{
			TemplateID: TownTemplateID,
			Name:       "Gravenmoor",
			Active:     true,
			Status:     models.PopulationStatus{"human": 24, "infected": 2, "possessed": 1},
		},
		{
			TemplateID: "watchtower",
			Name:       "Old Watchtower",
			Active:     false,
			Status:     models.PopulationStatus{"human": 0, "infected": 0, "possessed": 0},
		},
		{
			TemplateID: "chapel",
			Name:       "Chapel of the Last Light",
			Active:     false,
			Status:     models.PopulationStatus{"human": 0, "infected": 0, "possessed": 0},
		},
		{
			TemplateID: "herbalist_hut",
			Name:       "Herbalist's Hut",
			Active:     false,
			Status:     models.PopulationStatus{"human": 0, "infected": 0, "possessed": 0},
		},
	}
}

// fixedEncounter pins a scripted traveler to a day and position.
type fixedEncounter struct {
	day      int
	position int
	data     models.TravelerData
}

func fixedEncounters() []fixedEncounter {
	return []fixedEncounter{
		{
			day:      1,
			position: 1,
			data: models.TravelerData{
				Name:        "Mithrail",
				Faction:     "human",
				Art:         "mithrail",
				IsFixed:     true,
				Description: "A hooded wanderer with a lantern that never gutters.",
				Dialog: models.Dialog{
					Greeting: "Your gate leaks, warden. Let me show you how to read a traveler's papers by lantern light.",
					Trigger:  "Explanation_H",
				},
			},
		},
		{
			day:      2,
			position: 3,
			data: models.TravelerData{
				Name:        "Nora",
				Faction:     "human",
				Art:         "nora",
				IsFixed:     true,
				Description: "An herbalist with a basket of dried stems.",
				Dialog: models.Dialog{
					Greeting: "Burn these herbs under a traveler's nose. The infected cannot hold their cough.",
					Trigger:  "Explanation_M",
				},
			},
		},
		{
			day:      4,
			position: 2,
			data: models.TravelerData{
				Name:        "Inquisitor Dreven",
				Faction:     "human",
				Art:         "dreven",
				IsFixed:     true,
				Description: "A grim rider in the black of the Inquisition.",
				Dialog: models.Dialog{
					Greeting: "The Inquisition is watching your gate, warden. Do not disappoint us.",
					Trigger:  "Inquisition",
				},
			},
		},
		{
			day:      6,
			position: 4,
			data: models.TravelerData{
				Name:        "The Pale Pilgrim",
				Faction:     "possessed",
				Art:         "pale_pilgrim",
				IsFixed:     true,
				Description: "A pilgrim whose shadow points the wrong way.",
				Dialog: models.Dialog{
					Greeting: "We have been waiting a long time for a gate as careless as yours.",
					Trigger:  "Revelation",
				},
			},
		},
		{
			day:      8,
			position: 5,
			data: models.TravelerData{
				Name:        "Gravedigger Wylam",
				Faction:     "human",
				Art:         "wylam",
				IsFixed:     true,
				Description: "A gravedigger who no longer sleeps at night.",
				Dialog: models.Dialog{
					Greeting: "The dead in the north field are not staying down, warden.",
					Trigger:  "undead",
				},
			},
		},
	}
}

// factionProfile holds the effect strings and fallback dialog shared
// by random travelers of one faction.
type factionProfile struct {
	faction        string
	weight         int
	effectIn       string
	effectOut      string
	effectEx       string
	effectInHidden string
	dialog         models.Dialog
}

var factionProfiles = []factionProfile{
	{
		faction:   "human",
		weight:    6,
		effectIn:  "human 1",
		effectOut: "inquisition 1",
		effectEx:  "inquisition 2",
		dialog: models.Dialog{
			Greeting:       "Greetings. I seek entry to your town.",
			Papers:         "The papers seem to be in order.",
			HolyWater:      "The traveler reacts normally to the holy water.",
			MedicinalHerbs: "The traveler shows no unusual reaction.",
			In:             "Thank you for allowing me passage.",
			Out:            "Very well. I will leave peacefully.",
			Execution:      "Please, have mercy!",
		},
	},
	{
		faction:        "infected",
		weight:         3,
		effectIn:       "infected 1",
		effectOut:      "cult 1",
		effectEx:       "cult 1",
		effectInHidden: "cult 1",
		dialog: models.Dialog{
			Greeting:       "I only need a bed for the night... just one night.",
			Papers:         "The papers are smudged but readable.",
			HolyWater:      "The traveler reacts normally to the holy water.",
			MedicinalHerbs: "The traveler coughs violently!",
			In:             "Bless you. You will not regret this.",
			Out:            "You condemn me to the roads, then.",
			Execution:      "No... I was getting better, I swear it!",
		},
	},
	{
		faction:        "possessed",
		weight:         2,
		effectIn:       "possessed 1",
		effectOut:      "undead 1",
		effectEx:       "undead 2",
		effectInHidden: "undead 1",
		dialog: models.Dialog{
			Greeting:       "Such a quiet little town. Let us in.",
			Papers:         "The papers look oddly pristine.",
			HolyWater:      "The traveler shrieks in pain!",
			MedicinalHerbs: "The traveler shows no unusual reaction.",
			In:             "How generous of you, warden.",
			Out:            "We will find another door.",
			Execution:      "This flesh was borrowed anyway.",
		},
	},
}

var travelerNames = []string{
	"Aldric", "Berta", "Caspar", "Dunja", "Edvard", "Freda",
	"Gregor", "Hilde", "Ivo", "Jorun", "Klaas", "Lotte",
	"Marek", "Nel", "Osric", "Petra", "Rurik", "Sanna",
	"Tomas", "Ursel", "Viggo", "Wilma", "Yorick", "Zelda",
}

// GenerateRun builds the full traveler schedule for a new session:
// travelersPerDay encounters for each of days days, with scripted
// travelers pinned to their slots and the rest drawn from the faction
// pool. Generation happens exactly once, at session creation.
func GenerateRun(rng *rand.Rand, sessionID uint, days, travelersPerDay int) []models.Traveler {
	fixed := make(map[[2]int]models.TravelerData)
	for _, enc := range fixedEncounters() {
		if enc.day <= days && enc.position <= travelersPerDay {
			fixed[[2]int{enc.day, enc.position}] = enc.data
		}
	}

	travelers := make([]models.Traveler, 0, days*travelersPerDay)
	for day := 1; day <= days; day++ {
		for position := 1; position <= travelersPerDay; position++ {
			data, ok := fixed[[2]int{day, position}]
			if !ok {
				data = randomTraveler(rng)
			}
			travelers = append(travelers, models.Traveler{
				SessionID: sessionID,
				Day:       day,
				Position:  position,
				Data:      data,
			})
		}
	}
	return travelers
}

func randomTraveler(rng *rand.Rand) models.TravelerData {
	profile := pickProfile(rng)
	name := travelerNames[rng.Intn(len(travelerNames))]
	return models.TravelerData{
		Name:                name,
		Faction:             profile.faction,
		Art:                 fmt.Sprintf("traveler_%s_%d", profile.faction, rng.Intn(3)+1),
		Description:         "A traveler approaches the gate.",
		Dialog:              profile.dialog,
		EffectIn:            profile.effectIn,
		EffectOut:           profile.effectOut,
		EffectEx:            profile.effectEx,
		EffectInHidden:      profile.effectInHidden,
		StructureTemplateID: TownTemplateID,
	}
}

func pickProfile(rng *rand.Rand) factionProfile {
	total := 0
	for _, p := range factionProfiles {
		total += p.weight
	}
	roll := rng.Intn(total)
	for _, p := range factionProfiles {
		if roll < p.weight {
			return p
		}
		roll -= p.weight
	}
	return factionProfiles[0]
}
