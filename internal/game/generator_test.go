package game

import (
	"math/rand"
	"testing"
)

func TestGenerateRunShape(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	travelers := GenerateRun(rng, 42, 10, 6)

	if len(travelers) != 60 {
		t.Fatalf("run length = %d, want 60", len(travelers))
	}

	perDay := make(map[int]int)
	for _, traveler := range travelers {
		if traveler.SessionID != 42 {
			t.Fatalf("traveler has session %d, want 42", traveler.SessionID)
		}
		if traveler.Complete {
			t.Fatalf("generated traveler already complete: %+v", traveler)
		}
		perDay[traveler.Day]++
	}
	for day := 1; day <= 10; day++ {
		if perDay[day] != 6 {
			t.Fatalf("day %d has %d travelers, want 6", day, perDay[day])
		}
	}
}

func TestGenerateRunPinsFixedEncounters(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	travelers := GenerateRun(rng, 1, 10, 6)

	bySlot := make(map[[2]int]int)
	for i, traveler := range travelers {
		bySlot[[2]int{traveler.Day, traveler.Position}] = i
	}

	mithrail := travelers[bySlot[[2]int{1, 1}]]
	if mithrail.Data.Name != "Mithrail" || !mithrail.Data.IsFixed {
		t.Fatalf("day 1 position 1 = %+v, want fixed Mithrail", mithrail.Data)
	}
	if mithrail.Data.Dialog.Trigger != string(TriggerExplanationH) {
		t.Fatalf("Mithrail trigger = %q, want %q", mithrail.Data.Dialog.Trigger, TriggerExplanationH)
	}

	nora := travelers[bySlot[[2]int{2, 3}]]
	if nora.Data.Name != "Nora" || nora.Data.Dialog.Trigger != string(TriggerExplanationM) {
		t.Fatalf("day 2 position 3 = %+v, want Nora with %s", nora.Data, TriggerExplanationM)
	}
}

func TestGenerateRunEffectStringsParse(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	travelers := GenerateRun(rng, 1, 10, 6)

	factions := map[string]bool{"human": true, "infected": true, "possessed": true}
	for _, traveler := range travelers {
		data := traveler.Data
		if !factions[data.Faction] {
			t.Fatalf("unknown faction %q for %s", data.Faction, data.Name)
		}
		if data.IsFixed {
			continue
		}
		for _, effect := range []string{data.EffectIn, data.EffectOut, data.EffectEx} {
			if _, _, ok := ParseEffect(effect); !ok {
				t.Fatalf("traveler %s has malformed effect %q", data.Name, effect)
			}
		}
		if data.EffectInHidden != "" {
			if _, _, ok := ParseEffect(data.EffectInHidden); !ok {
				t.Fatalf("traveler %s has malformed hidden effect %q", data.Name, data.EffectInHidden)
			}
		}
	}
}
