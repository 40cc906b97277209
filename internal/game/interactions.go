package game

// Player-facing interaction identifiers. Row-1 interactions consume an
// item per use; row-2 interactions are decisions.
const (
	InteractionCheckPapers    = "check-papers"
	InteractionHolyWater      = "holy-water"
	InteractionMedicinalHerbs = "medicinal-herbs"
	InteractionLetIn          = "let-in"
	InteractionPushOut        = "push-out"
	InteractionExecute        = "execute"
)

// Consumable item names.
const (
	ItemHolyWater      = "holy water"
	ItemLanternFuel    = "lantern fuel"
	ItemMedicinalHerbs = "medicinal herbs"
)

// consumableFor maps row-1 interactions to the item each use burns.
var consumableFor = map[string]string{
	InteractionCheckPapers:    ItemLanternFuel,
	InteractionHolyWater:      ItemHolyWater,
	InteractionMedicinalHerbs: ItemMedicinalHerbs,
}

var knownInteractions = map[string]bool{
	InteractionCheckPapers:    true,
	InteractionHolyWater:      true,
	InteractionMedicinalHerbs: true,
	InteractionLetIn:          true,
	InteractionPushOut:        true,
	InteractionExecute:        true,
}

// DefaultInteractions is the set every new session starts with.
// Narrative triggers expand it over the course of a run.
func DefaultInteractions() []string {
	return []string{InteractionCheckPapers, InteractionLetIn, InteractionPushOut}
}

// KnownInteraction reports whether the identifier names a real
// interaction.
func KnownInteraction(id string) bool {
	return knownInteractions[id]
}

// AddInteraction appends an interaction to the availability list if it
// is not already present. The second return reports whether the list
// changed.
func AddInteraction(available []string, interaction string) ([]string, bool) {
	for _, id := range available {
		if id == interaction {
			return available, false
		}
	}
	return append(available, interaction), true
}

// UsableInteractions filters the available set down to what the player
// can actually press right now: consumable interactions additionally
// require a positive inventory count.
func UsableInteractions(available []string, inventory map[string]int) []string {
	usable := make([]string, 0, len(available))
	for _, id := range available {
		if item, consumable := consumableFor[id]; consumable && inventory[item] <= 0 {
			continue
		}
		usable = append(usable, id)
	}
	return usable
}

// ConsumableItem returns the item an interaction burns, if any.
func ConsumableItem(interaction string) (string, bool) {
	item, ok := consumableFor[interaction]
	return item, ok
}
