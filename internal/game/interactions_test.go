package game

import (
	"reflect"
	"testing"
)

func TestAddInteraction(t *testing.T) {
	available := DefaultInteractions()

	updated, changed := AddInteraction(available, InteractionHolyWater)
	if !changed {
		t.Fatalf("expected holy-water to be added")
	}
	if len(updated) != len(available)+1 {
		t.Fatalf("expected one new interaction, got %v", updated)
	}

	again, changed := AddInteraction(updated, InteractionHolyWater)
	if changed {
		t.Fatalf("adding an existing interaction should not change the list")
	}
	if !reflect.DeepEqual(again, updated) {
		t.Fatalf("list changed on duplicate add: %v vs %v", again, updated)
	}
}

func TestUsableInteractionsFiltersConsumables(t *testing.T) {
	available := []string{
		InteractionCheckPapers,
		InteractionHolyWater,
		InteractionMedicinalHerbs,
		InteractionLetIn,
		InteractionPushOut,
		InteractionExecute,
	}
	inventory := map[string]int{
		ItemLanternFuel:    2,
		ItemHolyWater:      0,
		ItemMedicinalHerbs: 1,
	}

	usable := UsableInteractions(available, inventory)
	want := []string{
		InteractionCheckPapers,
		InteractionMedicinalHerbs,
		InteractionLetIn,
		InteractionPushOut,
		InteractionExecute,
	}
	if !reflect.DeepEqual(usable, want) {
		t.Fatalf("usable = %v, want %v", usable, want)
	}
}

func TestUsableInteractionsDecisionsAlwaysUsable(t *testing.T) {
	usable := UsableInteractions(DefaultInteractions(), map[string]int{})
	want := []string{InteractionLetIn, InteractionPushOut}
	if !reflect.DeepEqual(usable, want) {
		t.Fatalf("usable with empty inventory = %v, want %v", usable, want)
	}
}
