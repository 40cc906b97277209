package game

import (
	"testing"

	"gatewarden/internal/models"
)

func TestParseEffect(t *testing.T) {
	tests := []struct {
		effect    string
		wantKey   string
		wantDelta int
		wantOK    bool
	}{
		{"human -1", "human", -1, true},
		{"cult 3", "cult", 3, true},
		{"possessed +2", "possessed", 2, true},
		{"", "", 0, false},
		{"human", "", 0, false},
		{"human -1 extra", "", 0, false},
		{"human abc", "", 0, false},
		{"human 1.5", "", 0, false},
		{"  human   -1  ", "human", -1, true},
	}

	for _, tc := range tests {
		key, delta, ok := ParseEffect(tc.effect)
		if ok != tc.wantOK || key != tc.wantKey || delta != tc.wantDelta {
			t.Fatalf("ParseEffect(%q) = (%q, %d, %v), want (%q, %d, %v)",
				tc.effect, key, delta, ok, tc.wantKey, tc.wantDelta, tc.wantOK)
		}
	}
}

func TestApplyPopulationEffect(t *testing.T) {
	status := models.PopulationStatus{"human": 5, "infected": 0, "possessed": 1}

	ApplyPopulationEffect(status, "human -2")
	if status["human"] != 3 {
		t.Fatalf("human after -2 = %d, want 3", status["human"])
	}

	// Floor at zero.
	status["human"] = 1
	ApplyPopulationEffect(status, "human -2")
	if status["human"] != 0 {
		t.Fatalf("human floored = %d, want 0", status["human"])
	}

	// No upper clamp on population.
	ApplyPopulationEffect(status, "possessed 15")
	if status["possessed"] != 16 {
		t.Fatalf("possessed after +15 = %d, want 16", status["possessed"])
	}
}

func TestApplyPopulationEffectNoOps(t *testing.T) {
	original := models.PopulationStatus{"human": 5, "infected": 2, "possessed": 1}

	for _, effect := range []string{
		"",
		"human",
		"human -1 extra",
		"human abc",
		"cult 3",      // reputation key, not a population field
		"elves 2",     // unknown key
		"Human 1",     // keys are case sensitive
	} {
		status := models.PopulationStatus{"human": 5, "infected": 2, "possessed": 1}
		ApplyPopulationEffect(status, effect)
		for key, want := range original {
			if status[key] != want {
				t.Fatalf("effect %q changed %s: got %d, want %d", effect, key, status[key], want)
			}
		}
	}
}

func TestApplyReputationEffectClamps(t *testing.T) {
	rep := &models.Reputation{Cult: 5, Inquisition: 0, Undead: 10}

	ApplyReputationEffect(rep, "cult 3")
	if rep.Cult != 8 {
		t.Fatalf("cult = %d, want 8", rep.Cult)
	}

	// Repeated extreme deltas stay inside [0,10].
	for i := 0; i < 20; i++ {
		ApplyReputationEffect(rep, "cult 100")
	}
	if rep.Cult != 10 {
		t.Fatalf("cult after repeated +100 = %d, want 10", rep.Cult)
	}
	for i := 0; i < 20; i++ {
		ApplyReputationEffect(rep, "inquisition -100")
	}
	if rep.Inquisition != 0 {
		t.Fatalf("inquisition after repeated -100 = %d, want 0", rep.Inquisition)
	}

	ApplyReputationEffect(rep, "undead -4")
	if rep.Undead != 6 {
		t.Fatalf("undead = %d, want 6", rep.Undead)
	}
}

func TestApplyReputationEffectNoOps(t *testing.T) {
	for _, effect := range []string{"", "cult", "cult x", "human 2", "karma 1", "cult 1 1"} {
		rep := &models.Reputation{Cult: 4, Inquisition: 5, Undead: 6}
		ApplyReputationEffect(rep, effect)
		if rep.Cult != 4 || rep.Inquisition != 5 || rep.Undead != 6 {
			t.Fatalf("effect %q mutated reputation: %+v", effect, rep)
		}
	}
}
