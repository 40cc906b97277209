package game

import (
	"fmt"

	"gatewarden/internal/models"
)

// Decision is a player verdict on a traveler.
type Decision string

const (
	DecisionAllow         Decision = "allow"
	DecisionDeny          Decision = "deny"
	DecisionExecute       Decision = "execute"
	DecisionCompleteFixed Decision = "complete_fixed"
)

// ParseDecision validates a decision string from the client.
func ParseDecision(s string) (Decision, error) {
	switch Decision(s) {
	case DecisionAllow, DecisionDeny, DecisionExecute, DecisionCompleteFixed:
		return Decision(s), nil
	default:
		return "", fmt.Errorf("unknown decision %q", s)
	}
}

// ResolveDecision applies a traveler's effect strings for the given
// decision. Allow mutates the target structure's population and the
// hidden reputation; deny and execute touch hidden reputation only;
// complete_fixed has no numeric effect. The returned event text is
// empty for fixed completions, whose triggers emit their own events.
func ResolveDecision(traveler *models.Traveler, decision Decision, status models.PopulationStatus, rep *models.Reputation) string {
	data := traveler.Data

	switch decision {
	case DecisionAllow:
		ApplyPopulationEffect(status, data.EffectIn)
		ApplyReputationEffect(rep, data.EffectInHidden)
		return decisionEvent(data, "allowed")
	case DecisionDeny:
		ApplyReputationEffect(rep, data.EffectOut)
		return decisionEvent(data, "denied")
	case DecisionExecute:
		ApplyReputationEffect(rep, data.EffectEx)
		return decisionEvent(data, "executed")
	case DecisionCompleteFixed:
		return ""
	}
	return ""
}

func decisionEvent(data models.TravelerData, verdict string) string {
	return fmt.Sprintf("%s (%s) was %s.", data.Name, data.Faction, verdict)
}
