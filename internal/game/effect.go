package game

import (
	"strconv"
	"strings"

	"gatewarden/internal/models"
)

// Hidden reputation counters are clamped to this range. Population has
// no upper bound, only a floor of zero.
const (
	reputationMin = 0
	reputationMax = 10
)

var populationFields = map[string]bool{
	"human":     true,
	"infected":  true,
	"possessed": true,
}

// ParseEffect splits a "key value" effect string into its parts.
// Anything that is not exactly two space-separated tokens with a
// signed integer value is malformed and reported with ok=false; the
// caller treats that as a no-op, never an error.
func ParseEffect(effect string) (key string, delta int, ok bool) {
	fields := strings.Fields(effect)
	if len(fields) != 2 {
		return "", 0, false
	}
	delta, err := strconv.Atoi(fields[1])
	if err != nil {
		return "", 0, false
	}
	return fields[0], delta, true
}

// ApplyPopulationEffect adds an effect delta to one of the population
// fields of a structure's status record. Unknown keys and malformed
// effects leave the record untouched. Counts are floored at zero.
func ApplyPopulationEffect(status models.PopulationStatus, effect string) {
	key, delta, ok := ParseEffect(effect)
	if !ok || status == nil {
		return
	}
	if !populationFields[key] {
		return
	}
	v := status[key] + delta
	if v < 0 {
		v = 0
	}
	status[key] = v
}

// ApplyReputationEffect adds an effect delta to one of the hidden
// reputation counters, clamping the result to [0,10]. Unknown keys and
// malformed effects are silent no-ops.
func ApplyReputationEffect(rep *models.Reputation, effect string) {
	key, delta, ok := ParseEffect(effect)
	if !ok || rep == nil {
		return
	}
	switch key {
	case "cult":
		rep.Cult = clampReputation(rep.Cult + delta)
	case "inquisition":
		rep.Inquisition = clampReputation(rep.Inquisition + delta)
	case "undead":
		rep.Undead = clampReputation(rep.Undead + delta)
	}
}

func clampReputation(v int) int {
	if v < reputationMin {
		return reputationMin
	}
	if v > reputationMax {
		return reputationMax
	}
	return v
}
