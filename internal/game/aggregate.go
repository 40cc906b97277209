package game

import "gatewarden/internal/models"

// AggregatePopulation sums the population categories across every
// structure of a session. Structures with missing status keys
// contribute zero for those keys. Recomputed on every state fetch.
func AggregatePopulation(structures []models.Structure) models.PopulationStatus {
	total := models.PopulationStatus{
		"human":     0,
		"infected":  0,
		"possessed": 0,
	}
	for _, structure := range structures {
		for key := range populationFields {
			total[key] += structure.Status[key]
		}
	}
	return total
}
