// internal/workers/scheduling/classify-service-zone/models.go
package classifyservicezone

import "fieldservice-workers/internal/models"

type Input struct {
	Address string `json:"address"`
}

type Output struct {
	Zone        models.LogisticZone `json:"zone"`
	Method      Method              `json:"classificationMethod"`
	Coordinates *models.Coordinates `json:"coordinates,omitempty"`
	DistanceKm  *float64            `json:"distanceKm,omitempty"`
	PostalCode  string              `json:"postalCode,omitempty"`
}
