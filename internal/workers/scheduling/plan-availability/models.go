// internal/workers/scheduling/plan-availability/models.go
package planavailability

import "fieldservice-workers/internal/models"

type Input struct {
	Zone          string      `json:"zone"`
	Urgent        models.Flag `json:"urgent"`
	PreferredDate string      `json:"preferredDate,omitempty"`
	MaxSlots      int         `json:"maxSlots,omitempty"`
}

type Output struct {
	Slots           []models.Slot `json:"slots"`
	TotalAvailable  int           `json:"totalAvailable"`
	WindowStart     string        `json:"windowStart"`
	WindowDays      int           `json:"windowDays"`
	HasAvailability bool          `json:"hasAvailability"`
}
