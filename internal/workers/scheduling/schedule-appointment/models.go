// internal/workers/scheduling/schedule-appointment/models.go
package scheduleappointment

import (
	"strings"

	"fieldservice-workers/internal/models"
)

type Phase string

const (
	PhaseQuote     Phase = "quote"
	PhaseConfirmed Phase = "confirmed"
)

type Input struct {
	CustomerName  string                 `json:"customerName"`
	CustomerPhone string                 `json:"customerPhone"`
	CustomerEmail string                 `json:"customerEmail,omitempty"`
	Address       string                 `json:"address"`
	Equipment     []models.EquipmentItem `json:"equipment"`
	Urgent        models.Flag            `json:"urgent"`
	PreferredDate string                 `json:"preferredDate,omitempty"`
	ChosenSlot    string                 `json:"chosenSlot,omitempty"`
	QuoteID       string                 `json:"quoteId,omitempty"`
}

// Confirming reports whether the request carries a chosen slot.
func (in *Input) Confirming() bool {
	return strings.TrimSpace(in.ChosenSlot) != ""
}

type Output struct {
	Phase   Phase  `json:"phase"`
	Message string `json:"message"`

	Zone                 models.LogisticZone `json:"zone"`
	ClassificationMethod string              `json:"classificationMethod,omitempty"`
	DistanceKm           *float64            `json:"distanceKm,omitempty"`
	Coordinates          *models.Coordinates `json:"coordinates,omitempty"`

	Technician   *models.TechnicianScore  `json:"technician,omitempty"`
	Alternatives []models.TechnicianScore `json:"alternatives,omitempty"`

	QuoteID         string        `json:"quoteId,omitempty"`
	QuoteExpiresAt  string        `json:"quoteExpiresAt,omitempty"`
	Slots           []models.Slot `json:"slots,omitempty"`
	HasAvailability bool          `json:"hasAvailability"`

	Appointment *models.Appointment `json:"appointment,omitempty"`
	WorkOrder   *models.WorkOrder   `json:"workOrder,omitempty"`
}
