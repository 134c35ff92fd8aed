// internal/models/work_order.go
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type WorkOrderStatus string

const WorkOrderOpen WorkOrderStatus = "open"

// WorkOrder is the operational record for a dispatched visit.
type WorkOrder struct {
	ID            string          `json:"id" validate:"required"`
	OrderNumber   string          `json:"orderNumber" validate:"required"`
	AppointmentID string          `json:"appointmentId" validate:"required"`
	TechnicianID  string          `json:"technicianId" validate:"required"`
	ScheduledDate time.Time       `json:"scheduledDate" validate:"required"`
	StartHour     int             `json:"startHour" validate:"gte=0,lte=23"`
	EndHour       int             `json:"endHour" validate:"gtfield=StartHour,lte=24"`
	EstimatedCost float64         `json:"estimatedCost" validate:"gte=0"`
	Description   string          `json:"description,omitempty"`
	Status        WorkOrderStatus `json:"status" validate:"required"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// NewWorkOrder validates a work order. Status defaults to open.
func NewWorkOrder(w WorkOrder) (*WorkOrder, error) {
	if w.Status == "" {
		w.Status = WorkOrderOpen
	}
	if err := validate.Struct(w); err != nil {
		return nil, validationError("work order", err)
	}
	return &w, nil
}

// OverlapsHours reports whether [start, end) intersects the order's hour range.
func (w WorkOrder) OverlapsHours(start, end int) bool {
	return w.StartHour < end && start < w.EndHour
}

// NewOrderNumber renders OS-YYYYMMDD-XXXXXX with a random upper-case hex suffix.
func NewOrderNumber(at time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("OS-%s-%s", at.Format("20060102"), suffix)
}
