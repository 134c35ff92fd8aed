// internal/models/appointment.go
package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidStatus     = errors.New("INVALID_APPOINTMENT_STATUS")
	ErrInvalidTransition = errors.New("INVALID_STATUS_TRANSITION")
)

type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
)

func ParseAppointmentStatus(s string) (AppointmentStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending", "pendente", "pre-agendado", "pré-agendado":
		return StatusPending, nil
	case "confirmed", "confirmado":
		return StatusConfirmed, nil
	case "completed", "concluido", "concluído":
		return StatusCompleted, nil
	case "cancelled", "canceled", "cancelado":
		return StatusCancelled, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// Appointment is the customer-facing booking record.
type Appointment struct {
	ID              string            `json:"id" validate:"required"`
	CustomerName    string            `json:"customerName" validate:"required"`
	CustomerPhone   string            `json:"customerPhone" validate:"required"`
	CustomerEmail   string            `json:"customerEmail,omitempty" validate:"omitempty,email"`
	Address         string            `json:"address" validate:"required"`
	Zone            LogisticZone      `json:"zone" validate:"required,zone"`
	Equipment       []string          `json:"equipment" validate:"required,min=1,max=3,dive,required"`
	Problems        []string          `json:"problems"`
	ServiceModes    []ServiceMode     `json:"serviceModes"`
	Urgent          bool              `json:"urgent"`
	ScheduledAt     time.Time         `json:"scheduledAt" validate:"required"`
	TechnicianID    string            `json:"technicianId" validate:"required"`
	TechnicianName  string            `json:"technicianName"`
	Status          AppointmentStatus `json:"status" validate:"required"`
	WorkOrderID     string            `json:"workOrderId,omitempty"`
	WorkOrderNumber string            `json:"workOrderNumber,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
}

// NewAppointment validates a pending appointment. Status defaults to pending.
func NewAppointment(a Appointment) (*Appointment, error) {
	if a.Status == "" {
		a.Status = StatusPending
	}
	if err := validate.Struct(a); err != nil {
		return nil, validationError("appointment", err)
	}
	return &a, nil
}

// Confirm links the work order and moves the appointment from pending to confirmed.
func (a *Appointment) Confirm(workOrderID, orderNumber string) error {
	if a.Status != StatusPending {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, a.Status, StatusConfirmed)
	}
	a.WorkOrderID = workOrderID
	a.WorkOrderNumber = orderNumber
	a.Status = StatusConfirmed
	return nil
}
