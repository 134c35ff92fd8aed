// Package store holds the persistence adapters used by the scheduling workers:
// the PostgreSQL booking store and the Redis-backed quote sessions and slot locks.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fieldservice-workers/internal/common/database"
	"fieldservice-workers/internal/common/logger"
	"fieldservice-workers/internal/models"

	sq "github.com/Masterminds/squirrel"
)

var (
	ErrSlotTaken       = errors.New("SLOT_TAKEN")
	ErrNotPending      = errors.New("APPOINTMENT_NOT_PENDING")
	ErrInvalidWorkSlot = errors.New("INVALID_WORK_SLOT")
)

const (
	appointmentsTable = "appointments"
	workOrdersTable   = "work_orders"
	techniciansTable  = "technicians"

	sqlDateLayout = "2006-01-02"
)

// TechnicianRecord is a technicians row as stored. Specialties and preferred
// zones are free text (JSON arrays or comma-separated lists).
type TechnicianRecord struct {
	ID              string
	Name            string
	Email           sql.NullString
	Phone           sql.NullString
	Specialties     sql.NullString
	PreferredZones  sql.NullString
	ExperienceYears sql.NullInt64
	Rating          sql.NullFloat64
	DailyCapacity   sql.NullInt64
}

type BookingStore struct {
	db     *sql.DB
	retry  database.RetryPolicy
	logger logger.Logger
	psql   sq.StatementBuilderType
}

func NewBookingStore(db *sql.DB, retry database.RetryPolicy, log logger.Logger) *BookingStore {
	return &BookingStore{
		db:     db,
		retry:  retry,
		logger: log.WithFields(map[string]interface{}{"component": "booking-store"}),
		psql:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// ==========================
// Reads
// ==========================

// ActiveTechnicians returns every technician flagged active, ordered by id.
func (s *BookingStore) ActiveTechnicians(ctx context.Context) ([]TechnicianRecord, error) {
	query, args, err := s.psql.
		Select("id", "name", "email", "phone", "specialties", "preferred_zones",
			"experience_years", "rating", "daily_capacity").
		From(techniciansTable).
		Where(sq.Eq{"active": true}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build technicians query: %w", err)
	}

	var out []TechnicianRecord
	err = s.retry.Do(ctx, "active technicians", func(ctx context.Context) error {
		out = out[:0]
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var r TechnicianRecord
			if err := rows.Scan(&r.ID, &r.Name, &r.Email, &r.Phone, &r.Specialties, &r.PreferredZones,
				&r.ExperienceYears, &r.Rating, &r.DailyCapacity); err != nil {
				return err
			}
			out = append(out, r)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AppointmentsBetween returns non-cancelled appointments scheduled in [from, to).
func (s *BookingStore) AppointmentsBetween(ctx context.Context, from, to time.Time) ([]models.Appointment, error) {
	query, args, err := s.psql.
		Select("id", "technician_id", "scheduled_at", "status").
		From(appointmentsTable).
		Where(sq.GtOrEq{"scheduled_at": from}).
		Where(sq.Lt{"scheduled_at": to}).
		Where(sq.NotEq{"status": string(models.StatusCancelled)}).
		OrderBy("scheduled_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build appointments query: %w", err)
	}

	var out []models.Appointment
	err = s.retry.Do(ctx, "appointments between", func(ctx context.Context) error {
		out = out[:0]
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				a      models.Appointment
				techID sql.NullString
				status string
			)
			if err := rows.Scan(&a.ID, &techID, &a.ScheduledAt, &status); err != nil {
				return err
			}
			a.TechnicianID = techID.String
			if parsed, err := models.ParseAppointmentStatus(status); err == nil {
				a.Status = parsed
			}
			out = append(out, a)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// WorkOrdersOn returns non-cancelled work orders scheduled on the given calendar date.
func (s *BookingStore) WorkOrdersOn(ctx context.Context, date time.Time) ([]models.WorkOrder, error) {
	day := date.Format(sqlDateLayout)
	query, args, err := s.psql.
		Select("id", "order_number", "technician_id", "start_hour", "end_hour").
		From(workOrdersTable).
		Where(sq.Eq{"scheduled_date": day}).
		Where(sq.NotEq{"status": "cancelled"}).
		OrderBy("start_hour").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build work orders query: %w", err)
	}

	var out []models.WorkOrder
	err = s.retry.Do(ctx, "work orders on date", func(ctx context.Context) error {
		out = out[:0]
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				w      models.WorkOrder
				techID sql.NullString
			)
			if err := rows.Scan(&w.ID, &w.OrderNumber, &techID, &w.StartHour, &w.EndHour); err != nil {
				return err
			}
			w.TechnicianID = techID.String
			w.ScheduledDate = date
			out = append(out, w)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ==========================
// Confirmation
// ==========================

// ConfirmBooking writes the appointment and its work order in one transaction:
// re-check the slot, insert the pending appointment, insert the work order and
// link it back while moving the appointment to confirmed. On success apt is
// updated in place. ErrSlotTaken means another booking now overlaps the slot.
func (s *BookingStore) ConfirmBooking(ctx context.Context, apt *models.Appointment, wo *models.WorkOrder) error {
	if wo.EndHour <= wo.StartHour {
		return fmt.Errorf("%w: %d-%d", ErrInvalidWorkSlot, wo.StartHour, wo.EndHour)
	}
	slotStart := apt.ScheduledAt
	slotEnd := slotStart.Add(time.Duration(wo.EndHour-wo.StartHour) * time.Hour)

	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.ensureSlotFree(ctx, tx, slotStart, slotEnd, wo); err != nil {
			return err
		}
		if err := s.insertAppointment(ctx, tx, apt); err != nil {
			return err
		}
		if err := s.insertWorkOrder(ctx, tx, wo); err != nil {
			return err
		}
		return s.linkWorkOrder(ctx, tx, apt.ID, wo)
	})
	if err != nil {
		return err
	}

	if err := apt.Confirm(wo.ID, wo.OrderNumber); err != nil {
		return err
	}
	s.logger.Info("booking confirmed", map[string]interface{}{
		"appointmentId": apt.ID,
		"workOrderId":   wo.ID,
		"orderNumber":   wo.OrderNumber,
		"scheduledAt":   apt.ScheduledAt.Format(time.RFC3339),
	})
	return nil
}

func (s *BookingStore) ensureSlotFree(ctx context.Context, tx *sql.Tx, start, end time.Time, wo *models.WorkOrder) error {
	query, args, err := s.psql.
		Select("COUNT(*)").
		From(appointmentsTable).
		Where(sq.GtOrEq{"scheduled_at": start}).
		Where(sq.Lt{"scheduled_at": end}).
		Where(sq.NotEq{"status": string(models.StatusCancelled)}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build appointment conflict query: %w", err)
	}

	var appointments int
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&appointments); err != nil {
		return fmt.Errorf("check appointment conflicts: %w", err)
	}
	if appointments > 0 {
		return ErrSlotTaken
	}

	query, args, err = s.psql.
		Select("COUNT(*)").
		From(workOrdersTable).
		Where(sq.Eq{"scheduled_date": wo.ScheduledDate.Format(sqlDateLayout)}).
		Where(sq.Lt{"start_hour": wo.EndHour}).
		Where(sq.Gt{"end_hour": wo.StartHour}).
		Where(sq.NotEq{"status": "cancelled"}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build work order conflict query: %w", err)
	}

	var orders int
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&orders); err != nil {
		return fmt.Errorf("check work order conflicts: %w", err)
	}
	if orders > 0 {
		return ErrSlotTaken
	}
	return nil
}

func (s *BookingStore) insertAppointment(ctx context.Context, tx *sql.Tx, apt *models.Appointment) error {
	equipment, _ := json.Marshal(apt.Equipment)
	problems, _ := json.Marshal(apt.Problems)
	modes, _ := json.Marshal(apt.ServiceModes)

	query, args, err := s.psql.Insert(appointmentsTable).
		Columns("id", "customer_name", "customer_phone", "customer_email", "address", "zone",
			"equipment", "problems", "service_modes", "urgent", "scheduled_at",
			"technician_id", "technician_name", "status", "created_at", "updated_at").
		Values(apt.ID, apt.CustomerName, apt.CustomerPhone, apt.CustomerEmail, apt.Address, string(apt.Zone),
			string(equipment), string(problems), string(modes), apt.Urgent, apt.ScheduledAt,
			apt.TechnicianID, apt.TechnicianName, string(models.StatusPending), sq.Expr("NOW()"), sq.Expr("NOW()")).
		ToSql()
	if err != nil {
		return fmt.Errorf("build appointment insert: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}
	return nil
}

func (s *BookingStore) insertWorkOrder(ctx context.Context, tx *sql.Tx, wo *models.WorkOrder) error {
	query, args, err := s.psql.Insert(workOrdersTable).
		Columns("id", "order_number", "appointment_id", "technician_id", "scheduled_date",
			"start_hour", "end_hour", "estimated_cost", "description", "status", "created_at").
		Values(wo.ID, wo.OrderNumber, wo.AppointmentID, wo.TechnicianID, wo.ScheduledDate.Format(sqlDateLayout),
			wo.StartHour, wo.EndHour, wo.EstimatedCost, wo.Description, string(wo.Status), sq.Expr("NOW()")).
		ToSql()
	if err != nil {
		return fmt.Errorf("build work order insert: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert work order: %w", err)
	}
	return nil
}

func (s *BookingStore) linkWorkOrder(ctx context.Context, tx *sql.Tx, appointmentID string, wo *models.WorkOrder) error {
	query, args, err := s.psql.Update(appointmentsTable).
		Set("status", string(models.StatusConfirmed)).
		Set("work_order_id", wo.ID).
		Set("work_order_number", wo.OrderNumber).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": appointmentID, "status": string(models.StatusPending)}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build appointment update: %w", err)
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update appointment: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotPending, appointmentID)
	}
	return nil
}
