package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"fieldservice-workers/internal/common/database"
	"fieldservice-workers/internal/common/logger"
	"fieldservice-workers/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func testRetryPolicy() database.RetryPolicy {
	return database.RetryPolicy{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func newTestStore(t *testing.T) (*BookingStore, sqlmock.Sqlmock) {
	db, mock := setupMockDB(t)
	return NewBookingStore(db, testRetryPolicy(), logger.NewTestLogger(t)), mock
}

func q(sql string) string {
	return regexp.QuoteMeta(sql)
}

var saoPaulo = time.FixedZone("BRT", -3*3600)

func pendingBooking() (*models.Appointment, *models.WorkOrder) {
	at := time.Date(2030, 1, 15, 8, 0, 0, 0, saoPaulo)
	apt := &models.Appointment{
		ID:            "apt-1",
		CustomerName:  "Maria",
		CustomerPhone: "+5511999990000",
		Address:       "Av. Paulista, 1000",
		Zone:          models.ZoneA,
		Equipment:     []string{"fogão"},
		Problems:      []string{"não acende"},
		ServiceModes:  []models.ServiceMode{models.ServiceRepair},
		ScheduledAt:   at,
		TechnicianID:  "t-1",
		Status:        models.StatusPending,
	}
	wo := &models.WorkOrder{
		ID:            "wo-1",
		OrderNumber:   "OS-20300115-ABC123",
		AppointmentID: "apt-1",
		TechnicianID:  "t-1",
		ScheduledDate: time.Date(2030, 1, 15, 0, 0, 0, 0, saoPaulo),
		StartHour:     8,
		EndHour:       10,
		EstimatedCost: 180,
		Status:        models.WorkOrderOpen,
	}
	return apt, wo
}

// ==========================
// Read Tests
// ==========================

func TestBookingStore_ActiveTechnicians(t *testing.T) {
	s, mock := newTestStore(t)

	rows := sqlmock.NewRows([]string{"id", "name", "email", "phone", "specialties", "preferred_zones",
		"experience_years", "rating", "daily_capacity"}).
		AddRow("t-1", "Carlos", "carlos@example.com", nil, `["fogão","forno"]`, `["A","B"]`, 8, 4.5, 6).
		AddRow("t-2", "Ana", nil, "+5511", "coifa, depurador", nil, nil, nil, nil)

	mock.ExpectQuery(q("FROM technicians WHERE active = $1 ORDER BY id")).
		WithArgs(true).
		WillReturnRows(rows)

	got, err := s.ActiveTechnicians(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "t-1", got[0].ID)
	assert.Equal(t, `["fogão","forno"]`, got[0].Specialties.String)
	assert.Equal(t, int64(8), got[0].ExperienceYears.Int64)
	assert.False(t, got[0].Phone.Valid)

	assert.Equal(t, "coifa, depurador", got[1].Specialties.String)
	assert.False(t, got[1].PreferredZones.Valid)
	assert.False(t, got[1].Rating.Valid)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingStore_AppointmentsBetween_RetriesTransientErrors(t *testing.T) {
	s, mock := newTestStore(t)
	from := time.Date(2030, 1, 15, 0, 0, 0, 0, saoPaulo)
	to := from.AddDate(0, 0, 1)

	mock.ExpectQuery(q("FROM appointments WHERE scheduled_at >= $1 AND scheduled_at < $2 AND status <> $3")).
		WithArgs(from, to, "cancelled").
		WillReturnError(&pq.Error{Code: "08006", Message: "connection failure"})
	mock.ExpectQuery(q("FROM appointments WHERE scheduled_at >= $1 AND scheduled_at < $2 AND status <> $3")).
		WithArgs(from, to, "cancelled").
		WillReturnRows(sqlmock.NewRows([]string{"id", "technician_id", "scheduled_at", "status"}).
			AddRow("apt-9", "t-1", time.Date(2030, 1, 15, 9, 0, 0, 0, saoPaulo), "confirmed"))

	got, err := s.AppointmentsBetween(context.Background(), from, to)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, models.StatusConfirmed, got[0].Status)
	assert.Equal(t, 9, got[0].ScheduledAt.Hour())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingStore_AppointmentsBetween_DoesNotRetryPermanentErrors(t *testing.T) {
	s, mock := newTestStore(t)
	from := time.Date(2030, 1, 15, 0, 0, 0, 0, saoPaulo)

	mock.ExpectQuery(q("FROM appointments")).
		WillReturnError(&pq.Error{Code: "42P01", Message: `relation "appointments" does not exist`})

	_, err := s.AppointmentsBetween(context.Background(), from, from.AddDate(0, 0, 1))
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingStore_WorkOrdersOn(t *testing.T) {
	s, mock := newTestStore(t)
	day := time.Date(2030, 1, 15, 0, 0, 0, 0, saoPaulo)

	mock.ExpectQuery(q("FROM work_orders WHERE scheduled_date = $1 AND status <> $2 ORDER BY start_hour")).
		WithArgs("2030-01-15", "cancelled").
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_number", "technician_id", "start_hour", "end_hour"}).
			AddRow("wo-1", "OS-20300115-AAAAAA", "t-1", 13, 15))

	got, err := s.WorkOrdersOn(context.Background(), day)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 13, got[0].StartHour)
	assert.Equal(t, 15, got[0].EndHour)
	assert.True(t, got[0].ScheduledDate.Equal(day))

	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Confirmation Tests
// ==========================

func expectSlotChecks(mock sqlmock.Sqlmock, appointments, orders int) {
	mock.ExpectQuery(q("SELECT COUNT(*) FROM appointments")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(appointments))
	if appointments > 0 {
		return
	}
	mock.ExpectQuery(q("SELECT COUNT(*) FROM work_orders WHERE scheduled_date = $1 AND start_hour < $2 AND end_hour > $3")).
		WithArgs("2030-01-15", 10, 8, "cancelled").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(orders))
}

func TestBookingStore_ConfirmBooking_Success(t *testing.T) {
	s, mock := newTestStore(t)
	apt, wo := pendingBooking()

	mock.ExpectBegin()
	expectSlotChecks(mock, 0, 0)
	mock.ExpectExec(q("INSERT INTO appointments")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("INSERT INTO work_orders")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("UPDATE appointments SET status = $1, work_order_id = $2, work_order_number = $3")).
		WithArgs("confirmed", "wo-1", "OS-20300115-ABC123", "apt-1", "pending").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := s.ConfirmBooking(context.Background(), apt, wo)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, apt.Status)
	assert.Equal(t, "wo-1", apt.WorkOrderID)
	assert.Equal(t, "OS-20300115-ABC123", apt.WorkOrderNumber)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingStore_ConfirmBooking_Failures(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(mock sqlmock.Sqlmock)
		wantErr error
	}{
		{
			name: "appointment inside slot",
			setup: func(mock sqlmock.Sqlmock) {
				expectSlotChecks(mock, 1, 0)
			},
			wantErr: ErrSlotTaken,
		},
		{
			name: "overlapping work order",
			setup: func(mock sqlmock.Sqlmock) {
				expectSlotChecks(mock, 0, 1)
			},
			wantErr: ErrSlotTaken,
		},
		{
			name: "work order insert fails",
			setup: func(mock sqlmock.Sqlmock) {
				expectSlotChecks(mock, 0, 0)
				mock.ExpectExec(q("INSERT INTO appointments")).WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(q("INSERT INTO work_orders")).WillReturnError(errors.New("disk full"))
			},
		},
		{
			name: "appointment no longer pending",
			setup: func(mock sqlmock.Sqlmock) {
				expectSlotChecks(mock, 0, 0)
				mock.ExpectExec(q("INSERT INTO appointments")).WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(q("INSERT INTO work_orders")).WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(q("UPDATE appointments")).WillReturnResult(sqlmock.NewResult(0, 0))
			},
			wantErr: ErrNotPending,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newTestStore(t)
			apt, wo := pendingBooking()

			mock.ExpectBegin()
			tt.setup(mock)
			mock.ExpectRollback()

			err := s.ConfirmBooking(context.Background(), apt, wo)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Equal(t, models.StatusPending, apt.Status, "appointment stays pending on failure")
			assert.Empty(t, apt.WorkOrderID)

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestBookingStore_ConfirmBooking_RejectsEmptyHourRange(t *testing.T) {
	s, mock := newTestStore(t)
	apt, wo := pendingBooking()
	wo.EndHour = wo.StartHour

	err := s.ConfirmBooking(context.Background(), apt, wo)
	assert.ErrorIs(t, err, ErrInvalidWorkSlot)
	assert.NoError(t, mock.ExpectationsWereMet())
}
