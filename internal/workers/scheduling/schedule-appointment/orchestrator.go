// internal/workers/scheduling/schedule-appointment/orchestrator.go
package scheduleappointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	apperrors "fieldservice-workers/internal/common/errors"
	"fieldservice-workers/internal/common/logger"
	"fieldservice-workers/internal/common/metrics"
	"fieldservice-workers/internal/models"
	"fieldservice-workers/internal/store"
	classifyservicezone "fieldservice-workers/internal/workers/scheduling/classify-service-zone"
	planavailability "fieldservice-workers/internal/workers/scheduling/plan-availability"
	scoretechnicians "fieldservice-workers/internal/workers/scheduling/score-technicians"

	"github.com/google/uuid"
	"github.com/zoobzio/clockz"
)

const slotHours = 2

var localSlotLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// QuoteSessions holds issued quotes between the two phases.
type QuoteSessions interface {
	Save(ctx context.Context, q *models.Quote) error
	Get(ctx context.Context, id string) (*models.Quote, error)
	Delete(ctx context.Context, id string) error
	TTL() time.Duration
}

type SlotLocks interface {
	Acquire(ctx context.Context, start time.Time, hours int) (*store.Lock, error)
}

type BookingWriter interface {
	ConfirmBooking(ctx context.Context, apt *models.Appointment, wo *models.WorkOrder) error
}

// Orchestrator runs the quote and confirm phases over the classifier, the
// technician directory and scorer, and the availability planner.
type Orchestrator struct {
	config     *Config
	classifier *classifyservicezone.Classifier
	directory  *scoretechnicians.Directory
	scorer     *scoretechnicians.Scorer
	planner    *planavailability.Planner
	quotes     QuoteSessions
	locks      SlotLocks
	bookings   BookingWriter
	clock      clockz.Clock
	logger     logger.Logger
}

type Dependencies struct {
	Classifier *classifyservicezone.Classifier
	Directory  *scoretechnicians.Directory
	Scorer     *scoretechnicians.Scorer
	Planner    *planavailability.Planner
	Quotes     QuoteSessions
	Locks      SlotLocks
	Bookings   BookingWriter
	Clock      clockz.Clock
}

func NewOrchestrator(cfg *Config, deps Dependencies, log logger.Logger) *Orchestrator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	clock := deps.Clock
	if clock == nil {
		clock = clockz.RealClock
	}
	return &Orchestrator{
		config:     cfg,
		classifier: deps.Classifier,
		directory:  deps.Directory,
		scorer:     deps.Scorer,
		planner:    deps.Planner,
		quotes:     deps.Quotes,
		locks:      deps.Locks,
		bookings:   deps.Bookings,
		clock:      clock,
		logger:     log.WithFields(map[string]interface{}{"component": "booking-orchestrator"}),
	}
}

// Process dispatches on the presence of a chosen slot.
func (o *Orchestrator) Process(ctx context.Context, input *Input) (*Output, error) {
	if err := validateRequest(input); err != nil {
		return nil, err
	}
	if input.Confirming() {
		return o.Confirm(ctx, input)
	}
	return o.Quote(ctx, input)
}

func (o *Orchestrator) now() time.Time {
	return o.clock.Now().In(o.config.Location)
}

// ==========================
// Quoting
// ==========================

// Quote ranks technicians and offers slots without touching the booking store.
func (o *Orchestrator) Quote(ctx context.Context, input *Input) (*Output, error) {
	items := models.CompactEquipment(input.Equipment)
	equipment := models.EquipmentNames(items)
	urgent := input.Urgent.Bool()

	zone := o.classifier.Classify(ctx, input.Address)

	techs, fallback := o.directory.ActiveTechnicians(ctx)
	ranking := o.scorer.Rank(techs, equipment, zone.Zone, urgent)

	window := o.planner.ResolveWindow(zone.Zone, urgent, input.PreferredDate)
	slots := o.planner.Plan(ctx, window)
	if len(slots) > o.config.MaxSlots {
		slots = slots[:o.config.MaxSlots]
	}

	best := ranking.Best
	out := &Output{
		Phase:                PhaseQuote,
		Zone:                 zone.Zone,
		ClassificationMethod: string(zone.Method),
		DistanceKm:           zone.DistanceKm,
		Coordinates:          zone.Coordinates,
		Technician:           &best,
		Alternatives:         ranking.Alternatives,
		Slots:                slots,
		HasAvailability:      len(slots) > 0,
	}

	if len(slots) == 0 {
		out.Message = renderNoAvailability(input.CustomerName, window.Days)
		o.logger.Info("no availability in window", map[string]interface{}{
			"zone":        zone.Zone,
			"windowStart": window.Start.Format("2006-01-02"),
			"windowDays":  window.Days,
		})
		return out, nil
	}

	out.Message = renderQuote(input.CustomerName, best, equipment, zone.Zone, slots)
	o.issueQuote(ctx, input, out, equipment, urgent)

	o.logger.Info("quote prepared", map[string]interface{}{
		"quoteId":        out.QuoteID,
		"zone":           zone.Zone,
		"method":         zone.Method,
		"technicianId":   best.Technician.ID,
		"score":          best.Score,
		"slots":          len(slots),
		"fallbackRoster": fallback,
	})
	return out, nil
}

// issueQuote stores the quote for the confirm phase. A session store failure
// leaves the quote without an id; confirmation then re-scores.
func (o *Orchestrator) issueQuote(ctx context.Context, input *Input, out *Output, equipment []string, urgent bool) {
	if o.quotes == nil {
		return
	}
	now := o.now()
	alternatives := make([]string, 0, len(out.Alternatives))
	for _, alt := range out.Alternatives {
		alternatives = append(alternatives, alt.Technician.ID)
	}

	q := &models.Quote{
		ID:            uuid.NewString(),
		CustomerPhone: normalizePhone(input.CustomerPhone),
		Zone:          out.Zone,
		Urgent:        urgent,
		Equipment:     equipment,
		Technician:    out.Technician.Technician,
		Alternatives:  alternatives,
		Slots:         out.Slots,
		CreatedAt:     now,
		ExpiresAt:     now.Add(o.quotes.TTL()),
	}
	if err := o.quotes.Save(ctx, q); err != nil {
		o.logger.Warn("quote session not stored", map[string]interface{}{
			"error": err,
		})
		return
	}
	out.QuoteID = q.ID
	out.QuoteExpiresAt = q.ExpiresAt.Format(time.RFC3339)
}

// ==========================
// Confirming
// ==========================

// Confirm books the chosen slot: appointment and work order are written in one
// transaction while the slot's hour buckets are locked.
func (o *Orchestrator) Confirm(ctx context.Context, input *Input) (*Output, error) {
	slot, err := o.parseChosenSlot(input.ChosenSlot)
	if err != nil {
		return nil, err
	}

	items := models.CompactEquipment(input.Equipment)
	equipment := models.EquipmentNames(items)
	urgent := input.Urgent.Bool()

	tech, zone, err := o.resolveAssignment(ctx, input, slot, equipment, urgent)
	if err != nil {
		return nil, err
	}

	lock, err := o.lockSlot(ctx, slot, tech.ID)
	if err != nil {
		return nil, err
	}
	if lock != nil {
		defer lock.Release(context.Background())
	}

	now := o.now()
	modes := make([]models.ServiceMode, len(items))
	for i, it := range items {
		modes[i] = it.ServiceMode
	}

	apt, err := models.NewAppointment(models.Appointment{
		ID:             uuid.NewString(),
		CustomerName:   strings.TrimSpace(input.CustomerName),
		CustomerPhone:  normalizePhone(input.CustomerPhone),
		CustomerEmail:  strings.TrimSpace(input.CustomerEmail),
		Address:        strings.TrimSpace(input.Address),
		Zone:           zone,
		Equipment:      equipment,
		Problems:       models.Problems(items),
		ServiceModes:   modes,
		Urgent:         urgent,
		ScheduledAt:    slot.Start(),
		TechnicianID:   tech.ID,
		TechnicianName: tech.Name,
		CreatedAt:      now,
	})
	if err != nil {
		return nil, apperrors.NewInvalidRequestError(err.Error())
	}

	wo, err := models.NewWorkOrder(models.WorkOrder{
		ID:            uuid.NewString(),
		OrderNumber:   models.NewOrderNumber(now),
		AppointmentID: apt.ID,
		TechnicianID:  tech.ID,
		ScheduledDate: slot.Date,
		StartHour:     slot.StartHour,
		EndHour:       slot.EndHour,
		EstimatedCost: o.config.Pricing.Estimate(equipment),
		Description:   describe(items),
		CreatedAt:     now,
	})
	if err != nil {
		return nil, apperrors.NewInvalidRequestError(err.Error())
	}

	if err := o.bookings.ConfirmBooking(ctx, apt, wo); err != nil {
		if errors.Is(err, store.ErrSlotTaken) {
			metrics.BookingConflicts.WithLabelValues("booked").Inc()
			return nil, apperrors.NewSlotUnavailableError(tech.ID, slot.Start())
		}
		return nil, apperrors.NewBookingWriteFailedError(err)
	}
	metrics.BookingsConfirmed.WithLabelValues(zone.String()).Inc()

	if input.QuoteID != "" && o.quotes != nil {
		if err := o.quotes.Delete(ctx, input.QuoteID); err != nil {
			o.logger.Warn("quote session not removed", map[string]interface{}{
				"quoteId": input.QuoteID,
				"error":   err,
			})
		}
	}

	o.logger.Info("appointment confirmed", map[string]interface{}{
		"appointmentId": apt.ID,
		"orderNumber":   wo.OrderNumber,
		"technicianId":  tech.ID,
		"scheduledAt":   apt.ScheduledAt.Format(time.RFC3339),
		"zone":          zone,
	})

	return &Output{
		Phase:           PhaseConfirmed,
		Message:         renderConfirmation(apt, wo, slot),
		Zone:            zone,
		Technician:      &models.TechnicianScore{Technician: tech},
		QuoteID:         input.QuoteID,
		Slots:           []models.Slot{slot},
		HasAvailability: true,
		Appointment:     apt,
		WorkOrder:       wo,
	}, nil
}

// resolveAssignment uses the quoted technician when a quote id is supplied,
// otherwise re-runs classification and scoring. A quoted confirmation must
// repeat the quoted phone and equipment and pick one of the offered slots.
func (o *Orchestrator) resolveAssignment(ctx context.Context, input *Input, slot models.Slot, equipment []string, urgent bool) (models.Technician, models.LogisticZone, error) {
	if id := strings.TrimSpace(input.QuoteID); id != "" {
		if o.quotes == nil {
			return models.Technician{}, "", apperrors.NewQuoteNotFoundError(id)
		}
		q, err := o.quotes.Get(ctx, id)
		if errors.Is(err, store.ErrQuoteNotFound) {
			return models.Technician{}, "", apperrors.NewQuoteNotFoundError(id)
		}
		if err != nil {
			return models.Technician{}, "", apperrors.NewQuoteStoreFailedError(err)
		}
		if q.CustomerPhone != normalizePhone(input.CustomerPhone) || !q.Covers(equipment) {
			return models.Technician{}, "", apperrors.NewQuoteMismatchError(id)
		}
		if !q.Offers(slot.Start()) {
			return models.Technician{}, "", apperrors.NewInvalidSlotError(input.ChosenSlot,
				fmt.Errorf("slot was not offered in quote %s", id))
		}
		return q.Technician, q.Zone, nil
	}

	zone := o.classifier.Classify(ctx, input.Address)
	techs, _ := o.directory.ActiveTechnicians(ctx)
	ranking := o.scorer.Rank(techs, equipment, zone.Zone, urgent)
	return ranking.Best.Technician, zone.Zone, nil
}

func (o *Orchestrator) lockSlot(ctx context.Context, slot models.Slot, techID string) (*store.Lock, error) {
	if o.locks == nil {
		return nil, nil
	}
	lock, err := o.locks.Acquire(ctx, slot.Start(), slot.EndHour-slot.StartHour)
	if errors.Is(err, store.ErrSlotLocked) {
		metrics.BookingConflicts.WithLabelValues("locked").Inc()
		return nil, apperrors.NewSlotUnavailableError(techID, slot.Start())
	}
	if err != nil {
		return nil, apperrors.NewExternalServiceError("redis", err)
	}
	return lock, nil
}

// parseChosenSlot accepts RFC 3339 or a local date-time and requires a start
// the planner could have offered: a weekday, on the hour, in the future.
func (o *Orchestrator) parseChosenSlot(value string) (models.Slot, error) {
	value = strings.TrimSpace(value)
	loc := o.config.Location

	start, err := time.Parse(time.RFC3339, value)
	if err == nil {
		start = start.In(loc)
	} else {
		parsed := false
		for _, layout := range localSlotLayouts {
			if t, lerr := time.ParseInLocation(layout, value, loc); lerr == nil {
				start, parsed = t, true
				break
			}
		}
		if !parsed {
			return models.Slot{}, apperrors.NewInvalidSlotError(value, err)
		}
	}

	if start.Minute() != 0 || start.Second() != 0 || start.Nanosecond() != 0 {
		return models.Slot{}, apperrors.NewInvalidSlotError(value, fmt.Errorf("slots start on the hour"))
	}
	if wd := start.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return models.Slot{}, apperrors.NewInvalidSlotError(value, fmt.Errorf("no visits on weekends"))
	}
	if !isStartHour(start.Hour()) {
		return models.Slot{}, apperrors.NewInvalidSlotError(value, fmt.Errorf("outside business hours"))
	}
	if start.Before(o.now()) {
		return models.Slot{}, apperrors.NewInvalidSlotError(value, fmt.Errorf("slot is in the past"))
	}

	y, m, d := start.Date()
	return models.Slot{
		Date:      time.Date(y, m, d, 0, 0, 0, 0, loc),
		StartHour: start.Hour(),
		EndHour:   start.Hour() + slotHours,
	}, nil
}

func isStartHour(h int) bool {
	for _, c := range planavailability.CandidateStartHours() {
		if c == h {
			return true
		}
	}
	return false
}

func validateRequest(input *Input) error {
	var missing []string
	if strings.TrimSpace(input.CustomerName) == "" {
		missing = append(missing, "customerName")
	}
	if strings.TrimSpace(input.Address) == "" {
		missing = append(missing, "address")
	}
	if normalizePhone(input.CustomerPhone) == "" {
		missing = append(missing, "customerPhone")
	}
	if len(input.Equipment) == 0 || strings.TrimSpace(input.Equipment[0].Equipment) == "" {
		missing = append(missing, "equipment[0]")
	}
	if len(missing) > 0 {
		return apperrors.NewInvalidRequestError("missing required fields: " + strings.Join(missing, ", "))
	}
	return nil
}

func normalizePhone(phone string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, phone)
}

func describe(items []models.EquipmentItem) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		line := fmt.Sprintf("%s (%s)", it.Equipment, it.ServiceMode)
		if it.Problem != "" {
			line += ": " + it.Problem
		}
		parts = append(parts, line)
	}
	return strings.Join(parts, "; ")
}
