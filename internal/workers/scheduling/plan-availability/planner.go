// internal/workers/scheduling/plan-availability/planner.go
package planavailability

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"fieldservice-workers/internal/common/logger"
	"fieldservice-workers/internal/common/metrics"
	"fieldservice-workers/internal/models"

	"github.com/zoobzio/clockz"
)

const (
	dayStartHour   = 8
	dayEndHour     = 18
	lunchStartHour = 12
	lunchEndHour   = 13
	slotHours      = 2

	urgentPriorityBonus = 20
	dateLayout          = "2006-01-02"
)

// BookingReader is the read side of the booking store used for conflict checks.
type BookingReader interface {
	AppointmentsBetween(ctx context.Context, from, to time.Time) ([]models.Appointment, error)
	WorkOrdersOn(ctx context.Context, date time.Time) ([]models.WorkOrder, error)
}

// Window is the range of days searched for free slots. Slots starting before
// NotBefore are skipped.
type Window struct {
	Start     time.Time
	Days      int
	Zone      models.LogisticZone
	Urgent    bool
	NotBefore time.Time
}

type Planner struct {
	config *Config
	reader BookingReader
	clock  clockz.Clock
	logger logger.Logger
}

func NewPlanner(cfg *Config, reader BookingReader, clock clockz.Clock, log logger.Logger) *Planner {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if clock == nil {
		clock = clockz.RealClock
	}
	return &Planner{
		config: cfg,
		reader: reader,
		clock:  clock,
		logger: log.WithFields(map[string]interface{}{"component": "availability-planner"}),
	}
}

// Now is the current time in the service time zone.
func (p *Planner) Now() time.Time {
	return p.clock.Now().In(p.config.Location)
}

// ResolveWindow picks the search window. Urgent requests start now and span
// UrgentDays. Others start on preferredDate (YYYY-MM-DD) when it parses,
// otherwise tomorrow, and span StandardDays.
func (p *Planner) ResolveWindow(zone models.LogisticZone, urgent bool, preferredDate string) Window {
	now := p.Now()
	w := Window{Zone: zone, Urgent: urgent, NotBefore: now}

	if urgent {
		w.Start = now
		w.Days = p.config.UrgentDays
		return w
	}

	w.Days = p.config.StandardDays
	if d, err := time.ParseInLocation(dateLayout, strings.TrimSpace(preferredDate), p.config.Location); err == nil {
		w.Start = d
		return w
	}
	w.Start = midnight(now).AddDate(0, 0, 1)
	return w
}

// Plan returns the free slots in the window ordered by descending priority.
// Equal priorities keep date then hour order. An empty result is not an error.
func (p *Planner) Plan(ctx context.Context, w Window) []models.Slot {
	slots := make([]models.Slot, 0)
	first := midnight(w.Start.In(p.config.Location))

	for i := 0; i < w.Days; i++ {
		day := first.AddDate(0, 0, i)
		if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			continue
		}

		candidates := p.candidates(day, w)
		if len(candidates) == 0 {
			continue
		}

		appointments, orders := p.bookingsOn(ctx, day)
		for _, slot := range candidates {
			if conflicts(slot, appointments, orders) {
				continue
			}
			slots = append(slots, slot)
		}
	}

	sort.SliceStable(slots, func(i, j int) bool {
		return slots[i].Priority > slots[j].Priority
	})

	metrics.SlotsOffered.WithLabelValues(w.Zone.String(), strconv.FormatBool(w.Urgent)).Observe(float64(len(slots)))
	p.logger.Debug("availability planned", map[string]interface{}{
		"windowStart": first.Format(dateLayout),
		"days":        w.Days,
		"zone":        w.Zone,
		"urgent":      w.Urgent,
		"slots":       len(slots),
	})
	return slots
}

func (p *Planner) candidates(day time.Time, w Window) []models.Slot {
	var out []models.Slot
	for _, h := range CandidateStartHours() {
		slot := models.Slot{Date: day, StartHour: h, EndHour: h + slotHours}
		if !w.NotBefore.IsZero() && slot.Start().Before(w.NotBefore) {
			continue
		}
		slot.Priority = Priority(w.Zone, h, w.Urgent)
		out = append(out, slot)
	}
	return out
}

// bookingsOn reads both booking sources for one day. A failed read counts as
// no bookings for that source.
func (p *Planner) bookingsOn(ctx context.Context, day time.Time) ([]models.Appointment, []models.WorkOrder) {
	if p.reader == nil {
		return nil, nil
	}

	appointments, err := p.reader.AppointmentsBetween(ctx, day, day.AddDate(0, 0, 1))
	if err != nil {
		p.logger.Warn("appointment read failed, treating day as free", map[string]interface{}{
			"date":  day.Format(dateLayout),
			"error": err,
		})
		appointments = nil
	}

	orders, err := p.reader.WorkOrdersOn(ctx, day)
	if err != nil {
		p.logger.Warn("work order read failed, treating day as free", map[string]interface{}{
			"date":  day.Format(dateLayout),
			"error": err,
		})
		orders = nil
	}
	return appointments, orders
}

func conflicts(slot models.Slot, appointments []models.Appointment, orders []models.WorkOrder) bool {
	for _, a := range appointments {
		if slot.Contains(a.ScheduledAt) {
			return true
		}
	}
	for _, o := range orders {
		if o.OverlapsHours(slot.StartHour, slot.EndHour) {
			return true
		}
	}
	return false
}

// CandidateStartHours lists the starts whose two-hour window fits the workday
// without touching lunch.
func CandidateStartHours() []int {
	hours := make([]int, 0, dayEndHour-dayStartHour)
	for h := dayStartHour; h+slotHours <= dayEndHour; h++ {
		if h < lunchEndHour && h+slotHours > lunchStartHour {
			continue
		}
		hours = append(hours, h)
	}
	return hours
}

// Priority biases zone A to mornings, B to early afternoon and C to late afternoon.
func Priority(zone models.LogisticZone, startHour int, urgent bool) int {
	in := func(lo, hi int) bool { return startHour >= lo && startHour < hi }

	p := 0
	switch zone {
	case models.ZoneA:
		if in(8, 12) {
			p = 10
		} else if in(13, 15) {
			p = 5
		}
	case models.ZoneB:
		if in(13, 16) {
			p = 10
		} else if in(8, 12) {
			p = 5
		}
	case models.ZoneC:
		if in(14, 17) {
			p = 10
		} else if in(8, 13) {
			p = 3
		}
	}
	if urgent {
		p += urgentPriorityBonus
	}
	return p
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
