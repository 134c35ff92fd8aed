// internal/models/slot.go
package models

import (
	"encoding/json"
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// Slot is a candidate visit window on a single day. Date carries the service
// time zone; hours are local wall-clock hours.
type Slot struct {
	Date      time.Time
	StartHour int
	EndHour   int
	Priority  int
}

func (s Slot) Start() time.Time {
	y, m, d := s.Date.Date()
	return time.Date(y, m, d, s.StartHour, 0, 0, 0, s.Date.Location())
}

func (s Slot) End() time.Time {
	y, m, d := s.Date.Date()
	return time.Date(y, m, d, s.EndHour, 0, 0, 0, s.Date.Location())
}

// Contains reports whether t falls in [Start, End).
func (s Slot) Contains(t time.Time) bool {
	return !t.Before(s.Start()) && t.Before(s.End())
}

// Label is the human-readable form used in rendered messages.
func (s Slot) Label() string {
	return fmt.Sprintf("%s %s, %02d:00-%02d:00",
		s.Date.Weekday().String()[:3], s.Date.Format("02/01/2006"), s.StartHour, s.EndHour)
}

type slotJSON struct {
	Date      string `json:"date"`
	StartHour int    `json:"startHour"`
	EndHour   int    `json:"endHour"`
	Priority  int    `json:"priority"`
	Start     string `json:"start"`
	Label     string `json:"label"`
}

func (s Slot) MarshalJSON() ([]byte, error) {
	return json.Marshal(slotJSON{
		Date:      s.Date.Format(dateLayout),
		StartHour: s.StartHour,
		EndHour:   s.EndHour,
		Priority:  s.Priority,
		Start:     s.Start().Format(time.RFC3339),
		Label:     s.Label(),
	})
}

// UnmarshalJSON restores the slot from its start timestamp so the zone offset survives.
func (s *Slot) UnmarshalJSON(data []byte) error {
	var raw slotJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	start, err := time.Parse(time.RFC3339, raw.Start)
	if err != nil {
		return fmt.Errorf("slot start: %w", err)
	}
	y, m, d := start.Date()
	s.Date = time.Date(y, m, d, 0, 0, 0, 0, start.Location())
	s.StartHour = raw.StartHour
	s.EndHour = raw.EndHour
	s.Priority = raw.Priority
	return nil
}
