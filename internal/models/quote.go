// internal/models/quote.go
package models

import "time"

// Quote is the server-held record of a quoting response. A confirmation that
// carries its ID books against the technician chosen here.
type Quote struct {
	ID            string       `json:"id"`
	CustomerPhone string       `json:"customerPhone"`
	Zone          LogisticZone `json:"zone"`
	Urgent        bool         `json:"urgent"`
	Equipment     []string     `json:"equipment"`
	Technician    Technician   `json:"technician"`
	Alternatives  []string     `json:"alternatives,omitempty"`
	Slots         []Slot       `json:"slots"`
	CreatedAt     time.Time    `json:"createdAt"`
	ExpiresAt     time.Time    `json:"expiresAt"`
}

// Offers reports whether one of the quoted slots starts at t.
func (q *Quote) Offers(t time.Time) bool {
	for _, s := range q.Slots {
		if s.Start().Equal(t) {
			return true
		}
	}
	return false
}

// Covers reports whether equipment names the same appliances, in order, as
// the quoted request.
func (q *Quote) Covers(equipment []string) bool {
	if len(equipment) != len(q.Equipment) {
		return false
	}
	for i, name := range equipment {
		if NormalizeEquipment(name) != NormalizeEquipment(q.Equipment[i]) {
			return false
		}
	}
	return true
}
