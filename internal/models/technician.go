// internal/models/technician.go
package models

import "strings"

// SpecialtyGeneral marks a technician who takes any equipment at reduced fit.
const SpecialtyGeneral = "general"

type Technician struct {
	ID              string         `json:"id" validate:"required"`
	Name            string         `json:"name" validate:"required"`
	Email           string         `json:"email,omitempty" validate:"omitempty,email"`
	Phone           string         `json:"phone,omitempty"`
	Specialties     []string       `json:"specialties" validate:"required,min=1,dive,required"`
	PreferredZones  []LogisticZone `json:"preferredZones" validate:"dive,zone"`
	ExperienceYears int            `json:"experienceYears" validate:"gte=0"`
	Rating          float64        `json:"rating" validate:"gte=0,lte=5"`
	DailyCapacity   int            `json:"dailyCapacity" validate:"gte=0"`
	Active          bool           `json:"active"`
}

// NewTechnician normalizes specialty tags and rejects records missing required fields.
func NewTechnician(t Technician) (*Technician, error) {
	t.ID = strings.TrimSpace(t.ID)
	t.Name = strings.TrimSpace(t.Name)
	t.Specialties = normalizeTags(t.Specialties)

	if err := validate.Struct(t); err != nil {
		return nil, validationError("technician", err)
	}
	return &t, nil
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = NormalizeEquipment(tag)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// HasSpecialty reports whether tag is in the technician's specialty set.
func (t Technician) HasSpecialty(tag string) bool {
	for _, s := range t.Specialties {
		if s == tag {
			return true
		}
	}
	return false
}

// ZoneRank returns the index of zone in the preference list, or -1.
func (t Technician) ZoneRank(zone LogisticZone) int {
	for i, z := range t.PreferredZones {
		if z == zone {
			return i
		}
	}
	return -1
}

// TechnicianScore is the per-request compatibility result for one technician.
type TechnicianScore struct {
	Technician Technician `json:"technician"`
	Score      float64    `json:"score"`
	Rationale  string     `json:"rationale"`
}
