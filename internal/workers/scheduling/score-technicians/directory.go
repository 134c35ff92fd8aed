// internal/workers/scheduling/score-technicians/directory.go
package scoretechnicians

import (
	"context"
	"encoding/json"
	"strings"

	"fieldservice-workers/internal/common/logger"
	"fieldservice-workers/internal/models"
	"fieldservice-workers/internal/store"
)

// TechnicianSource is the read side of the booking store used here.
type TechnicianSource interface {
	ActiveTechnicians(ctx context.Context) ([]store.TechnicianRecord, error)
}

// Directory turns stored technician rows into typed records. It reads the
// source on every call.
type Directory struct {
	source          TechnicianSource
	defaultCapacity int
	logger          logger.Logger
}

func NewDirectory(source TechnicianSource, defaultCapacity int, log logger.Logger) *Directory {
	if defaultCapacity <= 0 {
		defaultCapacity = 4
	}
	return &Directory{
		source:          source,
		defaultCapacity: defaultCapacity,
		logger:          log.WithFields(map[string]interface{}{"component": "technician-directory"}),
	}
}

// ActiveTechnicians returns the active technicians, or the built-in fallback
// set when the read fails or yields nothing usable. The bool reports the fallback.
func (d *Directory) ActiveTechnicians(ctx context.Context) ([]models.Technician, bool) {
	if d.source == nil {
		return FallbackTechnicians(), true
	}

	records, err := d.source.ActiveTechnicians(ctx)
	if err != nil {
		d.logger.Warn("technician read failed, using fallback set", map[string]interface{}{
			"error": err,
		})
		return FallbackTechnicians(), true
	}

	techs := make([]models.Technician, 0, len(records))
	for _, rec := range records {
		tech, err := d.FromRecord(rec)
		if err != nil {
			d.logger.Warn("skipping technician record", map[string]interface{}{
				"technicianId": rec.ID,
				"error":        err,
			})
			continue
		}
		techs = append(techs, *tech)
	}

	if len(techs) == 0 {
		d.logger.Warn("no active technicians found, using fallback set", nil)
		return FallbackTechnicians(), true
	}
	return techs, false
}

// FromRecord derives specialties, zones and capacity from a stored row. A
// malformed email is dropped rather than the technician.
func (d *Directory) FromRecord(rec store.TechnicianRecord) (*models.Technician, error) {
	specialties := ParseList(rec.Specialties.String)
	if len(specialties) == 0 {
		specialties = []string{models.SpecialtyGeneral}
	}

	var zones []models.LogisticZone
	for _, raw := range ParseList(rec.PreferredZones.String) {
		zone, err := models.ParseZone(raw)
		if err != nil {
			continue
		}
		zones = append(zones, zone)
	}

	capacity := d.defaultCapacity
	if rec.DailyCapacity.Valid && rec.DailyCapacity.Int64 > 0 {
		capacity = int(rec.DailyCapacity.Int64)
	}

	email := strings.TrimSpace(rec.Email.String)
	if email != "" && !models.IsEmail(email) {
		d.logger.Warn("invalid technician email ignored", map[string]interface{}{
			"technicianId": rec.ID,
			"email":        email,
		})
		email = ""
	}

	return models.NewTechnician(models.Technician{
		ID:              rec.ID,
		Name:            rec.Name,
		Email:           email,
		Phone:           rec.Phone.String,
		Specialties:     specialties,
		PreferredZones:  zones,
		ExperienceYears: int(rec.ExperienceYears.Int64),
		Rating:          rec.Rating.Float64,
		DailyCapacity:   capacity,
		Active:          true,
	})
}

// ParseList reads a text column holding either a JSON array of strings or a
// comma-separated list.
func ParseList(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	if strings.HasPrefix(text, "[") {
		var items []string
		if err := json.Unmarshal([]byte(text), &items); err == nil {
			return trimAll(items)
		}
		text = strings.Trim(text, "[]")
	}

	parts := strings.Split(text, ",")
	for i, p := range parts {
		parts[i] = strings.Trim(strings.TrimSpace(p), `"'`)
	}
	return trimAll(parts)
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// FallbackTechnicians is the fixed roster used when the directory is unreadable.
func FallbackTechnicians() []models.Technician {
	return []models.Technician{
		{
			ID:              "fallback-carlos-silva",
			Name:            "Carlos Silva",
			Specialties:     []string{"fogão", "cooktop", "forno", models.SpecialtyGeneral},
			PreferredZones:  []models.LogisticZone{models.ZoneA, models.ZoneB},
			ExperienceYears: 8,
			Rating:          4.8,
			DailyCapacity:   4,
			Active:          true,
		},
		{
			ID:              "fallback-ana-souza",
			Name:            "Ana Souza",
			Specialties:     []string{"coifa", "depurador", "exaustor"},
			PreferredZones:  []models.LogisticZone{models.ZoneB, models.ZoneC},
			ExperienceYears: 6,
			Rating:          4.7,
			DailyCapacity:   3,
			Active:          true,
		},
		{
			ID:              "fallback-roberto-lima",
			Name:            "Roberto Lima",
			Specialties:     []string{models.SpecialtyGeneral, "lava-louças", "micro-ondas"},
			PreferredZones:  []models.LogisticZone{models.ZoneC, models.ZoneB, models.ZoneA},
			ExperienceYears: 10,
			Rating:          4.5,
			DailyCapacity:   5,
			Active:          true,
		},
	}
}
