// internal/workers/scheduling/score-technicians/scorer.go
package scoretechnicians

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"fieldservice-workers/internal/models"
)

const (
	weightSpecialty  = 0.40
	weightZone       = 0.25
	weightExperience = 0.15
	weightRating     = 0.10
	weightCapacity   = 0.10

	urgencyBonus = 10.0
)

// Breakdown holds the unweighted factor points behind a score.
type Breakdown struct {
	Specialty    float64 `json:"specialty"`
	Matched      int     `json:"matchedEquipment"`
	Zone         float64 `json:"zone"`
	Experience   float64 `json:"experience"`
	Rating       float64 `json:"rating"`
	Capacity     float64 `json:"capacity"`
	UrgencyBonus float64 `json:"urgencyBonus"`
}

// Total is the weighted sum plus the unweighted urgency bonus.
func (b Breakdown) Total() float64 {
	return b.Specialty*weightSpecialty +
		b.Zone*weightZone +
		b.Experience*weightExperience +
		b.Rating*weightRating +
		b.Capacity*weightCapacity +
		b.UrgencyBonus
}

// Ranking is the best candidate plus runner-ups, best first.
type Ranking struct {
	Best         models.TechnicianScore   `json:"bestTechnician"`
	Alternatives []models.TechnicianScore `json:"alternatives"`
	Candidates   int                      `json:"candidateCount"`
}

type Scorer struct {
	maxAlternatives int
}

func NewScorer(maxAlternatives int) *Scorer {
	if maxAlternatives < 0 {
		maxAlternatives = 0
	}
	return &Scorer{maxAlternatives: maxAlternatives}
}

// Breakdown computes the factor points for one technician.
func (s *Scorer) Breakdown(t models.Technician, equipment []string, zone models.LogisticZone, urgent bool) Breakdown {
	var b Breakdown

	if len(equipment) > 0 {
		general := t.HasSpecialty(models.SpecialtyGeneral)
		total := 0.0
		for _, eq := range equipment {
			switch {
			case matchesSpecialty(t.Specialties, eq):
				total += 10
				b.Matched++
			case general:
				total += 5
			}
		}
		b.Specialty = total / float64(len(equipment))
	}

	rank := t.ZoneRank(zone)
	switch {
	case rank == 0:
		b.Zone = 25
	case rank > 0:
		b.Zone = 15
	default:
		b.Zone = 5
	}

	b.Experience = math.Min(float64(t.ExperienceYears)*2, 20)
	b.Rating = t.Rating * 4
	b.Capacity = math.Min(float64(t.DailyCapacity)*2, 20)

	if urgent && rank >= 0 && rank < 2 {
		b.UrgencyBonus = urgencyBonus
	}
	return b
}

// Score rates one technician. Inactive technicians score 0.
func (s *Scorer) Score(t models.Technician, equipment []string, zone models.LogisticZone, urgent bool) models.TechnicianScore {
	if !t.Active {
		return models.TechnicianScore{Technician: t, Score: 0, Rationale: "inactive technician"}
	}
	b := s.Breakdown(t, equipment, zone, urgent)
	return models.TechnicianScore{
		Technician: t,
		Score:      math.Round(b.Total()*100) / 100,
		Rationale:  rationale(t, b, len(equipment), zone),
	}
}

// Rank scores the active technicians and orders them by score, keeping list
// order among equal scores. With no active technician the fallback record is best.
func (s *Scorer) Rank(techs []models.Technician, equipment []string, zone models.LogisticZone, urgent bool) Ranking {
	scored := make([]models.TechnicianScore, 0, len(techs))
	for _, t := range techs {
		if !t.Active {
			continue
		}
		scored = append(scored, s.Score(t, equipment, zone, urgent))
	}

	if len(scored) == 0 {
		return Ranking{Best: FallbackScore(), Alternatives: []models.TechnicianScore{}}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	alts := scored[1:]
	if len(alts) > s.maxAlternatives {
		alts = alts[:s.maxAlternatives]
	}
	return Ranking{
		Best:         scored[0],
		Alternatives: append([]models.TechnicianScore{}, alts...),
		Candidates:   len(scored),
	}
}

// FallbackScore is returned when there is nobody to rank.
func FallbackScore() models.TechnicianScore {
	return models.TechnicianScore{
		Technician: models.Technician{
			ID:          "unassigned",
			Name:        "Service team",
			Specialties: []string{models.SpecialtyGeneral},
		},
		Score:     0,
		Rationale: "no active technician available; the service team will assign one manually",
	}
}

func matchesSpecialty(specialties []string, equipment string) bool {
	eq := models.NormalizeEquipment(equipment)
	if eq == "" {
		return false
	}
	for _, tag := range specialties {
		tag = models.NormalizeEquipment(tag)
		if tag == "" || tag == models.SpecialtyGeneral {
			continue
		}
		if strings.Contains(eq, tag) || strings.Contains(tag, eq) {
			return true
		}
	}
	return false
}

func rationale(t models.Technician, b Breakdown, equipmentCount int, zone models.LogisticZone) string {
	parts := make([]string, 0, 5)

	switch {
	case equipmentCount > 0 && b.Matched == equipmentCount:
		parts = append(parts, "specialist for all requested equipment")
	case b.Matched > 0:
		parts = append(parts, fmt.Sprintf("specialist for %d of %d items", b.Matched, equipmentCount))
	case t.HasSpecialty(models.SpecialtyGeneral):
		parts = append(parts, "general technician")
	default:
		parts = append(parts, "no matching specialty")
	}

	switch rank := t.ZoneRank(zone); {
	case rank == 0:
		parts = append(parts, fmt.Sprintf("primary zone %s", zone))
	case rank > 0:
		parts = append(parts, fmt.Sprintf("also covers zone %s", zone))
	default:
		parts = append(parts, fmt.Sprintf("outside preferred zones for %s", zone))
	}

	parts = append(parts, fmt.Sprintf("%d years experience", t.ExperienceYears))
	parts = append(parts, fmt.Sprintf("rating %.1f", t.Rating))
	if b.UrgencyBonus > 0 {
		parts = append(parts, "urgent priority")
	}
	return strings.Join(parts, ", ")
}
