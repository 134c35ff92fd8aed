// internal/workers/scheduling/score-technicians/models.go
package scoretechnicians

import "fieldservice-workers/internal/models"

type Input struct {
	Equipment []string    `json:"equipment"`
	Zone      string      `json:"zone"`
	Urgent    models.Flag `json:"urgent"`
}

type Output struct {
	BestTechnician models.TechnicianScore   `json:"bestTechnician"`
	Alternatives   []models.TechnicianScore `json:"alternatives"`
	CandidateCount int                      `json:"candidateCount"`
	FallbackRoster bool                     `json:"fallbackRoster"`
}
