// internal/workers/scheduling/score-technicians/handler_test.go
package scoretechnicians

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"fieldservice-workers/internal/common/database"
	"fieldservice-workers/internal/common/logger"
	"fieldservice-workers/internal/models"
	"fieldservice-workers/internal/store"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type testLogger struct {
	t *testing.T
}

func (tl *testLogger) Debug(msg string, fields map[string]interface{}) {
	tl.t.Logf("DEBUG: %s %v", msg, fields)
}

func (tl *testLogger) Info(msg string, fields map[string]interface{}) {
	tl.t.Logf("INFO: %s %v", msg, fields)
}

func (tl *testLogger) Warn(msg string, fields map[string]interface{}) {
	tl.t.Logf("WARN: %s %v", msg, fields)
}

func (tl *testLogger) Error(msg string, fields map[string]interface{}) {
	tl.t.Logf("ERROR: %s %v", msg, fields)
}

func (tl *testLogger) WithFields(fields map[string]interface{}) logger.Logger {
	return tl
}

func (tl *testLogger) WithError(err error) logger.Logger {
	return tl.WithFields(map[string]interface{}{"error": err})
}

func (tl *testLogger) With(fields map[string]interface{}) logger.Logger {
	return tl
}

func newTestLogger(t *testing.T) logger.Logger {
	return &testLogger{t: t}
}

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

var technicianColumns = []string{
	"id", "name", "email", "phone", "specialties", "preferred_zones",
	"experience_years", "rating", "daily_capacity",
}

func newTestStore(t *testing.T, db *sql.DB) *store.BookingStore {
	return store.NewBookingStore(db, database.RetryPolicy{MaxRetries: 0}, newTestLogger(t))
}

func newTestDirectory(t *testing.T, db *sql.DB) *Directory {
	return NewDirectory(newTestStore(t, db), 4, newTestLogger(t))
}

func createTestTechnician() models.Technician {
	return models.Technician{
		ID:              "tech-1",
		Name:            "Carlos",
		Specialties:     []string{"fogão"},
		PreferredZones:  []models.LogisticZone{models.ZoneA, models.ZoneB},
		ExperienceYears: 8,
		Rating:          4.8,
		DailyCapacity:   4,
		Active:          true,
	}
}

type failingSource struct{}

func (failingSource) ActiveTechnicians(ctx context.Context) ([]store.TechnicianRecord, error) {
	return nil, errors.New("connection refused")
}

// ==========================
// Scorer Tests
// ==========================

func TestScorer_Score(t *testing.T) {
	s := NewScorer(2)
	tech := createTestTechnician()

	tests := []struct {
		name      string
		equipment []string
		zone      models.LogisticZone
		urgent    bool
		expected  float64
	}{
		// 10*.4 + 25*.25 + 16*.15 + 19.2*.1 + 8*.1
		{"specialist primary zone", []string{"fogão"}, models.ZoneA, false, 15.37},
		{"urgent adds flat bonus", []string{"fogão"}, models.ZoneA, true, 25.37},
		// zone 15 instead of 25
		{"secondary zone", []string{"fogão"}, models.ZoneB, false, 12.87},
		{"secondary zone urgent", []string{"fogão"}, models.ZoneB, true, 22.87},
		// zone 5, no bonus outside preferences
		{"outside zones urgent", []string{"Fogão 4 bocas"}, models.ZoneC, true, 10.37},
		// specialty averaged: (10 + 0) / 2
		{"half specialty", []string{"fogão", "geladeira"}, models.ZoneA, false, 13.37},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Score(tech, tt.equipment, tt.zone, tt.urgent)
			assert.InDelta(t, tt.expected, got.Score, 0.001)
			assert.NotEmpty(t, got.Rationale)
			assert.Equal(t, tech.ID, got.Technician.ID)
		})
	}
}

func TestScorer_Breakdown_Specialty(t *testing.T) {
	s := NewScorer(2)

	general := createTestTechnician()
	general.Specialties = []string{models.SpecialtyGeneral}
	b := s.Breakdown(general, []string{"coifa"}, models.ZoneA, false)
	assert.Equal(t, 5.0, b.Specialty)
	assert.Equal(t, 0, b.Matched)

	none := createTestTechnician()
	none.Specialties = []string{"forno"}
	b = s.Breakdown(none, []string{"coifa"}, models.ZoneA, false)
	assert.Equal(t, 0.0, b.Specialty)

	// substring either direction
	reverse := createTestTechnician()
	reverse.Specialties = []string{"micro-ondas panasonic"}
	b = s.Breakdown(reverse, []string{"Micro-ondas"}, models.ZoneA, false)
	assert.Equal(t, 10.0, b.Specialty)

	b = s.Breakdown(createTestTechnician(), nil, models.ZoneA, false)
	assert.Equal(t, 0.0, b.Specialty)
}

func TestScorer_Breakdown_Caps(t *testing.T) {
	s := NewScorer(2)
	tech := createTestTechnician()
	tech.ExperienceYears = 40
	tech.DailyCapacity = 30
	tech.Rating = 5

	b := s.Breakdown(tech, []string{"fogão"}, models.ZoneA, false)
	assert.Equal(t, 20.0, b.Experience)
	assert.Equal(t, 20.0, b.Capacity)
	assert.Equal(t, 20.0, b.Rating)
}

func TestScorer_Score_Monotonic(t *testing.T) {
	s := NewScorer(2)
	equipment := []string{"fogão"}

	prev := -1.0
	for years := 0; years <= 15; years++ {
		tech := createTestTechnician()
		tech.ExperienceYears = years
		score := s.Score(tech, equipment, models.ZoneB, false).Score
		assert.GreaterOrEqual(t, score, prev, "experience %d", years)
		prev = score
	}

	prev = -1.0
	for r := 0.0; r <= 5.0; r += 0.5 {
		tech := createTestTechnician()
		tech.Rating = r
		score := s.Score(tech, equipment, models.ZoneB, false).Score
		assert.GreaterOrEqual(t, score, prev, "rating %.1f", r)
		prev = score
	}

	prev = -1.0
	for capacity := 0; capacity <= 15; capacity++ {
		tech := createTestTechnician()
		tech.DailyCapacity = capacity
		score := s.Score(tech, equipment, models.ZoneB, false).Score
		assert.GreaterOrEqual(t, score, prev, "capacity %d", capacity)
		prev = score
	}
}

func TestScorer_Score_Inactive(t *testing.T) {
	tech := createTestTechnician()
	tech.Active = false

	got := NewScorer(2).Score(tech, []string{"fogão"}, models.ZoneA, true)
	assert.Equal(t, 0.0, got.Score)
}

func TestScorer_Rank(t *testing.T) {
	s := NewScorer(2)

	a := createTestTechnician()
	a.ID = "a"
	b := createTestTechnician()
	b.ID = "b"
	c := createTestTechnician()
	c.ID = "c"
	c.Rating = 5
	d := createTestTechnician()
	d.ID = "d"
	d.ExperienceYears = 0
	inactive := createTestTechnician()
	inactive.ID = "inactive"
	inactive.Rating = 5
	inactive.ExperienceYears = 20
	inactive.Active = false

	ranking := s.Rank([]models.Technician{a, inactive, b, c, d}, []string{"fogão"}, models.ZoneA, false)

	assert.Equal(t, "c", ranking.Best.Technician.ID)
	require.Len(t, ranking.Alternatives, 2)
	// a and b tie; list order wins
	assert.Equal(t, "a", ranking.Alternatives[0].Technician.ID)
	assert.Equal(t, "b", ranking.Alternatives[1].Technician.ID)
	assert.Equal(t, 4, ranking.Candidates)
}

func TestScorer_Rank_SpecialistAboveGeneralist(t *testing.T) {
	s := NewScorer(2)

	generalist := createTestTechnician()
	generalist.ID = "generalist"
	generalist.Specialties = []string{models.SpecialtyGeneral}
	generalist.PreferredZones = []models.LogisticZone{models.ZoneC}

	specialist := generalist
	specialist.ID = "specialist"
	specialist.Specialties = []string{"coifa", "exaustor"}

	ranking := s.Rank([]models.Technician{generalist, specialist}, []string{"coifa"}, models.ZoneC, true)

	assert.Equal(t, "specialist", ranking.Best.Technician.ID)
	require.Len(t, ranking.Alternatives, 1)
	assert.Equal(t, "generalist", ranking.Alternatives[0].Technician.ID)
	assert.Greater(t, ranking.Best.Score, ranking.Alternatives[0].Score)
}

func TestScorer_Rank_NoCandidates(t *testing.T) {
	s := NewScorer(2)

	inactive := createTestTechnician()
	inactive.Active = false

	for _, techs := range [][]models.Technician{nil, {inactive}} {
		ranking := s.Rank(techs, []string{"fogão"}, models.ZoneA, false)
		assert.Equal(t, FallbackScore(), ranking.Best)
		assert.Equal(t, 0.0, ranking.Best.Score)
		assert.NotEmpty(t, ranking.Best.Rationale)
		assert.Empty(t, ranking.Alternatives)
		assert.Equal(t, 0, ranking.Candidates)
	}
}

// ==========================
// Directory Tests
// ==========================

func TestParseList(t *testing.T) {
	tests := []struct {
		in       string
		expected []string
	}{
		{`["fogão", "forno"]`, []string{"fogão", "forno"}},
		{"fogão, forno ,, cooktop", []string{"fogão", "forno", "cooktop"}},
		{`['A', 'B']`, []string{"A", "B"}},
		{"A", []string{"A"}},
		{"  ", nil},
	}
	for _, tt := range tests {
		got := ParseList(tt.in)
		if tt.expected == nil {
			assert.Empty(t, got, tt.in)
			continue
		}
		assert.Equal(t, tt.expected, got, tt.in)
	}
}

func TestDirectory_ActiveTechnicians(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectQuery("SELECT (.+) FROM technicians").
		WithArgs(true).
		WillReturnRows(sqlmock.NewRows(technicianColumns).
			AddRow("t1", "Carlos", "carlos@example.com", "11999990000", `["Fogão","cooktop"]`, `["A","Zona B"]`, 8, 4.8, 4).
			AddRow("t2", "Ana", nil, nil, "coifa, depurador", "b,c,x", nil, nil, nil).
			AddRow("t3", "Roberto", nil, nil, "", nil, 3, 4.0, 6).
			AddRow("t4", "", nil, nil, "forno", "A", 1, 3.0, 2))

	techs, fallback := newTestDirectory(t, db).ActiveTechnicians(context.Background())

	assert.False(t, fallback)
	require.Len(t, techs, 3)

	assert.Equal(t, []string{"fogão", "cooktop"}, techs[0].Specialties)
	assert.Equal(t, []models.LogisticZone{models.ZoneA, models.ZoneB}, techs[0].PreferredZones)
	assert.Equal(t, 4, techs[0].DailyCapacity)
	assert.Equal(t, "carlos@example.com", techs[0].Email)

	assert.Equal(t, []models.LogisticZone{models.ZoneB, models.ZoneC}, techs[1].PreferredZones)
	assert.Equal(t, 4, techs[1].DailyCapacity, "missing capacity uses the default")
	assert.Equal(t, 0, techs[1].ExperienceYears)

	assert.Equal(t, []string{models.SpecialtyGeneral}, techs[2].Specialties)
	assert.Empty(t, techs[2].PreferredZones)
	assert.Equal(t, 6, techs[2].DailyCapacity)

	for _, tech := range techs {
		assert.True(t, tech.Active)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDirectory_ActiveTechnicians_InvalidEmail(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectQuery("SELECT (.+) FROM technicians").
		WithArgs(true).
		WillReturnRows(sqlmock.NewRows(technicianColumns).
			AddRow("t1", "Carlos", "n/a", "11999990000", "fogão", "A", 8, 4.8, 4).
			AddRow("t2", "Ana", "ana@example.com", nil, "coifa", "B", 6, 4.7, 3))

	techs, fallback := newTestDirectory(t, db).ActiveTechnicians(context.Background())

	assert.False(t, fallback)
	require.Len(t, techs, 2, "a bad contact field keeps the technician")
	assert.Equal(t, "t1", techs[0].ID)
	assert.Empty(t, techs[0].Email)
	assert.Equal(t, "11999990000", techs[0].Phone)
	assert.Equal(t, "ana@example.com", techs[1].Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDirectory_ActiveTechnicians_Fallback(t *testing.T) {
	t.Run("read failure", func(t *testing.T) {
		dir := NewDirectory(failingSource{}, 4, newTestLogger(t))
		techs, fallback := dir.ActiveTechnicians(context.Background())
		assert.True(t, fallback)
		assert.Equal(t, FallbackTechnicians(), techs)
	})

	t.Run("no rows", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectQuery("SELECT (.+) FROM technicians").
			WillReturnRows(sqlmock.NewRows(technicianColumns))

		techs, fallback := newTestDirectory(t, db).ActiveTechnicians(context.Background())
		assert.True(t, fallback)
		assert.Len(t, techs, 3)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestFallbackTechnicians(t *testing.T) {
	techs := FallbackTechnicians()
	require.Len(t, techs, 3)
	for _, tech := range techs {
		_, err := models.NewTechnician(tech)
		assert.NoError(t, err, tech.ID)
		assert.True(t, tech.Active)
	}
}

// ==========================
// Handler Tests
// ==========================

func TestHandler_Execute(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery("SELECT (.+) FROM technicians").
		WillReturnRows(sqlmock.NewRows(technicianColumns).
			AddRow("t1", "Generalist", nil, nil, "general", "C", 5, 4.5, 4).
			AddRow("t2", "Hood specialist", nil, nil, "coifa", "C", 5, 4.5, 4).
			AddRow("t3", "Oven specialist", nil, nil, "forno", "A", 5, 4.5, 4).
			AddRow("t4", "Other", nil, nil, "geladeira", "A", 1, 3.0, 1))

	h := NewHandler(DefaultConfig(), newTestDirectory(t, db), NewScorer(2), newTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{
		Equipment: []string{"coifa"},
		Zone:      "zona c",
		Urgent:    true,
	})
	require.NoError(t, err)

	assert.Equal(t, "t2", out.BestTechnician.Technician.ID)
	require.Len(t, out.Alternatives, 2)
	assert.Equal(t, "t1", out.Alternatives[0].Technician.ID)
	assert.Equal(t, 4, out.CandidateCount)
	assert.False(t, out.FallbackRoster)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_InvalidInput(t *testing.T) {
	h := NewHandler(DefaultConfig(), NewDirectory(failingSource{}, 4, newTestLogger(t)), NewScorer(2), newTestLogger(t))

	_, err := h.Execute(context.Background(), &Input{Equipment: []string{" "}, Zone: "A"})
	assert.ErrorIs(t, err, ErrEquipmentRequired)

	_, err = h.Execute(context.Background(), &Input{Equipment: []string{"fogão"}, Zone: "D"})
	assert.ErrorIs(t, err, models.ErrInvalidZone)
}
