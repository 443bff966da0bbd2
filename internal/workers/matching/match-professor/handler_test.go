// internal/workers/matching/match-professor/handler_test.go
package matchprofessor

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	apperrors "advisor-workers/internal/common/errors"
	"advisor-workers/internal/common/logger"
	"advisor-workers/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		CacheTTL:      time.Minute,
		Timeout:       10 * time.Second,
		ReasonTimeout: time.Second,
		MaxAlternates: 2,
	}
}

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock db: %v", err)
	}
	return db, mock
}

func setupMiniRedis(t *testing.T) *redis.Client {
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

type stubGenerator struct {
	text string
	err  error
}

func (s *stubGenerator) GenerateContent(ctx context.Context, prompt string) (string, error) {
	return s.text, s.err
}

func professorRows(pool []models.ProfessorRecord) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"professor_id", "name", "department", "position", "email", "location",
		"research_areas", "available_slots",
	})
	for _, p := range pool {
		areas, _ := json.Marshal(p.ResearchAreas)
		rows.AddRow(p.ProfessorID, p.Name, p.Department, p.Position, p.Email, p.Location, areas, p.AvailableSlots)
	}
	return rows
}

func testPool() []models.ProfessorRecord {
	return []models.ProfessorRecord{
		testProfessor(),
		{
			ProfessorID:    "prof-002",
			Name:           "Lee Jiwon",
			Department:     "Fine Arts",
			Position:       "Professor",
			ResearchAreas:  []string{"Renaissance Painting"},
			AvailableSlots: 0,
		},
		{
			ProfessorID:    "prof-003",
			Name:           "Park Haneul",
			Department:     "Computer Science",
			Position:       "Assistant Professor",
			ResearchAreas:  []string{"Computer Vision", "Deep Learning"},
			AvailableSlots: 1,
		},
	}
}

// ==========================
// Validation
// ==========================

func TestHandler_Execute_MissingAnalysis(t *testing.T) {
	handler := NewHandler(createTestConfig(), nil, nil, nil, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{SessionID: "s-1"})

	assert.Nil(t, output)
	assert.Equal(t, apperrors.ErrCodeValidation, apperrors.CodeOf(err))
}

func TestHandler_Execute_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(a *models.StudentAnalysis)
	}{
		{
			name:   "empty interests",
			mutate: func(a *models.StudentAnalysis) { a.StudentProfile.Interests = []string{} },
		},
		{
			name:   "nil interests",
			mutate: func(a *models.StudentAnalysis) { a.StudentProfile.Interests = nil },
		},
		{
			name:   "empty target field",
			mutate: func(a *models.StudentAnalysis) { a.CareerGoals.TargetField = "" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// No db expectations set: validation must fail before any
			// candidate fetching or scoring.
			db, mock := setupMockDB(t)
			defer db.Close()

			analysis := testAnalysis()
			tt.mutate(&analysis)

			handler := NewHandler(createTestConfig(), db, nil, nil, logger.NewTestLogger(t))
			output, err := handler.Execute(context.Background(), &Input{SessionID: "s-1", Analysis: &analysis})

			assert.Nil(t, output)
			assert.Equal(t, apperrors.ErrCodeValidation, apperrors.CodeOf(err))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

// ==========================
// Directory Fetching
// ==========================

func TestHandler_Execute_EmptyPool(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery("SELECT professor_id").
		WillReturnRows(professorRows(nil))

	analysis := testAnalysis()
	handler := NewHandler(createTestConfig(), db, nil, nil, logger.NewTestLogger(t))
	output, err := handler.Execute(context.Background(), &Input{SessionID: "s-1", Analysis: &analysis})

	assert.Nil(t, output)
	assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.CodeOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_QueryError(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery("SELECT professor_id").
		WillReturnError(errors.New("connection lost"))

	analysis := testAnalysis()
	handler := NewHandler(createTestConfig(), db, nil, nil, logger.NewTestLogger(t))
	output, err := handler.Execute(context.Background(), &Input{SessionID: "s-1", Analysis: &analysis})

	assert.Nil(t, output)
	assert.Equal(t, apperrors.ErrCodeQueryExecutionFailed, apperrors.CodeOf(err))
}

func TestHandler_Execute_InlinePoolBypassesFetch(t *testing.T) {
	// No db expectations: an inline pool must not touch the directory.
	db, mock := setupMockDB(t)
	defer db.Close()

	analysis := testAnalysis()
	handler := NewHandler(createTestConfig(), db, nil, nil, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{
		SessionID:  "s-1",
		Analysis:   &analysis,
		Professors: testPool(),
	})

	require.NoError(t, err)
	assert.Equal(t, "prof-001", output.Match.Professor.ProfessorID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_FetchProfessors_FromCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	pool := testPool()
	data, err := json.Marshal(pool)
	require.NoError(t, err)
	require.NoError(t, mr.Set(directoryCacheKey, string(data)))

	// nil db: a cache hit must not touch the database at all.
	handler := NewHandler(createTestConfig(), nil, rdb, nil, logger.NewTestLogger(t))
	fetched, err := handler.fetchProfessors(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, pool, fetched)
}

func TestHandler_FetchProfessors_PopulatesCache(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	mock.ExpectQuery("SELECT professor_id").
		WillReturnRows(professorRows(testPool()))

	handler := NewHandler(createTestConfig(), db, rdb, nil, logger.NewTestLogger(t))
	fetched, err := handler.fetchProfessors(context.Background())

	assert.NoError(t, err)
	assert.Len(t, fetched, 3)
	assert.True(t, mr.Exists(directoryCacheKey))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Ranking Pipeline
// ==========================

func TestHandler_Execute_FullMatch(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery("SELECT professor_id").
		WillReturnRows(professorRows(testPool()))

	analysis := testAnalysis()
	generator := &stubGenerator{err: errors.New("model unavailable")}
	handler := NewHandler(createTestConfig(), db, nil, generator, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{SessionID: "s-1", Analysis: &analysis})

	require.NoError(t, err)
	require.NotNil(t, output)
	require.NotNil(t, output.Match)

	best := output.Match.Professor
	assert.Equal(t, "prof-001", best.ProfessorID)
	// Research 1.5*40=60 (unclamped exact-match similarity), department 20,
	// availability 10 => raw 90 => presented 87.
	assert.Equal(t, 87, best.MatchScore)
	assert.InDelta(t, 21.6, best.Threshold, 1e-9)

	// Every returned candidate clears its own threshold, descending order.
	prev := best.MatchScore
	for _, alt := range output.Match.AlternativeMatches {
		assert.GreaterOrEqual(t, float64(alt.MatchScore), alt.Threshold)
		assert.LessOrEqual(t, alt.MatchScore, prev)
		assert.NotEqual(t, best.ProfessorID, alt.ProfessorID)
		prev = alt.MatchScore
	}
	assert.LessOrEqual(t, len(output.Match.AlternativeMatches), 2)

	// Generator failed, so the deterministic template is used.
	assert.Equal(t,
		"Kim Minsoo is an expert in Machine Learning, Robotics, showing strong relevance to the student's interests and goals.",
		output.Match.MatchReason)

	assert.Len(t, output.Match.NextSteps, 3)
	assert.NotEmpty(t, output.Timestamp)
	assert.Equal(t, output.Match.Timestamp, output.Timestamp)
}

func TestHandler_Execute_GeneratorNarrativeUsed(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery("SELECT professor_id").
		WillReturnRows(professorRows(testPool()))

	analysis := testAnalysis()
	generator := &stubGenerator{text: "An excellent research and mentoring fit."}
	handler := NewHandler(createTestConfig(), db, nil, generator, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{SessionID: "s-1", Analysis: &analysis})

	require.NoError(t, err)
	assert.Equal(t, "An excellent research and mentoring fit.", output.Match.MatchReason)
}

func TestHandler_Execute_NilGeneratorFallsBack(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery("SELECT professor_id").
		WillReturnRows(professorRows(testPool()[:1]))

	analysis := testAnalysis()
	handler := NewHandler(createTestConfig(), db, nil, nil, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{SessionID: "s-1", Analysis: &analysis})

	require.NoError(t, err)
	assert.Contains(t, output.Match.MatchReason, "Kim Minsoo is an expert in")
	assert.Empty(t, output.Match.AlternativeMatches)
}

// Stable sort: candidates with equal scores keep directory order.
func TestHandler_Execute_StableTieOrder(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	pool := []models.ProfessorRecord{
		{ProfessorID: "tie-a", Name: "A", ResearchAreas: []string{"history"}},
		{ProfessorID: "tie-b", Name: "B", ResearchAreas: []string{"geology"}},
		{ProfessorID: "tie-c", Name: "C", ResearchAreas: []string{"botany"}},
	}
	mock.ExpectQuery("SELECT professor_id").
		WillReturnRows(professorRows(pool))

	analysis := testAnalysis()
	handler := NewHandler(createTestConfig(), db, nil, nil, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{SessionID: "s-1", Analysis: &analysis})

	require.NoError(t, err)
	assert.Equal(t, "tie-a", output.Match.Professor.ProfessorID)
	require.Len(t, output.Match.AlternativeMatches, 2)
	assert.Equal(t, "tie-b", output.Match.AlternativeMatches[0].ProfessorID)
	assert.Equal(t, "tie-c", output.Match.AlternativeMatches[1].ProfessorID)
}

// ==========================
// Benchmark
// ==========================

func BenchmarkCalculateMatchScore(b *testing.B) {
	prof := testProfessor()
	analysis := testAnalysis()
	log := logger.NewNoOpLogger()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		CalculateMatchScore(prof, analysis, log)
	}
}
