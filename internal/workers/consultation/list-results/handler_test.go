// internal/workers/consultation/list-results/handler_test.go
package listresults

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"testing"
	"time"

	apperrors "advisor-workers/internal/common/errors"
	"advisor-workers/internal/common/logger"
	"advisor-workers/internal/models"
	runconsultation "advisor-workers/internal/workers/consultation/run-consultation"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		Timeout:       10 * time.Second,
		RetentionDays: 90,
		MaxResults:    100,
	}
}

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock db: %v", err)
	}
	return db, mock
}

func resultBlob(t *testing.T, sessionID, timestamp string) []byte {
	result := runconsultation.FinalResult{
		SessionID: sessionID,
		Timestamp: timestamp,
		Match: &models.MatchResult{
			Professor: models.ScoredCandidate{
				ProfessorRecord: models.ProfessorRecord{ProfessorID: "prof-001", Name: "Kim Minsoo"},
				MatchScore:      87,
			},
		},
	}
	data, err := json.Marshal(result)
	require.NoError(t, err)
	return data
}

func resultRows(blobs ...[]byte) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"result"})
	for _, b := range blobs {
		rows.AddRow(b)
	}
	return rows
}

// ==========================
// Execution
// ==========================

func TestHandler_Execute_ReturnsStoredResults(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT result FROM consultation_results").
		WillReturnRows(resultRows(
			resultBlob(t, "s-2", now.Format(time.RFC3339)),
			resultBlob(t, "s-1", now.Add(-time.Hour).Format(time.RFC3339)),
		))

	handler := NewHandler(createTestConfig(), db, logger.NewTestLogger(t))
	output, err := handler.Execute(context.Background(), &Input{})

	require.NoError(t, err)
	assert.Equal(t, 2, output.Count)
	assert.Equal(t, "s-2", output.Results[0].SessionID)
	assert.Equal(t, "s-1", output.Results[1].SessionID)
	assert.Equal(t, "Kim Minsoo", output.Results[0].Match.Professor.Name)
}

func TestHandler_Execute_EmptyWindow(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery("SELECT result FROM consultation_results").
		WillReturnRows(resultRows())

	handler := NewHandler(createTestConfig(), db, logger.NewTestLogger(t))
	output, err := handler.Execute(context.Background(), &Input{})

	require.NoError(t, err)
	assert.Equal(t, 0, output.Count)
	assert.NotNil(t, output.Results)
}

func TestHandler_Execute_SkipsCorruptRows(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery("SELECT result FROM consultation_results").
		WillReturnRows(resultRows(
			[]byte("corrupt"),
			resultBlob(t, "s-1", time.Now().UTC().Format(time.RFC3339)),
		))

	handler := NewHandler(createTestConfig(), db, logger.NewTestLogger(t))
	output, err := handler.Execute(context.Background(), &Input{})

	require.NoError(t, err)
	assert.Equal(t, 1, output.Count)
	assert.Equal(t, "s-1", output.Results[0].SessionID)
}

func TestHandler_Execute_QueryFailure(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery("SELECT result FROM consultation_results").
		WillReturnError(errors.New("connection lost"))

	handler := NewHandler(createTestConfig(), db, logger.NewTestLogger(t))
	output, err := handler.Execute(context.Background(), &Input{})

	assert.Nil(t, output)
	assert.Equal(t, apperrors.ErrCodeQueryExecutionFailed, apperrors.CodeOf(err))
}

// ==========================
// Query Parameters
// ==========================

// cutoffCheck verifies the window lower bound sits near the expected number
// of days in the past.
type cutoffCheck struct {
	days int
}

func (c cutoffCheck) Match(v driver.Value) bool {
	tv, ok := v.(time.Time)
	if !ok {
		return false
	}
	expected := time.Now().UTC().AddDate(0, 0, -c.days)
	diff := tv.Sub(expected)
	if diff < 0 {
		diff = -diff
	}
	return diff < time.Minute
}

type limitCheck struct {
	want int64
}

func (c limitCheck) Match(v driver.Value) bool {
	got, ok := v.(int64)
	return ok && got == c.want
}

func TestHandler_Execute_AppliesCutoffAndLimit(t *testing.T) {
	tests := []struct {
		name      string
		limit     int
		wantLimit int64
	}{
		{name: "default limit", limit: 0, wantLimit: 100},
		{name: "explicit limit", limit: 10, wantLimit: 10},
		{name: "limit above cap", limit: 500, wantLimit: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := setupMockDB(t)
			defer db.Close()

			mock.ExpectQuery("SELECT result FROM consultation_results").
				WithArgs(cutoffCheck{days: 90}, limitCheck{want: tt.wantLimit}).
				WillReturnRows(resultRows())

			handler := NewHandler(createTestConfig(), db, logger.NewTestLogger(t))
			_, err := handler.Execute(context.Background(), &Input{Limit: tt.limit})

			require.NoError(t, err)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
