// internal/workers/matching/match-professor/scorer_test.go
package matchprofessor

import (
	"fmt"
	"testing"

	"advisor-workers/internal/common/logger"
	"advisor-workers/internal/models"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func testAnalysis() models.StudentAnalysis {
	a := models.DefaultAnalysis()
	a.StudentProfile.Year = intPtr(3)
	a.StudentProfile.Major = "Computer Science"
	a.StudentProfile.GPA = floatPtr(3.8)
	a.StudentProfile.Interests = []string{"machine learning"}
	a.CareerGoals.PathType = "graduate school"
	a.CareerGoals.TargetField = "AI research"
	return a
}

func testProfessor() models.ProfessorRecord {
	return models.ProfessorRecord{
		ProfessorID:    "prof-001",
		Name:           "Kim Minsoo",
		Department:     "Computer Science",
		Position:       "Associate Professor",
		Email:          "minsoo.kim@univ.example",
		Location:       "Engineering Hall 402",
		ResearchAreas:  []string{"Machine Learning", "Robotics"},
		AvailableSlots: 2,
	}
}

// ==========================
// Score Range Rescaling
// ==========================

func TestAdjustScoreRange(t *testing.T) {
	tests := []struct {
		raw      float64
		expected int
	}{
		{0, 60},
		{50, 75},
		{100, 90},
		{33, 70}, // round(60 + 9.9)
		{90, 87},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("raw=%v", tt.raw), func(t *testing.T) {
			assert.Equal(t, tt.expected, adjustScoreRange(tt.raw))
		})
	}
}

// ==========================
// Match Scoring
// ==========================

func TestCalculateMatchScore_FullAffinity(t *testing.T) {
	// Research: similarity("Machine Learning", "machine learning") = 1.5
	// (containment + exact bonus per token pair, unclamped), so the research
	// component is 1.5*40 = 60. Department +20, availability +10, career 0.
	// Raw 90 => presented round(60 + 0.9*30) = 87.
	score := CalculateMatchScore(testProfessor(), testAnalysis(), logger.NewNoOpLogger())
	assert.Equal(t, 87, score)
}

func TestCalculateMatchScore_ZeroAffinity(t *testing.T) {
	prof := models.ProfessorRecord{
		ProfessorID:    "prof-002",
		Name:           "Lee Jiwon",
		Department:     "Fine Arts",
		ResearchAreas:  []string{"Baroque Sculpture"},
		AvailableSlots: 0,
	}

	// No token of "Baroque Sculpture" contains or is contained in any token
	// of the interests or target field, so no component fires: raw 0 => 60.
	score := CalculateMatchScore(prof, testAnalysis(), logger.NewNoOpLogger())
	assert.Equal(t, 60, score)
}

func TestCalculateMatchScore_ShortTokenContainment(t *testing.T) {
	prof := models.ProfessorRecord{
		ProfessorID:    "prof-002",
		Name:           "Lee Jiwon",
		Department:     "Fine Arts",
		ResearchAreas:  []string{"Renaissance Painting"},
		AvailableSlots: 0,
	}

	// Containment matching lets short tokens fire on unrelated fields:
	// "ai" is a substring of both "renaissance" and "painting", so
	// similarity("Renaissance Painting", "AI research") = 1.0 and the career
	// component contributes its full 30. Raw 30 => presented 69.
	score := CalculateMatchScore(prof, testAnalysis(), logger.NewNoOpLogger())
	assert.Equal(t, 69, score)
}

func TestCalculateMatchScore_EmptyResearchAreas(t *testing.T) {
	prof := testProfessor()
	prof.ResearchAreas = nil

	// Empty areas mean research and career are 0, not an error.
	// Department +20, availability +10 => raw 30 => round(60+9) = 69.
	score := CalculateMatchScore(prof, testAnalysis(), logger.NewNoOpLogger())
	assert.Equal(t, 69, score)
}

func TestCalculateMatchScore_DepartmentIsCaseSensitive(t *testing.T) {
	prof := testProfessor()
	prof.Department = "computer science"
	prof.ResearchAreas = nil
	prof.AvailableSlots = 0

	score := CalculateMatchScore(prof, testAnalysis(), logger.NewNoOpLogger())
	assert.Equal(t, 60, score)
}

func TestCalculateMatchScore_AvailabilityComponent(t *testing.T) {
	prof := testProfessor()
	prof.Department = "Other"
	prof.ResearchAreas = nil

	withSlots := CalculateMatchScore(prof, testAnalysis(), logger.NewNoOpLogger())
	prof.AvailableSlots = 0
	withoutSlots := CalculateMatchScore(prof, testAnalysis(), logger.NewNoOpLogger())

	assert.Equal(t, 63, withSlots) // raw 10 => round(60+3)
	assert.Equal(t, 60, withoutSlots)
}

func TestCalculateMatchScore_PresentedRange(t *testing.T) {
	analysis := testAnalysis()
	pool := []models.ProfessorRecord{
		testProfessor(),
		{ProfessorID: "p2", Name: "A", ResearchAreas: []string{"history"}},
		{ProfessorID: "p3", Name: "B", Department: "Computer Science", AvailableSlots: 1},
		{ProfessorID: "p4", Name: "C", ResearchAreas: []string{"AI research", "machine learning"}, AvailableSlots: 9},
	}

	for _, prof := range pool {
		score := CalculateMatchScore(prof, analysis, logger.NewNoOpLogger())
		assert.GreaterOrEqual(t, score, 60, "professor %s", prof.ProfessorID)
		// The unclamped similarity can push components past their nominal
		// weight, so the presented ceiling of 90 is approximate, not hard.
		assert.LessOrEqual(t, score, 105, "professor %s", prof.ProfessorID)
	}
}

func TestCalculateMatchScore_NilLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		CalculateMatchScore(testProfessor(), testAnalysis(), nil)
	})
}

// ==========================
// Threshold Policy
// ==========================

func TestMatchingThreshold(t *testing.T) {
	analysis := testAnalysis()

	tests := []struct {
		name     string
		prof     models.ProfessorRecord
		expected float64
	}{
		{
			name:     "no discounts",
			prof:     models.ProfessorRecord{Department: "Fine Arts", ResearchAreas: []string{"Renaissance Painting"}},
			expected: 30,
		},
		{
			name:     "department discount only",
			prof:     models.ProfessorRecord{Department: "Computer Science", ResearchAreas: []string{"Renaissance Painting"}},
			expected: 24,
		},
		{
			name:     "overlap discount only",
			prof:     models.ProfessorRecord{Department: "Fine Arts", ResearchAreas: []string{"Machine Learning"}},
			expected: 27,
		},
		{
			name:     "both discounts stack",
			prof:     testProfessor(),
			expected: 21.6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, MatchingThreshold(tt.prof, analysis), 1e-9)
		})
	}
}

func TestMatchingThreshold_Floor(t *testing.T) {
	analysis := testAnalysis()
	pool := []models.ProfessorRecord{
		testProfessor(),
		{Department: "Computer Science"},
		{ResearchAreas: []string{"machine learning"}},
		{},
	}

	for _, prof := range pool {
		assert.GreaterOrEqual(t, MatchingThreshold(prof, analysis), 20.0)
	}
}

// The threshold lives in raw-score space (max 30) while the qualifying
// comparison uses the presented score (min 60). The comparison crosses the
// two scales on purpose; this pins that a zero-affinity candidate still
// clears its bar.
func TestCrossScaleComparison_ZeroAffinityStillQualifies(t *testing.T) {
	prof := models.ProfessorRecord{
		ProfessorID:   "prof-zero",
		Name:          "Zero Affinity",
		Department:    "Unrelated",
		ResearchAreas: []string{"nothing shared"},
	}
	analysis := testAnalysis()

	score := CalculateMatchScore(prof, analysis, logger.NewNoOpLogger())
	threshold := MatchingThreshold(prof, analysis)

	assert.Equal(t, 60, score)
	assert.Equal(t, 30.0, threshold)
	assert.GreaterOrEqual(t, float64(score), threshold)
}
