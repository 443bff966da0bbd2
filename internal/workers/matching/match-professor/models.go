// internal/workers/matching/match-professor/models.go
package matchprofessor

import "advisor-workers/internal/models"

type Input struct {
	SessionID string                  `json:"sessionId"`
	Analysis  *models.StudentAnalysis `json:"analysis"`
	// Professors optionally supplies the candidate pool inline. When
	// present, the directory fetch is skipped.
	Professors []models.ProfessorRecord `json:"professors,omitempty"`
}

type Output struct {
	Match     *models.MatchResult `json:"match"`
	Timestamp string              `json:"timestamp"`
}
