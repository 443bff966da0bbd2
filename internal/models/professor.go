// internal/models/professor.go
package models

// ProfessorRecord is a read-only snapshot of one professor from the
// directory. The matching core never mutates or persists it.
type ProfessorRecord struct {
	ProfessorID    string   `json:"professorId"`
	Name           string   `json:"name"`
	Department     string   `json:"department"`
	Position       string   `json:"position"`
	Email          string   `json:"email"`
	Location       string   `json:"location"`
	ResearchAreas  []string `json:"researchAreas"`
	AvailableSlots int      `json:"availableSlots"`
}

// ScoredCandidate is a ProfessorRecord with its computed match score and the
// per-candidate acceptance threshold. MatchScore is the presented 60-90
// value; Threshold stays in the raw 0-100 space. A candidate only appears in
// a result when MatchScore >= Threshold.
type ScoredCandidate struct {
	ProfessorRecord
	MatchScore int     `json:"matchScore"`
	Threshold  float64 `json:"threshold"`
}

// MatchResult is the outcome of one matching run. Immutable once built;
// ownership passes to the caller.
type MatchResult struct {
	Professor          ScoredCandidate   `json:"professor"`
	MatchReason        string            `json:"matchReason"`
	NextSteps          []string          `json:"nextSteps"`
	AlternativeMatches []ScoredCandidate `json:"alternativeMatches"`
	Timestamp          string            `json:"timestamp"`
}
