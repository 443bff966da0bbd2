// internal/workers/consultation/run-consultation/models.go
package runconsultation

import "advisor-workers/internal/models"

type Input struct {
	SessionID string `json:"sessionId"`
}

type Output struct {
	SessionID string                  `json:"sessionId"`
	Timestamp string                  `json:"timestamp"`
	Analysis  *models.StudentAnalysis `json:"analysis"`
	Match     *models.MatchResult     `json:"match"`
}

// FinalResult is the persisted record: the analysis and the match produced
// from one consultation session, stamped at completion time.
type FinalResult struct {
	SessionID string                  `json:"sessionId"`
	Timestamp string                  `json:"timestamp"`
	Analysis  *models.StudentAnalysis `json:"analysis"`
	Match     *models.MatchResult     `json:"match"`
}
