// internal/workers/consultation/list-results/models.go
package listresults

import runconsultation "advisor-workers/internal/workers/consultation/run-consultation"

type Input struct {
	Limit int `json:"limit,omitempty"`
}

type Output struct {
	Results []runconsultation.FinalResult `json:"results"`
	Count   int                           `json:"count"`
}
