// internal/workers/consultation/run-consultation/handler.go
package runconsultation

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"advisor-workers/internal/common/errors"
	"advisor-workers/internal/common/logger"
	"advisor-workers/internal/common/metrics"
	"advisor-workers/internal/models"
	analyzechat "advisor-workers/internal/workers/analysis/analyze-chat"
	matchprofessor "advisor-workers/internal/workers/matching/match-professor"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "run-consultation"

// Analyzer produces the student analysis from the stored transcript.
// Satisfied by the analyze-chat handler.
type Analyzer interface {
	Execute(ctx context.Context, input *analyzechat.Input) (*analyzechat.Output, error)
}

// Matcher ranks the professor pool against an analysis.
// Satisfied by the match-professor handler.
type Matcher interface {
	Execute(ctx context.Context, input *matchprofessor.Input) (*matchprofessor.Output, error)
}

// ResultStore persists the final result blob.
type ResultStore interface {
	PutResult(ctx context.Context, sessionID string, body []byte) error
}

type Handler struct {
	config   *Config
	db       *sql.DB
	analyzer Analyzer
	matcher  Matcher
	results  ResultStore
	logger   logger.Logger
}

func NewHandler(config *Config, db *sql.DB, analyzer Analyzer, matcher Matcher, results ResultStore, log logger.Logger) *Handler {
	return &Handler{
		config:   config,
		db:       db,
		analyzer: analyzer,
		matcher:  matcher,
		results:  results,
		logger:   log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, errors.NewValidationError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		var stdErr *errors.StandardError
		if stderrors.As(err, &stdErr) {
			h.failJob(client, job, stdErr)
		} else {
			h.failJob(client, job, errors.NewAnalysisFailedError(err))
		}
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.SessionID == "" {
		return nil, errors.NewValidationError("sessionId is required")
	}

	analyzed, err := h.analyzer.Execute(ctx, &analyzechat.Input{SessionID: input.SessionID})
	if err != nil {
		return nil, err
	}

	matched, err := h.matcher.Execute(ctx, &matchprofessor.Input{
		SessionID: input.SessionID,
		Analysis:  &analyzed.Analysis,
	})
	if err != nil {
		return nil, err
	}

	h.enrichMatch(ctx, matched.Match)

	result := FinalResult{
		SessionID: input.SessionID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Analysis:  &analyzed.Analysis,
		Match:     matched.Match,
	}

	if err := h.persistResult(ctx, &result); err != nil {
		return nil, err
	}

	h.logger.Info("consultation completed", map[string]interface{}{
		"sessionId": input.SessionID,
		"professor": result.Match.Professor.Name,
	})

	return &Output{
		SessionID: result.SessionID,
		Timestamp: result.Timestamp,
		Analysis:  result.Analysis,
		Match:     result.Match,
	}, nil
}

// enrichMatch refreshes the matched professor's contact fields from the
// directory. The ranking may have run against a cached snapshot; a failed
// lookup keeps the snapshot values, the final result is still usable.
func (h *Handler) enrichMatch(ctx context.Context, match *models.MatchResult) {
	if match == nil || match.Professor.ProfessorID == "" {
		return
	}

	var position, email, location string
	var slots int
	err := h.db.QueryRowContext(ctx,
		`SELECT position, email, location, available_slots FROM professors WHERE professor_id = $1`,
		match.Professor.ProfessorID,
	).Scan(&position, &email, &location, &slots)
	if err != nil {
		h.logger.Warn("professor directory lookup failed, keeping match as ranked", map[string]interface{}{
			"professorId": match.Professor.ProfessorID,
			"error":       err,
		})
		return
	}

	match.Professor.Position = position
	match.Professor.Email = email
	match.Professor.Location = location
	match.Professor.AvailableSlots = slots
}

// persistResult writes the blob to object storage and the row used by the
// listing query. Both writes must land: a result the student cannot retrieve
// later defeats the point of running the consultation.
func (h *Handler) persistResult(ctx context.Context, result *FinalResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return errors.NewResultSaveFailedError(err)
	}

	if err := h.results.PutResult(ctx, result.SessionID, data); err != nil {
		return errors.NewResultSaveFailedError(err)
	}

	createdAt := time.Now().UTC()
	expiresAt := createdAt.AddDate(0, 0, h.config.RetentionDays)

	_, err = h.db.ExecContext(ctx,
		`INSERT INTO consultation_results (session_id, result, created_at, expires_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (session_id) DO UPDATE SET result = EXCLUDED.result, created_at = EXCLUDED.created_at, expires_at = EXCLUDED.expires_at`,
		result.SessionID, data, createdAt, expiresAt)
	if err != nil {
		return errors.NewResultSaveFailedError(err)
	}
	return nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err = cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, stdErr *errors.StandardError) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    string(stdErr.Code),
		"errorMessage": stdErr.Message,
	})
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()

	if stdErr.Retryable && job.Retries > 1 {
		_, err := client.NewFailJobCommand().
			JobKey(job.Key).
			Retries(job.Retries - 1).
			ErrorMessage(stdErr.Message).
			Send(context.Background())
		if err != nil {
			h.logger.Error("failed to fail job", map[string]interface{}{"error": err})
		}
		return
	}

	bpmnErr := errors.ConvertToBPMNError(stdErr)
	_, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(bpmnErr.Code).
		ErrorMessage(bpmnErr.Message).
		Send(context.Background())
	if err != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{"error": err})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
