// internal/workers/matching/match-professor/handler.go
package matchprofessor

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sort"
	"time"

	"advisor-workers/internal/common/errors"
	"advisor-workers/internal/common/logger"
	"advisor-workers/internal/common/metrics"
	"advisor-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"
)

const (
	TaskType = "match-professor"

	directoryCacheKey = "professors:directory"
)

type Handler struct {
	config    *Config
	db        *sql.DB
	redis     *redis.Client
	generator ReasonGenerator
	logger    logger.Logger
}

// NewHandler wires the matching worker. generator may be nil; the
// deterministic fallback reason is used in that case.
func NewHandler(config *Config, db *sql.DB, rdb *redis.Client, generator ReasonGenerator, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
		db:        db,
		redis:     rdb,
		generator: generator,
		logger:    log.WithFields(map[string]interface{}{"taskType": TaskType}),
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
			h.failJob(client, job, errors.NewQueryExecutionFailedError("match-professor", err))
		}
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.Analysis == nil {
		return nil, errors.NewValidationError("analysis data is required")
	}

	analysis := *input.Analysis
	analysis.Normalize()

	if len(analysis.StudentProfile.Interests) == 0 || analysis.CareerGoals.TargetField == "" {
		metrics.MatchesProduced.WithLabelValues("validation_error").Inc()
		return nil, errors.NewValidationError("interests and targetField must be present")
	}

	pool := input.Professors
	if len(pool) == 0 {
		var err error
		pool, err = h.fetchProfessors(ctx)
		if err != nil {
			return nil, err
		}
	}
	if len(pool) == 0 {
		metrics.MatchesProduced.WithLabelValues("not_found").Inc()
		return nil, errors.NewNotFoundError("professor directory returned no records")
	}

	result, err := h.rank(ctx, pool, analysis)
	if err != nil {
		metrics.MatchesProduced.WithLabelValues("no_match").Inc()
		return nil, err
	}
	metrics.MatchesProduced.WithLabelValues("matched").Inc()

	h.logger.Info("match produced", map[string]interface{}{
		"sessionId":   input.SessionID,
		"professorId": result.Professor.ProfessorID,
		"matchScore":  result.Professor.MatchScore,
		"alternates":  len(result.AlternativeMatches),
	})

	return &Output{Match: result, Timestamp: result.Timestamp}, nil
}

// rank scores every candidate before filtering, keeps those whose presented
// score clears their raw-space threshold, and sorts descending with stable
// order on ties.
func (h *Handler) rank(ctx context.Context, pool []models.ProfessorRecord, analysis models.StudentAnalysis) (*models.MatchResult, error) {
	scored := make([]models.ScoredCandidate, 0, len(pool))
	for _, prof := range pool {
		candidate := models.ScoredCandidate{
			ProfessorRecord: prof,
			MatchScore:      CalculateMatchScore(prof, analysis, h.logger),
			Threshold:       MatchingThreshold(prof, analysis),
		}
		if float64(candidate.MatchScore) >= candidate.Threshold {
			scored = append(scored, candidate)
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].MatchScore > scored[j].MatchScore
	})

	if len(scored) == 0 {
		return nil, errors.NewNoMatchError("no candidate cleared its threshold")
	}

	best := scored[0]
	alternates := scored[1:]
	if len(alternates) > h.config.MaxAlternates {
		alternates = alternates[:h.config.MaxAlternates]
	}

	return &models.MatchResult{
		Professor:          best,
		MatchReason:        h.generateMatchReason(ctx, best, analysis),
		NextSteps:          defaultNextSteps,
		AlternativeMatches: alternates,
		Timestamp:          time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// generateMatchReason asks the generator for a narrative about the best
// candidate only. Any failure substitutes the deterministic template.
func (h *Handler) generateMatchReason(ctx context.Context, best models.ScoredCandidate, analysis models.StudentAnalysis) string {
	if h.generator == nil {
		return fallbackMatchReason(best)
	}

	reasonCtx, cancel := context.WithTimeout(ctx, h.config.ReasonTimeout)
	defer cancel()

	reason, err := h.generator.GenerateContent(reasonCtx, buildReasonPrompt(best, analysis))
	if err != nil || reason == "" {
		h.logger.Warn("match reason generation failed, using fallback", map[string]interface{}{
			"professorId": best.ProfessorID,
			"error":       err,
		})
		return fallbackMatchReason(best)
	}
	return reason
}

// fetchProfessors loads the directory snapshot, trying the Redis cache first.
func (h *Handler) fetchProfessors(ctx context.Context) ([]models.ProfessorRecord, error) {
	if h.redis != nil {
		if val, err := h.redis.Get(ctx, directoryCacheKey).Result(); err == nil {
			var pool []models.ProfessorRecord
			if err := json.Unmarshal([]byte(val), &pool); err == nil {
				return pool, nil
			}
		}
	}

	rows, err := h.db.QueryContext(ctx, `
		SELECT professor_id, name, department, position, email, location, research_areas, available_slots
		FROM professors`)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.NewQueryTimeoutError("professors_scan")
		}
		return nil, errors.NewQueryExecutionFailedError("professors_scan", err)
	}
	defer rows.Close()

	var pool []models.ProfessorRecord
	for rows.Next() {
		var prof models.ProfessorRecord
		var areas []byte
		if err := rows.Scan(
			&prof.ProfessorID, &prof.Name, &prof.Department, &prof.Position,
			&prof.Email, &prof.Location, &areas, &prof.AvailableSlots,
		); err != nil {
			return nil, errors.NewQueryExecutionFailedError("professors_scan", err)
		}
		if err := json.Unmarshal(areas, &prof.ResearchAreas); err != nil {
			prof.ResearchAreas = []string{}
		}
		pool = append(pool, prof)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("professors_scan", err)
	}

	if h.redis != nil && len(pool) > 0 {
		if data, err := json.Marshal(pool); err == nil {
			h.redis.Set(ctx, directoryCacheKey, data, h.config.CacheTTL)
		}
	}

	return pool, nil
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
	_, err = cmd.Send(context.Background())
	if err != nil {
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
		"details":      stdErr.Details,
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
