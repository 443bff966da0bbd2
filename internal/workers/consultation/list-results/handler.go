// internal/workers/consultation/list-results/handler.go
package listresults

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
	runconsultation "advisor-workers/internal/workers/consultation/run-consultation"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "list-results"

type Handler struct {
	config *Config
	db     *sql.DB
	logger logger.Logger
}

func NewHandler(config *Config, db *sql.DB, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		db:     db,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
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
			h.failJob(client, job, errors.NewQueryExecutionFailedError("list results", err))
		}
		return
	}

	h.completeJob(client, job, output)
}

// execute returns the consultations completed inside the retention window,
// newest first. Rows past the window stay in the table until the cleanup job
// removes them, so the cutoff is applied here too.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	limit := input.Limit
	if limit <= 0 || limit > h.config.MaxResults {
		limit = h.config.MaxResults
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -h.config.RetentionDays)

	rows, err := h.db.QueryContext(ctx,
		`SELECT result FROM consultation_results WHERE created_at > $1 ORDER BY created_at DESC LIMIT $2`,
		cutoff, limit)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("list results", err)
	}
	defer rows.Close()

	results := make([]runconsultation.FinalResult, 0, limit)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, errors.NewQueryExecutionFailedError("scan result", err)
		}

		var result runconsultation.FinalResult
		if err := json.Unmarshal(raw, &result); err != nil {
			h.logger.Warn("skipping unreadable result row", map[string]interface{}{
				"error": err,
			})
			continue
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("list results", err)
	}

	h.logger.Info("results listed", map[string]interface{}{
		"count": len(results),
	})

	return &Output{Results: results, Count: len(results)}, nil
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
