// internal/workers/chat/session-connect/handler.go
package sessionconnect

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"advisor-workers/internal/common/errors"
	"advisor-workers/internal/common/logger"
	"advisor-workers/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"
)

const TaskType = "session-connect"

// ConnectionKey builds the registry key for one connection.
func ConnectionKey(connectionID string) string {
	return "connection:" + connectionID
}

type Handler struct {
	config *Config
	redis  *redis.Client
	logger logger.Logger
}

func NewHandler(config *Config, rdb *redis.Client, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		redis:  rdb,
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
			h.failJob(client, job, errors.NewConnectionPushFailedError(input.ConnectionID, err))
		}
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.ConnectionID == "" {
		return nil, errors.NewValidationError("connectionId is required")
	}

	now := time.Now().UnixMilli()

	record := ConnectionRecord{
		ConnectionID: input.ConnectionID,
		UserID:       input.UserID,
		SessionID:    input.SessionID,
		Timestamp:    now,
	}
	if record.UserID == "" {
		record.UserID = "anonymous"
	}
	if record.SessionID == "" {
		record.SessionID = fmt.Sprintf("session_%d", now)
	}

	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("marshal connection record: %w", err)
	}

	if err := h.redis.Set(ctx, ConnectionKey(input.ConnectionID), data, h.config.ConnectionTTL).Err(); err != nil {
		return nil, errors.NewConnectionPushFailedError(input.ConnectionID, err)
	}

	h.logger.Info("connection registered", map[string]interface{}{
		"connectionId": record.ConnectionID,
		"sessionId":    record.SessionID,
		"userId":       record.UserID,
	})

	return &Output{
		ConnectionID: record.ConnectionID,
		SessionID:    record.SessionID,
		Status:       "connected",
	}, nil
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
