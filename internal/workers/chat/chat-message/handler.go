// internal/workers/chat/chat-message/handler.go
package chatmessage

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

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"
)

const TaskType = "chat-message"

// ChannelKey names the pub/sub channel a connected client listens on.
func ChannelKey(connectionID string) string {
	return "ws:out:" + connectionID
}

type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// TranscriptStore persists the full conversation for the analysis stage.
type TranscriptStore interface {
	PutChat(ctx context.Context, sessionID string, body []byte) error
}

type Handler struct {
	config      *Config
	db          *sql.DB
	redis       *redis.Client
	generator   Generator
	transcripts TranscriptStore
	logger      logger.Logger
}

func NewHandler(config *Config, db *sql.DB, rdb *redis.Client, generator Generator, transcripts TranscriptStore, log logger.Logger) *Handler {
	return &Handler{
		config:      config,
		db:          db,
		redis:       rdb,
		generator:   generator,
		transcripts: transcripts,
		logger:      log.WithFields(map[string]interface{}{"taskType": TaskType}),
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
			h.failJob(client, job, errors.NewLLMGenerationFailedError(err))
		}
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.SessionID == "" {
		return nil, errors.NewValidationError("sessionId is required")
	}
	if input.Message == "" {
		return nil, errors.NewValidationError("message is required")
	}

	history, err := h.loadHistory(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	userMsg := StoredMessage{Type: "user", Content: input.Message, Timestamp: now.Format(time.RFC3339)}
	if err := h.storeMessage(ctx, input.SessionID, userMsg); err != nil {
		return nil, err
	}

	response, err := h.generate(ctx, history, input.Message)
	if err != nil {
		return nil, err
	}

	reply, analysisJSON, hasAnalysis := splitReply(response)
	if reply == "" {
		reply = "Could you tell me a little more about that?"
	}
	if !hasAnalysis {
		// The model omitted the block; snapshot the defaulted analysis so
		// the session always carries a latest-known state.
		if defaults, err := json.Marshal(models.DefaultAnalysis()); err == nil {
			analysisJSON = string(defaults)
		}
	}

	analysisSaved := h.saveAnalysis(ctx, input.SessionID, analysisJSON)

	aiMsg := StoredMessage{Type: "assistant", Content: reply, Timestamp: time.Now().UTC().Format(time.RFC3339)}
	if err := h.storeMessage(ctx, input.SessionID, aiMsg); err != nil {
		return nil, err
	}

	full := append(append(history, userMsg), aiMsg)
	h.persistTranscript(ctx, input.SessionID, full)
	h.pushReply(ctx, input, reply, aiMsg.Timestamp)

	return &Output{
		SessionID:     input.SessionID,
		Reply:         reply,
		AnalysisSaved: analysisSaved,
	}, nil
}

func (h *Handler) loadHistory(ctx context.Context, sessionID string) ([]StoredMessage, error) {
	rows, err := h.db.QueryContext(ctx,
		`SELECT message_type, content, created_at FROM chat_messages WHERE session_id = $1 ORDER BY created_at ASC LIMIT $2`,
		sessionID, h.config.HistoryLimit)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("load chat history", err)
	}
	defer rows.Close()

	var history []StoredMessage
	for rows.Next() {
		var msg StoredMessage
		var createdAt time.Time
		if err := rows.Scan(&msg.Type, &msg.Content, &createdAt); err != nil {
			return nil, errors.NewQueryExecutionFailedError("scan chat history", err)
		}
		msg.Timestamp = createdAt.UTC().Format(time.RFC3339)
		history = append(history, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("load chat history", err)
	}
	return history, nil
}

func (h *Handler) storeMessage(ctx context.Context, sessionID string, msg StoredMessage) error {
	_, err := h.db.ExecContext(ctx,
		`INSERT INTO chat_messages (session_id, message_type, content, created_at) VALUES ($1, $2, $3, $4)`,
		sessionID, msg.Type, msg.Content, msg.Timestamp)
	if err != nil {
		return errors.NewQueryExecutionFailedError("store chat message", err)
	}
	return nil
}

func (h *Handler) generate(ctx context.Context, history []StoredMessage, message string) (string, error) {
	llmCtx, cancel := context.WithTimeout(ctx, h.config.LLMTimeout)
	defer cancel()

	response, err := h.generator.GenerateContent(llmCtx, buildChatPrompt(history, message))
	if err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) {
			return "", errors.NewLLMTimeoutError()
		}
		return "", errors.NewLLMGenerationFailedError(err)
	}
	return response, nil
}

// saveAnalysis stores the mid-conversation analysis snapshot. Failures are
// logged and swallowed: the authoritative analysis runs later over the full
// transcript.
func (h *Handler) saveAnalysis(ctx context.Context, sessionID, analysisJSON string) bool {
	var analysis models.StudentAnalysis
	if err := json.Unmarshal([]byte(analysisJSON), &analysis); err != nil {
		h.logger.Warn("discarding malformed analysis block", map[string]interface{}{
			"sessionId": sessionID,
			"error":     err,
		})
		return false
	}
	analysis.Normalize()

	data, err := json.Marshal(&analysis)
	if err != nil {
		return false
	}

	_, err = h.db.ExecContext(ctx,
		`INSERT INTO career_analyses (session_id, analysis, created_at) VALUES ($1, $2, $3)
		 ON CONFLICT (session_id) DO UPDATE SET analysis = EXCLUDED.analysis, created_at = EXCLUDED.created_at`,
		sessionID, data, time.Now().UTC())
	if err != nil {
		h.logger.Warn("failed to save analysis snapshot", map[string]interface{}{
			"sessionId": sessionID,
			"error":     err,
		})
		return false
	}

	h.logger.Info("analysis snapshot saved", map[string]interface{}{"sessionId": sessionID})
	return true
}

// persistTranscript rewrites the object-store transcript after each turn so
// the analysis stage always sees the latest conversation. The messages are
// already durable in the database, so a write failure only costs freshness.
func (h *Handler) persistTranscript(ctx context.Context, sessionID string, messages []StoredMessage) {
	data, err := json.Marshal(Transcript{SessionID: sessionID, Messages: messages})
	if err != nil {
		return
	}
	if err := h.transcripts.PutChat(ctx, sessionID, data); err != nil {
		h.logger.Warn("failed to persist transcript", map[string]interface{}{
			"sessionId": sessionID,
			"error":     err,
		})
	}
}

func (h *Handler) pushReply(ctx context.Context, input *Input, reply, timestamp string) {
	if input.ConnectionID == "" {
		return
	}

	payload, err := json.Marshal(OutboundEvent{
		Type:      "message",
		SessionID: input.SessionID,
		Content:   reply,
		Timestamp: timestamp,
	})
	if err != nil {
		return
	}

	if err := h.redis.Publish(ctx, ChannelKey(input.ConnectionID), payload).Err(); err != nil {
		h.logger.Warn("failed to push reply to connection", map[string]interface{}{
			"connectionId": input.ConnectionID,
			"error":        err,
		})
	}
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
