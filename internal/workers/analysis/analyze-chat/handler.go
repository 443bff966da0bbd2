// internal/workers/analysis/analyze-chat/handler.go
package analyzechat

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"

	"advisor-workers/internal/common/errors"
	"advisor-workers/internal/common/logger"
	"advisor-workers/internal/common/metrics"
	"advisor-workers/internal/common/validation"
	"advisor-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "analyze-chat"

// ChatFetcher loads the stored transcript for a session. Satisfied by the
// shared object store.
type ChatFetcher interface {
	GetChat(ctx context.Context, sessionID string) ([]byte, error)
}

// Generator produces raw model output for an extraction prompt.
type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

type Handler struct {
	config    *Config
	chats     ChatFetcher
	generator Generator
	logger    logger.Logger
}

func NewHandler(config *Config, chats ChatFetcher, generator Generator, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
		chats:     chats,
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

	raw, err := h.chats.GetChat(ctx, input.SessionID)
	if err != nil {
		return nil, errors.NewChatFetchFailedError(err)
	}

	var history ChatHistory
	if err := json.Unmarshal(raw, &history); err != nil {
		return nil, errors.NewValidationError(fmt.Sprintf("invalid chat history format: %v", err))
	}
	if history.Messages == nil {
		return nil, errors.NewValidationError("chat history has no messages")
	}

	analysis := h.analyzeChatContent(ctx, history.Messages)

	return &Output{SessionID: input.SessionID, Analysis: analysis}, nil
}

// analyzeChatContent runs extraction over the transcript. Extraction is
// best-effort: any failure along the way degrades to the default analysis
// rather than failing the job.
func (h *Handler) analyzeChatContent(ctx context.Context, messages []ChatMessage) models.StudentAnalysis {
	llmCtx, cancel := context.WithTimeout(ctx, h.config.LLMTimeout)
	defer cancel()

	raw, err := h.generator.GenerateContent(llmCtx, buildExtractionPrompt(messages))
	if err != nil {
		h.logger.Warn("extraction call failed, using default analysis", map[string]interface{}{
			"error": err,
		})
		metrics.AnalysisFallbacks.Inc()
		return models.DefaultAnalysis()
	}

	doc, ok := extractAnalysisJSON(raw)
	if !ok {
		h.logger.Warn("no parsable JSON in model output, using default analysis", nil)
		metrics.AnalysisFallbacks.Inc()
		return models.DefaultAnalysis()
	}

	analysis := cleanAnalysis(doc)

	// Invariant check: the cleaned value must satisfy the totality schema.
	if res, err := validation.ValidateObject(analysis, analysisSchema); err != nil || !res.Valid {
		summary := ""
		if res != nil {
			summary = res.ErrorSummary()
		}
		h.logger.Error("cleaned analysis failed schema validation, using default", map[string]interface{}{
			"error":   err,
			"details": summary,
		})
		metrics.AnalysisFallbacks.Inc()
		return models.DefaultAnalysis()
	}

	return analysis
}

// buildExtractionPrompt embeds the default analysis as the exact JSON shape
// the model must return.
func buildExtractionPrompt(messages []ChatMessage) string {
	lines := make([]string, 0, len(messages))
	for _, msg := range messages {
		lines = append(lines, fmt.Sprintf("%s: %s", msg.Type, msg.Content))
	}

	template, _ := json.MarshalIndent(models.DefaultAnalysis(), "", "  ")

	return fmt.Sprintf(`Analyze the following conversation and respond with exact JSON only. Never include explanations or any other text.

System: you are a student advising analyst. Identify the student's profile, career goals, and advising needs from the conversation.

Conversation to analyze:
%s

Respond only with JSON in this exact shape:
%s

Response rules:
1. Follow the JSON structure above exactly
2. Include every field even when it is null or an empty array
3. Respond with pure JSON, no extra prose or markdown
4. Numbers must be number typed, text must be string typed`,
		strings.Join(lines, "\n"),
		string(template),
	)
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
