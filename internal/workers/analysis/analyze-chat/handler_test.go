// internal/workers/analysis/analyze-chat/handler_test.go
package analyzechat

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	apperrors "advisor-workers/internal/common/errors"
	"advisor-workers/internal/common/logger"
	"advisor-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		Timeout:    10 * time.Second,
		LLMTimeout: time.Second,
	}
}

type stubChats struct {
	data map[string][]byte
	err  error
}

func (s *stubChats) GetChat(ctx context.Context, sessionID string) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	data, ok := s.data[sessionID]
	if !ok {
		return nil, errors.New("no such key")
	}
	return data, nil
}

type stubGenerator struct {
	text    string
	err     error
	prompts []string
}

func (s *stubGenerator) GenerateContent(ctx context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.text, s.err
}

func storedChat(t *testing.T, messages []ChatMessage) []byte {
	data, err := json.Marshal(ChatHistory{SessionID: "s-1", Messages: messages})
	require.NoError(t, err)
	return data
}

func testMessages() []ChatMessage {
	return []ChatMessage{
		{Type: "user", Content: "I'm a third year CS student interested in machine learning."},
		{Type: "assistant", Content: "What are your career plans after graduation?"},
		{Type: "user", Content: "I want to go to graduate school for AI research."},
	}
}

func modelResponse(t *testing.T) string {
	analysis := models.DefaultAnalysis()
	year := 3
	analysis.StudentProfile.Year = &year
	analysis.StudentProfile.Major = "Computer Science"
	analysis.StudentProfile.Interests = []string{"machine learning"}
	analysis.CareerGoals.PathType = "graduate school"
	analysis.CareerGoals.TargetField = "AI research"

	data, err := json.Marshal(analysis)
	require.NoError(t, err)
	return string(data)
}

// ==========================
// Execution
// ==========================

func TestHandler_Execute_HappyPath(t *testing.T) {
	chats := &stubChats{data: map[string][]byte{"s-1": storedChat(t, testMessages())}}
	generator := &stubGenerator{text: modelResponse(t)}
	handler := NewHandler(createTestConfig(), chats, generator, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{SessionID: "s-1"})

	require.NoError(t, err)
	assert.Equal(t, "s-1", output.SessionID)
	assert.Equal(t, "Computer Science", output.Analysis.StudentProfile.Major)
	assert.Equal(t, []string{"machine learning"}, output.Analysis.StudentProfile.Interests)
	assert.Equal(t, "AI research", output.Analysis.CareerGoals.TargetField)

	// The prompt carries the transcript and the required response shape.
	require.Len(t, generator.prompts, 1)
	assert.Contains(t, generator.prompts[0], "user: I'm a third year CS student interested in machine learning.")
	assert.Contains(t, generator.prompts[0], `"studentProfile"`)
}

func TestHandler_Execute_MissingSessionID(t *testing.T) {
	handler := NewHandler(createTestConfig(), &stubChats{}, &stubGenerator{}, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{})

	assert.Nil(t, output)
	assert.Equal(t, apperrors.ErrCodeValidation, apperrors.CodeOf(err))
}

func TestHandler_Execute_ChatFetchFails(t *testing.T) {
	chats := &stubChats{err: errors.New("bucket unavailable")}
	handler := NewHandler(createTestConfig(), chats, &stubGenerator{}, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{SessionID: "s-1"})

	assert.Nil(t, output)
	assert.Equal(t, apperrors.ErrCodeChatFetchFailed, apperrors.CodeOf(err))
}

func TestHandler_Execute_MalformedHistory(t *testing.T) {
	chats := &stubChats{data: map[string][]byte{"s-1": []byte("not json")}}
	handler := NewHandler(createTestConfig(), chats, &stubGenerator{}, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{SessionID: "s-1"})

	assert.Nil(t, output)
	assert.Equal(t, apperrors.ErrCodeValidation, apperrors.CodeOf(err))
}

func TestHandler_Execute_HistoryWithoutMessages(t *testing.T) {
	chats := &stubChats{data: map[string][]byte{"s-1": []byte(`{"sessionId":"s-1"}`)}}
	handler := NewHandler(createTestConfig(), chats, &stubGenerator{}, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{SessionID: "s-1"})

	assert.Nil(t, output)
	assert.Equal(t, apperrors.ErrCodeValidation, apperrors.CodeOf(err))
}

// ==========================
// Extraction Fallbacks
// ==========================

func TestHandler_Execute_GeneratorFailureFallsBackToDefault(t *testing.T) {
	chats := &stubChats{data: map[string][]byte{"s-1": storedChat(t, testMessages())}}
	generator := &stubGenerator{err: errors.New("model timeout")}
	handler := NewHandler(createTestConfig(), chats, generator, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{SessionID: "s-1"})

	require.NoError(t, err)
	assert.Equal(t, models.DefaultAnalysis(), output.Analysis)
}

func TestHandler_Execute_UnparsableOutputFallsBackToDefault(t *testing.T) {
	chats := &stubChats{data: map[string][]byte{"s-1": storedChat(t, testMessages())}}
	generator := &stubGenerator{text: "I am sorry, I cannot help with that."}
	handler := NewHandler(createTestConfig(), chats, generator, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{SessionID: "s-1"})

	require.NoError(t, err)
	assert.Equal(t, models.DefaultAnalysis(), output.Analysis)
}

func TestHandler_Execute_ProseWrappedJSONIsRescued(t *testing.T) {
	chats := &stubChats{data: map[string][]byte{"s-1": storedChat(t, testMessages())}}
	generator := &stubGenerator{text: "Here you go:\n```json\n" + modelResponse(t) + "\n```"}
	handler := NewHandler(createTestConfig(), chats, generator, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{SessionID: "s-1"})

	require.NoError(t, err)
	assert.Equal(t, "Computer Science", output.Analysis.StudentProfile.Major)
}

// Output always satisfies the totality contract, whatever the model returned.
func TestHandler_Execute_OutputIsAlwaysTotal(t *testing.T) {
	responses := []string{
		`{}`,
		`{"studentProfile": {"year": "three"}}`,
		`{"careerGoals": {"preparation": 7}}`,
	}

	for _, resp := range responses {
		chats := &stubChats{data: map[string][]byte{"s-1": storedChat(t, testMessages())}}
		handler := NewHandler(createTestConfig(), chats, &stubGenerator{text: resp}, logger.NewTestLogger(t))

		output, err := handler.Execute(context.Background(), &Input{SessionID: "s-1"})

		require.NoError(t, err)
		assert.NotNil(t, output.Analysis.StudentProfile.Interests)
		assert.NotNil(t, output.Analysis.CareerGoals.Preparation)
		assert.NotNil(t, output.Analysis.ConsultingNeeds.SpecificQuestions)
		assert.NotNil(t, output.Analysis.RecommendedFocus.Strengths)
	}
}
