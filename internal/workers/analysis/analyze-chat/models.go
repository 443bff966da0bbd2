// internal/workers/analysis/analyze-chat/models.go
package analyzechat

import "advisor-workers/internal/models"

type Input struct {
	SessionID string `json:"sessionId"`
}

type Output struct {
	SessionID string                 `json:"sessionId"`
	Analysis  models.StudentAnalysis `json:"analysis"`
}

// ChatMessage is one turn of the stored conversation.
type ChatMessage struct {
	Type      string `json:"type"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp,omitempty"`
}

// ChatHistory is the transcript blob persisted by the chat workers.
type ChatHistory struct {
	SessionID string        `json:"sessionId"`
	Messages  []ChatMessage `json:"messages"`
}
