// internal/workers/chat/chat-message/models.go
package chatmessage

import "advisor-workers/internal/models"

type Input struct {
	SessionID    string `json:"sessionId"`
	ConnectionID string `json:"connectionId,omitempty"`
	Message      string `json:"message"`
}

type Output struct {
	SessionID     string `json:"sessionId"`
	Reply         string `json:"reply"`
	AnalysisSaved bool   `json:"analysisSaved"`
}

// StoredMessage is one turn of the conversation as persisted and replayed.
type StoredMessage struct {
	Type      string `json:"type"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// Transcript is the serialized form written to object storage, matching what
// the analysis worker reads back.
type Transcript struct {
	SessionID string          `json:"sessionId"`
	Messages  []StoredMessage `json:"messages"`
}

// OutboundEvent is the payload published to the connection channel.
type OutboundEvent struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// extractedAnalysis pairs the raw block with its validated form.
type extractedAnalysis struct {
	raw      string
	analysis *models.StudentAnalysis
}
