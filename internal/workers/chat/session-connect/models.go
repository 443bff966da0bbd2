// internal/workers/chat/session-connect/models.go
package sessionconnect

type Input struct {
	ConnectionID string `json:"connectionId"`
	UserID       string `json:"userId,omitempty"`
	SessionID    string `json:"sessionId,omitempty"`
}

type Output struct {
	ConnectionID string `json:"connectionId"`
	SessionID    string `json:"sessionId"`
	Status       string `json:"status"`
}

// ConnectionRecord is the registry entry stored per live connection.
type ConnectionRecord struct {
	ConnectionID string `json:"connectionId"`
	UserID       string `json:"userId"`
	SessionID    string `json:"sessionId"`
	Timestamp    int64  `json:"timestamp"`
}
