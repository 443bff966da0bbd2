// internal/workers/chat/session-disconnect/models.go
package sessiondisconnect

type Input struct {
	ConnectionID string `json:"connectionId"`
}

type Output struct {
	ConnectionID string `json:"connectionId"`
	Status       string `json:"status"`
	Removed      bool   `json:"removed"`
}
