// internal/workers/notification/notify-match/models.go
package notifymatch

import "advisor-workers/internal/models"

type Input struct {
	SessionID        string                 `json:"sessionId"`
	StudentID        string                 `json:"studentId,omitempty"`
	StudentEmail     string                 `json:"studentEmail,omitempty"`
	StudentPhone     string                 `json:"studentPhone,omitempty"`
	NotificationType string                 `json:"notificationType"`
	Priority         string                 `json:"priority,omitempty"`
	Match            *models.MatchResult    `json:"match,omitempty"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
}

type Output struct {
	NotificationID string `json:"notificationId"`
	Status         string `json:"status"` // "sent", "failed", "disabled"
	SentAt         string `json:"sentAt"` // ISO 8601
}

// Notification types
const (
	TypeMatchFound   = "match_found"
	TypeResultsReady = "results_ready"
)

// Statuses
const (
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusDisabled = "disabled"
)
