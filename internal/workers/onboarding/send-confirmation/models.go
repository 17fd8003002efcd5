// internal/workers/onboarding/send-confirmation/models.go
package sendconfirmation

type Input struct {
	Type      string                 `json:"type"`
	Reference string                 `json:"reference,omitempty"`
	Payload   map[string]interface{} `json:"payload"`
}

type Output struct {
	NotificationID string `json:"notificationId"`
	Status         string `json:"status"` // "sent", "failed", "disabled"
	SentAt         string `json:"sentAt"` // ISO 8601
}

// Statuses
const (
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusDisabled = "disabled"
)
