// internal/models/submission.go
package models

import "time"

type SubmissionStatus string

const (
	StatusSubmitted SubmissionStatus = "submitted"
	StatusConfirmed SubmissionStatus = "confirmed"
	StatusApproved  SubmissionStatus = "approved"
	StatusDeclined  SubmissionStatus = "declined"
)

// SubmissionRecord is created once per successful submission. Only Status changes afterwards.
type SubmissionRecord struct {
	ID          string                 `json:"id" db:"id"`
	Reference   string                 `json:"reference" db:"reference"`
	WizardID    string                 `json:"wizardId" db:"wizard_id"`
	Type        string                 `json:"type" db:"type"`
	Status      SubmissionStatus       `json:"status" db:"status"`
	Payload     map[string]interface{} `json:"payload" db:"payload"`
	ServerID    string                 `json:"serverId,omitempty" db:"server_id"`
	UserRef     string                 `json:"userRef" db:"user_ref"`
	SubmittedAt time.Time              `json:"submittedAt" db:"submitted_at"`
}

var transitions = map[SubmissionStatus][]SubmissionStatus{
	StatusSubmitted: {StatusConfirmed, StatusApproved, StatusDeclined},
	StatusConfirmed: {StatusApproved, StatusDeclined},
}

// CanTransition reports whether a record may move from one status to another.
// approved and declined are terminal.
func CanTransition(from, to SubmissionStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// InitialStatus maps the status sent in the submission envelope to the record's
// starting status.
func InitialStatus(envelopeStatus string) SubmissionStatus {
	if envelopeStatus == string(StatusConfirmed) {
		return StatusConfirmed
	}
	return StatusSubmitted
}

// ApplicationMetadata is the lightweight history entry kept per user.
type ApplicationMetadata struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	SubmittedAt time.Time `json:"submittedAt"`
	Status      string    `json:"status"`
	Summary     string    `json:"summary,omitempty"`
}

// Metadata summarizes the record for the history list.
func (r *SubmissionRecord) Metadata(summary string) ApplicationMetadata {
	return ApplicationMetadata{
		ID:          r.Reference,
		Type:        r.Type,
		SubmittedAt: r.SubmittedAt,
		Status:      string(r.Status),
		Summary:     summary,
	}
}
