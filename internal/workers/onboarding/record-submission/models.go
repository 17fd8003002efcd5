// internal/workers/onboarding/record-submission/models.go
package recordsubmission

type Input struct {
	WizardID string                 `json:"wizardId"`
	UserRef  string                 `json:"userRef,omitempty"`
	Type     string                 `json:"type"`
	Status   string                 `json:"status"`
	Payload  map[string]interface{} `json:"payload"`
}

type Output struct {
	SubmissionID     string `json:"submissionId"`
	Reference        string `json:"reference"`
	SubmissionStatus string `json:"submissionStatus"`
	CreatedAt        string `json:"createdAt"` // ISO 8601
}
