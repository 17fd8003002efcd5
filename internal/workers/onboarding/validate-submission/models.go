// internal/workers/onboarding/validate-submission/models.go
package validatesubmission

import "opulanz-onboarding/internal/common/validation"

// Input mirrors the process variables the submission client starts the
// process with. Without WizardID the wizard is found by type and endpoint,
// which fails when several wizards share them.
type Input struct {
	WizardID string                 `json:"wizardId,omitempty"`
	Endpoint string                 `json:"endpoint"`
	Type     string                 `json:"type"`
	Status   string                 `json:"status"`
	Payload  map[string]interface{} `json:"payload"`
}

type Output struct {
	WizardID         string                       `json:"wizardId"`
	IsValid          bool                         `json:"isValid"`
	ValidationErrors []validation.ValidationError `json:"validationErrors"`
}
