package submission

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Submission types accepted by the backend.
const (
	TypeIndividual  = "individual"
	TypeCompany     = "company"
	TypeAccounting  = "accounting"
	TypeInsurance   = "insurance"
	TypeTaxAdvisory = "tax_advisory"
	TypeAppointment = "appointment"
)

// Envelope statuses.
const (
	StatusDraft       = "draft"
	StatusSubmitted   = "submitted"
	StatusConfirmed   = "confirmed"
	StatusScheduled   = "scheduled"
	StatusUnderReview = "under_review"
	StatusApproved    = "approved"
	StatusRejected    = "rejected"
)

// Envelope is the JSON body every backend endpoint accepts.
type Envelope struct {
	Type    string                 `json:"type"`
	Status  string                 `json:"status"`
	Payload map[string]interface{} `json:"payload"`
}

var envelopeSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"type", "status", "payload"},
	"properties": map[string]interface{}{
		"type": map[string]interface{}{
			"type": "string",
			"enum": []interface{}{TypeIndividual, TypeCompany, TypeAccounting, TypeInsurance, TypeTaxAdvisory, TypeAppointment},
		},
		"status": map[string]interface{}{
			"type": "string",
			"enum": []interface{}{StatusDraft, StatusSubmitted, StatusConfirmed, StatusScheduled, StatusUnderReview, StatusApproved, StatusRejected},
		},
		"payload": map[string]interface{}{
			"type": "object",
		},
	},
}

// ValidateEnvelope checks env against the backend contract before it is sent.
func ValidateEnvelope(env Envelope) error {
	doc := map[string]interface{}{
		"type":   env.Type,
		"status": env.Status,
	}
	if env.Payload != nil {
		doc["payload"] = env.Payload
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(envelopeSchema),
		gojsonschema.NewGoLoader(doc),
	)
	if err != nil {
		return fmt.Errorf("%w: schema validation error: %v", ErrInvalidEnvelope, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%w: %s", ErrInvalidEnvelope, strings.Join(msgs, "; "))
	}
	return nil
}
