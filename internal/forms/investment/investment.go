// Package investment defines the paid investment advisory consultation booking.
package investment

import (
	"opulanz-onboarding/internal/common/validation"
	"opulanz-onboarding/internal/forms/suitability"
	"opulanz-onboarding/internal/submission"
	"opulanz-onboarding/internal/wizard"
)

const (
	WizardID   = "investment"
	StorageKey = "investment-advisory-booking"

	MeetingType     = "Investment Advisory"
	ConsultationFee = 99.90
	Currency        = "EUR"

	PaymentPending = "PENDING"
	PaymentPaid    = "PAID"
	PaymentFailed  = "FAILED"
)

func scheduled(d wizard.Draft) []validation.ValidationError {
	return wizard.Required(d, "appointmentDate", "calendlyEventUrl")
}

func paid(d wizard.Draft) []validation.ValidationError {
	errs := wizard.Required(d, "paymentOrderId")
	if d.String("paymentStatus") != PaymentPaid {
		errs = append(errs, wizard.FieldError("paymentStatus", validation.CodeRuleViolation, "payment not completed"))
	}
	return errs
}

// Definition builds the wizard.
func Definition() *wizard.Definition {
	return &wizard.Definition{
		ID:          WizardID,
		Title:       "Investment advisory consultation",
		Description: "Book a 45 minute consultation with an investment advisor",
		StorageKey:  StorageKey,
		Steps: []wizard.StepDefinition{
			{
				ID:     "profile",
				Order:  1,
				Label:  "Investor Profile",
				Fields: []string{"fullName", "email", "phone", "investmentHorizon", "riskTolerance", "investmentObjective"},
				Schema: validation.JSONSchema{
					Type: "object",
					Properties: map[string]validation.Property{
						"email":             {Type: "string", Format: "email"},
						"investmentHorizon": {Type: "string", Enum: []string{suitability.HorizonShort, suitability.HorizonMedium, suitability.HorizonLong}},
						"riskTolerance": {
							Type:    "integer",
							Minimum: validation.Ptr(float64(suitability.MinRiskTolerance)),
							Maximum: validation.Ptr(float64(suitability.MaxRiskTolerance)),
						},
						"investmentObjective": {Type: "string", Enum: []string{"preservation", "income", "balanced", "growth", "aggressive"}},
					},
					Required: []string{"fullName", "email", "investmentHorizon", "riskTolerance", "investmentObjective"},
				},
				Advisories: []wizard.Advisory{suitability.Advisory("investmentHorizon", "riskTolerance")},
			},
			{
				ID:     "schedule",
				Order:  2,
				Label:  "Choose a Time",
				Fields: []string{"appointmentDate", "appointmentTime", "calendlyEventUrl", "calendlyInviteeUrl"},
				Rules:  []wizard.Rule{scheduled},
			},
			{
				ID:     "payment",
				Order:  3,
				Label:  "Payment",
				Fields: []string{"paymentStatus", "paymentOrderId"},
				Schema: validation.JSONSchema{
					Type: "object",
					Properties: map[string]validation.Property{
						"paymentStatus": {Type: "string", Enum: []string{PaymentPending, PaymentPaid, PaymentFailed}},
					},
				},
				Rules: []wizard.Rule{paid},
			},
			{ID: "confirmation", Order: 4, Label: "Confirmation"},
		},
		InitialDraft: func() wizard.Draft {
			return wizard.Draft{
				"riskTolerance": float64(suitability.DefaultRiskTolerance),
				"paymentStatus": PaymentPending,
				"meetingType":   MeetingType,
				"amount":        ConsultationFee,
				"currency":      Currency,
			}
		},
		Submission: wizard.SubmissionSpec{
			Type:     submission.TypeAppointment,
			Status:   submission.StatusScheduled,
			Endpoint: "/api/appointments",
			Format:   submission.Format{Prefix: "INV", Suffix: true},
			Summary: func(d wizard.Draft) string {
				return MeetingType + " on " + d.String("appointmentDate")
			},
		},
		Scheduling: true,
	}
}
