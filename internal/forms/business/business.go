// Package business defines the company account opening wizard.
package business

import (
	"fmt"

	"opulanz-onboarding/internal/common/validation"
	"opulanz-onboarding/internal/submission"
	"opulanz-onboarding/internal/wizard"
)

const (
	WizardID   = "business"
	StorageKey = "business-account-progress"

	StatusExisting = "existing"
	StatusNew      = "new"
)

var (
	// ExistingCompanyDocuments are only asked of companies already incorporated.
	ExistingCompanyDocuments = []string{"company-registration", "articles"}
	CommonDocuments          = []string{"ubo-register", "director-ids", "ubo-ids", "business-address"}
)

// RequiredDocuments depends on the company status.
func RequiredDocuments(d wizard.Draft) []string {
	var docs []string
	if d.String("companyStatus") == StatusExisting {
		docs = append(docs, ExistingCompanyDocuments...)
	}
	return append(docs, CommonDocuments...)
}

func companyDetails(d wizard.Draft) []validation.ValidationError {
	switch d.String("companyStatus") {
	case StatusExisting:
		return wizard.Required(d, "companyName", "registrationNumber")
	case StatusNew:
		return nil
	}
	return []validation.ValidationError{wizard.FieldError("companyStatus", validation.CodeRequired, "select existing or new")}
}

func people(d wizard.Draft) []validation.ValidationError {
	var errs []validation.ValidationError
	directors := d.Maps("directors")
	if len(directors) == 0 {
		errs = append(errs, wizard.FieldError("directors", validation.CodeRequired, "at least one director required"))
	}
	for i, p := range directors {
		for _, e := range wizard.Required(p, "firstName", "lastName", "email") {
			e.Field = fmt.Sprintf("directors[%d].%s", i, e.Field)
			errs = append(errs, e)
		}
	}
	for i, p := range d.Maps("ubos") {
		for _, e := range wizard.Required(p, "firstName", "lastName", "email", "ownership") {
			e.Field = fmt.Sprintf("ubos[%d].%s", i, e.Field)
			errs = append(errs, e)
		}
	}
	return errs
}

func formation(d wizard.Draft) []validation.ValidationError {
	if d.String("companyStatus") != StatusNew {
		return nil
	}
	return wizard.Required(d, "proposedName", "businessActivity", "shareCapital")
}

func documentsProvided(d wizard.Draft) []validation.ValidationError {
	return wizard.DocumentsReady(d, "documents", RequiredDocuments(d)...)
}

func consents(d wizard.Draft) []validation.ValidationError {
	return wizard.ConsentsGiven(d, "processing", "dataSharing")
}

// Definition builds the wizard.
func Definition() *wizard.Definition {
	return &wizard.Definition{
		ID:          WizardID,
		Title:       "Business account",
		Description: "Open an account for an existing or newly formed company",
		StorageKey:  StorageKey,
		Steps: []wizard.StepDefinition{
			{ID: "welcome", Order: 1, Label: "Welcome", Fields: []string{"contactEmail"}},
			{
				ID:     "company-status",
				Order:  2,
				Label:  "Company Status",
				Fields: []string{"companyStatus", "companyName", "registrationNumber"},
				Schema: validation.JSONSchema{
					Type: "object",
					Properties: map[string]validation.Property{
						"companyStatus": {Type: "string", Enum: []string{StatusExisting, StatusNew}},
					},
				},
				Rules: []wizard.Rule{companyDetails},
			},
			{
				ID:     "jurisdiction",
				Order:  3,
				Label:  "Jurisdiction",
				Fields: []string{"jurisdiction"},
				Schema: validation.JSONSchema{
					Type:     "object",
					Required: []string{"jurisdiction"},
				},
			},
			{
				ID:     "people",
				Order:  4,
				Label:  "Directors & UBOs",
				Fields: []string{"directors", "ubos"},
				Rules:  []wizard.Rule{people},
			},
			{
				ID:     "formation",
				Order:  5,
				Label:  "Company Formation",
				Fields: []string{"proposedName", "businessActivity", "shareCapital"},
				Schema: validation.JSONSchema{
					Type: "object",
					Properties: map[string]validation.Property{
						"shareCapital": {Type: "number", Minimum: validation.Ptr(0.0)},
					},
				},
				Rules: []wizard.Rule{formation},
			},
			{
				ID:     "documents",
				Order:  6,
				Label:  "Documents",
				Fields: []string{"documents", "uploadLater"},
				Rules:  []wizard.Rule{documentsProvided},
			},
			{
				ID:     "review",
				Order:  7,
				Label:  "Review & Consents",
				Fields: []string{"consents"},
				Rules:  []wizard.Rule{consents},
			},
			{ID: "submit", Order: 8, Label: "Submission"},
		},
		InitialDraft: func() wizard.Draft {
			return wizard.Draft{
				"directors":   []interface{}{},
				"ubos":        []interface{}{},
				"documents":   []interface{}{},
				"uploadLater": false,
				"consents": map[string]interface{}{
					"processing":  false,
					"dataSharing": false,
					"marketing":   false,
				},
			}
		},
		Submission: wizard.SubmissionSpec{
			Type:     submission.TypeCompany,
			Status:   submission.StatusSubmitted,
			Endpoint: "/api/applications",
			Format:   submission.Format{Prefix: "OPL-B"},
			Summary: func(d wizard.Draft) string {
				if name := d.String("companyName"); name != "" {
					return "Business account for " + name
				}
				return "Business account for " + d.String("proposedName")
			},
		},
	}
}
