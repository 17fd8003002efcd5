// Package personal defines the individual account opening wizard.
package personal

import (
	"opulanz-onboarding/internal/common/validation"
	"opulanz-onboarding/internal/submission"
	"opulanz-onboarding/internal/wizard"
)

const (
	WizardID   = "personal"
	StorageKey = "personal-account-progress"

	ModeCurrent = "current"
	ModePrivate = "private"

	ResidentEurope = "resident-europe"
	NonResident    = "non-resident"

	RoutePrivateBanking = "ROUTE_C_PRIVATE_BANKING"
	RouteNarvi          = "ROUTE_B_NARVI"
	RouteOlky           = "ROUTE_A_OLKY"
)

// BaseDocuments are always required; private banking adds PrivateDocuments.
var (
	BaseDocuments    = []string{"id-document", "proof-address", "sof-docs"}
	PrivateDocuments = []string{"proof-assets", "income-evidence"}
)

// Route picks the partner bank the application is referred to.
func Route(d wizard.Draft) string {
	switch {
	case d.String("mode") == ModePrivate:
		return RoutePrivateBanking
	case d.String("residence") == ResidentEurope && d.String("country") == "FI":
		return RouteNarvi
	default:
		return RouteOlky
	}
}

// RequiredDocuments lists the document ids the applicant must provide.
func RequiredDocuments(d wizard.Draft) []string {
	docs := append([]string{}, BaseDocuments...)
	if d.String("mode") == ModePrivate {
		docs = append(docs, PrivateDocuments...)
	}
	return docs
}

func identityComplete(d wizard.Draft) []validation.ValidationError {
	if d.Bool("emailVerified") && d.Bool("phoneVerified") {
		return nil
	}
	return wizard.Required(d, "firstName", "lastName", "email", "phone")
}

func residenceCountry(d wizard.Draft) []validation.ValidationError {
	if d.String("residence") == NonResident {
		return nil
	}
	return wizard.Required(d, "country")
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
		Title:       "Personal account",
		Description: "Open a personal current or private banking account",
		StorageKey:  StorageKey,
		Steps: []wizard.StepDefinition{
			{
				ID:     "welcome",
				Order:  1,
				Label:  "Welcome",
				Fields: []string{"mode"},
				Schema: validation.JSONSchema{
					Type: "object",
					Properties: map[string]validation.Property{
						"mode": {Type: "string", Enum: []string{ModeCurrent, ModePrivate}},
					},
					Required: []string{"mode"},
				},
			},
			{
				ID:     "identity",
				Order:  2,
				Label:  "Identity & Contact",
				Fields: []string{"firstName", "lastName", "email", "phone", "emailVerified", "phoneVerified", "dateOfBirth", "nationality"},
				Schema: validation.JSONSchema{
					Type: "object",
					Properties: map[string]validation.Property{
						"email":         {Type: "string", Format: "email"},
						"phone":         {Type: "string", Format: "phone"},
						"emailVerified": {Type: "boolean"},
						"phoneVerified": {Type: "boolean"},
					},
				},
				Rules: []wizard.Rule{identityComplete},
			},
			{
				ID:     "intent",
				Order:  3,
				Label:  "Account Intent",
				Fields: []string{"residence", "country", "accountIntent", "currencies", "monthlyTransfers", "sourceOfFunds", "pepScreening"},
				Schema: validation.JSONSchema{
					Type: "object",
					Properties: map[string]validation.Property{
						"residence":        {Type: "string", Enum: []string{ResidentEurope, NonResident}},
						"currencies":       {Type: "array", Items: &validation.Property{Type: "string"}},
						"monthlyTransfers": {Type: "number", Minimum: validation.Ptr(0.0)},
						"pepScreening":     {Type: "boolean"},
					},
					Required: []string{"residence"},
				},
				Rules: []wizard.Rule{residenceCountry},
			},
			{
				ID:     "documents",
				Order:  4,
				Label:  "Documents",
				Fields: []string{"documents", "uploadLater"},
				Rules:  []wizard.Rule{documentsProvided},
			},
			{
				ID:     "review",
				Order:  5,
				Label:  "Review & Consents",
				Fields: []string{"consents"},
				Rules:  []wizard.Rule{consents},
			},
			{
				ID:    "submit",
				Order: 6,
				Label: "Submission",
			},
		},
		InitialDraft: func() wizard.Draft {
			return wizard.Draft{
				"mode":        ModeCurrent,
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
			Type:     submission.TypeIndividual,
			Status:   submission.StatusSubmitted,
			Endpoint: "/api/applications",
			Format:   submission.Format{Prefix: "OPL-P"},
			Enrich: func(d wizard.Draft) map[string]interface{} {
				return map[string]interface{}{"route": Route(d)}
			},
			Summary: func(d wizard.Draft) string {
				return "Personal account for " + d.String("firstName") + " " + d.String("lastName")
			},
		},
	}
}
