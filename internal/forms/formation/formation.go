// Package formation defines the Luxembourg company formation dossier wizard.
package formation

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"opulanz-onboarding/internal/common/validation"
	"opulanz-onboarding/internal/submission"
	"opulanz-onboarding/internal/wizard"
)

const (
	WizardID   = "formation"
	StorageKey = "opulanz_company_formation_"

	PaymentPending = "PENDING"
	PaymentPaid    = "PAID"
	PaymentFailed  = "FAILED"
)

var NotaryLanguages = []string{"FR", "EN", "DE"}

func formOf(d wizard.Draft) FormType {
	return FormType(d.String("formType"))
}

func personErrors(list string, people []wizard.Draft) []validation.ValidationError {
	var errs []validation.ValidationError
	for i, p := range people {
		for _, e := range wizard.Required(p, "firstName", "lastName") {
			e.Field = fmt.Sprintf("%s[%d].%s", list, i, e.Field)
			errs = append(errs, e)
		}
	}
	return errs
}

func generalInfo(d wizard.Draft) []validation.ValidationError {
	var named bool
	for _, n := range d.Slice("proposedNames") {
		if s, ok := n.(string); ok && strings.TrimSpace(s) != "" {
			named = true
			break
		}
	}
	errs := wizard.Required(d, "purpose", "registeredOffice")
	if !named {
		errs = append([]validation.ValidationError{
			wizard.FieldError("proposedNames", validation.CodeRequired, "at least one proposed name required"),
		}, errs...)
	}
	return errs
}

func people(d wizard.Draft) []validation.ValidationError {
	r, err := RulesFor(formOf(d))
	if err != nil {
		return []validation.ValidationError{wizard.FieldError("formType", validation.CodeEnum, err.Error())}
	}

	shareholders := d.Maps("shareholders")
	var errs []validation.ValidationError
	if len(shareholders) == 0 {
		errs = append(errs, wizard.FieldError("shareholders", validation.CodeRequired, "at least one shareholder required"))
	}
	errs = append(errs, personErrors("shareholders", shareholders)...)

	managers := d.Maps("managers")
	if len(managers) < r.MinManagers {
		errs = append(errs, wizard.FieldError("managers", validation.CodeRuleViolation,
			fmt.Sprintf("%s requires at least %d manager(s)", formOf(d), r.MinManagers)))
	}
	errs = append(errs, personErrors("managers", managers)...)

	directors := d.Maps("directors")
	if len(directors) < r.MinDirectors {
		errs = append(errs, wizard.FieldError("directors", validation.CodeRuleViolation,
			fmt.Sprintf("%s requires at least %d director(s)", formOf(d), r.MinDirectors)))
	}
	return append(errs, personErrors("directors", directors)...)
}

func capital(d wizard.Draft) []validation.ValidationError {
	amount, ok := d.Float("capitalAmount")
	if !ok {
		return []validation.ValidationError{wizard.FieldError("capitalAmount", validation.CodeRequired, "capital amount required")}
	}

	var errs []validation.ValidationError
	if err := ValidateCapital(formOf(d), amount); err != nil {
		code := validation.CodeMinimum
		if errors.Is(err, ErrCapitalAboveMaximum) {
			code = validation.CodeMaximum
		}
		errs = append(errs, wizard.FieldError("capitalAmount", code, err.Error()))
	}

	paidUp := float64(DefaultPaidUpPercent)
	if v, ok := d.Float("capitalPaidUpPercent"); ok {
		paidUp = v
	}
	if err := ValidatePaidUp(formOf(d), paidUp); err != nil {
		errs = append(errs, wizard.FieldError("capitalPaidUpPercent", validation.CodeRuleViolation, err.Error()))
	}
	return errs
}

func documents(d wizard.Draft) []validation.ValidationError {
	uploads := wizard.Draft(d.Map("uploads"))
	var errs []validation.ValidationError
	if len(uploads.Slice("ids")) == 0 {
		errs = append(errs, wizard.FieldError("uploads.ids", validation.CodeRequired, "identity documents required"))
	}
	if !d.Bool("domiciliationNeeded") && len(uploads.Slice("leaseOrDomiciliation")) == 0 {
		errs = append(errs, wizard.FieldError("uploads.leaseOrDomiciliation", validation.CodeRequired, "lease or domiciliation agreement required"))
	}
	return errs
}

func review(d wizard.Draft) []validation.ValidationError {
	errs := wizard.ConsentsGiven(d, "termsAccepted", "privacyAccepted", "accuracyConfirmed")
	if d.String("paymentStatus") != PaymentPaid {
		errs = append(errs, wizard.FieldError("paymentStatus", validation.CodeRuleViolation, "setup fee not paid"))
	}
	return errs
}

// ShareholdingAdvisory warns when shareholder percentages do not total 100.
func ShareholdingAdvisory(d wizard.Draft) string {
	shareholders := d.Maps("shareholders")
	if len(shareholders) == 0 {
		return ""
	}
	if total := wizard.SumField(shareholders, "sharePercent"); !wizard.TotalsHundred(total) {
		return fmt.Sprintf("Shareholder percentages total %g%%, they should total 100%%.", total)
	}
	return ""
}

// ContributionAdvisory warns when contributions do not add up to the capital.
func ContributionAdvisory(d wizard.Draft) string {
	contributions := d.Maps("contributions")
	amount, ok := d.Float("capitalAmount")
	if len(contributions) == 0 || !ok {
		return ""
	}
	if total := wizard.SumField(contributions, "amount"); math.Abs(total-amount) >= wizard.PercentTolerance {
		return fmt.Sprintf("Contributions total EUR %g but the share capital is EUR %g.", total, amount)
	}
	return ""
}

func formTypeNames() []string {
	var out []string
	for _, f := range FormTypes() {
		out = append(out, string(f))
	}
	return out
}

// Definition builds the wizard. Drafts are stored per user.
func Definition() *wizard.Definition {
	return &wizard.Definition{
		ID:                WizardID,
		Title:             "Company formation",
		Description:       "Prepare the notarial dossier for a new Luxembourg company",
		StorageKey:        StorageKey,
		StorageKeyPerUser: true,
		Steps: []wizard.StepDefinition{
			{
				ID:     "company-type",
				Order:  1,
				Label:  "Company Type",
				Fields: []string{"formType"},
				Schema: validation.JSONSchema{
					Type: "object",
					Properties: map[string]validation.Property{
						"formType": {Type: "string", Enum: formTypeNames()},
					},
					Required: []string{"formType"},
				},
			},
			{
				ID:     "general-info",
				Order:  2,
				Label:  "General Info",
				Fields: []string{"proposedNames", "purpose", "registeredOffice", "duration", "country"},
				Rules:  []wizard.Rule{generalInfo},
			},
			{
				ID:         "people",
				Order:      3,
				Label:      "People",
				Fields:     []string{"shareholders", "directors", "managers", "ubos"},
				Rules:      []wizard.Rule{people},
				Advisories: []wizard.Advisory{ShareholdingAdvisory},
			},
			{
				ID:     "capital",
				Order:  4,
				Label:  "Capital",
				Fields: []string{"capitalAmount", "capitalCurrency", "capitalPaidUpPercent", "contributions"},
				Schema: validation.JSONSchema{
					Type: "object",
					Properties: map[string]validation.Property{
						"capitalAmount": {Type: "number"},
						"contributions": {Type: "array", Items: &validation.Property{
							Type: "object",
							Properties: map[string]validation.Property{
								"type":   {Type: "string", Enum: []string{"CASH", "INKIND"}},
								"amount": {Type: "number", Minimum: validation.Ptr(0.0)},
							},
						}},
					},
				},
				Rules:      []wizard.Rule{capital},
				Advisories: []wizard.Advisory{ContributionAdvisory},
			},
			{
				ID:     "activity",
				Order:  5,
				Label:  "Activity",
				Fields: []string{"naceCode", "expectedTurnover", "numberOfEmployees"},
				Schema: validation.JSONSchema{
					Type:     "object",
					Required: []string{"naceCode"},
				},
			},
			{
				ID:     "notary",
				Order:  6,
				Label:  "Notary & Domiciliation",
				Fields: []string{"notaryPreferences", "domiciliationNeeded"},
				Schema: validation.JSONSchema{
					Type: "object",
					Properties: map[string]validation.Property{
						"notaryPreferences": {Type: "object", Properties: map[string]validation.Property{
							"language": {Type: "string", Enum: NotaryLanguages},
						}},
						"domiciliationNeeded": {Type: "boolean"},
					},
				},
			},
			{
				ID:     "documents",
				Order:  7,
				Label:  "Documents",
				Fields: []string{"uploads"},
				Rules:  []wizard.Rule{documents},
			},
			{
				ID:     "review",
				Order:  8,
				Label:  "Review & Submit",
				Fields: []string{"consents", "paymentStatus", "paypalOrderId", "setupFeeAmount"},
				Rules:  []wizard.Rule{review},
			},
		},
		InitialDraft: func() wizard.Draft {
			return wizard.Draft{
				"proposedNames":        []interface{}{},
				"country":              "LU",
				"shareholders":         []interface{}{},
				"directors":            []interface{}{},
				"managers":             []interface{}{},
				"ubos":                 []interface{}{},
				"capitalCurrency":      "EUR",
				"capitalPaidUpPercent": float64(DefaultPaidUpPercent),
				"contributions":        []interface{}{},
				"domiciliationNeeded":  false,
				"uploads": map[string]interface{}{
					"ids":                  []interface{}{},
					"leaseOrDomiciliation": []interface{}{},
					"capitalCertificate":   nil,
				},
				"consents": map[string]interface{}{
					"termsAccepted":     false,
					"privacyAccepted":   false,
					"accuracyConfirmed": false,
				},
				"paymentStatus": PaymentPending,
			}
		},
		Submission: wizard.SubmissionSpec{
			Type:     submission.TypeCompany,
			Status:   submission.StatusSubmitted,
			Endpoint: "/api/applications",
			Format:   submission.Format{Prefix: "CF", Suffix: true},
			Summary: func(d wizard.Draft) string {
				name := ""
				if names := d.Slice("proposedNames"); len(names) > 0 {
					name, _ = names[0].(string)
				}
				return fmt.Sprintf("%s formation: %s", d.String("formType"), name)
			},
		},
	}
}
