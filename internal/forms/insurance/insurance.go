// Package insurance defines the life insurance application wizard.
package insurance

import (
	"fmt"

	"opulanz-onboarding/internal/common/validation"
	"opulanz-onboarding/internal/forms/suitability"
	"opulanz-onboarding/internal/submission"
	"opulanz-onboarding/internal/wizard"
)

const (
	WizardID   = "insurance"
	StorageKey = "insurance-application-progress"

	PremiumSingle  = "single"
	PremiumRegular = "regular"

	FrequencyMonthly   = "monthly"
	FrequencyQuarterly = "quarterly"
	FrequencyAnnual    = "annual"

	PaymentBankTransfer = "bank-transfer"
	PaymentPaypal       = "paypal"
	PaymentCheck        = "check"
)

// Declarations must all be confirmed before the application can be reviewed.
var Declarations = []string{
	"healthDeclaration",
	"accuracyDeclaration",
	"taxComplianceDeclaration",
	"amlDeclaration",
	"dataProcessingConsent",
	"termsAndConditions",
	"electronicSignature",
}

// RequiredDocuments are the compliance uploads. tax-residency is optional.
var RequiredDocuments = []string{"passport", "proof-address", "sof-docs"}

// MinimumPremium is the smallest accepted amount for a premium type. A single
// premium ignores the frequency.
func MinimumPremium(premiumType, frequency string) float64 {
	switch premiumType {
	case PremiumSingle:
		return 25000
	case PremiumRegular:
		switch frequency {
		case FrequencyMonthly:
			return 500
		case FrequencyQuarterly:
			return 1500
		case FrequencyAnnual:
			return 5000
		}
	}
	return 0
}

// PremiumAmount is the amount field matching the selected premium type.
func PremiumAmount(d wizard.Draft) (float64, bool) {
	if d.String("premiumType") == PremiumRegular {
		return d.Float("regularPremiumAmount")
	}
	return d.Float("singlePremiumAmount")
}

func financialProfile(d wizard.Draft) []validation.ValidationError {
	var errs []validation.ValidationError
	switch d.String("employmentStatus") {
	case "employed":
		errs = append(errs, wizard.Required(d, "occupation", "employer")...)
	case "self-employed":
		errs = append(errs, wizard.Required(d, "occupation")...)
	}
	if d.String("sourceOfFunds") == "other" {
		errs = append(errs, wizard.Required(d, "sourceOfFundsDetails")...)
	}
	if d.String("sourceOfWealth") == "other" {
		errs = append(errs, wizard.Required(d, "sourceOfWealthDetails")...)
	}
	if d.Bool("isPEP") {
		errs = append(errs, wizard.Required(d, "pepDetails")...)
	}
	return errs
}

func premium(d wizard.Draft) []validation.ValidationError {
	var errs []validation.ValidationError

	field := "singlePremiumAmount"
	if d.String("premiumType") == PremiumRegular {
		field = "regularPremiumAmount"
		errs = append(errs, wizard.Required(d, "regularPremiumFrequency")...)
	}
	minimum := MinimumPremium(d.String("premiumType"), d.String("regularPremiumFrequency"))
	amount, ok := PremiumAmount(d)
	switch {
	case !ok:
		errs = append(errs, wizard.FieldError(field, validation.CodeRequired, "premium amount required"))
	case amount < minimum:
		errs = append(errs, wizard.FieldError(field, validation.CodeMinimum, fmt.Sprintf("minimum premium is %g", minimum)))
	}

	if d.String("paymentMethod") == PaymentBankTransfer {
		errs = append(errs, wizard.Required(d, "accountHolder", "iban", "bic", "bankName")...)
	}
	return errs
}

func beneficiaries(d wizard.Draft) []validation.ValidationError {
	list := d.Maps("beneficiaries")
	if len(list) == 0 {
		return []validation.ValidationError{wizard.FieldError("beneficiaries", validation.CodeRequired, "at least one beneficiary required")}
	}

	var errs []validation.ValidationError
	for i, b := range list {
		for _, e := range wizard.Required(b, "type", "title", "firstName", "lastName", "dateOfBirth", "relationship", "percentage") {
			e.Field = fmt.Sprintf("beneficiaries[%d].%s", i, e.Field)
			errs = append(errs, e)
		}
	}
	if total := wizard.SumField(list, "percentage"); !wizard.TotalsHundred(total) {
		errs = append(errs, wizard.FieldError("beneficiaries", validation.CodeRuleViolation,
			fmt.Sprintf("beneficiary percentages total %g, must be 100", total)))
	}
	return errs
}

func compliance(d wizard.Draft) []validation.ValidationError {
	errs := wizard.FlagsSet(d, Declarations...)
	return append(errs, wizard.DocumentsReady(d, "complianceDocuments", RequiredDocuments...)...)
}

// Definition builds the wizard.
func Definition() *wizard.Definition {
	return &wizard.Definition{
		ID:          WizardID,
		Title:       "Life insurance",
		Description: "Apply for a Luxembourg life insurance policy",
		StorageKey:  StorageKey,
		Steps: []wizard.StepDefinition{
			{
				ID:     "policyholder",
				Order:  1,
				Label:  "Policyholder & Tax",
				Fields: []string{"title", "firstName", "lastName", "email", "phone", "dateOfBirth", "nationality", "address", "city", "postalCode", "country", "taxCountry", "tin", "additionalTaxResidencies", "usPerson"},
				Schema: validation.JSONSchema{
					Type: "object",
					Properties: map[string]validation.Property{
						"email": {Type: "string", Format: "email"},
					},
					Required: []string{"firstName", "lastName", "email"},
				},
			},
			{
				ID:     "financial",
				Order:  2,
				Label:  "Financial Profile",
				Fields: []string{"employmentStatus", "occupation", "employer", "annualIncome", "totalAssets", "liquidAssets", "sourceOfFunds", "sourceOfFundsDetails", "sourceOfWealth", "sourceOfWealthDetails", "isPEP", "pepDetails"},
				Schema: validation.JSONSchema{
					Type: "object",
					Properties: map[string]validation.Property{
						"employmentStatus": {Type: "string", Enum: []string{"employed", "self-employed", "retired", "unemployed", "student"}},
						"isPEP":            {Type: "boolean"},
					},
					Required: []string{"employmentStatus", "annualIncome", "totalAssets", "liquidAssets", "sourceOfFunds", "sourceOfWealth"},
				},
				Rules: []wizard.Rule{financialProfile},
			},
			{
				ID:     "investment",
				Order:  3,
				Label:  "Investment Profile",
				Fields: []string{"investmentHorizon", "investmentKnowledge", "investmentExperience", "investmentObjective", "expectedReturn", "liquidityNeeds", "riskTolerance"},
				Schema: validation.JSONSchema{
					Type: "object",
					Properties: map[string]validation.Property{
						"investmentHorizon": {Type: "string", Enum: []string{suitability.HorizonShort, suitability.HorizonMedium, suitability.HorizonLong}},
						"riskTolerance": {
							Type:    "integer",
							Minimum: validation.Ptr(float64(suitability.MinRiskTolerance)),
							Maximum: validation.Ptr(float64(suitability.MaxRiskTolerance)),
						},
					},
					Required: []string{"investmentHorizon", "investmentKnowledge", "investmentExperience", "investmentObjective", "expectedReturn", "liquidityNeeds"},
				},
				Advisories: []wizard.Advisory{suitability.Advisory("investmentHorizon", "riskTolerance")},
			},
			{
				ID:     "premium",
				Order:  4,
				Label:  "Premium & Payments",
				Fields: []string{"currency", "premiumType", "singlePremiumAmount", "regularPremiumAmount", "regularPremiumFrequency", "paymentMethod", "accountHolder", "iban", "bic", "bankName"},
				Schema: validation.JSONSchema{
					Type: "object",
					Properties: map[string]validation.Property{
						"premiumType":             {Type: "string", Enum: []string{PremiumSingle, PremiumRegular}},
						"regularPremiumFrequency": {Type: "string", Enum: []string{FrequencyMonthly, FrequencyQuarterly, FrequencyAnnual}},
						"paymentMethod":           {Type: "string", Enum: []string{PaymentBankTransfer, PaymentPaypal, PaymentCheck}},
						"iban":                    {Type: "string", Format: "iban"},
						"bic":                     {Type: "string", Format: "bic"},
					},
					Required: []string{"currency", "premiumType", "paymentMethod"},
				},
				Rules: []wizard.Rule{premium},
			},
			{
				ID:     "beneficiaries",
				Order:  5,
				Label:  "Beneficiaries",
				Fields: []string{"beneficiaries"},
				Rules:  []wizard.Rule{beneficiaries},
			},
			{
				ID:     "compliance",
				Order:  6,
				Label:  "Compliance & Declarations",
				Fields: append([]string{"complianceDocuments", "uploadLater"}, Declarations...),
				Rules:  []wizard.Rule{compliance},
			},
			{ID: "review", Order: 7, Label: "Review & Submit"},
		},
		InitialDraft: func() wizard.Draft {
			d := wizard.Draft{
				"currency":            "EUR",
				"premiumType":         PremiumSingle,
				"riskTolerance":       float64(suitability.DefaultRiskTolerance),
				"isPEP":               false,
				"beneficiaries":       []interface{}{},
				"complianceDocuments": []interface{}{},
				"uploadLater":         false,
			}
			for _, k := range Declarations {
				d[k] = false
			}
			return d
		},
		Submission: wizard.SubmissionSpec{
			Type:     submission.TypeInsurance,
			Status:   submission.StatusSubmitted,
			Endpoint: "/api/applications",
			Format:   submission.Format{Prefix: "INS", Suffix: true},
			Summary: func(d wizard.Draft) string {
				return "Life insurance for " + d.String("firstName") + " " + d.String("lastName")
			},
		},
	}
}
