// Package kyc defines the advisory client file (KYC) wizard. The information
// step branches on the client type: natural persons (PP) describe the holder and
// family, legal persons (PM) the company, its representatives and owners.
package kyc

import (
	"fmt"

	"opulanz-onboarding/internal/common/validation"
	"opulanz-onboarding/internal/submission"
	"opulanz-onboarding/internal/wizard"
)

const (
	WizardID   = "kyc"
	StorageKey = "kyc-wizard-progress"

	ClientPP = "PP"
	ClientPM = "PM"

	MissionAdvisory      = "advisory"
	MissionDiscretionary = "discretionary"
	MissionExecution     = "execution"
)

var (
	Languages       = []string{"fr", "en"}
	Experience      = []string{"beginner", "intermediate", "experienced"}
	RiskTolerances  = []string{"conservative", "moderate", "balanced", "dynamic"}
	MissionTypes    = []string{MissionAdvisory, MissionDiscretionary, MissionExecution}
	MaritalStatuses = []string{"single", "married", "pacs", "divorced", "widowed", "cohabitation"}

	// RequiredConsents must all be given; marketing stays optional.
	RequiredConsents = []string{"dataProcessing", "kyc", "electronic"}
)

// branchKeys are the draft keys only one client type fills.
var branchKeys = map[string][]string{
	ClientPP: {"holders", "family"},
	ClientPM: {"company", "representatives", "fatcaCrs", "beneficialOwners"},
}

func contact(d wizard.Draft) []validation.ValidationError {
	var errs []validation.ValidationError
	for _, e := range wizard.Required(wizard.Draft(d.Map("basicContact")), "email", "mobile") {
		e.Field = "basicContact." + e.Field
		errs = append(errs, e)
	}
	return errs
}

func nested(d wizard.Draft, prefix string, keys ...string) []validation.ValidationError {
	var errs []validation.ValidationError
	for _, e := range wizard.Required(d, keys...) {
		e.Field = prefix + "." + e.Field
		errs = append(errs, e)
	}
	return errs
}

func individual(d wizard.Draft) []validation.ValidationError {
	holder := wizard.Draft(wizard.Draft(d.Map("holders")).Map("holder1"))
	errs := nested(holder, "holders.holder1",
		"title", "firstName", "lastName", "dateOfBirth", "placeOfBirth", "nationality", "maritalStatus")
	errs = append(errs, nested(wizard.Draft(holder.Map("address")), "holders.holder1.address",
		"line1", "city", "postalCode", "country")...)
	errs = append(errs, nested(wizard.Draft(holder.Map("taxResidency")), "holders.holder1.taxResidency",
		"country", "taxIdentificationNumber")...)
	errs = append(errs, nested(wizard.Draft(holder.Map("professionalSituation")), "holders.holder1.professionalSituation",
		"status")...)
	errs = append(errs, nested(wizard.Draft(d.Map("financialSituation")), "financialSituation",
		"annualIncome", "incomeSource")...)
	return errs
}

func corporate(d wizard.Draft) []validation.ValidationError {
	company := wizard.Draft(d.Map("company"))
	errs := nested(company, "company",
		"legalName", "legalForm", "dateOfIncorporation", "registrationNumber", "registrationCountry",
		"taxIdentificationNumber", "sector")
	errs = append(errs, nested(wizard.Draft(company.Map("registeredAddress")), "company.registeredAddress",
		"line1", "city", "postalCode", "country")...)

	reps := d.Maps("representatives")
	if len(reps) == 0 {
		errs = append(errs, wizard.FieldError("representatives", validation.CodeRequired, "at least one representative required"))
	}
	for i, r := range reps {
		errs = append(errs, nested(r, fmt.Sprintf("representatives[%d]", i),
			"title", "firstName", "lastName", "position", "dateOfBirth", "nationality", "email", "mobile")...)
	}

	fatca := wizard.Draft(d.Map("fatcaCrs"))
	if len(fatca.Slice("taxResidentCountries")) == 0 {
		errs = append(errs, wizard.FieldError("fatcaCrs.taxResidentCountries", validation.CodeRequired, "at least one tax residence required"))
	}

	for i, o := range d.Maps("beneficialOwners") {
		errs = append(errs, nested(o, fmt.Sprintf("beneficialOwners[%d]", i), "name", "ownershipPercentage")...)
		if pct, ok := o.Float("ownershipPercentage"); ok && (pct <= 0 || pct > 100) {
			errs = append(errs, wizard.FieldError(fmt.Sprintf("beneficialOwners[%d].ownershipPercentage", i),
				validation.CodeRuleViolation, "ownership must be between 0 and 100"))
		}
	}

	errs = append(errs, nested(wizard.Draft(d.Map("financialSituation")), "financialSituation",
		"annualRevenue", "sourceOfRevenue")...)
	return errs
}

// information validates the branch chosen on the first step.
func information(d wizard.Draft) []validation.ValidationError {
	var errs []validation.ValidationError
	switch d.String("clientType") {
	case ClientPP:
		errs = individual(d)
	case ClientPM:
		errs = corporate(d)
	default:
		return []validation.ValidationError{wizard.FieldError("clientType", validation.CodeRequired, "choose a client type first")}
	}

	errs = append(errs, nested(wizard.Draft(d.Map("originOfFunds")), "originOfFunds", "primary")...)
	errs = append(errs, nested(wizard.Draft(d.Map("investmentProfile")), "investmentProfile",
		"experience", "riskTolerance", "investmentHorizon", "objective")...)
	errs = append(errs, wizard.Required(d, "missionType", "initialInvestment")...)
	return errs
}

func consents(d wizard.Draft) []validation.ValidationError {
	return wizard.ConsentsGiven(d, RequiredConsents...)
}

// enrich drops the keys of the branch not chosen, so a client who switched
// type does not submit stale answers.
func enrich(d wizard.Draft) map[string]interface{} {
	out := map[string]interface{}{"clientType": d.String("clientType")}
	for clientType, keys := range branchKeys {
		if clientType == d.String("clientType") {
			continue
		}
		for _, k := range keys {
			out[k] = nil
		}
	}
	return out
}

// ApplicationType is the backend application type for the client type.
func ApplicationType(d wizard.Draft) string {
	if d.String("clientType") == ClientPM {
		return submission.TypeCompany
	}
	return submission.TypeIndividual
}

// Definition builds the wizard.
func Definition() *wizard.Definition {
	return &wizard.Definition{
		ID:          WizardID,
		Title:       "Client file (KYC)",
		Description: "Know-your-customer file for advisory clients, individual or company",
		StorageKey:  StorageKey,
		Steps: []wizard.StepDefinition{
			{
				ID:     "client-type",
				Order:  1,
				Label:  "Client Type",
				Fields: []string{"clientType", "preferredLanguage", "basicContact"},
				Schema: validation.JSONSchema{
					Type: "object",
					Properties: map[string]validation.Property{
						"clientType":        {Type: "string", Enum: []string{ClientPP, ClientPM}},
						"preferredLanguage": {Type: "string", Enum: Languages},
						"basicContact": {Type: "object", Properties: map[string]validation.Property{
							"email": {Type: "string", Format: "email"},
						}},
					},
					Required: []string{"clientType", "basicContact"},
				},
				Rules: []wizard.Rule{contact},
			},
			{
				ID:    "information",
				Order: 2,
				Label: "Information",
				Fields: []string{
					"holders", "family",
					"company", "representatives", "fatcaCrs", "beneficialOwners",
					"financialSituation", "originOfFunds", "investmentProfile", "missionType", "initialInvestment",
				},
				Schema: validation.JSONSchema{
					Type: "object",
					Properties: map[string]validation.Property{
						"holders": {Type: "object", Properties: map[string]validation.Property{
							"holder1": {Type: "object", Properties: map[string]validation.Property{
								"maritalStatus": {Type: "string", Enum: MaritalStatuses},
							}},
						}},
						"representatives": {Type: "array", Items: &validation.Property{
							Type: "object",
							Properties: map[string]validation.Property{
								"email": {Type: "string", Format: "email"},
							},
						}},
						"investmentProfile": {Type: "object", Properties: map[string]validation.Property{
							"experience":    {Type: "string", Enum: Experience},
							"riskTolerance": {Type: "string", Enum: RiskTolerances},
						}},
						"missionType":       {Type: "string", Enum: MissionTypes},
						"initialInvestment": {Type: "number", Minimum: validation.Ptr(0.0)},
					},
				},
				Rules: []wizard.Rule{information},
			},
			{
				ID:     "review",
				Order:  3,
				Label:  "Review",
				Fields: []string{"consents"},
				Rules:  []wizard.Rule{consents},
			},
		},
		InitialDraft: func() wizard.Draft {
			return wizard.Draft{
				"preferredLanguage": "en",
				"missionType":       MissionAdvisory,
				"investmentProfile": map[string]interface{}{
					"experience":    "beginner",
					"riskTolerance": "moderate",
				},
				"consents": map[string]interface{}{
					"dataProcessing": false,
					"kyc":            false,
					"electronic":     false,
					"marketing":      false,
				},
			}
		},
		Submission: wizard.SubmissionSpec{
			Type:     submission.TypeIndividual,
			Types:    []string{submission.TypeIndividual, submission.TypeCompany},
			TypeFor:  ApplicationType,
			Status:   submission.StatusSubmitted,
			Endpoint: "/api/kyc/submit",
			Format:   submission.Format{Prefix: "OPL-KYC"},
			Enrich:   enrich,
			Summary: func(d wizard.Draft) string {
				if d.String("clientType") == ClientPM {
					return "Client file for " + wizard.Draft(d.Map("company")).String("legalName")
				}
				holder := wizard.Draft(wizard.Draft(d.Map("holders")).Map("holder1"))
				return "Client file for " + holder.String("firstName") + " " + holder.String("lastName")
			},
		},
	}
}
