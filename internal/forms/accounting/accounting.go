// Package accounting defines the invoicing and accounting onboarding wizard.
package accounting

import (
	"opulanz-onboarding/internal/common/validation"
	"opulanz-onboarding/internal/submission"
	"opulanz-onboarding/internal/wizard"
)

const (
	WizardID   = "accounting"
	StorageKey = "accounting-onboarding-progress"

	CompanyTypeOther = "other"
	DefaultCurrency  = "EUR"
)

var (
	CompanyTypes = []string{"sarl", "sarl-s", "sa", "scsp", "sole-trader", "ltd", "ab", "sia", CompanyTypeOther}
	Currencies   = []string{"EUR", "USD", "GBP", "CHF", "JPY", "CNY"}

	addressKeys = []string{"street", "city", "postal", "country"}
)

func prefixed(prefix string, errs []validation.ValidationError) []validation.ValidationError {
	for i := range errs {
		errs[i].Field = prefix + "." + errs[i].Field
	}
	return errs
}

func positive(d wizard.Draft, key string) []validation.ValidationError {
	if v, ok := d.Float(key); ok && v <= 0 {
		return []validation.ValidationError{wizard.FieldError(key, validation.CodeRuleViolation, "must be greater than 0")}
	}
	return nil
}

func company(d wizard.Draft) []validation.ValidationError {
	errs := wizard.Required(d, "companyType", "countryOfIncorporation", "dateOfIncorporation", "legalName", "shareCapitalAmount")
	if d.String("companyType") == CompanyTypeOther {
		errs = append(errs, wizard.Required(d, "companyTypeOther")...)
	}
	return append(errs, positive(d, "shareCapitalAmount")...)
}

func activity(d wizard.Draft) []validation.ValidationError {
	return wizard.Required(d, "businessActivity", "turnoverLastFYAmount", "turnoverCurrentFYAmount", "employeesFTE")
}

func contacts(d wizard.Draft) []validation.ValidationError {
	errs := prefixed("registeredAddress", wizard.Required(wizard.Draft(d.Map("registeredAddress")), addressKeys...))
	if !d.Bool("sameAsRegistered") {
		errs = append(errs, prefixed("operatingAddress", wizard.Required(wizard.Draft(d.Map("operatingAddress")), addressKeys...))...)
	}
	errs = append(errs, prefixed("primaryContact", wizard.Required(wizard.Draft(d.Map("primaryContact")),
		"firstName", "lastName", "role", "email", "phone"))...)
	if d.Bool("hasAccountingContact") {
		errs = append(errs, prefixed("accountingContact", wizard.Required(wizard.Draft(d.Map("accountingContact")),
			"firstName", "lastName", "email"))...)
	}
	return errs
}

func volume(d wizard.Draft) []validation.ValidationError {
	errs := wizard.Required(d, "salesInvoicesMonth", "purchaseInvoicesMonth")
	if d.Bool("payrollNeeded") {
		if n, ok := d.Float("payrollEmployees"); !ok || n < 1 {
			errs = append(errs, wizard.FieldError("payrollEmployees", validation.CodeRuleViolation, "at least one employee on payroll"))
		}
	}
	if d.Bool("multiCurrencyEnabled") && len(d.Slice("multiCurrencies")) == 0 {
		errs = append(errs, wizard.FieldError("multiCurrencies", validation.CodeRequired, "select at least one currency"))
	}
	return errs
}

func consent(d wizard.Draft) []validation.ValidationError {
	return wizard.FlagsSet(d, "consent")
}

func currency(d wizard.Draft, key string) string {
	if c := d.String(key); c != "" {
		return c
	}
	return DefaultCurrency
}

// enrich nests the amounts with their currencies and resolves the operating address.
func enrich(d wizard.Draft) map[string]interface{} {
	out := map[string]interface{}{
		"shareCapital": map[string]interface{}{
			"amount":   d["shareCapitalAmount"],
			"currency": currency(d, "shareCapitalCurrency"),
		},
		"turnoverLastFY": map[string]interface{}{
			"amount":   d["turnoverLastFYAmount"],
			"currency": currency(d, "turnoverLastFYCurrency"),
		},
		"turnoverCurrentFY": map[string]interface{}{
			"amount":   d["turnoverCurrentFYAmount"],
			"currency": currency(d, "turnoverCurrentFYCurrency"),
		},
	}
	if d.Bool("sameAsRegistered") {
		out["operatingAddress"] = d.Map("registeredAddress")
	}
	if !d.Bool("hasAccountingContact") {
		out["accountingContact"] = nil
	}
	return out
}

func amount() validation.Property {
	return validation.Property{Type: "number", Minimum: validation.Ptr(0.0)}
}

// Definition builds the wizard.
func Definition() *wizard.Definition {
	return &wizard.Definition{
		ID:          WizardID,
		Title:       "Invoicing & accounting",
		Description: "Bookkeeping, invoicing and payroll onboarding for an existing company",
		StorageKey:  StorageKey,
		Steps: []wizard.StepDefinition{
			{
				ID:    "company",
				Order: 1,
				Label: "Company",
				Fields: []string{
					"companyType", "companyTypeOther", "countryOfIncorporation", "dateOfIncorporation",
					"legalName", "tradeName", "registrationNumber", "vatNumber",
					"shareCapitalAmount", "shareCapitalCurrency",
				},
				Schema: validation.JSONSchema{
					Type: "object",
					Properties: map[string]validation.Property{
						"companyType":          {Type: "string", Enum: CompanyTypes},
						"dateOfIncorporation":  {Type: "string"},
						"shareCapitalAmount":   {Type: "number"},
						"shareCapitalCurrency": {Type: "string", Enum: Currencies},
					},
				},
				Rules: []wizard.Rule{company},
			},
			{
				ID:    "activity",
				Order: 2,
				Label: "Activity",
				Fields: []string{
					"businessActivity",
					"turnoverLastFYAmount", "turnoverLastFYCurrency",
					"turnoverCurrentFYAmount", "turnoverCurrentFYCurrency",
					"employeesFTE",
				},
				Schema: validation.JSONSchema{
					Type: "object",
					Properties: map[string]validation.Property{
						"turnoverLastFYAmount":      amount(),
						"turnoverLastFYCurrency":    {Type: "string", Enum: Currencies},
						"turnoverCurrentFYAmount":   amount(),
						"turnoverCurrentFYCurrency": {Type: "string", Enum: Currencies},
						"employeesFTE":              amount(),
					},
				},
				Rules: []wizard.Rule{activity},
			},
			{
				ID:    "contacts",
				Order: 3,
				Label: "Addresses & Contacts",
				Fields: []string{
					"registeredAddress", "operatingAddress", "sameAsRegistered",
					"primaryContact", "hasAccountingContact", "accountingContact",
				},
				Schema: validation.JSONSchema{
					Type: "object",
					Properties: map[string]validation.Property{
						"primaryContact": {Type: "object", Properties: map[string]validation.Property{
							"email": {Type: "string", Format: "email"},
						}},
						"accountingContact": {Type: "object", Properties: map[string]validation.Property{
							"email": {Type: "string", Format: "email"},
						}},
					},
				},
				Rules: []wizard.Rule{contacts},
			},
			{
				ID:    "volume",
				Order: 4,
				Label: "Volume & Needs",
				Fields: []string{
					"salesInvoicesMonth", "purchaseInvoicesMonth",
					"payrollNeeded", "payrollEmployees",
					"multiCurrencyEnabled", "multiCurrencies",
				},
				Schema: validation.JSONSchema{
					Type: "object",
					Properties: map[string]validation.Property{
						"salesInvoicesMonth":    amount(),
						"purchaseInvoicesMonth": amount(),
						"payrollEmployees":      amount(),
						"multiCurrencies":       {Type: "array", Items: &validation.Property{Type: "string", Enum: Currencies}},
					},
				},
				Rules: []wizard.Rule{volume},
			},
			{ID: "documents", Order: 5, Label: "Documents", Description: "Optional", Fields: []string{"documents"}},
			{
				ID:     "review",
				Order:  6,
				Label:  "Review",
				Fields: []string{"consent"},
				Rules:  []wizard.Rule{consent},
			},
		},
		InitialDraft: func() wizard.Draft {
			return wizard.Draft{
				"shareCapitalCurrency":      DefaultCurrency,
				"turnoverLastFYCurrency":    DefaultCurrency,
				"turnoverCurrentFYCurrency": DefaultCurrency,
				"sameAsRegistered":          true,
				"hasAccountingContact":      false,
				"payrollNeeded":             false,
				"multiCurrencyEnabled":      false,
				"multiCurrencies":           []interface{}{},
				"documents":                 []interface{}{},
				"consent":                   false,
			}
		},
		Submission: wizard.SubmissionSpec{
			Type:     submission.TypeAccounting,
			Status:   submission.StatusSubmitted,
			Endpoint: "/api/applications",
			Format:   submission.Format{Prefix: "OPL-ACC"},
			Enrich:   enrich,
			Summary: func(d wizard.Draft) string {
				return "Accounting onboarding for " + d.String("legalName")
			},
		},
	}
}
