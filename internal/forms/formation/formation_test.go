package formation

import (
	"fmt"
	"testing"

	"opulanz-onboarding/internal/wizard"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func person(first string, share float64) map[string]interface{} {
	return map[string]interface{}{
		"id":           first,
		"firstName":    first,
		"lastName":     "Lovelace",
		"dob":          "1985-12-10",
		"nationality":  "LU",
		"address":      "1 Rue de la Gare, Luxembourg",
		"roles":        []interface{}{"SHAREHOLDER"},
		"sharePercent": share,
	}
}

func sarlDossier() wizard.Draft {
	return Definition().InitialDraft().Merge(map[string]interface{}{
		"formType":         string(SARL),
		"proposedNames":    []interface{}{"Analytical Engines SARL"},
		"purpose":          "Software consulting",
		"registeredOffice": "Luxembourg",
		"shareholders":     []interface{}{person("Ada", 60), person("Charles", 40)},
		"managers":         []interface{}{person("Ada", 0)},
		"capitalAmount":    float64(12000),
		"contributions": []interface{}{
			map[string]interface{}{"type": "CASH", "description": "cash", "amount": 12000},
		},
		"naceCode":          "62.02",
		"notaryPreferences": map[string]interface{}{"city": "Luxembourg", "language": "FR"},
		"uploads": map[string]interface{}{
			"ids":                  []interface{}{map[string]interface{}{"id": "f1", "filename": "passport.pdf"}},
			"leaseOrDomiciliation": []interface{}{map[string]interface{}{"id": "f2", "filename": "lease.pdf"}},
		},
		"consents":      map[string]interface{}{"termsAccepted": true, "privacyAccepted": true, "accuracyConfirmed": true},
		"paymentStatus": PaymentPaid,
		"paypalOrderId": "8XY12345",
	})
}

// ==========================
// Capital Rule Tests
// ==========================

func TestValidateCapital(t *testing.T) {
	tests := []struct {
		form    FormType
		amount  float64
		wantErr error
	}{
		{SARL, 11999.99, ErrCapitalBelowMinimum},
		{SARL, 12000, nil},
		{SARL, 1e9, nil},
		{SARLS, 0, ErrCapitalBelowMinimum},
		{SARLS, 1, nil},
		{SARLS, 100000, nil},
		{SARLS, 100000.01, ErrCapitalAboveMaximum},
		{SA, 29999, ErrCapitalBelowMinimum},
		{SA, 30000, nil},
		{SCSp, 0, nil},
		{SOLE, 0, nil},
		{"GmbH", 50000, ErrUnknownForm},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%g", tt.form, tt.amount), func(t *testing.T) {
			err := ValidateCapital(tt.form, tt.amount)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePaidUp(t *testing.T) {
	assert.NoError(t, ValidatePaidUp(SA, 25))
	assert.NoError(t, ValidatePaidUp(SA, 100))
	assert.ErrorIs(t, ValidatePaidUp(SA, 24), ErrPaidUpOutOfRange)
	assert.ErrorIs(t, ValidatePaidUp(SA, 101), ErrPaidUpOutOfRange)
	assert.NoError(t, ValidatePaidUp(SARL, 0), "only SA checks paid-up capital")
}

// ==========================
// Step Tests
// ==========================

func TestSteps(t *testing.T) {
	v := wizard.NewValidator(Definition())

	tests := []struct {
		name      string
		step      string
		patch     map[string]interface{}
		valid     bool
		wantField string
	}{
		{name: "form type set", step: "company-type", valid: true},
		{name: "unknown form type", step: "company-type", patch: map[string]interface{}{"formType": "GmbH"}, wantField: "formType"},
		{name: "general info complete", step: "general-info", valid: true},
		{name: "blank proposed names", step: "general-info", patch: map[string]interface{}{"proposedNames": []interface{}{" "}}, wantField: "proposedNames"},
		{name: "purpose missing", step: "general-info", patch: map[string]interface{}{"purpose": ""}, wantField: "purpose"},
		{name: "sarl people", step: "people", valid: true},
		{name: "sarl without manager", step: "people", patch: map[string]interface{}{"managers": []interface{}{}}, wantField: "managers"},
		{name: "no shareholders", step: "people", patch: map[string]interface{}{"shareholders": []interface{}{}}, wantField: "shareholders"},
		{name: "sa needs three directors", step: "people", patch: map[string]interface{}{
			"formType": string(SA), "directors": []interface{}{person("A", 0), person("B", 0)},
		}, wantField: "directors"},
		{name: "sa with three directors", step: "people", patch: map[string]interface{}{
			"formType": string(SA), "managers": []interface{}{}, "directors": []interface{}{person("A", 0), person("B", 0), person("C", 0)},
		}, valid: true},
		{name: "sole trader", step: "people", patch: map[string]interface{}{"formType": string(SOLE), "managers": []interface{}{}}, valid: true},
		{name: "capital at minimum", step: "capital", valid: true},
		{name: "capital below minimum", step: "capital", patch: map[string]interface{}{"capitalAmount": 5000}, wantField: "capitalAmount"},
		{name: "capital missing", step: "capital", patch: map[string]interface{}{"capitalAmount": nil}, wantField: "capitalAmount"},
		{name: "sarl-s above maximum", step: "capital", patch: map[string]interface{}{"formType": string(SARLS), "capitalAmount": 150000}, wantField: "capitalAmount"},
		{name: "sa paid up too low", step: "capital", patch: map[string]interface{}{"formType": string(SA), "capitalAmount": 30000, "capitalPaidUpPercent": 10}, wantField: "capitalPaidUpPercent"},
		{name: "sa paid up defaults", step: "capital", patch: map[string]interface{}{"formType": string(SA), "capitalAmount": 30000, "capitalPaidUpPercent": nil}, valid: true},
		{name: "nace required", step: "activity", patch: map[string]interface{}{"naceCode": ""}, wantField: "naceCode"},
		{name: "notary language", step: "notary", patch: map[string]interface{}{"notaryPreferences": map[string]interface{}{"language": "IT"}}, wantField: "notaryPreferences.language"},
		{name: "notary ok", step: "notary", valid: true},
		{name: "documents complete", step: "documents", valid: true},
		{name: "lease missing", step: "documents", patch: map[string]interface{}{"uploads": map[string]interface{}{
			"ids": []interface{}{map[string]interface{}{"id": "f1"}},
		}}, wantField: "uploads.leaseOrDomiciliation"},
		{name: "domiciliation replaces lease", step: "documents", patch: map[string]interface{}{
			"domiciliationNeeded": true,
			"uploads":             map[string]interface{}{"ids": []interface{}{map[string]interface{}{"id": "f1"}}},
		}, valid: true},
		{name: "unpaid", step: "review", patch: map[string]interface{}{"paymentStatus": PaymentPending}, wantField: "paymentStatus"},
		{name: "terms missing", step: "review", patch: map[string]interface{}{"consents": map[string]interface{}{"privacyAccepted": true, "accuracyConfirmed": true}}, wantField: "consents.termsAccepted"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := v.Validate(sarlDossier().Merge(tt.patch), tt.step)
			assert.Equal(t, tt.valid, res.Valid, "%v", res.Errors)
			if tt.wantField != "" {
				require.NotEmpty(t, res.Errors)
				assert.Equal(t, tt.wantField, res.Errors[0].Field)
			}
		})
	}

	assert.True(t, v.ValidateAll(sarlDossier()).Valid)
}

func TestAdvisories(t *testing.T) {
	v := wizard.NewValidator(Definition())

	d := sarlDossier()
	assert.Empty(t, v.Warnings(d, "people"))
	assert.Empty(t, v.Warnings(d, "capital"))

	skewed := d.Merge(map[string]interface{}{"shareholders": []interface{}{person("Ada", 60), person("Charles", 30)}})
	assert.Contains(t, v.Warnings(skewed, "people"), "90%")
	assert.True(t, v.IsValid(skewed, "people"), "advisories never block")

	short := d.Merge(map[string]interface{}{"capitalAmount": 20000})
	assert.NotEmpty(t, v.Warnings(short, "capital"))
	assert.True(t, v.IsValid(short, "capital"))
}

func TestDefinition_PerUserStorage(t *testing.T) {
	def := Definition()
	require.NoError(t, def.Check())
	assert.Equal(t, "opulanz_company_formation_user-7", def.Namespace("user-7"))
	assert.Equal(t, "CF", def.Submission.Format.Prefix)
	assert.Equal(t, "company", def.Submission.Type)
	assert.Equal(t, "SARL formation: Analytical Engines SARL", def.Submission.Summary(sarlDossier()))
}
