package wizard

import (
	"testing"

	"opulanz-onboarding/internal/common/logger"
	"opulanz-onboarding/internal/common/validation"
	"opulanz-onboarding/internal/submission"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type testLogger struct {
	t *testing.T
}

func (tl *testLogger) Debug(msg string, fields map[string]interface{}) {
	tl.t.Logf("DEBUG: %s %v", msg, fields)
}

func (tl *testLogger) Info(msg string, fields map[string]interface{}) {
	tl.t.Logf("INFO: %s %v", msg, fields)
}

func (tl *testLogger) Warn(msg string, fields map[string]interface{}) {
	tl.t.Logf("WARN: %s %v", msg, fields)
}

func (tl *testLogger) Error(msg string, fields map[string]interface{}) {
	tl.t.Logf("ERROR: %s %v", msg, fields)
}

func (tl *testLogger) WithFields(fields map[string]interface{}) logger.Logger {
	return tl
}

func (tl *testLogger) WithError(err error) logger.Logger {
	return tl
}

func (tl *testLogger) With(fields map[string]interface{}) logger.Logger {
	return tl
}

func newTestLogger(t *testing.T) logger.Logger {
	return &testLogger{t: t}
}

// accountWizard is a three step wizard with a schema step, a rule step and a
// scheduling step.
func accountWizard() *Definition {
	return &Definition{
		ID:         "account",
		Title:      "Account opening",
		StorageKey: "account-progress",
		Steps: []StepDefinition{
			{
				ID:     "identity",
				Order:  1,
				Label:  "Identity",
				Fields: []string{"firstName", "lastName", "email", "age"},
				Schema: validation.JSONSchema{
					Type: "object",
					Properties: map[string]validation.Property{
						"firstName": {Type: "string"},
						"lastName":  {Type: "string"},
						"email":     {Type: "string", Format: "email"},
						"age":       {Type: "number", Minimum: validation.Ptr(18.0)},
					},
					Required: []string{"firstName", "lastName", "email"},
				},
			},
			{
				ID:     "risk",
				Order:  2,
				Label:  "Risk",
				Fields: []string{"horizon", "riskTolerance"},
				Rules: []Rule{func(d Draft) []validation.ValidationError {
					return Required(d, "horizon")
				}},
				Advisories: []Advisory{func(d Draft) string {
					if r, _ := d.Float("riskTolerance"); d.String("horizon") == "short" && r >= 4 {
						return "risky"
					}
					return ""
				}},
			},
			{
				ID:     "schedule",
				Order:  3,
				Label:  "Schedule",
				Fields: []string{"appointmentDate", "appointmentTime", "calendlyEventUrl", "calendlyInviteeUrl"},
				Rules: []Rule{func(d Draft) []validation.ValidationError {
					return Required(d, "appointmentDate")
				}},
			},
		},
		InitialDraft: func() Draft { return Draft{"riskTolerance": float64(3)} },
		Submission: SubmissionSpec{
			Type:     submission.TypeIndividual,
			Status:   submission.StatusSubmitted,
			Endpoint: "/api/applications",
			Format:   submission.Format{Prefix: "OPL-P"},
			Enrich: func(d Draft) map[string]interface{} {
				return map[string]interface{}{"route": "ROUTE_A"}
			},
			Summary: func(d Draft) string { return d.String("firstName") + " " + d.String("lastName") },
		},
		Scheduling: true,
	}
}

func completeDraft() map[string]interface{} {
	return map[string]interface{}{
		"firstName": "Ada",
		"lastName":  "Lovelace",
		"email":     "ada@example.com",
	}
}

// ==========================
// Draft Tests
// ==========================

func TestDraft_CloneIsDeep(t *testing.T) {
	d := Draft{
		"directors": []interface{}{map[string]interface{}{"firstName": "Ada"}},
		"names":     []string{"Acme"},
	}
	c := d.Clone()
	c.Maps("directors")[0]["firstName"] = "Grace"
	c.Slice("names")[0] = "Other"

	assert.Equal(t, "Ada", d.Maps("directors")[0].String("firstName"))
	assert.Equal(t, []string{"Acme"}, d["names"])
}

func TestDraft_MergeReturnsNewDraft(t *testing.T) {
	d := Draft{"a": "1"}
	m := d.Merge(map[string]interface{}{"b": 2})

	assert.Equal(t, Draft{"a": "1"}, d)
	assert.Equal(t, "1", m.String("a"))
	assert.Equal(t, 2, m["b"])
}

func TestDraft_Accessors(t *testing.T) {
	d := Draft{"amount": "12000", "n": 5, "flag": "true", "blank": "  ", "obj": map[string]interface{}{"k": "v"}}

	f, ok := d.Float("amount")
	assert.True(t, ok)
	assert.Equal(t, 12000.0, f)
	f, ok = d.Float("n")
	assert.True(t, ok)
	assert.Equal(t, 5.0, f)
	_, ok = d.Float("missing")
	assert.False(t, ok)

	assert.True(t, d.Bool("flag"))
	assert.False(t, d.Bool("n"))
	assert.False(t, d.Has("blank"))
	assert.True(t, d.Has("amount"))
	assert.Equal(t, "v", d.Map("obj")["k"])
}

// ==========================
// Sequencer Tests
// ==========================

func TestSequencer(t *testing.T) {
	s := NewSequencer(3)
	assert.Equal(t, 1, s.Current())

	assert.False(t, s.Next(false))
	assert.Equal(t, 1, s.Current())

	assert.True(t, s.Next(true))
	assert.True(t, s.Next(true))
	assert.True(t, s.IsLast())
	assert.False(t, s.Next(true))
	assert.Equal(t, 3, s.Current())
	assert.Equal(t, 100.0, s.Percent())

	assert.False(t, s.GoTo(0))
	assert.False(t, s.GoTo(4))
	assert.True(t, s.GoTo(2))
	assert.InDelta(t, 2.0/3.0, s.Progress(), 1e-9)

	assert.False(t, s.Back())
	assert.True(t, s.Back())
	assert.Equal(t, 1, s.Current())

	s.GoTo(3)
	s.Reset()
	assert.Equal(t, 1, s.Current())
}

func TestSequencerAt_Clamps(t *testing.T) {
	assert.Equal(t, 1, SequencerAt(-4, 5).Current())
	assert.Equal(t, 5, SequencerAt(9, 5).Current())
	assert.Equal(t, 1, SequencerAt(1, 0).Total())
}

// ==========================
// Validator Tests
// ==========================

func TestValidator_Validate(t *testing.T) {
	v := NewValidator(accountWizard())

	tests := []struct {
		name      string
		draft     Draft
		step      string
		valid     bool
		wantField string
		warning   string
	}{
		{name: "missing required", draft: Draft{"firstName": "Ada"}, step: "identity", wantField: "lastName"},
		{name: "blank counts as missing", draft: Draft{"firstName": "Ada", "lastName": " ", "email": "ada@example.com"}, step: "identity", wantField: "lastName"},
		{name: "bad email", draft: Draft{"firstName": "Ada", "lastName": "L", "email": "nope"}, step: "identity", wantField: "email"},
		{name: "under age", draft: Draft(completeDraft()).Merge(map[string]interface{}{"age": 17}), step: "identity", wantField: "age"},
		{name: "identity complete", draft: Draft(completeDraft()), step: "identity", valid: true},
		{name: "rule fails", draft: Draft{}, step: "risk", wantField: "horizon"},
		{name: "advisory does not block", draft: Draft{"horizon": "short", "riskTolerance": 5}, step: "risk", valid: true, warning: "risky"},
		{name: "unknown step", draft: Draft{}, step: "nope", wantField: "nope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := v.Validate(tt.draft, tt.step)
			assert.Equal(t, tt.valid, res.Valid)
			assert.Equal(t, tt.valid, v.IsValid(tt.draft, tt.step))
			assert.Equal(t, tt.warning, v.Warnings(tt.draft, tt.step))
			if tt.wantField != "" {
				require.NotEmpty(t, res.Errors)
				assert.Equal(t, tt.wantField, res.Errors[0].Field)
			}
		})
	}
}

func TestValidator_ValidateAll(t *testing.T) {
	v := NewValidator(accountWizard())

	report := v.ValidateAll(Draft(completeDraft()))
	assert.False(t, report.Valid)
	assert.Equal(t, []string{"risk", "schedule"}, report.InvalidSteps)
	assert.Equal(t, "risk.horizon", report.Errors()[0].Field)

	full := Draft(completeDraft()).Merge(map[string]interface{}{"horizon": "long", "appointmentDate": "2026-06-01T09:00:00Z"})
	assert.True(t, v.ValidateAll(full).Valid)
}

// ==========================
// Session Tests
// ==========================

func TestApplyStepUpdate(t *testing.T) {
	def := accountWizard()
	s := def.NewSession("user-1")
	assert.Equal(t, 1, s.CurrentStep)
	assert.Equal(t, float64(3), s.Draft["riskTolerance"])

	next, err := def.ApplyStepUpdate(s, "identity", map[string]interface{}{"firstName": "Ada"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", next.Draft.String("firstName"))
	assert.False(t, s.Draft.Has("firstName"), "input session must not change")

	_, err = def.ApplyStepUpdate(s, "missing", map[string]interface{}{"x": 1})
	assert.ErrorIs(t, err, ErrUnknownStep)

	_, err = def.ApplyStepUpdate(s, "identity", map[string]interface{}{"horizon": "long"})
	assert.ErrorIs(t, err, ErrFieldNotOwned)
}

func TestApplyStepUpdate_StepWithoutFieldsOwnsNothing(t *testing.T) {
	def := accountWizard()
	def.Steps = append(def.Steps, StepDefinition{ID: "submit", Order: 4, Label: "Submit"})
	s := def.NewSession("user-1")

	for _, key := range []string{"firstName", "riskTolerance", "consents"} {
		t.Run(key, func(t *testing.T) {
			next, err := def.ApplyStepUpdate(s, "submit", map[string]interface{}{key: "forged"})
			assert.ErrorIs(t, err, ErrFieldNotOwned)
			assert.NotEqual(t, "forged", next.Draft[key])
		})
	}

	step, ok := def.Step("submit")
	require.True(t, ok)
	assert.False(t, step.Owns("firstName"))
}

func TestDefinition_Check(t *testing.T) {
	def := accountWizard()
	require.NoError(t, def.Check())

	def.Steps[1].Order = 5
	assert.Error(t, def.Check())

	def = accountWizard()
	def.Steps[2].ID = "identity"
	assert.Error(t, def.Check())

	assert.Error(t, (&Definition{ID: "empty"}).Check())
}

func TestDefinition_Namespace(t *testing.T) {
	def := accountWizard()
	assert.Equal(t, "account-progress", def.Namespace("u1"))

	def.StorageKey = "opulanz_company_formation_"
	def.StorageKeyPerUser = true
	assert.Equal(t, "opulanz_company_formation_u1", def.Namespace("u1"))
}
