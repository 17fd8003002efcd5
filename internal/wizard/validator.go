package wizard

import (
	"opulanz-onboarding/internal/common/validation"
)

// Result is the derived validity of one step. It is never stored.
type Result struct {
	StepID   string                       `json:"stepId"`
	Valid    bool                         `json:"valid"`
	Errors   []validation.ValidationError `json:"errors,omitempty"`
	Warnings []string                     `json:"warnings,omitempty"`
}

// Report aggregates the results of every step.
type Report struct {
	Valid        bool              `json:"valid"`
	Steps        map[string]Result `json:"steps"`
	InvalidSteps []string          `json:"invalidSteps,omitempty"`
}

// Errors flattens the field errors of all invalid steps, prefixed by step id.
func (r Report) Errors() []validation.ValidationError {
	var out []validation.ValidationError
	for _, stepID := range r.InvalidSteps {
		for _, e := range r.Steps[stepID].Errors {
			e.Field = stepID + "." + e.Field
			out = append(out, e)
		}
	}
	return out
}

// Validator evaluates step definitions against a draft. All methods are pure.
type Validator struct {
	def *Definition
}

func NewValidator(def *Definition) *Validator {
	return &Validator{def: def}
}

func (v *Validator) IsValid(d Draft, stepID string) bool {
	return v.Validate(d, stepID).Valid
}

// Warnings returns the first advisory that fires, or "".
func (v *Validator) Warnings(d Draft, stepID string) string {
	step, ok := v.def.Step(stepID)
	if !ok {
		return ""
	}
	for _, adv := range step.Advisories {
		if w := adv(d); w != "" {
			return w
		}
	}
	return ""
}

// Validate runs the schema layer, then the step rules, then collects advisories.
func (v *Validator) Validate(d Draft, stepID string) Result {
	step, ok := v.def.Step(stepID)
	if !ok {
		return Result{
			StepID: stepID,
			Errors: []validation.ValidationError{{
				Field:   stepID,
				Message: "unknown step",
				Code:    "STEP_NOT_FOUND",
			}},
		}
	}

	schema := step.Schema
	schema.AdditionalProperties = true
	errs := validation.ValidateInput(d, schema).Errors

	for _, rule := range step.Rules {
		errs = append(errs, rule(d)...)
	}

	var warnings []string
	for _, adv := range step.Advisories {
		if w := adv(d); w != "" {
			warnings = append(warnings, w)
		}
	}

	return Result{
		StepID:   stepID,
		Valid:    len(errs) == 0,
		Errors:   errs,
		Warnings: warnings,
	}
}

// ValidateAll validates every step, used before a submission is sent.
func (v *Validator) ValidateAll(d Draft) Report {
	report := Report{Valid: true, Steps: make(map[string]Result, len(v.def.Steps))}
	for _, step := range v.def.Steps {
		res := v.Validate(d, step.ID)
		report.Steps[step.ID] = res
		if !res.Valid {
			report.Valid = false
			report.InvalidSteps = append(report.InvalidSteps, step.ID)
		}
	}
	return report
}

// FieldError is a shorthand for rules.
func FieldError(field, code, message string) validation.ValidationError {
	return validation.ValidationError{Field: field, Code: code, Message: message}
}

// Required reports a missing-field error for each blank key.
func Required(d Draft, keys ...string) []validation.ValidationError {
	var errs []validation.ValidationError
	for _, k := range keys {
		if !d.Has(k) {
			errs = append(errs, FieldError(k, validation.CodeRequired, "required field missing"))
		}
	}
	return errs
}
