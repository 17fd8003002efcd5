package wizard

import (
	"errors"
	"fmt"

	"opulanz-onboarding/internal/common/validation"
	"opulanz-onboarding/internal/submission"
)

var (
	ErrUnknownStep   = errors.New("UNKNOWN_STEP")
	ErrFieldNotOwned = errors.New("FIELD_NOT_OWNED")
)

// Rule is a cross-field predicate. It returns the field errors it finds.
type Rule func(d Draft) []validation.ValidationError

// Advisory returns a non-blocking warning, or "" when there is nothing to say.
type Advisory func(d Draft) string

// StepDefinition describes one screen of a wizard: the draft fields it owns and
// how to decide whether it is complete.
type StepDefinition struct {
	ID          string                `json:"id"`
	Order       int                   `json:"order"`
	Label       string                `json:"label"`
	Description string                `json:"description,omitempty"`
	Fields      []string              `json:"fields,omitempty"`
	Schema      validation.JSONSchema `json:"schema"`
	Rules       []Rule                `json:"-"`
	Advisories  []Advisory            `json:"-"`
}

// Owns reports whether the step may write key. A step without a field list
// owns nothing.
func (s *StepDefinition) Owns(key string) bool {
	for _, f := range s.Fields {
		if f == key {
			return true
		}
	}
	return false
}

// SubmissionSpec tells the submission client how to ship a completed draft.
type SubmissionSpec struct {
	Type     string
	Status   string
	Endpoint string
	Format   submission.Format
	// AcceptServerReference lets a server confirmation number replace the local code.
	AcceptServerReference bool
	// Enrich adds derived fields to the payload, e.g. a routing decision. A nil
	// value removes the key.
	Enrich func(d Draft) map[string]interface{}
	// Summary is the one-line description stored in the user's history.
	Summary func(d Draft) string
	// TypeFor picks the envelope type from the draft. Type is the fallback.
	TypeFor func(d Draft) string
	// Types lists every type TypeFor can return.
	Types []string
}

// EnvelopeType is the type the draft is submitted under.
func (s SubmissionSpec) EnvelopeType(d Draft) string {
	if s.TypeFor != nil {
		if t := s.TypeFor(d); t != "" {
			return t
		}
	}
	return s.Type
}

// Matches reports whether an envelope of this type sent to endpoint can come
// from the wizard.
func (s SubmissionSpec) Matches(typ, endpoint string) bool {
	if s.Endpoint != endpoint {
		return false
	}
	if s.Type == typ {
		return true
	}
	for _, t := range s.Types {
		if t == typ {
			return true
		}
	}
	return false
}

// Definition is a complete wizard: ordered steps, defaults and submission settings.
type Definition struct {
	ID          string
	Title       string
	Description string
	// StorageKey namespaces saved drafts. With StorageKeyPerUser the user ref is appended.
	StorageKey        string
	StorageKeyPerUser bool
	Steps             []StepDefinition
	InitialDraft      func() Draft
	Submission        SubmissionSpec
	// Scheduling marks wizards whose schedule step is completed by a widget event.
	Scheduling bool
}

func (d *Definition) TotalSteps() int {
	return len(d.Steps)
}

// Step looks a step up by id.
func (d *Definition) Step(stepID string) (*StepDefinition, bool) {
	for i := range d.Steps {
		if d.Steps[i].ID == stepID {
			return &d.Steps[i], true
		}
	}
	return nil, false
}

// StepAt returns the step at a 1-based position.
func (d *Definition) StepAt(order int) (*StepDefinition, bool) {
	if order < 1 || order > len(d.Steps) {
		return nil, false
	}
	return &d.Steps[order-1], true
}

// Namespace is the draft store namespace for userRef.
func (d *Definition) Namespace(userRef string) string {
	if d.StorageKeyPerUser {
		return d.StorageKey + userRef
	}
	return d.StorageKey
}

func (d *Definition) newDraft() Draft {
	if d.InitialDraft == nil {
		return Draft{}
	}
	return d.InitialDraft()
}

// Check validates the static shape of a definition: steps are numbered 1..N in order
// and ids are unique.
func (d *Definition) Check() error {
	if d.ID == "" {
		return fmt.Errorf("wizard definition without id")
	}
	if len(d.Steps) == 0 {
		return fmt.Errorf("wizard %s has no steps", d.ID)
	}
	seen := make(map[string]bool, len(d.Steps))
	for i, s := range d.Steps {
		if s.Order != i+1 {
			return fmt.Errorf("wizard %s: step %s has order %d, want %d", d.ID, s.ID, s.Order, i+1)
		}
		if seen[s.ID] {
			return fmt.Errorf("wizard %s: duplicate step id %s", d.ID, s.ID)
		}
		seen[s.ID] = true
	}
	return nil
}
