package wizard

import (
	"fmt"
	"time"
)

var now = func() time.Time { return time.Now().UTC() }

// Session is one user's progress through one wizard.
type Session struct {
	WizardID    string    `json:"wizardId"`
	UserRef     string    `json:"userRef"`
	CurrentStep int       `json:"currentStep"`
	Draft       Draft     `json:"draft"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (s Session) clone() Session {
	s.Draft = s.Draft.Clone()
	return s
}

// NewSession starts userRef at step 1 with the definition's defaults.
func (d *Definition) NewSession(userRef string) Session {
	t := now()
	return Session{
		WizardID:    d.ID,
		UserRef:     userRef,
		CurrentStep: 1,
		Draft:       d.newDraft(),
		CreatedAt:   t,
		UpdatedAt:   t,
	}
}

// ApplyStepUpdate merges patch into the draft on behalf of stepID. The input
// session is left untouched; a new session is returned.
func (d *Definition) ApplyStepUpdate(session Session, stepID string, patch map[string]interface{}) (Session, error) {
	step, ok := d.Step(stepID)
	if !ok {
		return session, fmt.Errorf("%w: %s/%s", ErrUnknownStep, d.ID, stepID)
	}
	for key := range patch {
		if !step.Owns(key) {
			return session, fmt.Errorf("%w: step %s does not own %q", ErrFieldNotOwned, stepID, key)
		}
	}

	next := session.clone()
	next.Draft = session.Draft.Merge(patch)
	next.UpdatedAt = now()
	return next, nil
}

// Sequencer returns a sequencer positioned at the session's current step.
func (d *Definition) Sequencer(session Session) *Sequencer {
	return SequencerAt(session.CurrentStep, d.TotalSteps())
}
