package wizard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	commonerrors "opulanz-onboarding/internal/common/errors"
	"opulanz-onboarding/internal/common/logger"
	"opulanz-onboarding/internal/common/metrics"
	"opulanz-onboarding/internal/draftstore"
	"opulanz-onboarding/internal/models"
	"opulanz-onboarding/internal/submission"
)

// Submitter ships a finished draft. *submission.Client implements it.
type Submitter interface {
	Submit(ctx context.Context, req submission.SubmitRequest) (*models.SubmissionRecord, error)
}

// Engine runs wizard sessions on top of a draft store. Every mutation is
// persisted before it is returned.
type Engine struct {
	defs       map[string]*Definition
	order      []*Definition
	validators map[string]*Validator

	store     draftstore.Store
	history   draftstore.History
	submitter Submitter
	refs      *submission.ReferenceGenerator
	hub       *ScheduleHub
	logger    logger.Logger

	mu   sync.Mutex
	subs map[string]*subscription
}

// subscription is the engine's hub listener for one session, shared by the
// relays in flight for it.
type subscription struct {
	cancel func()
	refs   int
}

func NewEngine(store draftstore.Store, history draftstore.History, submitter Submitter, log logger.Logger, defs ...*Definition) (*Engine, error) {
	if history == nil {
		history = draftstore.NewMemoryHistory()
	}
	e := &Engine{
		defs:       make(map[string]*Definition, len(defs)),
		validators: make(map[string]*Validator, len(defs)),
		store:      store,
		history:    history,
		submitter:  submitter,
		refs:       submission.NewReferenceGenerator(),
		hub:        NewScheduleHub(),
		logger:     log.WithFields(map[string]interface{}{"component": "wizard"}),
		subs:       make(map[string]*subscription),
	}
	for _, def := range defs {
		if err := def.Check(); err != nil {
			return nil, err
		}
		if _, dup := e.defs[def.ID]; dup {
			return nil, fmt.Errorf("wizard %s registered twice", def.ID)
		}
		e.defs[def.ID] = def
		e.order = append(e.order, def)
		e.validators[def.ID] = NewValidator(def)
	}
	return e, nil
}

// Definitions lists the registered wizards in registration order.
func (e *Engine) Definitions() []*Definition {
	out := make([]*Definition, len(e.order))
	copy(out, e.order)
	return out
}

func (e *Engine) Definition(wizardID string) (*Definition, error) {
	def, ok := e.defs[wizardID]
	if !ok {
		return nil, commonerrors.NewWizardNotFoundError(wizardID)
	}
	return def, nil
}

func (e *Engine) Validator(wizardID string) (*Validator, error) {
	v, ok := e.validators[wizardID]
	if !ok {
		return nil, commonerrors.NewWizardNotFoundError(wizardID)
	}
	return v, nil
}

func (e *Engine) Hub() *ScheduleHub { return e.hub }

// History lists the user's submitted applications, newest first.
func (e *Engine) History(ctx context.Context, userRef string) ([]models.ApplicationMetadata, error) {
	return e.history.List(ctx, userRef)
}

// Resume returns the saved session or a fresh one.
func (e *Engine) Resume(ctx context.Context, wizardID, userRef string) (*Session, error) {
	def, err := e.Definition(wizardID)
	if err != nil {
		return nil, err
	}
	s, err := e.load(ctx, def, userRef)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Update applies a step patch, persists it and reports the step's validity.
func (e *Engine) Update(ctx context.Context, wizardID, userRef, stepID string, patch map[string]interface{}) (*Session, Result, error) {
	def, err := e.Definition(wizardID)
	if err != nil {
		return nil, Result{}, err
	}
	s, err := e.load(ctx, def, userRef)
	if err != nil {
		return nil, Result{}, err
	}

	next, err := def.ApplyStepUpdate(s, stepID, patch)
	switch {
	case errors.Is(err, ErrUnknownStep):
		return nil, Result{}, commonerrors.NewStepNotFoundError(wizardID, stepID)
	case errors.Is(err, ErrFieldNotOwned):
		return nil, Result{}, commonerrors.NewApplicationValidationFailedError(err.Error())
	case err != nil:
		return nil, Result{}, err
	}

	if next, err = e.persist(ctx, def, next); err != nil {
		return nil, Result{}, err
	}
	return &next, e.validators[def.ID].Validate(next.Draft, stepID), nil
}

// Next validates the current step and advances by one when it is valid. An
// invalid step is not an error: the session comes back unchanged with the
// failing result.
func (e *Engine) Next(ctx context.Context, wizardID, userRef string) (*Session, Result, error) {
	def, err := e.Definition(wizardID)
	if err != nil {
		return nil, Result{}, err
	}
	s, err := e.load(ctx, def, userRef)
	if err != nil {
		return nil, Result{}, err
	}

	step, _ := def.StepAt(s.CurrentStep)
	res := e.validators[def.ID].Validate(s.Draft, step.ID)

	seq := def.Sequencer(s)
	if !seq.Next(res.Valid) {
		outcome := "end"
		if !res.Valid {
			outcome = "blocked"
			metrics.WizardValidationFailures.WithLabelValues(def.ID, step.ID).Inc()
		}
		metrics.WizardStepTransitions.WithLabelValues(def.ID, "next", outcome).Inc()
		return &s, res, nil
	}

	s.CurrentStep = seq.Current()
	s.UpdatedAt = now()
	if s, err = e.persist(ctx, def, s); err != nil {
		return nil, Result{}, err
	}
	metrics.WizardStepTransitions.WithLabelValues(def.ID, "next", "ok").Inc()
	return &s, res, nil
}

// Back moves one step back. At the first step it reports exit and changes nothing.
func (e *Engine) Back(ctx context.Context, wizardID, userRef string) (*Session, bool, error) {
	def, err := e.Definition(wizardID)
	if err != nil {
		return nil, false, err
	}
	s, err := e.load(ctx, def, userRef)
	if err != nil {
		return nil, false, err
	}

	seq := def.Sequencer(s)
	if seq.Back() {
		metrics.WizardStepTransitions.WithLabelValues(def.ID, "back", "exit").Inc()
		return &s, true, nil
	}

	s.CurrentStep = seq.Current()
	s.UpdatedAt = now()
	if s, err = e.persist(ctx, def, s); err != nil {
		return nil, false, err
	}
	metrics.WizardStepTransitions.WithLabelValues(def.ID, "back", "ok").Inc()
	return &s, false, nil
}

// GoTo jumps to a step. Out of range targets leave the session as it was.
func (e *Engine) GoTo(ctx context.Context, wizardID, userRef string, step int) (*Session, bool, error) {
	def, err := e.Definition(wizardID)
	if err != nil {
		return nil, false, err
	}
	s, err := e.load(ctx, def, userRef)
	if err != nil {
		return nil, false, err
	}

	seq := def.Sequencer(s)
	if !seq.GoTo(step) {
		metrics.WizardStepTransitions.WithLabelValues(def.ID, "goto", "ignored").Inc()
		return &s, false, nil
	}

	s.CurrentStep = seq.Current()
	s.UpdatedAt = now()
	if s, err = e.persist(ctx, def, s); err != nil {
		return nil, false, err
	}
	metrics.WizardStepTransitions.WithLabelValues(def.ID, "goto", "ok").Inc()
	return &s, true, nil
}

// Reset discards the saved draft ("start over").
func (e *Engine) Reset(ctx context.Context, wizardID, userRef string) (*Session, error) {
	def, err := e.Definition(wizardID)
	if err != nil {
		return nil, err
	}
	if err := e.store.Clear(ctx, e.key(def, userRef)); err != nil {
		return nil, commonerrors.NewDraftStorageFailedError(e.store.Name(), err)
	}
	s := def.NewSession(userRef)
	e.logger.Info("wizard reset", map[string]interface{}{"wizard": def.ID, "user": userRef})
	return &s, nil
}

// Submit validates every step, then submits once. The draft is cleared only
// after the backend accepted it.
func (e *Engine) Submit(ctx context.Context, wizardID, userRef string) (*models.SubmissionRecord, error) {
	def, err := e.Definition(wizardID)
	if err != nil {
		return nil, err
	}
	s, err := e.load(ctx, def, userRef)
	if err != nil {
		return nil, err
	}

	report := e.validators[def.ID].ValidateAll(s.Draft)
	if !report.Valid {
		return nil, commonerrors.NewApplicationValidationFailedError(
			"invalid steps: "+strings.Join(report.InvalidSteps, ", "),
		).WithMetadata("errors", report.Errors())
	}

	if e.submitter == nil {
		return nil, commonerrors.NewInternalError(errors.New("no submitter configured"))
	}

	spec := def.Submission
	payload := s.Draft.Clone()
	if spec.Enrich != nil {
		for k, v := range spec.Enrich(s.Draft) {
			if v == nil {
				delete(payload, k)
				continue
			}
			payload[k] = v
		}
	}

	record, err := e.submitter.Submit(ctx, submission.SubmitRequest{
		WizardID:              def.ID,
		UserRef:               userRef,
		Type:                  spec.EnvelopeType(s.Draft),
		Status:                spec.Status,
		Endpoint:              spec.Endpoint,
		Reference:             e.refs.Generate(spec.Format),
		Payload:               payload,
		AcceptServerReference: spec.AcceptServerReference,
	})
	if err != nil {
		e.logger.Warn("submission failed, draft kept", map[string]interface{}{"wizard": def.ID, "user": userRef, "error": err.Error()})
		return nil, err
	}

	if err := e.store.Clear(ctx, e.key(def, userRef)); err != nil {
		e.logger.Warn("failed to clear submitted draft", map[string]interface{}{"wizard": def.ID, "error": err.Error()})
	}

	summary := def.Title
	if spec.Summary != nil {
		summary = spec.Summary(s.Draft)
	}
	if err := e.history.Append(ctx, userRef, record.Metadata(summary)); err != nil {
		e.logger.Warn("failed to append application history", map[string]interface{}{"wizard": def.ID, "error": err.Error()})
	}
	e.logger.Info("application submitted", map[string]interface{}{
		"wizard":    def.ID,
		"user":      userRef,
		"reference": record.Reference,
	})
	return record, nil
}

// Schedule writes a scheduling event into the draft, then tries to advance.
func (e *Engine) Schedule(ctx context.Context, wizardID, userRef string, ev SchedulingEvent) (*Session, Result, error) {
	def, err := e.Definition(wizardID)
	if err != nil {
		return nil, Result{}, err
	}
	s, err := e.load(ctx, def, userRef)
	if err != nil {
		return nil, Result{}, err
	}

	stepID := schedulingStep(def, s)
	next, err := def.ApplyStepUpdate(s, stepID, SchedulingPatch(ev))
	if err != nil {
		return nil, Result{}, err
	}
	if _, err := e.persist(ctx, def, next); err != nil {
		return nil, Result{}, err
	}

	e.logger.Info("appointment scheduled", map[string]interface{}{"wizard": def.ID, "user": userRef, "event": ev.EventURI})
	return e.Next(ctx, wizardID, userRef)
}

// OnScheduled is the listener booking wizards register with the hub.
func (e *Engine) OnScheduled(wizardID, userRef string) ScheduleListener {
	return func(ctx context.Context, ev SchedulingEvent) error {
		_, _, err := e.Schedule(ctx, wizardID, userRef, ev)
		return err
	}
}

// schedulingStep is the step that owns the appointment fields, falling back to the current one.
func schedulingStep(def *Definition, s Session) string {
	for _, step := range def.Steps {
		for _, f := range step.Fields {
			if f == "appointmentDate" {
				return step.ID
			}
		}
	}
	step, _ := def.StepAt(s.CurrentStep)
	return step.ID
}

// Relay publishes a scheduling event to the session's hub listeners and
// returns the session afterwards. Scheduling wizards listen only while the
// relay is in flight.
func (e *Engine) Relay(ctx context.Context, wizardID, userRef string, ev SchedulingEvent) (*Session, int, error) {
	def, err := e.Definition(wizardID)
	if err != nil {
		return nil, 0, err
	}
	if def.Scheduling {
		release := e.listen(def.ID, userRef)
		defer release()
	}

	n, err := e.hub.Publish(ctx, def.ID, userRef, ev)
	if err != nil {
		return nil, n, err
	}
	s, err := e.load(ctx, def, userRef)
	if err != nil {
		return nil, n, err
	}
	return &s, n, nil
}

func (e *Engine) listen(wizardID, userRef string) (release func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	key := hubKey(wizardID, userRef)
	sub, ok := e.subs[key]
	if !ok {
		sub = &subscription{cancel: e.hub.Subscribe(wizardID, userRef, e.OnScheduled(wizardID, userRef))}
		e.subs[key] = sub
	}
	sub.refs++

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			sub.refs--
			if sub.refs == 0 {
				sub.cancel()
				delete(e.subs, key)
			}
		})
	}
}

func (e *Engine) key(def *Definition, userRef string) draftstore.Key {
	return draftstore.Key{Namespace: def.Namespace(userRef), UserRef: userRef}
}

// load restores a session. Saved fields are merged over the initial draft and
// the saved step is clamped into range.
func (e *Engine) load(ctx context.Context, def *Definition, userRef string) (Session, error) {
	s := def.NewSession(userRef)

	snap, ok, err := e.store.Load(ctx, e.key(def, userRef))
	if err != nil {
		return Session{}, commonerrors.NewDraftStorageFailedError(e.store.Name(), err)
	}
	if !ok {
		return s, nil
	}

	s.Draft = s.Draft.Merge(snap.Draft)
	s.CurrentStep = SequencerAt(snap.CurrentStep, def.TotalSteps()).Current()
	if !snap.CreatedAt.IsZero() {
		s.CreatedAt = snap.CreatedAt
	}
	if !snap.UpdatedAt.IsZero() {
		s.UpdatedAt = snap.UpdatedAt
	}
	return s, nil
}

// persist saves s and returns it with the draft in its stored form.
func (e *Engine) persist(ctx context.Context, def *Definition, s Session) (Session, error) {
	draft, err := draftstore.Normalize(s.Draft)
	if err != nil {
		return Session{}, commonerrors.NewDraftStorageFailedError(e.store.Name(), err)
	}

	err = e.store.Save(ctx, e.key(def, s.UserRef), draftstore.Snapshot{
		WizardID:    def.ID,
		CurrentStep: s.CurrentStep,
		Draft:       draft,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	})
	if err != nil {
		var quota *draftstore.QuotaError
		if errors.As(err, &quota) {
			return Session{}, commonerrors.NewDraftQuotaExceededError(quota.Size, quota.Limit)
		}
		return Session{}, commonerrors.NewDraftStorageFailedError(e.store.Name(), err)
	}

	s.Draft = Draft(draft)
	return s, nil
}
