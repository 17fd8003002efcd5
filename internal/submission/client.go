package submission

import (
	"context"
	"time"

	commonerrors "opulanz-onboarding/internal/common/errors"
	"opulanz-onboarding/internal/common/logger"
	"opulanz-onboarding/internal/common/metrics"
	"opulanz-onboarding/internal/common/observability"
	"opulanz-onboarding/internal/models"

	"github.com/google/uuid"
)

// SubmitRequest is one finished draft ready for the backend.
type SubmitRequest struct {
	WizardID  string
	UserRef   string
	Type      string
	Status    string
	Endpoint  string
	Reference string
	Payload   map[string]interface{}

	// AcceptServerReference lets a confirmation number returned by the backend
	// replace Reference on the record.
	AcceptServerReference bool
}

// RecordSaver persists a submission record.
type RecordSaver interface {
	Save(ctx context.Context, record *models.SubmissionRecord) error
}

// Indexer makes a submission searchable.
type Indexer interface {
	Index(ctx context.Context, record *models.SubmissionRecord) error
}

// Notifier tells the applicant their submission was received.
type Notifier interface {
	Notify(ctx context.Context, record *models.SubmissionRecord) error
}

type Option func(*Client)

func WithRecordStore(r RecordSaver) Option { return func(c *Client) { c.records = r } }
func WithIndexer(i Indexer) Option         { return func(c *Client) { c.indexer = i } }
func WithNotifier(n Notifier) Option       { return func(c *Client) { c.notifier = n } }

func WithObservability(o *observability.Observability) Option {
	return func(c *Client) { c.obs = o }
}

// Client submits envelopes through a Transport and fans the resulting record out
// to the optional sinks.
type Client struct {
	transport Transport
	records   RecordSaver
	indexer   Indexer
	notifier  Notifier
	obs       *observability.Observability
	logger    logger.Logger
	now       func() time.Time
}

func NewClient(transport Transport, log logger.Logger, opts ...Option) *Client {
	c := &Client{
		transport: transport,
		logger:    log.WithFields(map[string]interface{}{"component": "submission", "transport": transport.Name()}),
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit makes exactly one transport attempt. Failures come back as a
// SUBMISSION_FAILED StandardError.
func (c *Client) Submit(ctx context.Context, req SubmitRequest) (*models.SubmissionRecord, error) {
	submittedAt := c.now()

	payload := clonePayload(req.Payload)
	payload["applicationId"] = req.Reference
	payload["submittedAt"] = submittedAt.Format(time.RFC3339)

	env := Envelope{Type: req.Type, Status: req.Status, Payload: payload}
	if err := ValidateEnvelope(env); err != nil {
		c.observe(ctx, req.WizardID, err, 0)
		c.logger.Error("submission envelope rejected", map[string]interface{}{
			"wizard": req.WizardID,
			"error":  err.Error(),
		})
		return nil, commonerrors.NewSubmissionFailedError(err)
	}

	start := time.Now()
	receipt, err := c.transport.Send(ctx, Route{
		Endpoint: req.Endpoint,
		WizardID: req.WizardID,
		UserRef:  req.UserRef,
	}, env)
	c.observe(ctx, req.WizardID, err, time.Since(start))
	if err != nil {
		c.logger.Error("submission failed", map[string]interface{}{
			"wizard":    req.WizardID,
			"endpoint":  req.Endpoint,
			"reference": req.Reference,
			"error":     err.Error(),
		})
		return nil, commonerrors.NewSubmissionFailedError(err)
	}

	record := &models.SubmissionRecord{
		ID:          uuid.New().String(),
		Reference:   req.Reference,
		WizardID:    req.WizardID,
		Type:        req.Type,
		Status:      models.InitialStatus(req.Status),
		Payload:     payload,
		UserRef:     req.UserRef,
		SubmittedAt: submittedAt,
	}
	if receipt != nil {
		record.ServerID = receipt.ID
		if req.AcceptServerReference && receipt.ConfirmationNumber != "" {
			record.Reference = receipt.ConfirmationNumber
			record.Payload["applicationId"] = receipt.ConfirmationNumber
		}
	}

	c.logger.Info("submission accepted", map[string]interface{}{
		"wizard":    req.WizardID,
		"reference": record.Reference,
		"serverId":  record.ServerID,
	})

	c.runSinks(ctx, record)
	return record, nil
}

// runSinks never fails the submission; the backend already accepted it.
func (c *Client) runSinks(ctx context.Context, record *models.SubmissionRecord) {
	if c.records != nil {
		if err := c.records.Save(ctx, record); err != nil {
			c.logger.Warn("failed to record submission", map[string]interface{}{"reference": record.Reference, "error": err.Error()})
		}
	}
	if c.indexer != nil {
		if err := c.indexer.Index(ctx, record); err != nil {
			c.logger.Warn("failed to index submission", map[string]interface{}{"reference": record.Reference, "error": err.Error()})
		}
	}
	if c.notifier != nil {
		if err := c.notifier.Notify(ctx, record); err != nil {
			c.logger.Warn("failed to send confirmation", map[string]interface{}{"reference": record.Reference, "error": err.Error()})
		}
	}
}

func (c *Client) observe(ctx context.Context, wizard string, err error, d time.Duration) {
	outcome := metrics.Outcome(err)
	metrics.Submissions.WithLabelValues(wizard, outcome).Inc()
	c.obs.RecordSubmission(ctx, wizard, outcome)
	if d > 0 {
		metrics.SubmissionDuration.WithLabelValues(wizard).Observe(d.Seconds())
		c.obs.RecordSubmissionDuration(ctx, wizard, d)
	}
}

// UserMessage is the text shown to the applicant for a failed submit.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if std, ok := commonerrors.AsStandard(err); ok && std.Code != commonerrors.ErrCodeSubmissionFailed {
		return std.Message
	}
	return commonerrors.SubmissionFailedMessage
}

func clonePayload(in map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(in)+2)
	for k, v := range in {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		return clonePayload(t)
	case []interface{}:
		out := make([]interface{}, len(t))
		for i := range t {
			out[i] = cloneValue(t[i])
		}
		return out
	case []string:
		out := make([]interface{}, len(t))
		for i := range t {
			out[i] = t[i]
		}
		return out
	case []map[string]interface{}:
		out := make([]interface{}, len(t))
		for i := range t {
			out[i] = clonePayload(t[i])
		}
		return out
	default:
		return v
	}
}
