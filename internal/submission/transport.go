package submission

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	commonhttp "opulanz-onboarding/internal/common/http"
)

var (
	ErrSubmissionFailed = errors.New("SUBMISSION_FAILED")
	ErrInvalidEnvelope  = errors.New("INVALID_ENVELOPE")
)

// Receipt is what the backend tells us about an accepted submission.
type Receipt struct {
	ID                 string `json:"id,omitempty"`
	ConfirmationNumber string `json:"confirmationNumber,omitempty"`
}

// Route says where an envelope goes and on whose behalf.
type Route struct {
	Endpoint string
	WizardID string
	UserRef  string
}

// Transport delivers an envelope. Implementations make exactly one attempt.
type Transport interface {
	Send(ctx context.Context, route Route, env Envelope) (*Receipt, error)
	Name() string
}

// HTTPTransport POSTs envelopes to the backend API.
type HTTPTransport struct {
	baseURL string
	client  *commonhttp.Client
}

func NewHTTPTransport(baseURL string, client *commonhttp.Client) *HTTPTransport {
	return &HTTPTransport{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (t *HTTPTransport) Name() string { return "http" }

type backendResponse struct {
	Success bool `json:"success"`
	Data    struct {
		ID                 json.RawMessage `json:"id"`
		ConfirmationNumber string          `json:"confirmation_number"`
	} `json:"data"`
	Error string `json:"error"`
}

func (t *HTTPTransport) Send(ctx context.Context, route Route, env Envelope) (*Receipt, error) {
	resp, err := t.client.PostJSON(ctx, t.baseURL+route.Endpoint, env)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSubmissionFailed, err)
	}
	if !resp.OK() {
		return nil, fmt.Errorf("%w: %s returned %d", ErrSubmissionFailed, route.Endpoint, resp.StatusCode)
	}

	receipt := &Receipt{}
	var body backendResponse
	if len(resp.Body) > 0 && json.Unmarshal(resp.Body, &body) == nil {
		receipt.ID = rawID(body.Data.ID)
		receipt.ConfirmationNumber = body.Data.ConfirmationNumber
	}
	return receipt, nil
}

// rawID accepts numeric or string ids.
func rawID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var n json.Number
	if json.Unmarshal(raw, &n) == nil {
		return n.String()
	}
	return ""
}

// ProcessStarter starts a BPMN process instance; *camunda.Client implements it.
type ProcessStarter interface {
	CreateInstance(ctx context.Context, processID string, vars map[string]interface{}) (int64, error)
}

// ZeebeTransport hands the envelope to the onboarding-submission process instead
// of calling the backend directly.
type ZeebeTransport struct {
	starter   ProcessStarter
	processID string
}

func NewZeebeTransport(starter ProcessStarter, processID string) *ZeebeTransport {
	return &ZeebeTransport{starter: starter, processID: processID}
}

func (t *ZeebeTransport) Name() string { return "zeebe" }

func (t *ZeebeTransport) Send(ctx context.Context, route Route, env Envelope) (*Receipt, error) {
	key, err := t.starter.CreateInstance(ctx, t.processID, map[string]interface{}{
		"wizardId": route.WizardID,
		"userRef":  route.UserRef,
		"endpoint": route.Endpoint,
		"type":     env.Type,
		"status":   env.Status,
		"payload":  env.Payload,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSubmissionFailed, err)
	}
	return &Receipt{ID: strconv.FormatInt(key, 10)}, nil
}
