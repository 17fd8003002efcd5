package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"opulanz-onboarding/internal/admin"
	commonerrors "opulanz-onboarding/internal/common/errors"
	"opulanz-onboarding/internal/common/logger"
	"opulanz-onboarding/internal/common/validation"
	"opulanz-onboarding/internal/draftstore"
	"opulanz-onboarding/internal/models"
	"opulanz-onboarding/internal/submission"
	"opulanz-onboarding/internal/wizard"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

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

type fakeSubmitter struct {
	err   error
	calls int
}

func (f *fakeSubmitter) Submit(ctx context.Context, req submission.SubmitRequest) (*models.SubmissionRecord, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &models.SubmissionRecord{
		ID:          "rec-1",
		Reference:   req.Reference,
		WizardID:    req.WizardID,
		Type:        req.Type,
		Status:      models.StatusSubmitted,
		Payload:     req.Payload,
		UserRef:     req.UserRef,
		SubmittedAt: time.Now().UTC(),
	}, nil
}

const testAdminCode = "OPULANZ-ADMIN-TEST"

func contactWizard() *wizard.Definition {
	return &wizard.Definition{
		ID:         "contact",
		Title:      "Contact",
		StorageKey: "contact-progress",
		Steps: []wizard.StepDefinition{
			{
				ID:     "details",
				Order:  1,
				Label:  "Details",
				Fields: []string{"name", "email"},
				Schema: validation.JSONSchema{
					Type: "object",
					Properties: map[string]validation.Property{
						"name":  {Type: "string"},
						"email": {Type: "string", Format: "email"},
					},
					Required: []string{"name", "email"},
				},
			},
			{
				ID:     "schedule",
				Order:  2,
				Label:  "Schedule",
				Fields: []string{"appointmentDate", "appointmentTime", "calendlyEventUrl", "calendlyInviteeUrl"},
				Rules: []wizard.Rule{func(d wizard.Draft) []validation.ValidationError {
					return wizard.Required(d, "appointmentDate")
				}},
			},
			{ID: "confirm", Order: 3, Label: "Confirm"},
		},
		Submission: wizard.SubmissionSpec{
			Type:     submission.TypeAppointment,
			Status:   submission.StatusScheduled,
			Endpoint: "/api/appointments",
			Format:   submission.Format{Prefix: "CON", Suffix: true},
		},
		Scheduling: true,
	}
}

type fixture struct {
	router    *gin.Engine
	engine    *wizard.Engine
	submitter *fakeSubmitter
}

func newFixture(t *testing.T) *fixture {
	log := &testLogger{t: t}
	sub := &fakeSubmitter{}
	engine, err := wizard.NewEngine(draftstore.NewMemoryStore(draftstore.Codec{}, log), nil, sub, log, contactWizard())
	require.NoError(t, err)

	svc := admin.NewService(admin.NewMemoryStore(true), testAdminCode, log)
	router := NewRouter(Deps{
		Engine: engine,
		Admin:  svc,
		Logger: log,
		Checks: map[string]ReadinessCheck{"drafts": func(ctx context.Context) error { return nil }},
	})
	return &fixture{router: router, engine: engine, submitter: sub}
}

func (f *fixture) do(t *testing.T, method, path string, body interface{}, headers ...string) (*httptest.ResponseRecorder, map[string]interface{}) {
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var out map[string]interface{}
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") != "" {
		_ = json.Unmarshal(w.Body.Bytes(), &out)
	}
	return w, out
}

func state(body map[string]interface{}) map[string]interface{} {
	s, _ := body["state"].(map[string]interface{})
	return s
}

func currentStep(view map[string]interface{}) float64 {
	session, _ := view["session"].(map[string]interface{})
	step, _ := session["currentStep"].(float64)
	return step
}

// ==========================
// Service Endpoint Tests
// ==========================

func TestServiceEndpoints(t *testing.T) {
	f := newFixture(t)

	w, body := f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])

	w, body = f.do(t, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["ready"])

	w, _ = f.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReadiness_FailingCheck(t *testing.T) {
	log := &testLogger{t: t}
	engine, err := wizard.NewEngine(draftstore.NewMemoryStore(draftstore.Codec{}, log), nil, nil, log, contactWizard())
	require.NoError(t, err)
	router := NewRouter(Deps{
		Engine: engine,
		Logger: log,
		Checks: map[string]ReadinessCheck{"postgres": func(ctx context.Context) error { return errors.New("connection refused") }},
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats", nil))
	assert.Equal(t, http.StatusNotFound, w.Code, "admin routes are not mounted without a service")
}

// ==========================
// Wizard Endpoint Tests
// ==========================

func TestWizardCatalog(t *testing.T) {
	f := newFixture(t)

	w, body := f.do(t, http.MethodGet, "/api/v1/wizards", nil)
	require.Equal(t, http.StatusOK, w.Code)
	wizards := body["wizards"].([]interface{})
	require.Len(t, wizards, 1)
	first := wizards[0].(map[string]interface{})
	assert.Equal(t, "contact", first["id"])
	assert.Len(t, first["steps"], 3)
}

func TestWizardFlow(t *testing.T) {
	f := newFixture(t)
	base := "/api/v1/wizards/contact/sessions/u1"

	w, body := f.do(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "details", body["step"])
	assert.Equal(t, float64(3), body["totalSteps"])

	w, body = f.do(t, http.MethodPost, base+"/next", nil)
	require.Equal(t, http.StatusOK, w.Code, "an invalid step is not an HTTP error")
	assert.Equal(t, false, body["advanced"])
	result := state(body)["result"].(map[string]interface{})
	assert.Equal(t, false, result["valid"])
	assert.NotEmpty(t, result["errors"])

	w, _ = f.do(t, http.MethodPatch, base+"/steps/details", map[string]interface{}{"name": "Ada", "email": "ada@example.com"})
	require.Equal(t, http.StatusOK, w.Code)

	w, body = f.do(t, http.MethodPost, base+"/next", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["advanced"])
	assert.Equal(t, float64(2), currentStep(state(body)))

	w, body = f.do(t, http.MethodPost, base+"/back", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["exit"])

	w, body = f.do(t, http.MethodPost, base+"/back", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["exit"])

	w, body = f.do(t, http.MethodPost, base+"/goto/9", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["moved"])

	w, _ = f.do(t, http.MethodPost, base+"/goto/x", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = f.do(t, http.MethodPost, base+"/reset", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), currentStep(body))
}

func TestWizardUpdate_Errors(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		path   string
		body   interface{}
		status int
	}{
		{"unknown wizard", "/api/v1/wizards/nope/sessions/u1/steps/details", map[string]interface{}{"name": "x"}, http.StatusNotFound},
		{"unknown step", "/api/v1/wizards/contact/sessions/u1/steps/nope", map[string]interface{}{"name": "x"}, http.StatusNotFound},
		{"field owned by another step", "/api/v1/wizards/contact/sessions/u1/steps/details", map[string]interface{}{"appointmentDate": "x"}, http.StatusUnprocessableEntity},
		{"not an object", "/api/v1/wizards/contact/sessions/u1/steps/details", "[1,2]", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := f.do(t, http.MethodPatch, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, false, body["success"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestWizardSubmit(t *testing.T) {
	f := newFixture(t)
	base := "/api/v1/wizards/contact/sessions/u1"

	w, body := f.do(t, http.MethodPost, base+"/submit", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, string(commonerrors.ErrCodeApplicationValidationFailed), body["code"])
	assert.Equal(t, 0, f.submitter.calls)

	f.do(t, http.MethodPatch, base+"/steps/details", map[string]interface{}{"name": "Ada", "email": "ada@example.com"})
	f.do(t, http.MethodPatch, base+"/steps/schedule", map[string]interface{}{"appointmentDate": "2026-11-02T09:00:00Z"})

	f.submitter.err = commonerrors.NewSubmissionFailedError(errors.New("backend returned 500: pq: relation missing"))
	w, body = f.do(t, http.MethodPost, base+"/submit", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, commonerrors.SubmissionFailedMessage, body["error"])
	assert.NotContains(t, w.Body.String(), "pq:")

	f.submitter.err = nil
	w, body = f.do(t, http.MethodPost, base+"/submit", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Regexp(t, `^CON-`, body["reference"])

	w, body = f.do(t, http.MethodGet, "/api/v1/applications/u1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["applications"], 1)
}

func TestWizardSchedule(t *testing.T) {
	f := newFixture(t)
	base := "/api/v1/wizards/contact/sessions/u1"

	f.do(t, http.MethodPatch, base+"/steps/details", map[string]interface{}{"name": "Ada", "email": "ada@example.com"})
	f.do(t, http.MethodPost, base+"/next", nil)

	w, body := f.do(t, http.MethodPost, base+"/schedule", `{"event":"calendly.profile_page_viewed"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["ignored"])

	msg := `{"event":"calendly.event_scheduled","payload":{"event":{"uri":"https://api.calendly.com/scheduled_events/E1","start_time":"2026-11-02T09:00:00Z"},"invitee":{"uri":"https://api.calendly.com/invitees/I1"}}}`
	w, body = f.do(t, http.MethodPost, base+"/schedule", msg)
	require.Equal(t, http.StatusOK, w.Code)
	st := state(body)
	assert.Equal(t, float64(3), currentStep(st), "a scheduled appointment completes the step")
	draft := st["session"].(map[string]interface{})["draft"].(map[string]interface{})
	assert.Equal(t, "https://api.calendly.com/scheduled_events/E1", draft["calendlyEventUrl"])
	assert.Equal(t, 0, f.engine.Hub().Subscribers("contact", "u1"))
}

func TestWizardResume_HoldsNoScheduleListener(t *testing.T) {
	f := newFixture(t)
	base := "/api/v1/wizards/contact/sessions/u1"

	for i := 0; i < 50; i++ {
		w, _ := f.do(t, http.MethodGet, base, nil)
		require.Equal(t, http.StatusOK, w.Code)
		w, _ = f.do(t, http.MethodPost, base+"/reset", nil)
		require.Equal(t, http.StatusOK, w.Code)
	}
	assert.Equal(t, 0, f.engine.Hub().Subscribers("contact", "u1"))
}

// ==========================
// Admin Endpoint Tests
// ==========================

func TestAdminLogin(t *testing.T) {
	f := newFixture(t)

	w, _ := f.do(t, http.MethodPost, "/api/v1/admin/login", map[string]string{"code": testAdminCode})
	assert.Equal(t, http.StatusOK, w.Code)

	w, body := f.do(t, http.MethodPost, "/api/v1/admin/login", map[string]string{"code": "guess"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, false, body["success"])

	w, _ = f.do(t, http.MethodGet, "/api/v1/admin/stats", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCustomerLogin(t *testing.T) {
	f := newFixture(t)

	w, body := f.do(t, http.MethodPost, "/api/v1/admin/customers/login", map[string]string{"code": "OPULANZ-INV-2025"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cust-001", body["customer"].(map[string]interface{})["id"])
	assert.Len(t, body["offerings"], 4)

	w, body = f.do(t, http.MethodPost, "/api/v1/admin/customers/login", map[string]string{"code": "OPULANZ-NOPE"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, string(commonerrors.ErrCodeInvalidAccessCode), body["code"])
}

func TestAdminCustomers(t *testing.T) {
	f := newFixture(t)
	auth := []string{AdminCodeHeader, testAdminCode}

	w, body := f.do(t, http.MethodPost, "/api/v1/admin/customers", map[string]interface{}{
		"name": "Grace Hopper", "email": "grace@example.com", "investorType": "private", "profile": "new",
	}, auth...)
	require.Equal(t, http.StatusCreated, w.Code)
	customer := body["customer"].(map[string]interface{})
	id := customer["id"].(string)
	assert.Regexp(t, `^OPULANZ-`, customer["accessCode"])

	w, body = f.do(t, http.MethodPost, "/api/v1/admin/customers", map[string]interface{}{"name": "No email"}, auth...)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.NotEmpty(t, body["errors"])

	w, body = f.do(t, http.MethodPatch, "/api/v1/admin/customers/"+id, map[string]interface{}{"status": "inactive"}, auth...)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "inactive", body["customer"].(map[string]interface{})["status"])

	w, _ = f.do(t, http.MethodPost, "/api/v1/admin/customers/"+id+"/documents", map[string]interface{}{
		"name": "Passport", "type": "id", "url": "https://files.example.com/passport.pdf",
	}, auth...)
	require.Equal(t, http.StatusCreated, w.Code)

	w, body = f.do(t, http.MethodGet, "/api/v1/admin/customers/"+id+"/documents", nil, auth...)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["documents"], 1)

	w, _ = f.do(t, http.MethodDelete, "/api/v1/admin/customers/"+id, nil, auth...)
	assert.Equal(t, http.StatusOK, w.Code)

	w, body = f.do(t, http.MethodGet, "/api/v1/admin/customers/"+id, nil, auth...)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, false, body["success"])

	w, body = f.do(t, http.MethodGet, "/api/v1/admin/activity?limit=3", nil, auth...)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["activity"], 3)
}

func TestAdminProfiles(t *testing.T) {
	f := newFixture(t)
	auth := []string{AdminCodeHeader, testAdminCode}

	w, _ := f.do(t, http.MethodGet, "/api/v1/admin/admins", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, body := f.do(t, http.MethodGet, "/api/v1/admin/admins", nil, auth...)
	require.Equal(t, http.StatusOK, w.Code)
	before := len(body["admins"].([]interface{}))

	w, body = f.do(t, http.MethodPost, "/api/v1/admin/admins", map[string]interface{}{
		"name": "Ada Lovelace", "email": "ada@example.com", "role": "viewer",
	}, auth...)
	require.Equal(t, http.StatusOK, w.Code)
	saved := body["admin"].(map[string]interface{})
	id := saved["id"].(string)
	assert.NotEmpty(t, id)

	w, body = f.do(t, http.MethodPost, "/api/v1/admin/admins", map[string]interface{}{
		"id": id, "name": "Ada Lovelace", "email": "ada@example.com", "role": "admin",
	}, auth...)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "admin", body["admin"].(map[string]interface{})["role"])
	assert.Equal(t, saved["createdAt"], body["admin"].(map[string]interface{})["createdAt"])

	w, _ = f.do(t, http.MethodPost, "/api/v1/admin/admins", map[string]interface{}{
		"name": "Mallory", "email": "mallory@example.com", "role": "root",
	}, auth...)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w, body = f.do(t, http.MethodGet, "/api/v1/admin/admins", nil, auth...)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["admins"], before+1)
}

func TestAdminOfferingsAndStats(t *testing.T) {
	f := newFixture(t)
	auth := []string{AdminCodeHeader, testAdminCode}

	w, body := f.do(t, http.MethodGet, "/api/v1/admin/stats", nil, auth...)
	require.Equal(t, http.StatusOK, w.Code)
	stats := body["stats"].(map[string]interface{})
	assert.Equal(t, float64(4), stats["totalOfferings"])

	w, body = f.do(t, http.MethodPost, "/api/v1/admin/offerings", map[string]interface{}{
		"title": "Esch Logistics Hub", "location": "Esch-sur-Alzette", "status": "coming",
	}, auth...)
	require.Equal(t, http.StatusCreated, w.Code)
	id := body["offering"].(map[string]interface{})["id"].(string)

	w, body = f.do(t, http.MethodPatch, "/api/v1/admin/offerings/"+id, map[string]interface{}{"status": "sold"}, auth...)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w, _ = f.do(t, http.MethodDelete, "/api/v1/admin/offerings/"+id+"/documents/doc-missing", nil, auth...)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, body = f.do(t, http.MethodPost, "/api/v1/admin/access-codes", nil, auth...)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Regexp(t, `^OPULANZ-[A-Z0-9]{8}$`, body["accessCode"])
}
