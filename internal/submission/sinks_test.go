package submission

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"opulanz-onboarding/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord() *models.SubmissionRecord {
	return &models.SubmissionRecord{
		ID:          "5f1c1a44-8f43-4f9e-9d0a-9f6a2b1c0d11",
		Reference:   "OPL-P-1700000000000",
		WizardID:    "personal",
		Type:        TypeIndividual,
		Status:      models.StatusSubmitted,
		UserRef:     "user-1",
		SubmittedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Payload: map[string]interface{}{
			"firstName": "Ada",
			"lastName":  "Lovelace",
			"email":     "ada@example.com",
			"phone":     "+352621000000",
		},
	}
}

// ==========================
// Record Store Tests
// ==========================

func TestRecordStore_Save(t *testing.T) {
	tests := []struct {
		name      string
		execErr   error
		wantErr   bool
		duplicate bool
	}{
		{name: "inserted"},
		{name: "duplicate reference", execErr: &pq.Error{Code: "23505"}, wantErr: true, duplicate: true},
		{name: "connection lost", execErr: errors.New("connection lost"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			r := sampleRecord()
			exp := mock.ExpectExec("INSERT INTO submissions").
				WithArgs(r.ID, r.Reference, r.WizardID, r.Type, "submitted", r.UserRef, sqlmock.AnyArg(), sqlmock.AnyArg(), r.SubmittedAt)
			if tt.execErr != nil {
				exp.WillReturnError(tt.execErr)
			} else {
				exp.WillReturnResult(sqlmock.NewResult(1, 1))
			}

			err = NewRecordStore(db, newTestLogger(t)).Save(context.Background(), r)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, tt.duplicate, errors.Is(err, ErrDuplicateRecord))
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func recordRows() *sqlmock.Rows {
	r := sampleRecord()
	payload, _ := json.Marshal(r.Payload)
	return sqlmock.NewRows([]string{"id", "reference", "wizard_id", "type", "status", "user_ref", "server_id", "payload", "submitted_at"}).
		AddRow(r.ID, r.Reference, r.WizardID, r.Type, "submitted", r.UserRef, nil, payload, r.SubmittedAt)
}

func TestRecordStore_GetAndList(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewRecordStore(db, newTestLogger(t))

	mock.ExpectQuery(regexp.QuoteMeta("FROM submissions WHERE id = $1")).
		WithArgs("5f1c1a44-8f43-4f9e-9d0a-9f6a2b1c0d11").
		WillReturnRows(recordRows())

	got, err := store.Get(context.Background(), "5f1c1a44-8f43-4f9e-9d0a-9f6a2b1c0d11")
	require.NoError(t, err)
	assert.Equal(t, "OPL-P-1700000000000", got.Reference)
	assert.Equal(t, "ada@example.com", got.Payload["email"])
	assert.Empty(t, got.ServerID)

	mock.ExpectQuery(regexp.QuoteMeta("FROM submissions WHERE id = $1")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	_, err = store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRecordNotFound)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_ref = $1 ORDER BY submitted_at DESC LIMIT $2")).
		WithArgs("user-1", 10).
		WillReturnRows(recordRows())
	list, err := store.ListByUser(context.Background(), "user-1", 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordStore_UpdateStatus(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      models.SubmissionStatus
		wantErr error
	}{
		{name: "submitted to confirmed", from: "submitted", to: models.StatusConfirmed},
		{name: "confirmed to approved", from: "confirmed", to: models.StatusApproved},
		{name: "approved is terminal", from: "approved", to: models.StatusDeclined, wantErr: ErrInvalidTransition},
		{name: "no going back", from: "confirmed", to: models.StatusSubmitted, wantErr: ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			mock.ExpectBegin()
			mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM submissions WHERE id = $1 FOR UPDATE")).
				WithArgs("id-1").
				WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(tt.from))
			if tt.wantErr == nil {
				mock.ExpectExec("UPDATE submissions SET status").
					WithArgs(string(tt.to), "id-1").
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			} else {
				mock.ExpectRollback()
			}

			err = NewRecordStore(db, newTestLogger(t)).UpdateStatus(context.Background(), "id-1", tt.to)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

// ==========================
// Indexer Tests
// ==========================

func TestESIndexer_Index(t *testing.T) {
	var (
		gotPath string
		gotDoc  map[string]interface{}
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &gotDoc)
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	}))
	defer srv.Close()

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)

	r := sampleRecord()
	require.NoError(t, NewESIndexer(es, "submissions").Index(context.Background(), r))

	assert.Equal(t, "/submissions/_doc/"+r.ID, gotPath)
	assert.Equal(t, "Ada Lovelace", gotDoc["name"])
	assert.Equal(t, "ada@example.com", gotDoc["email"])
	assert.Equal(t, r.Reference, gotDoc["reference"])
}

func TestESIndexer_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"mapper_parsing_exception"}`))
	}))
	defer srv.Close()

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)

	assert.Error(t, NewESIndexer(es, "submissions").Index(context.Background(), sampleRecord()))
}

// ==========================
// Notifier Tests
// ==========================

type MockSESService struct {
	SendEmailFunc func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

func (m *MockSESService) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	return m.SendEmailFunc(ctx, params, optFns...)
}

type MockSNSService struct {
	PublishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

func (m *MockSNSService) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	return m.PublishFunc(ctx, params, optFns...)
}

func TestAWSNotifier_Notify(t *testing.T) {
	tests := []struct {
		name      string
		cfg       NotifierConfig
		dropPhone bool
		sesErr    error
		wantEmail int
		wantSMS   int
		wantErr   bool
	}{
		{name: "email and sms", cfg: NotifierConfig{FromEmail: "noreply@opulanz.com", EmailEnabled: true, SMSEnabled: true}, wantEmail: 1, wantSMS: 1},
		{name: "no phone", cfg: NotifierConfig{EmailEnabled: true, SMSEnabled: true}, dropPhone: true, wantEmail: 1},
		{name: "disabled", cfg: NotifierConfig{}},
		{name: "email fails", cfg: NotifierConfig{EmailEnabled: true, SMSEnabled: true}, sesErr: errors.New("throttled"), wantEmail: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var emails, sms int
			var body string
			sesMock := &MockSESService{SendEmailFunc: func(ctx context.Context, p *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
				emails++
				body = *p.Message.Body.Text.Data
				return &ses.SendEmailOutput{}, tt.sesErr
			}}
			snsMock := &MockSNSService{PublishFunc: func(ctx context.Context, p *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
				sms++
				assert.Equal(t, "+352621000000", *p.PhoneNumber)
				return &sns.PublishOutput{}, nil
			}}

			r := sampleRecord()
			if tt.dropPhone {
				delete(r.Payload, "phone")
			}

			err := NewAWSNotifier(tt.cfg, sesMock, snsMock, newTestLogger(t)).Notify(context.Background(), r)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantEmail, emails)
			assert.Equal(t, tt.wantSMS, sms)
			if emails > 0 {
				assert.Contains(t, body, r.Reference)
			}
		})
	}
}
