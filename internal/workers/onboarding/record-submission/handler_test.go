// internal/workers/onboarding/record-submission/handler_test.go
package recordsubmission

import (
	"context"
	"errors"
	"testing"
	"time"

	commonerrors "opulanz-onboarding/internal/common/errors"
	"opulanz-onboarding/internal/common/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestInput() *Input {
	return &Input{
		WizardID: "personal",
		UserRef:  "user-42",
		Type:     "individual",
		Status:   "submitted",
		Payload: map[string]interface{}{
			"applicationId": "OPL-P-1767225600000",
			"firstName":     "Ada",
			"email":         "ada@example.com",
		},
	}
}

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
	return tl.WithFields(map[string]interface{}{"error": err})
}

func (tl *testLogger) With(fields map[string]interface{}) logger.Logger {
	return tl
}

func newTestLogger(t *testing.T) logger.Logger {
	return &testLogger{t: t}
}

func expectDuplicateCheck(mock sqlmock.Sqlmock, exists bool) {
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("OPL-P-1767225600000").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(exists))
}

func expectInsert(mock sqlmock.Sqlmock) *sqlmock.ExpectedExec {
	return mock.ExpectExec(`INSERT INTO submissions`).
		WithArgs(
			sqlmock.AnyArg(), // id
			"OPL-P-1767225600000",
			"personal",
			"individual",
			"submitted",
			"user-42",
			sqlmock.AnyArg(), // server_id
			sqlmock.AnyArg(), // payload JSON
			sqlmock.AnyArg(), // submitted_at
		)
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	expectDuplicateCheck(mock, false)
	expectInsert(mock).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO audit_log`).
		WithArgs("submission_recorded", "submission", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	handler := NewHandler(LoadConfig(), db, nil, newTestLogger(t))
	output, err := handler.Execute(context.Background(), createTestInput())

	require.NoError(t, err)
	assert.NotEmpty(t, output.SubmissionID)
	assert.Equal(t, "OPL-P-1767225600000", output.Reference)
	assert.Equal(t, "submitted", output.SubmissionStatus)
	_, err = time.Parse(time.RFC3339, output.CreatedAt)
	assert.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_AuditFailureIsNonCritical(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	expectDuplicateCheck(mock, false)
	expectInsert(mock).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO audit_log`).WillReturnError(errors.New("relation \"audit_log\" does not exist"))

	handler := NewHandler(LoadConfig(), db, nil, newTestLogger(t))
	output, err := handler.Execute(context.Background(), createTestInput())

	require.NoError(t, err)
	assert.NotNil(t, output)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name      string
		input     func() *Input
		setup     func(mock sqlmock.Sqlmock)
		wantCode  commonerrors.ErrorCode
		retryable bool
	}{
		{
			name: "duplicate reference",
			setup: func(mock sqlmock.Sqlmock) {
				expectDuplicateCheck(mock, true)
			},
			wantCode: commonerrors.ErrCodeDuplicateSubmission,
		},
		{
			name: "duplicate check fails",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT EXISTS`).WillReturnError(errors.New("connection reset"))
			},
			wantCode:  commonerrors.ErrCodeDatabaseInsertFailed,
			retryable: true,
		},
		{
			name: "insert fails",
			setup: func(mock sqlmock.Sqlmock) {
				expectDuplicateCheck(mock, false)
				expectInsert(mock).WillReturnError(errors.New("disk full"))
			},
			wantCode:  commonerrors.ErrCodeDatabaseInsertFailed,
			retryable: true,
		},
		{
			name: "unique violation on insert",
			setup: func(mock sqlmock.Sqlmock) {
				expectDuplicateCheck(mock, false)
				expectInsert(mock).WillReturnError(&pq.Error{Code: "23505"})
			},
			wantCode: commonerrors.ErrCodeDuplicateSubmission,
		},
		{
			name: "missing reference",
			input: func() *Input {
				in := createTestInput()
				delete(in.Payload, "applicationId")
				return in
			},
			setup:    func(mock sqlmock.Sqlmock) {},
			wantCode: commonerrors.ErrCodeApplicationValidationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()
			tt.setup(mock)

			input := createTestInput()
			if tt.input != nil {
				input = tt.input()
			}

			handler := NewHandler(LoadConfig(), db, nil, newTestLogger(t))
			output, err := handler.Execute(context.Background(), input)

			assert.Nil(t, output)
			std, ok := commonerrors.AsStandard(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantCode, std.Code)
			assert.Equal(t, tt.retryable, std.Retryable)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRetryPolicy(t *testing.T) {
	insert := commonerrors.ConvertToBPMNError(commonerrors.NewDatabaseInsertFailedError(errors.New("x")))
	assert.Equal(t, 3, insert.Retries)

	dup := commonerrors.ConvertToBPMNError(commonerrors.NewDuplicateSubmissionError("OPL-P-1"))
	assert.Equal(t, 0, dup.Retries)
	assert.Equal(t, "DUPLICATE_SUBMISSION", dup.Code)
}
