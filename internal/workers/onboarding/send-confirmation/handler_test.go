// internal/workers/onboarding/send-confirmation/handler_test.go
package sendconfirmation

import (
	"context"
	"errors"
	"testing"

	"opulanz-onboarding/internal/common/logger"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type MockSESClient struct {
	mock.Mock
}

func (m *MockSESClient) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	args := m.Called(ctx, params)
	if out, ok := args.Get(0).(*ses.SendEmailOutput); ok {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockSNSClient struct {
	mock.Mock
}

func (m *MockSNSClient) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	args := m.Called(ctx, params)
	if out, ok := args.Get(0).(*sns.PublishOutput); ok {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
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

func createTestInput() *Input {
	return &Input{
		Type: "insurance",
		Payload: map[string]interface{}{
			"applicationId": "INS-1767225600000-AB12CD",
			"email":         "ada@example.com",
			"phone":         "+352621000000",
		},
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute(t *testing.T) {
	tests := []struct {
		name         string
		emailEnabled bool
		smsEnabled   bool
		sesErr       error
		snsErr       error
		wantStatus   string
		wantEmail    bool
		wantSMS      bool
	}{
		{name: "email and sms", emailEnabled: true, smsEnabled: true, wantStatus: StatusSent, wantEmail: true, wantSMS: true},
		{name: "email only", emailEnabled: true, wantStatus: StatusSent, wantEmail: true},
		{name: "all disabled", wantStatus: StatusDisabled},
		{name: "email failure", emailEnabled: true, smsEnabled: true, sesErr: errors.New("throttled"), wantStatus: StatusFailed, wantEmail: true},
		{name: "sms failure", emailEnabled: true, smsEnabled: true, snsErr: errors.New("opted out"), wantStatus: StatusFailed, wantEmail: true, wantSMS: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sesClient := new(MockSESClient)
			snsClient := new(MockSNSClient)
			if tt.wantEmail {
				sesClient.On("SendEmail", mock.Anything, mock.MatchedBy(func(in *ses.SendEmailInput) bool {
					return in.Destination.ToAddresses[0] == "ada@example.com" &&
						*in.Source == "noreply@opulanz.com" &&
						*in.Message.Subject.Data == "Opulanz: your life insurance application was received"
				})).Return(&ses.SendEmailOutput{}, tt.sesErr)
			}
			if tt.wantSMS {
				snsClient.On("Publish", mock.Anything, mock.MatchedBy(func(in *sns.PublishInput) bool {
					return *in.PhoneNumber == "+352621000000"
				})).Return(&sns.PublishOutput{}, tt.snsErr)
			}

			cfg := &Config{EmailEnabled: tt.emailEnabled, SMSEnabled: tt.smsEnabled, FromEmail: "noreply@opulanz.com"}
			handler := NewHandler(cfg, sesClient, snsClient, nil, &testLogger{t: t})

			output, err := handler.Execute(context.Background(), createTestInput())
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, output.Status)
			assert.NotEmpty(t, output.NotificationID)

			sesClient.AssertExpectations(t)
			snsClient.AssertExpectations(t)
			if !tt.wantSMS {
				snsClient.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestHandler_Execute_NoContactDetails(t *testing.T) {
	sesClient := new(MockSESClient)
	cfg := &Config{EmailEnabled: true, SMSEnabled: true, FromEmail: "noreply@opulanz.com"}
	handler := NewHandler(cfg, sesClient, nil, nil, &testLogger{t: t})

	output, err := handler.Execute(context.Background(), &Input{Type: "individual", Payload: map[string]interface{}{"email": "  "}})
	require.NoError(t, err)
	assert.Equal(t, StatusDisabled, output.Status)
	sesClient.AssertNotCalled(t, "SendEmail", mock.Anything, mock.Anything)
}
