package submission

import (
	"context"
	"fmt"
	"strings"

	"opulanz-onboarding/internal/common/logger"
	"opulanz-onboarding/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type NotifierConfig struct {
	FromEmail    string
	EmailEnabled bool
	SMSEnabled   bool
}

// AWSNotifier sends the applicant their reference by email and, when a phone
// number was captured, by SMS.
type AWSNotifier struct {
	config NotifierConfig
	ses    SESService
	sns    SNSService
	logger logger.Logger
}

func NewAWSNotifier(cfg NotifierConfig, sesClient SESService, snsClient SNSService, log logger.Logger) *AWSNotifier {
	return &AWSNotifier{
		config: cfg,
		ses:    sesClient,
		sns:    snsClient,
		logger: log.WithFields(map[string]interface{}{"component": "notifier"}),
	}
}

var typeTitles = map[string]string{
	TypeIndividual:  "personal account application",
	TypeCompany:     "business account application",
	TypeAccounting:  "accounting request",
	TypeInsurance:   "life insurance application",
	TypeTaxAdvisory: "tax advisory booking",
	TypeAppointment: "advisory appointment",
}

// ConfirmationMessage builds the subject and body sent to the applicant.
func ConfirmationMessage(submissionType, reference string) (string, string) {
	title, ok := typeTitles[submissionType]
	if !ok {
		title = "application"
	}
	subject := fmt.Sprintf("Opulanz: your %s was received", title)
	body := fmt.Sprintf("Thank you. Your %s has been submitted. Your reference is %s.", title, reference)
	return subject, body
}

// Notify returns the first delivery error; the caller treats it as non-critical.
func (n *AWSNotifier) Notify(ctx context.Context, r *models.SubmissionRecord) error {
	email := strings.TrimSpace(payloadString(r.Payload, "email"))
	phone := strings.TrimSpace(payloadString(r.Payload, "phone"))
	subject, body := ConfirmationMessage(r.Type, r.Reference)

	if n.config.EmailEnabled && email != "" && n.ses != nil {
		if err := SendEmail(ctx, n.ses, n.config.FromEmail, email, subject, body); err != nil {
			return fmt.Errorf("email: %w", err)
		}
		n.logger.Debug("confirmation email sent", map[string]interface{}{"reference": r.Reference})
	}

	if n.config.SMSEnabled && phone != "" && n.sns != nil {
		if err := SendSMS(ctx, n.sns, phone, body); err != nil {
			return fmt.Errorf("sms: %w", err)
		}
		n.logger.Debug("confirmation sms sent", map[string]interface{}{"reference": r.Reference})
	}
	return nil
}

func SendEmail(ctx context.Context, client SESService, from, to, subject, body string) error {
	_, err := client.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
				Html: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(from),
	})
	return err
}

func SendSMS(ctx context.Context, client SNSService, to, message string) error {
	_, err := client.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
	})
	return err
}
