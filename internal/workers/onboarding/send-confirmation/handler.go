// internal/workers/onboarding/send-confirmation/handler.go
package sendconfirmation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	commonerrors "opulanz-onboarding/internal/common/errors"
	"opulanz-onboarding/internal/common/logger"
	"opulanz-onboarding/internal/common/metrics"
	"opulanz-onboarding/internal/common/observability"
	"opulanz-onboarding/internal/submission"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "send-confirmation"
)

type Handler struct {
	config       *Config
	sesClient    submission.SESService
	snsClient    submission.SNSService
	errorHandler *commonerrors.ErrorHandler
	obs          *observability.Observability
	logger       logger.Logger
}

func NewHandler(config *Config, sesClient submission.SESService, snsClient submission.SNSService, obs *observability.Observability, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		sesClient:    sesClient,
		snsClient:    snsClient,
		errorHandler: commonerrors.NewErrorHandler(scoped),
		obs:          obs,
		logger:       scoped,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		err = commonerrors.NewApplicationValidationFailedError(fmt.Sprintf("parse input: %v", err))
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(commonerrors.ErrCodeApplicationValidationFailed)).Inc()
		h.obs.RecordJobProcessed(ctx, TaskType, "failed")
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, h.execute(ctx, &input))
}

func payloadString(p map[string]interface{}, key string) string {
	s, _ := p[key].(string)
	return strings.TrimSpace(s)
}

// execute never fails the job: a delivery problem is reported in the output
// status and the process decides what to do with it.
func (h *Handler) execute(ctx context.Context, input *Input) *Output {
	out := &Output{
		NotificationID: uuid.New().String(),
		Status:         StatusDisabled,
		SentAt:         time.Now().UTC().Format(time.RFC3339),
	}

	ref := input.Reference
	if ref == "" {
		ref = payloadString(input.Payload, "applicationId")
	}
	email := payloadString(input.Payload, "email")
	phone := payloadString(input.Payload, "phone")
	subject, body := submission.ConfirmationMessage(input.Type, ref)

	if h.config.EmailEnabled && email != "" && h.sesClient != nil {
		if err := submission.SendEmail(ctx, h.sesClient, h.config.FromEmail, email, subject, body); err != nil {
			h.logger.Error("email send failed", map[string]interface{}{
				"error":     err,
				"reference": ref,
			})
			out.Status = StatusFailed
			return out
		}
		out.Status = StatusSent
	}

	if h.config.SMSEnabled && phone != "" && h.snsClient != nil {
		if err := submission.SendSMS(ctx, h.snsClient, phone, body); err != nil {
			h.logger.Error("SMS send failed", map[string]interface{}{
				"error":     err,
				"reference": ref,
			})
			out.Status = StatusFailed
			return out
		}
		out.Status = StatusSent
	}

	h.logger.Info("confirmation processed", map[string]interface{}{
		"reference": ref,
		"status":    out.Status,
	})
	return out
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	h.obs.RecordJobProcessed(ctx, TaskType, "completed")
	h.logger.Info("job completed successfully", map[string]interface{}{
		"jobKey": job.Key,
	})
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input), nil
}
