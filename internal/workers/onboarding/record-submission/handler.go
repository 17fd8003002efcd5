// internal/workers/onboarding/record-submission/handler.go
package recordsubmission

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	commonerrors "opulanz-onboarding/internal/common/errors"
	"opulanz-onboarding/internal/common/logger"
	"opulanz-onboarding/internal/common/metrics"
	"opulanz-onboarding/internal/common/observability"
	"opulanz-onboarding/internal/models"
	"opulanz-onboarding/internal/submission"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "record-submission"
)

type Handler struct {
	config       *Config
	db           *sql.DB
	records      *submission.RecordStore
	errorHandler *commonerrors.ErrorHandler
	obs          *observability.Observability
	logger       logger.Logger
}

func NewHandler(config *Config, db *sql.DB, obs *observability.Observability, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		db:           db,
		records:      submission.NewRecordStore(db, log),
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
		h.fail(ctx, client, job, commonerrors.NewApplicationValidationFailedError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
}

func reference(input *Input) string {
	if ref, ok := input.Payload["applicationId"].(string); ok {
		return strings.TrimSpace(ref)
	}
	return ""
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	ref := reference(input)
	if ref == "" {
		return nil, commonerrors.NewApplicationValidationFailedError("payload.applicationId is required")
	}

	var exists bool
	err := h.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM submissions
			WHERE reference = $1
		)`, ref).Scan(&exists)
	if err != nil {
		return nil, commonerrors.NewDatabaseInsertFailedError(fmt.Errorf("duplicate check failed: %w", err))
	}
	if exists {
		return nil, commonerrors.NewDuplicateSubmissionError(ref)
	}

	now := time.Now().UTC()
	record := &models.SubmissionRecord{
		ID:          uuid.New().String(),
		Reference:   ref,
		WizardID:    input.WizardID,
		Type:        input.Type,
		Status:      models.InitialStatus(input.Status),
		Payload:     input.Payload,
		UserRef:     input.UserRef,
		SubmittedAt: now,
	}
	if err := h.records.Save(ctx, record); err != nil {
		if errors.Is(err, submission.ErrDuplicateRecord) {
			return nil, commonerrors.NewDuplicateSubmissionError(ref)
		}
		return nil, commonerrors.NewDatabaseInsertFailedError(err)
	}

	// Audit entry is non-critical: log and carry on.
	auditDetailsJSON, err := json.Marshal(map[string]interface{}{
		"reference": ref,
		"wizardId":  input.WizardID,
		"type":      input.Type,
	})
	if err != nil {
		auditDetailsJSON = []byte("{}")
	}
	createdAt := now.Format(time.RFC3339)

	_, err = h.db.ExecContext(ctx, `
		INSERT INTO audit_log (event_type, resource_type, resource_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		"submission_recorded",
		"submission",
		record.ID,
		auditDetailsJSON,
		createdAt,
	)
	if err != nil {
		h.logger.Warn("audit log insert failed", map[string]interface{}{
			"error":        err,
			"submissionId": record.ID,
		})
	}

	h.logger.Info("submission record created", map[string]interface{}{
		"submissionId": record.ID,
		"reference":    ref,
		"type":         input.Type,
	})

	return &Output{
		SubmissionID:     record.ID,
		Reference:        ref,
		SubmissionStatus: string(record.Status),
		CreatedAt:        createdAt,
	}, nil
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	code := string(commonerrors.ErrCodeInternal)
	if std, ok := commonerrors.AsStandard(err); ok {
		code = string(std.Code)
	}
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, code).Inc()
	h.obs.RecordJobProcessed(ctx, TaskType, "failed")
	h.errorHandler.HandleJobError(ctx, client, job, err)
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
	return h.execute(ctx, input)
}
