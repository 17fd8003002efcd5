// internal/workers/onboarding/validate-submission/handler.go
package validatesubmission

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	commonerrors "opulanz-onboarding/internal/common/errors"
	"opulanz-onboarding/internal/common/logger"
	"opulanz-onboarding/internal/common/metrics"
	"opulanz-onboarding/internal/common/observability"
	"opulanz-onboarding/internal/common/validation"
	"opulanz-onboarding/internal/wizard"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "validate-submission"
)

type Handler struct {
	config       *Config
	defs         []*wizard.Definition
	validators   map[string]*wizard.Validator
	errorHandler *commonerrors.ErrorHandler
	obs          *observability.Observability
	logger       logger.Logger
}

func NewHandler(config *Config, defs []*wizard.Definition, obs *observability.Observability, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	validators := make(map[string]*wizard.Validator, len(defs))
	for _, def := range defs {
		validators[def.ID] = wizard.NewValidator(def)
	}
	return &Handler{
		config:       config,
		defs:         defs,
		validators:   validators,
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

// resolve finds the wizard by id, then by submission type and endpoint. The
// fallback only succeeds when exactly one wizard matches.
func (h *Handler) resolve(input *Input) (*wizard.Definition, error) {
	if input.WizardID != "" {
		for _, def := range h.defs {
			if def.ID == input.WizardID {
				return def, nil
			}
		}
		return nil, commonerrors.NewApplicationValidationFailedError(
			fmt.Sprintf("no wizard with id %q", input.WizardID),
		)
	}

	var matches []*wizard.Definition
	for _, def := range h.defs {
		if def.Submission.Matches(input.Type, input.Endpoint) {
			matches = append(matches, def)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return nil, commonerrors.NewApplicationValidationFailedError(
			fmt.Sprintf("no wizard for type %q, endpoint %q", input.Type, input.Endpoint),
		)
	default:
		ids := make([]string, 0, len(matches))
		for _, def := range matches {
			ids = append(ids, def.ID)
		}
		return nil, commonerrors.NewApplicationValidationFailedError(
			fmt.Sprintf("type %q, endpoint %q matches wizards %s; wizardId is required",
				input.Type, input.Endpoint, strings.Join(ids, ", ")),
		)
	}
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	def, err := h.resolve(input)
	if err != nil {
		return nil, err
	}

	report := h.validators[def.ID].ValidateAll(wizard.Draft(input.Payload))
	errs := report.Errors()
	if errs == nil {
		errs = []validation.ValidationError{}
	}

	h.logger.Info("submission validated", map[string]interface{}{
		"wizard":       def.ID,
		"isValid":      report.Valid,
		"invalidSteps": report.InvalidSteps,
	})

	return &Output{
		WizardID:         def.ID,
		IsValid:          report.Valid,
		ValidationErrors: errs,
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
