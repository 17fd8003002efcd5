// cmd/tools/onboardctl/catalog.go
package main

import (
	"encoding/json"

	commonerrors "opulanz-onboarding/internal/common/errors"
	"opulanz-onboarding/internal/wizard"
	rs "opulanz-onboarding/internal/workers/onboarding/record-submission"
	sc "opulanz-onboarding/internal/workers/onboarding/send-confirmation"
	vs "opulanz-onboarding/internal/workers/onboarding/validate-submission"
	"opulanz-onboarding/pkg/registry"
)

const catalogVersion = "1.0.0"

// activities lists the jobs of the onboarding-submission process.
func activities() []registry.Activity {
	return []registry.Activity{
		{
			ID:          vs.TaskType,
			DisplayName: "Validate Submission",
			Description: "Re-runs every step validator of the wizard against the submitted payload",
			TaskType:    vs.TaskType,
			ErrorCodes:  []string{string(commonerrors.ErrCodeApplicationValidationFailed)},
			Timeout:     vs.LoadConfig().Timeout.String(),
		},
		{
			ID:          rs.TaskType,
			DisplayName: "Record Submission",
			Description: "Stores the submission row and an audit entry",
			TaskType:    rs.TaskType,
			ErrorCodes: []string{
				string(commonerrors.ErrCodeApplicationValidationFailed),
				string(commonerrors.ErrCodeDuplicateSubmission),
				string(commonerrors.ErrCodeDatabaseInsertFailed),
			},
			Timeout: rs.LoadConfig().Timeout.String(),
			Retries: 3,
		},
		{
			ID:          sc.TaskType,
			DisplayName: "Send Confirmation",
			Description: "Emails and texts the applicant their reference",
			TaskType:    sc.TaskType,
			ErrorCodes:  []string{},
			Timeout:     sc.LoadConfig().Timeout.String(),
		},
	}
}

func buildCatalog(defs []*wizard.Definition) (*registry.Catalog, error) {
	c := &registry.Catalog{
		Version:    catalogVersion,
		Activities: activities(),
	}
	for _, def := range defs {
		w := registry.Wizard{
			ID:               def.ID,
			Title:            def.Title,
			Description:      def.Description,
			SubmissionType:   def.Submission.Type,
			Endpoint:         def.Submission.Endpoint,
			ReferencePrefix:  def.Submission.Format.Prefix,
			Scheduling:       def.Scheduling,
			StorageNamespace: def.Namespace("<user>"),
		}
		for _, step := range def.Steps {
			s := registry.Step{
				ID:     step.ID,
				Order:  step.Order,
				Label:  step.Label,
				Fields: step.Fields,
			}
			if step.Schema.Type != "" {
				raw, err := json.Marshal(step.Schema)
				if err != nil {
					return nil, err
				}
				s.Schema = raw
			}
			w.Steps = append(w.Steps, s)
		}
		c.Wizards = append(c.Wizards, w)
	}
	return c, nil
}
