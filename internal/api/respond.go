package api

import (
	"errors"
	"net/http"

	"opulanz-onboarding/internal/admin"
	commonerrors "opulanz-onboarding/internal/common/errors"
	"opulanz-onboarding/internal/submission"

	"github.com/gin-gonic/gin"
)

func statusFor(code commonerrors.ErrorCode) int {
	switch code {
	case commonerrors.ErrCodeApplicationValidationFailed, commonerrors.ErrCodeAdminValidationFailed:
		return http.StatusUnprocessableEntity
	case commonerrors.ErrCodeWizardNotFound, commonerrors.ErrCodeStepNotFound, commonerrors.ErrCodeResourceNotFound:
		return http.StatusNotFound
	case commonerrors.ErrCodeSubmissionFailed:
		return http.StatusBadGateway
	case commonerrors.ErrCodeInvalidAccessCode:
		return http.StatusUnauthorized
	case commonerrors.ErrCodeDuplicateSubmission:
		return http.StatusConflict
	case commonerrors.ErrCodeDraftQuotaExceeded:
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusInternalServerError
}

// normalize turns store sentinels into StandardErrors so every response goes
// through one status table.
func normalize(err error) *commonerrors.StandardError {
	if std, ok := commonerrors.AsStandard(err); ok {
		return std
	}
	switch {
	case errors.Is(err, admin.ErrNotFound):
		return commonerrors.NewResourceNotFoundError("resource", err.Error())
	case errors.Is(err, admin.ErrInvalidAccessCode):
		return commonerrors.NewInvalidAccessCodeError()
	case errors.Is(err, admin.ErrDuplicate):
		std := commonerrors.NewAdminValidationFailedError(err.Error())
		return std.WithMetadata("duplicate", true)
	}
	return commonerrors.NewInternalError(err)
}

func respondError(c *gin.Context, err error) {
	std := normalize(err)
	status := statusFor(std.Code)
	if errors.Is(err, admin.ErrDuplicate) {
		status = http.StatusConflict
	}

	body := gin.H{"success": false, "error": std.Message, "code": std.Code}
	if std.Code == commonerrors.ErrCodeSubmissionFailed {
		body["error"] = submission.UserMessage(err)
	} else if status != http.StatusInternalServerError {
		if std.Details != "" {
			body["details"] = std.Details
		}
		for _, key := range []string{"errors", "fields"} {
			if fields, ok := std.Metadata[key]; ok {
				body["errors"] = fields
			}
		}
	}
	c.JSON(status, body)
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": msg})
}
