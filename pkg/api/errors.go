package api

import (
	"errors"
	"log/slog"
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/laxkc/agentwatch/pkg/baseline"
	"github.com/laxkc/agentwatch/pkg/eventstore"
	"github.com/laxkc/agentwatch/pkg/privacy"
	"github.com/laxkc/agentwatch/pkg/profile"
)

// ErrorResponse is the structured body returned by every query-surface error.
type ErrorResponse struct {
	Error      string `json:"error"`
	StatusCode int    `json:"status_code"`
	Path       string `json:"path"`
}

// mapServiceError classifies a core-package error per the error taxonomy and
// writes the corresponding {error, status_code, path} response.
func mapServiceError(c *echo.Context, err error) error {
	status, msg := classify(err)
	if status == http.StatusInternalServerError {
		slog.Error("unexpected service error", "error", err)
	}
	return c.JSON(status, ErrorResponse{
		Error:      msg,
		StatusCode: status,
		Path:       c.Request().URL.Path,
	})
}

func classify(err error) (int, string) {
	var validErr *eventstore.ValidationError
	if errors.As(err, &validErr) {
		if errors.Is(validErr.Kind, eventstore.ErrPrivacyViolation) {
			return http.StatusBadRequest, "PRIVACY_VIOLATION: " + validErr.Error()
		}
		return http.StatusBadRequest, "SCHEMA_INVALID: " + validErr.Error()
	}

	var violation *privacy.Violation
	if errors.As(err, &violation) {
		return http.StatusBadRequest, "PRIVACY_VIOLATION: " + violation.Error()
	}

	switch {
	case errors.Is(err, eventstore.ErrNotFound),
		errors.Is(err, baseline.ErrBaselineNotFound):
		return http.StatusNotFound, "not found"

	case errors.Is(err, eventstore.ErrIntegrityConflict),
		errors.Is(err, baseline.ErrBaselineExists):
		return http.StatusConflict, "INTEGRITY_CONFLICT: " + err.Error()

	case errors.Is(err, eventstore.ErrSchemaInvalid),
		errors.Is(err, eventstore.ErrMissingFailure),
		errors.Is(err, baseline.ErrInvalidBaselineType),
		errors.Is(err, baseline.ErrDescriptionRejected):
		return http.StatusBadRequest, "SCHEMA_INVALID: " + err.Error()

	case errors.Is(err, profile.ErrInsufficientData):
		return http.StatusUnprocessableEntity, "INSUFFICIENT_DATA: " + err.Error()

	default:
		return http.StatusInternalServerError, "internal server error"
	}
}
