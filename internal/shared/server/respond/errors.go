package respond

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/shared/telemetry"
	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/store"
)

// ErrorBody defines the standardized error object.
type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// ErrorResponse wraps the error body.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// Error sends a standardized error response.
func Error(c *gin.Context, status int, code, message string, details interface{}) {
	fields := map[string]any{
		"status":     status,
		"code":       code,
		"message":    message,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString("requestId"),
	}
	if userID := c.GetString("userId"); userID != "" {
		fields["user_id"] = userID
	}
	if isGuest, ok := c.Get("isGuest"); ok {
		fields["is_guest"] = isGuest
	}
	if status >= http.StatusInternalServerError {
		telemetry.Error("http.error", fields)
	} else {
		telemetry.Warn("http.error", fields)
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// StoreError maps a store error onto the envelope. Anything outside the
// store taxonomy is an internal error and its text is not sent to the client.
func StoreError(c *gin.Context, err error) {
	var known *store.KnownRequestError
	var invalid *store.ValidationError
	switch {
	case errors.As(err, &invalid):
		Error(c, http.StatusBadRequest, "validation_error", "invalid query", invalid.Issues())
	case errors.Is(err, store.ErrNotFound):
		Error(c, http.StatusNotFound, "not_found", "record not found", knownDetails(err))
	case errors.Is(err, store.ErrUniqueViolation):
		Error(c, http.StatusConflict, "conflict", "record already exists", knownDetails(err))
	case errors.Is(err, store.ErrForeignKeyViolation):
		Error(c, http.StatusConflict, "conflict", "related record missing", knownDetails(err))
	case errors.As(err, &known):
		Error(c, http.StatusBadRequest, "request_error", known.Error(), knownDetails(err))
	default:
		telemetry.Error("http.internal_error", map[string]any{"path": c.Request.URL.Path, "err": err})
		Error(c, http.StatusInternalServerError, "internal_error", "internal server error", nil)
	}
}

func knownDetails(err error) map[string]any {
	var known *store.KnownRequestError
	if !errors.As(err, &known) {
		return nil
	}
	details := map[string]any{"code": known.Code}
	if known.Model != "" {
		details["model"] = known.Model
	}
	if len(known.Target) > 0 {
		details["target"] = known.Target
	}
	return details
}
