package response

import (
	"errors"

	"github.com/gin-gonic/gin"

	apperrors "github.com/relai/server/internal/utils/errors"
)

// ErrorMapping maps a domain error to an HTTP status and error code.
type ErrorMapping struct {
	Err     error
	Status  int
	Code    string
	Message string
}

// Error writes an AppError as the standard error body.
func Error(c *gin.Context, err *apperrors.AppError) {
	c.JSON(err.StatusCode, err.ToResponse())
}

// HandleError writes the first matching mapping for err.
// Returns false when no mapping matched.
func HandleError(c *gin.Context, err error, mappings []ErrorMapping) bool {
	for _, m := range mappings {
		if !errors.Is(err, m.Err) {
			continue
		}
		msg := m.Message
		if msg == "" {
			msg = m.Err.Error()
		}
		Error(c, apperrors.NewAppError(m.Code, msg, m.Status, err))
		return true
	}
	return false
}

// HandleErrorWithDefault handles err with mappings and falls back to the
// generic error kinds, then to a 500.
func HandleErrorWithDefault(c *gin.Context, err error, mappings []ErrorMapping) {
	if HandleError(c, err, mappings) {
		return
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		Error(c, appErr)
		return
	}

	status := apperrors.GetStatusCode(err)
	if status >= 500 {
		_ = c.Error(err)
		Error(c, apperrors.Internal("", err))
		return
	}
	Error(c, apperrors.NewAppError("REQUEST_FAILED", err.Error(), status, err))
}
