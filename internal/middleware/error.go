package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thornlink/thorn/backend/internal/logging"
	"github.com/thornlink/thorn/backend/internal/models"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error  string `json:"error"`
	Field  string `json:"field,omitempty"`
	Detail any    `json:"detail,omitempty"`
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation), errors.Is(err, models.ErrIndex):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrTransport):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ErrorHandler renders the last error a handler registered with c.Error.
// The error's Meta, when set, is returned as "detail".
func ErrorHandler(log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		ginErr := c.Errors.Last()
		err := ginErr.Err
		status := StatusFor(err)
		ctx := c.Request.Context()

		resp := ErrorResponse{Error: err.Error(), Detail: ginErr.Meta}
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			resp.Error = verr.Message
			resp.Field = verr.Field
		}

		switch {
		case errors.Is(err, models.ErrIndex):
			log.Warn(ctx, "link index out of range", "path", c.FullPath(), "error", err)
		case status == http.StatusServiceUnavailable:
			log.Error(ctx, "storage unavailable", "path", c.FullPath(), "error", err)
			resp.Error = "storage temporarily unavailable, please retry"
		case status == http.StatusInternalServerError:
			log.Error(ctx, "request failed", "path", c.FullPath(), "error", err)
			resp.Error = "internal server error"
		}

		c.JSON(status, resp)
	}
}
