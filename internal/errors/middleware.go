package errors

import (
	"fmt"
	"log/slog"

	"github.com/gin-gonic/gin"
)

// ErrorHandler converts any error a handler attached to the context into a
// structured JSON response.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		appErr := ToAppError(c.Errors.Last().Err)
		LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
	}
}

// RecoveryHandler turns panics into internal-error responses instead of
// dropped connections.
func RecoveryHandler() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		appErr := NewInternalError(
			fmt.Sprintf("panic recovered: %v", recovered),
			fmt.Errorf("%v", recovered),
		)
		LogError(c, appErr)
		c.AbortWithStatusJSON(appErr.HTTPStatus, appErr)
	})
}

// LogError writes the error with request context; client mistakes log at
// warn, server faults at error.
func LogError(c *gin.Context, err *AppError) {
	entry := slog.With(
		"error_category", err.Category,
		"error_code", err.ErrBuilder.ErrCode(),
		"http_status", err.HTTPStatus,
		"ip", c.ClientIP(),
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
	)

	switch err.Category {
	case CategoryValidation, CategoryNotFound, CategoryRateLimit:
		entry.Warn(err.ErrBuilder.Msg)
	default:
		if cause := err.Unwrap(); cause != nil {
			entry.Error(err.ErrBuilder.Msg, "cause", cause)
		} else {
			entry.Error(err.ErrBuilder.Msg)
		}
	}
}
