// Package errors defines the application error type shared by the repository,
// the scoring configuration, and the HTTP layer. Every error that reaches a
// handler is an AppError carrying its category and HTTP status.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
)

// Category classifies an error for handling and logging.
type Category string

const (
	CategoryValidation    Category = "validation"
	CategoryNotFound      Category = "not_found"
	CategoryRateLimit     Category = "rate_limit"
	CategoryConfiguration Category = "configuration"
	CategoryInternal      Category = "internal"
)

// AppError wraps an errbuilder error with the category and status the HTTP
// layer needs.
type AppError struct {
	*errbuilder.ErrBuilder
	Category   Category  `json:"category"`
	HTTPStatus int       `json:"http_status"`
	Timestamp  time.Time `json:"timestamp"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Category, e.ErrBuilder.Msg)
}

func (e *AppError) Unwrap() error {
	return e.ErrBuilder.Unwrap()
}

func newAppError(builder *errbuilder.ErrBuilder, category Category, status int) *AppError {
	return &AppError{
		ErrBuilder: builder,
		Category:   category,
		HTTPStatus: status,
		Timestamp:  time.Now(),
	}
}

// NewValidationError reports malformed client input.
func NewValidationError(message string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(message)
	if cause != nil {
		builder = builder.WithCause(cause)
	}
	return newAppError(builder, CategoryValidation, http.StatusBadRequest)
}

// NewNotFoundError reports a missing record.
func NewNotFoundError(kind, id string) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeNotFound).
		WithMsg(fmt.Sprintf("%s %q not found", kind, id))
	return newAppError(builder, CategoryNotFound, http.StatusNotFound)
}

// NewRateLimitError reports an exhausted per-client budget.
func NewRateLimitError(retryAfter string) *AppError {
	errorMap := errbuilder.ErrorMap{}
	errorMap.Set("retry_after", errors.New(retryAfter))

	builder := errbuilder.New().
		WithCode(errbuilder.CodeResourceExhausted).
		WithMsg("rate limit exceeded").
		WithDetails(errbuilder.NewErrDetails(errorMap))
	return newAppError(builder, CategoryRateLimit, http.StatusTooManyRequests)
}

// NewConfigurationError reports an unusable configuration, including weight
// vectors with no positive entry.
func NewConfigurationError(message string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeFailedPrecondition).
		WithMsg(message)
	if cause != nil {
		builder = builder.WithCause(cause)
	}
	return newAppError(builder, CategoryConfiguration, http.StatusInternalServerError)
}

// NewInternalError reports an unexpected failure.
func NewInternalError(message string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg(message)
	if cause != nil {
		builder = builder.WithCause(cause)
	}
	return newAppError(builder, CategoryInternal, http.StatusInternalServerError)
}

// ToAppError coerces any error into an AppError. Errors that are already
// categorized pass through; errbuilder precondition failures from the scoring
// core become configuration errors; everything else is internal.
func ToAppError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var ebErr *errbuilder.ErrBuilder
	if errors.As(err, &ebErr) {
		if ebErr.ErrCode() == errbuilder.CodeFailedPrecondition {
			return newAppError(ebErr, CategoryConfiguration, http.StatusInternalServerError)
		}
		return newAppError(ebErr, CategoryInternal, http.StatusInternalServerError)
	}

	return NewInternalError("an unexpected error occurred", err)
}
