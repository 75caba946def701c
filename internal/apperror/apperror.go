// Package apperror defines application errors with stable machine-readable labels.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors. Their text is the label sent to clients.
var (
	ErrInvalidInput   = errors.New("invalid_input")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrNotFound       = errors.New("not_found")
	ErrResumeNotFound = errors.New("resume_not_found")
	ErrConflict       = errors.New("conflict")
	ErrRateLimited    = errors.New("rate_limited")
	ErrAIFailed       = errors.New("ai_failed")
	ErrCompilation    = errors.New("compilation_failed")
	ErrUpload         = errors.New("upload_failed")
	ErrStorage        = errors.New("storage_failed")
	ErrUnavailable    = errors.New("unavailable")
	ErrInternal       = errors.New("internal_error")
)

// AppError attaches a human-readable message and an optional cause to a sentinel
type AppError struct {
	BaseError error
	Message   string
	Err       error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.BaseError.Error(), e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.BaseError.Error(), e.Message)
}

// Is reports whether target is the base sentinel, so errors.Is works without unwrapping the cause chain first
func (e *AppError) Is(target error) bool {
	return e.BaseError == target
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates an AppError
func New(base error, msg string, err error) *AppError {
	return &AppError{BaseError: base, Message: msg, Err: err}
}

func NewInvalidInput(msg string) *AppError {
	return New(ErrInvalidInput, msg, nil)
}

func NewUnauthorized(msg string, err error) *AppError {
	return New(ErrUnauthorized, msg, err)
}

func NewNotFound(resource, identifier string) *AppError {
	return New(ErrNotFound, fmt.Sprintf("%s '%s' was not found", resource, identifier), nil)
}

func NewResumeNotFound(identifier string) *AppError {
	return New(ErrResumeNotFound, fmt.Sprintf("resume '%s' was not found", identifier), nil)
}

func NewAIFailed(err error) *AppError {
	return New(ErrAIFailed, "the AI service could not process the request", err)
}

func NewCompilation(err error) *AppError {
	return New(ErrCompilation, "PDF generation failed", err)
}

func NewUpload(err error) *AppError {
	return New(ErrUpload, "failed to upload the generated PDF", err)
}

func NewStorage(msg string, err error) *AppError {
	return New(ErrStorage, msg, err)
}

func NewInternal(msg string, err error) *AppError {
	return New(ErrInternal, msg, err)
}

var statuses = []struct {
	base   error
	status int
}{
	{ErrInvalidInput, http.StatusBadRequest},
	{ErrUnauthorized, http.StatusUnauthorized},
	{ErrNotFound, http.StatusNotFound},
	{ErrResumeNotFound, http.StatusNotFound},
	{ErrConflict, http.StatusConflict},
	{ErrRateLimited, http.StatusTooManyRequests},
	{ErrAIFailed, http.StatusBadGateway},
	{ErrCompilation, http.StatusInternalServerError},
	{ErrUpload, http.StatusBadGateway},
	{ErrStorage, http.StatusInternalServerError},
	{ErrUnavailable, http.StatusServiceUnavailable},
}

// ToHTTPStatus maps an error to its HTTP status; unknown errors are 500
func ToHTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		err = appErr.BaseError
	}
	for _, s := range statuses {
		if errors.Is(err, s.base) {
			return s.status
		}
	}
	return http.StatusInternalServerError
}

// Body is the JSON error payload
type Body struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ToBody converts any error into the client payload. Errors that are not AppErrors
// are reported as internal errors without leaking their text.
func ToBody(err error) Body {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return Body{Error: appErr.BaseError.Error(), Message: appErr.Message}
	}
	for _, s := range statuses {
		if errors.Is(err, s.base) {
			return Body{Error: s.base.Error(), Message: s.base.Error()}
		}
	}
	return Body{Error: ErrInternal.Error(), Message: "An internal server error occurred"}
}
