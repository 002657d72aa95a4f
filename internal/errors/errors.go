package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCategory represents the category of an error
type ErrorCategory string

const (
	CategoryClient   ErrorCategory = "client"
	CategoryServer   ErrorCategory = "server"
	CategoryExternal ErrorCategory = "external"
)

// Common error codes
const (
	// Client errors (4xx)
	CodeValidationError = "VALIDATION_ERROR"
	CodeInvalidRequest  = "INVALID_REQUEST"
	CodeNotFound        = "NOT_FOUND"
	CodePayloadTooLarge = "PAYLOAD_TOO_LARGE"

	// Media specific
	CodeInvalidVideoURL     = "INVALID_VIDEO_URL"
	CodeUnsupportedPlatform = "UNSUPPORTED_PLATFORM"
	CodeUnsupportedMedia    = "UNSUPPORTED_MEDIA"

	// Resource specific
	CodeVideoNotFound = "VIDEO_NOT_FOUND"

	// Server errors (5xx)
	CodeInternalError = "INTERNAL_ERROR"
	CodeDatabaseError = "DATABASE_ERROR"
	CodeStorageError  = "STORAGE_ERROR"

	// External service errors
	CodeUpstreamError   = "UPSTREAM_ERROR"
	CodeExternalTimeout = "EXTERNAL_TIMEOUT"
)

// AppError represents a structured application error
type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Category   ErrorCategory  `json:"-"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Cause      error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause == nil {
		return e.Code + ": " + e.Message
	}
	return e.Code + ": " + e.Message + ": " + e.Cause.Error()
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetails attaches extra context that is sent to the client
func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

// WithCause records the underlying error. It is logged, never sent to the
// client.
func (e *AppError) WithCause(err error) *AppError {
	e.Cause = err
	return e
}

// ErrorResponse is the JSON structure returned to clients
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody contains the error details
type ErrorBody struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	RequestID string         `json:"request_id,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

// New creates a new AppError
func New(code string, message string, category ErrorCategory, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		Category:   category,
		HTTPStatus: httpStatus,
	}
}

// Client error constructors

func BadRequest(message string) *AppError {
	return New(CodeInvalidRequest, message, CategoryClient, http.StatusBadRequest)
}

func ValidationError(message string) *AppError {
	return New(CodeValidationError, message, CategoryClient, http.StatusBadRequest)
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource), CategoryClient, http.StatusNotFound)
}

func VideoNotFound() *AppError {
	return New(CodeVideoNotFound, "video not found", CategoryClient, http.StatusNotFound)
}

func PayloadTooLarge(message string) *AppError {
	return New(CodePayloadTooLarge, message, CategoryClient, http.StatusRequestEntityTooLarge)
}

// InvalidVideoURL reports a URL that failed validation. The message is the
// validator's user-facing text.
func InvalidVideoURL(message string) *AppError {
	return New(CodeInvalidVideoURL, message, CategoryClient, http.StatusUnprocessableEntity)
}

func UnsupportedPlatform(message string) *AppError {
	return New(CodeUnsupportedPlatform, message, CategoryClient, http.StatusUnprocessableEntity)
}

func UnsupportedMedia(message string) *AppError {
	return New(CodeUnsupportedMedia, message, CategoryClient, http.StatusUnsupportedMediaType)
}

// Server error constructors

func InternalError(message string) *AppError {
	return New(CodeInternalError, message, CategoryServer, http.StatusInternalServerError)
}

func DatabaseError(message string) *AppError {
	return New(CodeDatabaseError, message, CategoryServer, http.StatusInternalServerError)
}

func StorageError(message string) *AppError {
	return New(CodeStorageError, message, CategoryServer, http.StatusInternalServerError)
}

// External service error constructors

func UpstreamError(message string) *AppError {
	return New(CodeUpstreamError, message, CategoryExternal, http.StatusBadGateway)
}

func ExternalTimeout(service string) *AppError {
	return New(CodeExternalTimeout, fmt.Sprintf("%s request timed out", service), CategoryExternal, http.StatusGatewayTimeout)
}

// WriteError renders err as the JSON error envelope. Errors that are not
// AppErrors are reported as internal errors without leaking their text.
func WriteError(w http.ResponseWriter, requestID string, err error) {
	appErr, ok := AsAppError(err)
	if !ok {
		appErr = InternalError("an unexpected error occurred").WithCause(err)
	}

	WriteJSON(w, requestID, appErr.HTTPStatus, ErrorResponse{Error: ErrorBody{
		Code:      appErr.Code,
		Message:   appErr.Message,
		RequestID: requestID,
		Details:   appErr.Details,
	}})
}

// WriteJSON writes data as a JSON response, echoing the request ID
func WriteJSON(w http.ResponseWriter, requestID string, status int, data any) {
	h := w.Header()
	h.Set("Content-Type", "application/json")
	if requestID != "" {
		h.Set(RequestIDHeader, requestID)
	}
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// CategoryOf returns the category of the first AppError in err's chain, or
// "" when there is none.
func CategoryOf(err error) ErrorCategory {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Category
	}
	return ""
}

// IsRetryable reports whether an AppError describes a transient failure:
// any external error, and server errors other than database failures.
func IsRetryable(err error) bool {
	appErr, ok := AsAppError(err)
	if !ok {
		return false
	}
	switch appErr.Category {
	case CategoryExternal:
		return true
	case CategoryServer:
		return appErr.Code != CodeDatabaseError
	default:
		return false
	}
}

// AsAppError finds the first *AppError in err's chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
