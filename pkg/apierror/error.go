package apierror

import (
	"encoding/json"
	"net/http"
)

// Code is a stable machine-readable error identifier.
type Code string

const (
	CodeBadRequest         Code = "BAD_REQUEST"
	CodeValidation         Code = "VALIDATION_ERROR"
	CodeUnauthorized       Code = "UNAUTHORIZED"
	CodeNotFound           Code = "NOT_FOUND"
	CodeNoData             Code = "NO_DATA"
	CodeConflict           Code = "CONFLICT"
	CodeInternal           Code = "INTERNAL_ERROR"
	CodeAnalysisFailed     Code = "ANALYSIS_FAILED"
	CodeServiceUnavailable Code = "SERVICE_UNAVAILABLE"
)

var codeStatus = map[Code]int{
	CodeBadRequest:         http.StatusBadRequest,
	CodeValidation:         http.StatusBadRequest,
	CodeUnauthorized:       http.StatusUnauthorized,
	CodeNotFound:           http.StatusNotFound,
	CodeNoData:             http.StatusNotFound,
	CodeConflict:           http.StatusConflict,
	CodeInternal:           http.StatusInternalServerError,
	CodeAnalysisFailed:     http.StatusBadGateway,
	CodeServiceUnavailable: http.StatusServiceUnavailable,
}

var defaultMessage = map[Code]string{
	CodeUnauthorized:       "Authentication required. Please login first.",
	CodeNotFound:           "Resource not found",
	CodeInternal:           "An unexpected error occurred",
	CodeAnalysisFailed:     "Could not analyze this purchase. Please try again.",
	CodeServiceUnavailable: "Service temporarily unavailable",
}

// Error is an API error rendered as {"status":"error",...}.
type Error struct {
	StatusCode int          `json:"-"`
	Code       string       `json:"code"`
	Message    string       `json:"message"`
	Details    []FieldError `json:"details,omitempty"`
}

// FieldError represents a validation error for a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// New builds an error for code. An empty message takes the code's default.
func New(code Code, message string, details ...FieldError) *Error {
	if message == "" {
		message = defaultMessage[code]
	}
	status, ok := codeStatus[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	return &Error{StatusCode: status, Code: string(code), Message: message, Details: details}
}

func (e *Error) Error() string {
	return e.Message
}

// WithDetails replaces the field-level details.
func (e *Error) WithDetails(details ...FieldError) *Error {
	e.Details = details
	return e
}

// ToJSON renders the error envelope.
func (e *Error) ToJSON() []byte {
	data, _ := json.Marshal(struct {
		Status string `json:"status"`
		*Error
	}{Status: "error", Error: e})
	return data
}

func BadRequest(message string) *Error { return New(CodeBadRequest, message) }

func ValidationError(message string, details ...FieldError) *Error {
	return New(CodeValidation, message, details...)
}

func Unauthorized(message string) *Error { return New(CodeUnauthorized, message) }

func NotFound(message string) *Error { return New(CodeNotFound, message) }

// NoData is a 404 for scopes with nothing recorded yet. Clients tell it
// from a missing route by its code.
func NoData(message string) *Error { return New(CodeNoData, message) }

func Conflict(message string) *Error { return New(CodeConflict, message) }

func InternalError(message string) *Error { return New(CodeInternal, message) }

// AnalysisFailed is a 502 for an oracle reply that could not be used.
func AnalysisFailed(message string) *Error { return New(CodeAnalysisFailed, message) }

func ServiceUnavailable(message string) *Error { return New(CodeServiceUnavailable, message) }
