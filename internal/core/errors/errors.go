package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Domain errors - these represent configuration and data-integrity problems
var (
	// Generator
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// Dataset
	ErrDatasetNotFound  = errors.New("dataset not found")
	ErrDatasetMalformed = errors.New("dataset malformed")

	// Aggregation. Never returned to callers; degraded metrics are reported
	// as N/A and listed in the report warnings.
	ErrEmptyGroup = errors.New("empty group")

	// Report filters
	ErrInvalidFilter = errors.New("invalid report filter")

	// Authentication & Authorization
	ErrForbidden    = errors.New("action forbidden")
	ErrUnauthorized = errors.New("unauthorized")

	// Generic
	ErrNotFound    = errors.New("resource not found")
	ErrInternal    = errors.New("internal server error")
	ErrBadRequest  = errors.New("bad request")
	ErrRateLimited = errors.New("rate limit exceeded")
)

// AppError wraps errors with additional context for HTTP responses
type AppError struct {
	Err        error  // The underlying error
	Message    string // User-friendly message
	Code       string // Machine-readable error code
	StatusCode int    // HTTP status code
	Details    map[string]interface{}
}

func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Error constructors for common cases
func NewBadRequestError(err error, message string) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		Code:       "BAD_REQUEST",
		StatusCode: 400,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Err:        ErrUnauthorized,
		Message:    message,
		Code:       "UNAUTHORIZED",
		StatusCode: 401,
	}
}

func NewNotFoundError(err error, message string) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		Code:       "NOT_FOUND",
		StatusCode: 404,
	}
}

func NewRateLimitError() *AppError {
	return &AppError{
		Err:        ErrRateLimited,
		Message:    "Too many requests. Please try again later.",
		Code:       "RATE_LIMITED",
		StatusCode: 429,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Err:        err,
		Message:    "An unexpected error occurred",
		Code:       "INTERNAL_ERROR",
		StatusCode: 500,
	}
}

// ValidationErrors holds multiple field validation errors
type ValidationErrors struct {
	Errors map[string][]string `json:"errors"`
}

func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{
		Errors: make(map[string][]string),
	}
}

func (v *ValidationErrors) Add(field, message string) {
	v.Errors[field] = append(v.Errors[field], message)
}

func (v *ValidationErrors) HasErrors() bool {
	return len(v.Errors) > 0
}

func (v *ValidationErrors) Error() string {
	return fmt.Sprintf("validation failed: %d field(s) have errors", len(v.Errors))
}

// Summary renders every field error on one line, sorted by field name.
func (v *ValidationErrors) Summary() string {
	fields := make([]string, 0, len(v.Errors))
	for field := range v.Errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+strings.Join(v.Errors[field], "; "))
	}
	return strings.Join(parts, ", ")
}

// ConfigurationError reports every problem found in a generator or taxonomy
// configuration. It matches both ErrInvalidConfiguration and the field errors.
type ConfigurationError struct {
	Fields *ValidationErrors
}

// NewInvalidConfigurationError wraps collected field errors.
func NewInvalidConfigurationError(fields *ValidationErrors) *ConfigurationError {
	return &ConfigurationError{Fields: fields}
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidConfiguration, e.Fields.Summary())
}

func (e *ConfigurationError) Unwrap() []error {
	return []error{ErrInvalidConfiguration, e.Fields}
}

// DatasetError locates a schema violation in a persisted dataset.
// Line is 1-based and counts the header row; it is zero for row-less sources.
type DatasetError struct {
	Source string
	Line   int
	Column string
	Err    error
}

func (e *DatasetError) Error() string {
	var sb strings.Builder
	sb.WriteString(ErrDatasetMalformed.Error())
	if e.Source != "" {
		sb.WriteString(" (" + e.Source + ")")
	}
	if e.Line > 0 {
		fmt.Fprintf(&sb, " at line %d", e.Line)
	}
	if e.Column != "" {
		fmt.Fprintf(&sb, ", column %q", e.Column)
	}
	sb.WriteString(": ")
	sb.WriteString(e.Err.Error())
	return sb.String()
}

func (e *DatasetError) Unwrap() []error {
	return []error{ErrDatasetMalformed, e.Err}
}

// FilterError reports report filter values that are not part of the taxonomy
// or an inverted date range.
type FilterError struct {
	Fields *ValidationErrors
}

func NewInvalidFilterError(fields *ValidationErrors) *FilterError {
	return &FilterError{Fields: fields}
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidFilter, e.Fields.Summary())
}

func (e *FilterError) Unwrap() []error {
	return []error{ErrInvalidFilter, e.Fields}
}
