package validation

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/lorrc/service-desk-analytics/internal/core/domain"
	apperrors "github.com/lorrc/service-desk-analytics/internal/core/errors"
)

// Validator validates request data
type Validator struct {
	errors *apperrors.ValidationErrors
}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{
		errors: apperrors.NewValidationErrors(),
	}
}

// HasErrors returns true if there are validation errors
func (v *Validator) HasErrors() bool {
	return v.errors.HasErrors()
}

// Errors returns the validation errors
func (v *Validator) Errors() *apperrors.ValidationErrors {
	return v.errors
}

// Range validates integer is within range
func (v *Validator) Range(field string, value, min, max int) *Validator {
	if value < min || value > max {
		v.errors.Add(field, "Must be between "+strconv.Itoa(min)+" and "+strconv.Itoa(max))
	}
	return v
}

// FloatRange validates a float is within the closed range
func (v *Validator) FloatRange(field string, value, min, max float64) *Validator {
	if value < min || value > max {
		v.errors.Add(field, "Must be between "+strconv.FormatFloat(min, 'f', -1, 64)+
			" and "+strconv.FormatFloat(max, 'f', -1, 64))
	}
	return v
}

// Custom adds a custom validation
func (v *Validator) Custom(field string, valid bool, message string) *Validator {
	if !valid {
		v.errors.Add(field, message)
	}
	return v
}

// Validatable is implemented by request DTOs with their own checks.
type Validatable interface {
	Validate() error
}

// DecodeAndValidate decodes a JSON request body and runs the DTO's Validate
// method when it has one. An empty body decodes to the zero value.
func DecodeAndValidate[T any](r *http.Request) (*T, error) {
	var req T

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return nil, apperrors.NewBadRequestError(err, "Invalid request body")
	}

	if v, ok := any(&req).(Validatable); ok {
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}

	return &req, nil
}

// PaginationParams holds pagination parameters
type PaginationParams struct {
	Limit  int
	Offset int
}

// ParsePagination extracts pagination from query parameters. Missing or
// unusable values fall back to the defaults.
func ParsePagination(r *http.Request, defaultLimit, maxLimit int) PaginationParams {
	params := PaginationParams{Limit: defaultLimit}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			params.Limit = limit
		}
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil && offset >= 0 {
			params.Offset = offset
		}
	}

	// Enforce maximum limit
	if params.Limit > maxLimit {
		params.Limit = maxLimit
	}

	return params
}

// ParseDate accepts a calendar date (2006-01-02) or an RFC 3339 timestamp and
// returns it in UTC.
func ParseDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// ParseReportFilter reads from, to, priority, category and department from
// the query string. List parameters may be repeated or comma separated.
// Membership in the taxonomy is checked by the analytics service.
func ParseReportFilter(r *http.Request) (domain.ReportFilter, error) {
	query := r.URL.Query()
	v := NewValidator()

	var filter domain.ReportFilter
	parseDate := func(field string) *time.Time {
		raw := strings.TrimSpace(query.Get(field))
		if raw == "" {
			return nil
		}
		t, err := ParseDate(raw)
		if err != nil {
			v.Custom(field, false, "Must be a date (YYYY-MM-DD) or RFC 3339 timestamp")
			return nil
		}
		return &t
	}

	filter.CreatedFrom = parseDate("from")
	filter.CreatedTo = parseDate("to")
	filter.Priorities = listParam(query["priority"])
	filter.Categories = listParam(query["category"])
	filter.Departments = listParam(query["department"])

	if v.HasErrors() {
		return domain.ReportFilter{}, apperrors.NewInvalidFilterError(v.Errors())
	}
	return filter, nil
}

func listParam(values []string) []string {
	var out []string
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
