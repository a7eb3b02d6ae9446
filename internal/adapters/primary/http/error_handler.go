package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	mw "github.com/lorrc/service-desk-analytics/internal/adapters/primary/http/middleware"
	apperrors "github.com/lorrc/service-desk-analytics/internal/core/errors"
)

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	return mw.GetRequestID(ctx)
}

// ErrorResponse is the standard JSON error response format
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ValidationErrorResponse includes field-level validation errors
type ValidationErrorResponse struct {
	Error  string              `json:"error"`
	Code   string              `json:"code"`
	Fields map[string][]string `json:"fields,omitempty"`
}

// ErrorHandler provides centralized error handling with logging
type ErrorHandler struct {
	logger *slog.Logger
}

// NewErrorHandler creates a new error handler with the given logger
func NewErrorHandler(logger *slog.Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle processes an error and writes the appropriate HTTP response
func (h *ErrorHandler) Handle(w http.ResponseWriter, r *http.Request, err error) {
	// Check for AppError first (our custom error type)
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		h.logError(r, appErr.StatusCode, appErr.Err)
		h.writeErrorResponse(w, appErr.StatusCode, ErrorResponse{
			Error:   appErr.Message,
			Code:    appErr.Code,
			Details: appErr.Details,
		})
		return
	}

	// Known domain errors come next; configuration and filter errors also
	// wrap ValidationErrors but carry their own codes.
	if statusCode, response, ok := h.mapDomainError(err); ok {
		h.logError(r, statusCode, err)
		h.writeErrorResponse(w, statusCode, response)
		return
	}

	// Request body validation
	var validationErrs *apperrors.ValidationErrors
	if errors.As(err, &validationErrs) {
		h.logError(r, http.StatusUnprocessableEntity, err)
		h.writeValidationErrorResponse(w, validationErrs)
		return
	}

	h.logError(r, http.StatusInternalServerError, err)
	h.writeErrorResponse(w, http.StatusInternalServerError, ErrorResponse{
		Error: "An unexpected error occurred",
		Code:  "INTERNAL_ERROR",
	})
}

// mapDomainError converts domain errors to HTTP status codes and responses.
// The last result is false for errors it does not recognise.
func (h *ErrorHandler) mapDomainError(err error) (int, ErrorResponse, bool) {
	switch {
	// Authentication & Authorization
	case errors.Is(err, apperrors.ErrUnauthorized):
		return http.StatusUnauthorized, ErrorResponse{
			Error: "Authentication required",
			Code:  "UNAUTHORIZED",
		}, true
	case errors.Is(err, apperrors.ErrForbidden):
		return http.StatusForbidden, ErrorResponse{
			Error: "You do not have permission to perform this action",
			Code:  "FORBIDDEN",
		}, true

	// Not Found errors
	case errors.Is(err, apperrors.ErrDatasetNotFound):
		return http.StatusNotFound, ErrorResponse{
			Error: "No ticket dataset has been generated yet",
			Code:  "DATASET_NOT_FOUND",
		}, true
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound, ErrorResponse{
			Error: "Resource not found",
			Code:  "NOT_FOUND",
		}, true

	// Validation errors
	case errors.Is(err, apperrors.ErrInvalidConfiguration):
		return http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "Invalid generator configuration",
			Code:    "INVALID_CONFIGURATION",
			Details: fieldDetails(err),
		}, true
	case errors.Is(err, apperrors.ErrInvalidFilter):
		return http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid report filter",
			Code:    "INVALID_FILTER",
			Details: fieldDetails(err),
		}, true

	// Stored data that cannot be trusted is a server-side fault
	case errors.Is(err, apperrors.ErrDatasetMalformed):
		return http.StatusInternalServerError, ErrorResponse{
			Error: "The stored ticket dataset is malformed",
			Code:  "DATASET_MALFORMED",
		}, true

	// Rate limiting
	case errors.Is(err, apperrors.ErrRateLimited):
		return http.StatusTooManyRequests, ErrorResponse{
			Error: "Too many requests. Please try again later.",
			Code:  "RATE_LIMITED",
		}, true

	default:
		return 0, ErrorResponse{}, false
	}
}

// fieldDetails exposes the collected field errors of a wrapped ValidationErrors.
func fieldDetails(err error) map[string]interface{} {
	var fields *apperrors.ValidationErrors
	if !errors.As(err, &fields) {
		return nil
	}
	return map[string]interface{}{"fields": fields.Errors}
}

// logError logs the error with appropriate context. The request ID is
// attached by the logger's context handler.
func (h *ErrorHandler) logError(r *http.Request, statusCode int, err error) {
	logAttrs := []any{
		"method", r.Method,
		"path", r.URL.Path,
		"status_code", statusCode,
		"error", err.Error(),
	}

	// Log at different levels based on status code
	switch {
	case statusCode >= 500:
		h.logger.ErrorContext(r.Context(), "server error", logAttrs...)
	case statusCode >= 400:
		h.logger.WarnContext(r.Context(), "client error", logAttrs...)
	default:
		h.logger.InfoContext(r.Context(), "request error", logAttrs...)
	}
}

// writeErrorResponse writes a JSON error response
func (h *ErrorHandler) writeErrorResponse(w http.ResponseWriter, statusCode int, response ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(response)
}

// writeValidationErrorResponse writes a validation error response
func (h *ErrorHandler) writeValidationErrorResponse(w http.ResponseWriter, errs *apperrors.ValidationErrors) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnprocessableEntity)
	_ = json.NewEncoder(w).Encode(ValidationErrorResponse{
		Error:  "Validation failed",
		Code:   "VALIDATION_ERROR",
		Fields: errs.Errors,
	})
}

// HandleError Helper function to handle errors inline in handlers
// Usage: if HandleError(w, r, err, h.errorHandler) { return }
func HandleError(w http.ResponseWriter, r *http.Request, err error, handler *ErrorHandler) bool {
	if err != nil {
		handler.Handle(w, r, err)
		return true
	}
	return false
}
