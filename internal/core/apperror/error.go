// Package apperror provides structured error handling following RFC 7807 Problem Details.
// Every error that crosses the domain boundary should be an AppError so the HTTP layer
// and the logs see the same machine-readable code.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes.
const (
	// Infrastructure errors (5xx)
	CodeInternal = "INTERNAL_ERROR"
	CodeDatabase = "DATABASE_ERROR"

	// Validation errors (400)
	CodeValidation = "VALIDATION_ERROR"

	// Master-data integrity and unit math (422)
	CodeUnitGraph         = "UNIT_GRAPH_ERROR"
	CodeIncompatibleUnits = "INCOMPATIBLE_UNITS"
	CodeMalformedFact     = "MALFORMED_FACT"

	// Authorization errors (401, 403)
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"
)

// AppError is the standard error type for the service.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (unit ids, fields, quantities)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions ---

// NewValidation creates a validation error (400)
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNotFound creates a not found error (404)
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewUnitGraph reports corrupt measurement-unit master data: a unit that does not
// resolve to a base unit in one hop, or a reference to a unit that does not exist.
func NewUnitGraph(unitID int64, reason string) *AppError {
	return &AppError{
		Code:       CodeUnitGraph,
		Message:    reason,
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"unit_id": unitID},
	}
}

// NewIncompatibleUnits reports an attempt to add quantities of different
// measurement families (e.g. mass and volume).
func NewIncompatibleUnits(baseA, baseB int64) *AppError {
	return &AppError{
		Code:       CodeIncompatibleUnits,
		Message:    "quantities belong to different measurement families",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"base_unit_a": baseA, "base_unit_b": baseB},
	}
}

// NewMalformedFact reports a cost line whose quantity cannot contribute.
func NewMalformedFact(message string) *AppError {
	return &AppError{
		Code:       CodeMalformedFact,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// NewInternal creates an internal server error (hides details from client)
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewDatabase wraps a storage failure.
func NewDatabase(err error) *AppError {
	return &AppError{
		Code:       CodeDatabase,
		Message:    "Database error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewForbidden creates an authorization error (403)
func NewForbidden(message string) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
	}
}

// --- Helper functions ---

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns appropriate HTTP status for any error
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// HasCode reports whether any AppError in the chain carries code.
func HasCode(err error, code string) bool {
	for err != nil {
		var appErr *AppError
		if !errors.As(err, &appErr) {
			return false
		}
		if appErr.Code == code {
			return true
		}
		err = appErr.Err
	}
	return false
}

// IsNotFound checks if error is CodeNotFound
func IsNotFound(err error) bool { return HasCode(err, CodeNotFound) }

// IsUnitGraph checks if error is CodeUnitGraph
func IsUnitGraph(err error) bool { return HasCode(err, CodeUnitGraph) }

// IsIncompatibleUnits checks if error is CodeIncompatibleUnits
func IsIncompatibleUnits(err error) bool { return HasCode(err, CodeIncompatibleUnits) }

// IsMalformedFact checks if error is CodeMalformedFact
func IsMalformedFact(err error) bool { return HasCode(err, CodeMalformedFact) }
