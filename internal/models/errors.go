package models

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Error codes for the four failure kinds the repositories surface.
const (
	CodeUnauthenticated  = "UNAUTHENTICATED"
	CodeValidation       = "VALIDATION_ERROR"
	CodeStoreUnavailable = "STORE_UNAVAILABLE"
	CodeNotFound         = "NOT_FOUND"
)

// ErrorResponse represents a standardized API error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Field   string `json:"field,omitempty"`
	Details string `json:"details,omitempty"`
}

// AppError represents a custom application error.
type AppError struct {
	Code    string
	Message string
	Field   string // set for validation errors: the offending input field
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the error code to an HTTP status for the API layer.
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case CodeUnauthenticated:
		return fiber.StatusUnauthorized
	case CodeValidation:
		return fiber.StatusBadRequest
	case CodeNotFound:
		return fiber.StatusNotFound
	case CodeStoreUnavailable:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// Predefined error constructors

// NewUnauthenticatedError reports an operation that requires a signed-in
// identity when none is present.
func NewUnauthenticatedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthenticated,
		Message: message,
	}
}

// NewValidationError reports a client-side input constraint violated before
// any store call was made.
func NewValidationError(field, reason string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: fmt.Sprintf("%s %s", field, reason),
		Field:   field,
	}
}

// NewStoreUnavailableError wraps a transport-level failure from the remote store.
func NewStoreUnavailableError(err error) *AppError {
	return &AppError{
		Code:    CodeStoreUnavailable,
		Message: "remote store unavailable",
		Err:     err,
	}
}

// NewNotFoundError reports a delete/update that targeted zero rows.
func NewNotFoundError(resource string, id any) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

// IsCode reports whether err is (or wraps) an AppError with the given code.
func IsCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// RespondWithError creates a standardized error response.
func RespondWithError(c *fiber.Ctx, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		response := ErrorResponse{
			Error: appErr.Message,
			Code:  appErr.Code,
			Field: appErr.Field,
		}
		if appErr.Err != nil {
			response.Details = appErr.Err.Error()
		}
		return c.Status(appErr.HTTPStatus()).JSON(response)
	}
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: err.Error()})
}
