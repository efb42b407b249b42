package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/taskshare/task-api/internal/domain"
	"github.com/taskshare/task-api/internal/service"
	"github.com/taskshare/task-api/internal/service/auth"
	"github.com/taskshare/task-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrInvalidRefreshToken),
		errors.Is(err, auth.ErrExpiredRefreshToken),
		errors.Is(err, auth.ErrWrongTokenType),
		errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized

	// Authorization errors. The caller can see the task but lacks the
	// permission the operation needs.
	case errors.Is(err, service.ErrNotOwner),
		errors.Is(err, service.ErrWriteForbidden):
		return http.StatusForbidden

	// Not found errors, including tasks hidden from the caller
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, store.ErrEmailExists):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrSelfShare),
		errors.Is(err, domain.ErrInvalidPermission),
		errors.Is(err, domain.ErrPasswordTooShort),
		errors.Is(err, domain.ErrPasswordTooLong),
		errors.Is(err, domain.ErrTaskTitleTooLong),
		errors.Is(err, domain.ErrInvalidEmail),
		errors.Is(err, service.ErrPasswordMismatch):
		return http.StatusBadRequest

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken):
		return "Invalid token"

	case errors.Is(err, auth.ErrInvalidRefreshToken),
		errors.Is(err, auth.ErrExpiredRefreshToken),
		errors.Is(err, auth.ErrWrongTokenType):
		return "Invalid refresh token"

	case errors.Is(err, domain.ErrUnauthorized):
		return "Invalid credentials"

	// Authorization errors
	case errors.Is(err, service.ErrNotOwner):
		return "Only the task owner may perform this action"

	case errors.Is(err, service.ErrWriteForbidden):
		return "You do not have edit access to this task"

	// Not found errors
	case errors.Is(err, store.ErrUserNotFound):
		return "User not found"

	case errors.Is(err, store.ErrTaskNotFound):
		return "Task not found"

	case errors.Is(err, store.ErrShareNotFound):
		return "Share not found"

	case errors.Is(err, store.ErrNotFound):
		return "Not found"

	// Conflict errors
	case errors.Is(err, store.ErrEmailExists):
		return "Email already exists"

	// Bad request errors
	case errors.Is(err, domain.ErrSelfShare):
		return "Cannot share a task with its owner"

	case errors.Is(err, domain.ErrInvalidPermission):
		return "Permission must be 'view' or 'edit'"

	case errors.Is(err, service.ErrPasswordMismatch):
		return "Passwords do not match"

	case errors.Is(err, domain.ErrPasswordTooShort):
		return "Password must be at least 8 characters long"

	case errors.Is(err, domain.ErrPasswordTooLong):
		return "Password must be at most 72 characters long"

	case errors.Is(err, domain.ErrTaskTitleTooLong):
		return "Task title cannot exceed 255 characters"

	case errors.Is(err, domain.ErrInvalidEmail):
		return "Invalid email format"

	case errors.Is(err, domain.ErrValidation):
		return "Validation error"

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"

	// Default case for unknown errors
	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError removes sensitive details from validator errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	// Validator messages look like:
	// "Key: 'LoginRequest.Email' Error:Field validation for 'Email' failed on the 'required' tag"
	if strings.Contains(errMsg, "Field validation") {
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}
				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "email":
		return "invalid email format"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	case "eqfield":
		return "fields do not match"
	default:
		return "validation failed"
	}
}
