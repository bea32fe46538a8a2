package errors

import (
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeConflict     ErrorType = "conflict"
	ErrorTypeUnauthorized ErrorType = "unauthorized"
	ErrorTypeForbidden    ErrorType = "forbidden"
	ErrorTypeGuard        ErrorType = "guard"
	ErrorTypeInternal     ErrorType = "internal"
	ErrorTypeDatabase     ErrorType = "database"
	ErrorTypeStorage      ErrorType = "storage"
	ErrorTypeNetwork      ErrorType = "network"
)

// Domain error codes surfaced to callers of the mutating operations.
const (
	CodeValidationFailed     = "VALIDATION_FAILED"
	CodeAlreadySubmitted     = "ALREADY_SUBMITTED"
	CodeNoBidToAccept        = "NO_BID_TO_ACCEPT"
	CodeIllegalTransition    = "ILLEGAL_TRANSITION"
	CodeFileTooLarge         = "FILE_TOO_LARGE"
	CodeFileBadType          = "FILE_BAD_TYPE"
	CodeDomainMismatch       = "DOMAIN_MISMATCH"
	CodeRecordNotFound       = "RECORD_NOT_FOUND"
	CodeOnboardingIncomplete = "ONBOARDING_INCOMPLETE"
	CodeUnauthenticated      = "UNAUTHENTICATED"
	CodeAuthFailed           = "AUTHENTICATION_FAILED"
)

// APIError represents a structured API error
type APIError struct {
	Type        ErrorType `json:"type"`
	Code        string    `json:"code"`
	Message     string    `json:"message"`
	Details     string    `json:"details,omitempty"`
	HTTPStatus  int       `json:"-"`
	InternalErr error     `json:"-"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Message, e.Details, e.Code)
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

// Unwrap returns the underlying error
func (e *APIError) Unwrap() error {
	return e.InternalErr
}

// NewAPIError creates a new API error
func NewAPIError(errorType ErrorType, code, message string, httpStatus int) *APIError {
	return &APIError{
		Type:       errorType,
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// NewAPIErrorWithCause creates a new API error with an underlying cause
func NewAPIErrorWithCause(errorType ErrorType, code, message string, httpStatus int, cause error) *APIError {
	return &APIError{
		Type:        errorType,
		Code:        code,
		Message:     message,
		HTTPStatus:  httpStatus,
		InternalErr: cause,
	}
}

// ValidationError creates a validation error. The message is shown to the user as-is.
func ValidationError(message string) *APIError {
	return NewAPIError(ErrorTypeValidation, CodeValidationFailed, message, http.StatusBadRequest)
}

// NotFoundError creates a not found error
func NotFoundError(resource string) *APIError {
	return NewAPIError(ErrorTypeNotFound, CodeRecordNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

// ConflictError creates a conflict error
func ConflictError(message string) *APIError {
	return NewAPIError(ErrorTypeConflict, "RESOURCE_CONFLICT", message, http.StatusConflict)
}

// UnauthorizedError creates an unauthorized error
func UnauthorizedError(code, message string) *APIError {
	return NewAPIError(ErrorTypeUnauthorized, code, message, http.StatusUnauthorized)
}

// ForbiddenError creates a forbidden error
func ForbiddenError(message string) *APIError {
	return NewAPIError(ErrorTypeForbidden, "FORBIDDEN", message, http.StatusForbidden)
}

// GuardError reports a rejected state transition. Nothing has been written when it is returned.
func GuardError(code, message string) *APIError {
	return NewAPIError(ErrorTypeGuard, code, message, http.StatusConflict)
}

// InternalErrorWithCause creates an internal server error with cause
func InternalErrorWithCause(message string, cause error) *APIError {
	return NewAPIErrorWithCause(ErrorTypeInternal, "INTERNAL_ERROR", message, http.StatusInternalServerError, cause)
}

// DatabaseError creates a database error
func DatabaseError(operation string, cause error) *APIError {
	return NewAPIErrorWithCause(ErrorTypeDatabase, "DATABASE_ERROR",
		fmt.Sprintf("Database operation failed: %s", operation),
		http.StatusInternalServerError, cause)
}

// StorageError creates a file storage error
func StorageError(operation string, cause error) *APIError {
	return NewAPIErrorWithCause(ErrorTypeStorage, "STORAGE_ERROR",
		fmt.Sprintf("File storage operation failed: %s", operation),
		http.StatusBadGateway, cause)
}

// NetworkError creates a network error
func NetworkError(operation string, cause error) *APIError {
	return NewAPIErrorWithCause(ErrorTypeNetwork, "NETWORK_ERROR",
		fmt.Sprintf("Network operation failed: %s", operation),
		http.StatusServiceUnavailable, cause)
}

// GetAPIError extracts an APIError from an error chain
func GetAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return nil
}

// HasCode reports whether err carries an APIError with the given code
func HasCode(err error, code string) bool {
	apiErr := GetAPIError(err)
	return apiErr != nil && apiErr.Code == code
}

// HandleDatabaseError maps GORM errors onto API errors
func HandleDatabaseError(err error, operation string) *APIError {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return NotFoundError("Member record")
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return NewAPIErrorWithCause(ErrorTypeConflict, "RESOURCE_CONFLICT",
			fmt.Sprintf("Duplicate record: %s", operation), http.StatusConflict, err)
	default:
		return DatabaseError(operation, err)
	}
}
