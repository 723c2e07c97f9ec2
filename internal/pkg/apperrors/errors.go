package apperrors

import "errors"

// Core taxonomy
var (
	ErrAuthRequired          = errors.New("authentication required")
	ErrPermissionDenied      = errors.New("permission denied")
	ErrResourceNotFound      = errors.New("resource not found")
	ErrResourceAlreadyExists = errors.New("resource already exists")
	ErrConflict              = errors.New("conflict")
	ErrInvalidState          = errors.New("invalid state")
	ErrInvalidTransition     = errors.New("invalid status transition")
	ErrValidationFailed      = errors.New("validation failed")
	ErrBadRequest            = errors.New("bad request")
)

// Authentication errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrTokenNotFound      = errors.New("token not found")
	ErrTokenRevoked       = errors.New("token revoked")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrInvalidFormat      = errors.New("invalid token format")
)

// User errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrInvalidPassword    = errors.New("invalid password")
)

// Email verification errors
var (
	ErrInvalidEmailToken    = errors.New("invalid or expired email verification token")
	ErrEmailAlreadyVerified = errors.New("email already verified")
)

// Domain errors. Each wraps its taxonomy class so errors.Is works for both.
var (
	ErrEventNotFound        = &CustomError{Err: ErrResourceNotFound, Message: "event not found"}
	ErrApplicationNotFound  = &CustomError{Err: ErrResourceNotFound, Message: "application not found"}
	ErrVolunteerNotFound    = &CustomError{Err: ErrResourceNotFound, Message: "volunteer profile not found"}
	ErrOrganizationNotFound = &CustomError{Err: ErrResourceNotFound, Message: "organization profile not found"}
	ErrNotificationNotFound = &CustomError{Err: ErrResourceNotFound, Message: "notification not found"}
	ErrCategoryNotFound     = &CustomError{Err: ErrResourceNotFound, Message: "category not found"}
	ErrAlreadyApplied       = &CustomError{Err: ErrConflict, Message: "already applied to this event"}
	ErrEventFull            = &CustomError{Err: ErrConflict, Message: "event has reached its volunteer capacity"}
	ErrRatingAlreadyExists  = &CustomError{Err: ErrConflict, Message: "rating already submitted for this direction"}
)

// NewResourceNotFoundError creates a new custom error for resource not found with a message
func NewResourceNotFoundError(message string) error {
	return &CustomError{
		Err:     ErrResourceNotFound,
		Message: message,
	}
}

// NewConflictError creates a new custom error for conflict situations with a message
func NewConflictError(message string) error {
	return &CustomError{
		Err:     ErrConflict,
		Message: message,
	}
}

// NewForbiddenError creates a new custom error for permission denied with a message
func NewForbiddenError(message string) error {
	return &CustomError{
		Err:     ErrPermissionDenied,
		Message: message,
	}
}

// NewBadRequestError creates a new custom error for bad request with a message
func NewBadRequestError(message string) error {
	return &CustomError{
		Err:     ErrBadRequest,
		Message: message,
	}
}

// NewInvalidStateError reports an operation that is not allowed in the current resource state
func NewInvalidStateError(message string) error {
	return &CustomError{
		Err:     ErrInvalidState,
		Message: message,
	}
}

// NewInvalidTransitionError reports an illegal lifecycle transition
func NewInvalidTransitionError(message string) error {
	return &CustomError{
		Err:     ErrInvalidTransition,
		Message: message,
	}
}

// NewAuthRequiredError reports a missing or invalid session
func NewAuthRequiredError(message string) error {
	return &CustomError{
		Err:     ErrAuthRequired,
		Message: message,
	}
}

// Is returns whether err matches target or any of the errors in errList
func Is(err, target error, errList ...error) bool {
	if errors.Is(err, target) {
		return true
	}

	for _, e := range errList {
		if errors.Is(err, e) {
			return true
		}
	}

	return false
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
	Code    string
	Details map[string]interface{}
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewCustomError creates a CustomError with underlying error
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{
		Err:     err,
		Message: message,
	}
}

// WithDetails adds context details to the error
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}

// WithCode adds an error code
func (e *CustomError) WithCode(code string) *CustomError {
	e.Code = code
	return e
}

// Message extracts the human readable message of a CustomError, falling back to err.Error().
func Message(err error) string {
	var custom *CustomError
	if errors.As(err, &custom) {
		return custom.Error()
	}
	return err.Error()
}
