package domain

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Sentinel errors returned by repositories. Use cases translate them into AppErrors.
var (
	ErrNotFound               = errors.New("record not found")
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrConcurrentModification = errors.New("concurrent modification")
	ErrDuplicate              = errors.New("duplicate record")
	ErrInvalidStatus          = errors.New("invalid status transition")
)

// AppError represents an application error
type AppError struct {
	Code       string    `json:"code"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	HTTPStatus int       `json:"-"`
	Timestamp  time.Time `json:"timestamp"`
	RequestID  string    `json:"request_id,omitempty"`
	AccountID  string    `json:"account_id,omitempty"`
	Path       string    `json:"path,omitempty"`
	Method     string    `json:"method,omitempty"`
	Err        error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Err.Error())
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the caller may safely repeat the request.
func (e *AppError) Retryable() bool {
	return e.Code == ErrCodeUnavailable
}

// NewAppError creates a new application error
func NewAppError(code, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Timestamp:  time.Now(),
		Err:        err,
	}
}

// NewValidationError creates a validation error
func NewValidationError(field, message string) *AppError {
	return NewAppError(
		ErrCodeValidation,
		fmt.Sprintf("Validation failed for field '%s': %s", field, message),
		http.StatusBadRequest,
		nil,
	)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(code, resource string) *AppError {
	return NewAppError(
		code,
		fmt.Sprintf("%s not found", resource),
		http.StatusNotFound,
		nil,
	)
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError(message string) *AppError {
	if message == "" {
		message = "Unauthorized access"
	}
	return NewAppError(
		ErrCodeUnauthorized,
		message,
		http.StatusUnauthorized,
		nil,
	)
}

// NewForbiddenError creates a forbidden error
func NewForbiddenError(message string) *AppError {
	if message == "" {
		message = "Access forbidden"
	}
	return NewAppError(
		ErrCodeForbidden,
		message,
		http.StatusForbidden,
		nil,
	)
}

// NewBusinessError creates a rule violation reported to the caller with its specific code.
func NewBusinessError(code, message string) *AppError {
	return NewAppError(code, message, http.StatusUnprocessableEntity, nil)
}

// NewConflictError creates a conflict error
func NewConflictError(code, message string) *AppError {
	return NewAppError(
		code,
		message,
		http.StatusConflict,
		nil,
	)
}

// NewUnavailableError creates a retryable storage failure
func NewUnavailableError(operation string, err error) *AppError {
	return NewAppError(
		ErrCodeUnavailable,
		fmt.Sprintf("Service temporarily unavailable: %s", operation),
		http.StatusServiceUnavailable,
		err,
	)
}

// NewInternalError creates an internal server error
func NewInternalError(message string, err error) *AppError {
	if message == "" {
		message = "Internal server error"
	}
	return NewAppError(
		ErrCodeInternal,
		message,
		http.StatusInternalServerError,
		err,
	)
}

// NewDatabaseError creates a database error
func NewDatabaseError(operation string, err error) *AppError {
	return NewAppError(
		ErrCodeDatabaseQuery,
		fmt.Sprintf("Database operation failed: %s", operation),
		http.StatusInternalServerError,
		err,
	)
}

// ErrorResponse represents the standard error response structure
type ErrorResponse struct {
	Error   *AppError `json:"error"`
	Success bool      `json:"success"`
}

// NewErrorResponse creates a new error response
func NewErrorResponse(err *AppError) ErrorResponse {
	return ErrorResponse{
		Error:   err,
		Success: false,
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err is an AppError carrying code.
func HasCode(err error, code string) bool {
	appErr, ok := IsAppError(err)
	return ok && appErr.Code == code
}

// IsRetryable reports whether err is a transient failure.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrConcurrentModification) {
		return true
	}
	appErr, ok := IsAppError(err)
	return ok && appErr.Retryable()
}

// Error codes for different categories of errors
const (
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeTokenInvalid       = "TOKEN_INVALID"
	ErrCodeTokenMissing       = "TOKEN_MISSING"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"

	ErrCodeAccountNotFound   = "ACCOUNT_NOT_FOUND"
	ErrCodeInsufficientFunds = "INSUFFICIENT_FUNDS"

	ErrCodeTournamentNotFound       = "TOURNAMENT_NOT_FOUND"
	ErrCodeTournamentNotJoinable    = "TOURNAMENT_NOT_JOINABLE"
	ErrCodeTournamentFull           = "TOURNAMENT_FULL"
	ErrCodeAlreadyJoined            = "ALREADY_JOINED"
	ErrCodeTournamentNotCancellable = "TOURNAMENT_NOT_CANCELLABLE"
	ErrCodeTournamentNotPayable     = "TOURNAMENT_NOT_PAYABLE"
	ErrCodeTournamentInvalidStatus  = "TOURNAMENT_INVALID_STATUS"
	ErrCodePayoutRankingMismatch    = "PAYOUT_RANKING_MISMATCH"

	ErrCodeDailyLimitExceeded = "DAILY_LIMIT_EXCEEDED"
	ErrCodeBelowMinimum       = "BELOW_MINIMUM"
	ErrCodeRequestInProgress  = "REQUEST_IN_PROGRESS"

	ErrCodeTransactionNotFound      = "TRANSACTION_NOT_FOUND"
	ErrCodeTransactionInvalidStatus = "TRANSACTION_INVALID_STATUS"
	ErrCodeInvalidAmount            = "INVALID_AMOUNT"
	ErrCodeInvalidDirection         = "INVALID_DIRECTION"

	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeRequiredField = "REQUIRED_FIELD"
	ErrCodeInvalidFormat = "INVALID_FORMAT"

	ErrCodeDatabaseConnection = "DATABASE_CONNECTION_ERROR"
	ErrCodeDatabaseQuery      = "DATABASE_QUERY_ERROR"
	ErrCodeUnavailable        = "UNAVAILABLE"
	ErrCodeInternal           = "INTERNAL_ERROR"
	ErrCodeTimeout            = "TIMEOUT"
)
