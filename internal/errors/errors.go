// Package errors provides custom error types for the drachma ledger engine.
// All service-layer errors use AppError so callers receive a structured
// reason without internal details leaking to clients.
package errors

import (
	"errors"
	"net/http"
)

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// Is reports whether err carries the same error code as sentinel.
func Is(err error, sentinel *AppError) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == sentinel.Code
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// General errors.
var (
	ErrUnauthorized   = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// User errors.
var (
	ErrUserNotFound = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
)

// Account errors.
var (
	ErrAccountNotFound = &AppError{Code: "ACCOUNT_NOT_FOUND", Message: "Account not found", StatusCode: http.StatusNotFound}
)

// Transaction errors.
var (
	ErrTransactionNotFound      = &AppError{Code: "TRANSACTION_NOT_FOUND", Message: "Transaction not found", StatusCode: http.StatusNotFound}
	ErrInvalidTransactionType   = &AppError{Code: "INVALID_TRANSACTION_TYPE", Message: "Unsupported transaction type", StatusCode: http.StatusBadRequest}
	ErrInvalidRecurringInterval = &AppError{Code: "INVALID_RECURRING_INTERVAL", Message: "Unknown recurring interval", StatusCode: http.StatusBadRequest}
	ErrDuplicateTransaction     = &AppError{Code: "DUPLICATE_TRANSACTION", Message: "An identical transaction already exists for this day", StatusCode: http.StatusConflict}
)

// Budget errors.
var (
	ErrBudgetNotFound = &AppError{Code: "BUDGET_NOT_FOUND", Message: "Budget not found", StatusCode: http.StatusNotFound}
)

// Store and collaborator errors.
var (
	// ErrConflict marks a store-level write conflict on an account or
	// template row. The writing component retries it a bounded number of
	// times before surfacing it.
	ErrConflict = &AppError{Code: "CONFLICT", Message: "Concurrent write conflict, try again", StatusCode: http.StatusConflict}

	// ErrExternalService marks a failure of an external collaborator (AI or
	// email). It is never allowed to fail an adjacent ledger write.
	ErrExternalService = &AppError{Code: "EXTERNAL_SERVICE", Message: "External service unavailable", StatusCode: http.StatusBadGateway}
)
