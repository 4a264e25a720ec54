package services

import (
	"strings"

	apperrors "drachma/internal/errors"
)

// maxWriteAttempts bounds transparent retries of atomic units that abort on
// a store-level write conflict.
const maxWriteAttempts = 3

// retryOnConflict re-runs fn when it aborts with a retryable write conflict.
// Any other outcome is returned as-is. After the attempts are exhausted the
// conflict is surfaced to the caller.
func retryOnConflict(fn func() error) error {
	var err error
	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		err = fn()
		if err == nil || !isConflict(err) {
			return err
		}
	}
	return err
}

func isConflict(err error) bool {
	return apperrors.Is(err, apperrors.ErrConflict)
}

// storeError maps a raw database error to the service taxonomy: transaction
// conflicts become the retryable CONFLICT sentinel, everything else an
// internal error.
func storeError(err error) *apperrors.AppError {
	if isSerializationFailure(err) {
		return apperrors.Wrap(apperrors.ErrConflict, err)
	}
	return apperrors.Wrap(apperrors.ErrInternalServer, err)
}

// isSerializationFailure detects row-level conflict errors from postgres
// (serialization failure, deadlock) and sqlite (busy/locked in tests).
func isSerializationFailure(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, marker := range []string{
		"SQLSTATE 40001",
		"SQLSTATE 40P01",
		"deadlock detected",
		"database is locked",
		"database table is locked",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
