package domain

import "errors"

var (
	ErrRunNotFound         = errors.New("migration run not found")
	ErrNothingToMigrate    = errors.New("guest draft has nothing to migrate")
	ErrMigrationInProgress = errors.New("a migration is already running for this guest")
	ErrInvalidOrigin       = errors.New("origin must be signup or login")
	ErrMissingCredentials  = errors.New("access token is required")
)

// InProgressError names the run that holds the guest's migration lock.
type InProgressError struct {
	RunID string
}

func (e *InProgressError) Error() string { return ErrMigrationInProgress.Error() }

func (e *InProgressError) Unwrap() error { return ErrMigrationInProgress }
