package domain

import "errors"

var (
	ErrInvalidGuestID  = errors.New("invalid guest id")
	ErrDraftNotFound   = errors.New("draft not found")
	ErrUnknownSection  = errors.New("unknown section")
	ErrInvalidDocument = errors.New("invalid draft document")
	ErrInvalidEmail    = errors.New("invalid email")
	ErrEmailNotFound   = errors.New("no captured email")
	ErrDraftConflict   = errors.New("draft is being modified concurrently, try again")
)
