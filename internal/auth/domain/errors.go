package domain

import "errors"

var (
	ErrMissingCredentials = errors.New("email and password are required")
	ErrMissingRefresh     = errors.New("refresh token is required")
)
