package domain

import "errors"

var (
	ErrResourceNotFound    = errors.New("resource not found")
	ErrInvalidBinding      = errors.New("invalid capability binding")
	ErrMissingSigningKey   = errors.New("signing key not configured")
	ErrProviderUnavailable = errors.New("media provider unavailable")
)
