package domain

import "errors"

var (
	ErrDuplicateIdentity  = errors.New("user with this email or username already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidToken       = errors.New("invalid token")
	ErrUserNotFound       = errors.New("user not found")
	ErrValidation         = errors.New("validation failed")

	// ErrMalformedEvent marks a realtime payload that was dropped. It is only
	// ever logged, never sent back over the channel.
	ErrMalformedEvent = errors.New("malformed realtime event")
)
