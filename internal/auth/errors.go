package auth

import "errors"

var (
	// ErrInvalidToken indicates the token failed validation.
	ErrInvalidToken = errors.New("invalid token")

	// ErrUnauthorized indicates missing or rejected credentials.
	ErrUnauthorized = errors.New("auth: unauthorized")
)
