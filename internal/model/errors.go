package model

import "errors"

var (
	// User related errors
	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrWeakPassword       = errors.New("password too short")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Token related errors
	ErrMissingToken = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenRevoked = errors.New("token revoked")

	// OAuth related errors
	ErrProviderMisconfigured = errors.New("oauth provider not configured")
	ErrStateMismatch         = errors.New("state mismatch")
	ErrMissingCode           = errors.New("authorization code missing")
	ErrVerifierNotFound      = errors.New("code verifier not found")

	// Creature related errors
	ErrCreatureNotFound = errors.New("creature not found")
	ErrImageNotFound    = errors.New("image not found")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
)
