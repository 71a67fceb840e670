// Package service provides business logic services for Gatekeep.
package service

import "errors"

// Common service errors.
var (
	// ErrInvalidInput indicates a missing or empty username/password reached
	// the service. Request shape validation belongs to the handler layer;
	// this guards direct callers such as the admin CLI.
	ErrInvalidInput = errors.New("username and password are required")

	// ErrStoreUnavailable indicates the user store failed for reasons other
	// than a business rule (connectivity, timeouts). Surfaced to HTTP as a
	// server error, never as invalid credentials.
	ErrStoreUnavailable = errors.New("user store unavailable")

	// ErrTokenInvalid indicates a token failed signature or expiry checks.
	ErrTokenInvalid = errors.New("invalid token")
)
