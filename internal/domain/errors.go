// Package domain contains the core business entities for Gatekeep.
package domain

import "errors"

// Domain errors - business rule violations, distinct from infrastructure
// errors (database, network, etc.).

var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrUsernameTaken indicates a user with the same normalized username exists.
	ErrUsernameTaken = errors.New("username already exists")

	// ErrInvalidCredentials indicates authentication failed. Returned for both
	// an unknown username and a wrong password so that login responses do not
	// reveal which usernames exist.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
