// Package domain contains the core business entities for Gatekeep.
// These are pure Go structs with no external dependencies.
package domain

import (
	"strings"
	"time"
)

// User represents a registered account.
type User struct {
	// ID is the unique identifier for the user (store-assigned).
	ID int64 `json:"id"`

	// Username is the unique, lower-cased username.
	Username string `json:"username"`

	// PasswordHash is the HMAC-SHA512 of the password keyed by PasswordSalt.
	// Never exposed in API responses.
	PasswordHash []byte `json:"-"`

	// PasswordSalt is the random key used to compute PasswordHash.
	// Generated fresh per user, never reused.
	PasswordSalt []byte `json:"-"`

	// CreatedAt is the timestamp when the user was created.
	CreatedAt time.Time `json:"created_at"`
}

// Identity is the verified result of a successful login.
type Identity struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// NewUser creates a User with a normalized username and the given credentials.
func NewUser(username string, hash, salt []byte) *User {
	return &User{
		Username:     NormalizeUsername(username),
		PasswordHash: hash,
		PasswordSalt: salt,
		CreatedAt:    time.Now().UTC(),
	}
}

// NormalizeUsername lower-cases a username. Every storage and lookup path
// must go through this so that "Alice" and "alice" are the same account.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
