package repository

import "errors"

// Repository errors
var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey indicates an insert violated a uniqueness constraint.
	// Surfaced when two registrations race on the same username.
	ErrDuplicateKey = errors.New("duplicate key")
)

// Cache errors
var (
	// ErrCacheMiss indicates the key was not found in cache.
	ErrCacheMiss = errors.New("cache miss")
)
