// Package crypto provides credential hashing utilities for Gatekeep.
package crypto

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha512"
	"fmt"
)

const (
	// SaltSize is the length in bytes of the random key used to
	// key the password hash. One salt per user, never reused.
	SaltSize = 64

	// HashSize is the length in bytes of an HMAC-SHA512 digest.
	HashSize = sha512.Size
)

// HashPassword derives a keyed hash from a plaintext password.
// A fresh random salt is generated on every call and used as the
// HMAC-SHA512 key over the UTF-8 bytes of the password.
func HashPassword(password string) (hash, salt []byte, err error) {
	salt = make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	mac := hmac.New(sha512.New, salt)
	mac.Write([]byte(password))
	return mac.Sum(nil), salt, nil
}

// VerifyPassword reports whether password, hashed with salt, matches hash.
// The comparison is constant-time over the full digest.
func VerifyPassword(password string, hash, salt []byte) bool {
	mac := hmac.New(sha512.New, salt)
	mac.Write([]byte(password))
	return hmac.Equal(mac.Sum(nil), hash)
}
