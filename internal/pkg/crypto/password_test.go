package crypto

import (
	"bytes"
	"testing"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	passwords := []string{"pass1234", "", "p", "correct horse battery staple", "пароль"}

	for _, password := range passwords {
		hash, salt, err := HashPassword(password)
		if err != nil {
			t.Fatalf("HashPassword(%q) error: %v", password, err)
		}
		if len(hash) != HashSize {
			t.Errorf("hash length = %d, want %d", len(hash), HashSize)
		}
		if len(salt) != SaltSize {
			t.Errorf("salt length = %d, want %d", len(salt), SaltSize)
		}
		if !VerifyPassword(password, hash, salt) {
			t.Errorf("VerifyPassword(%q) = false after HashPassword", password)
		}
	}
}

func TestHashPassword_FreshSaltPerCall(t *testing.T) {
	hash1, salt1, err := HashPassword("pass1234")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	hash2, salt2, err := HashPassword("pass1234")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}

	if bytes.Equal(salt1, salt2) {
		t.Error("two calls produced the same salt")
	}
	if bytes.Equal(hash1, hash2) {
		t.Error("same password hashed identically under different salts")
	}
}

func TestVerifyPassword_WrongPassword(t *testing.T) {
	hash, salt, err := HashPassword("pass1234")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}

	if VerifyPassword("wrong", hash, salt) {
		t.Error("VerifyPassword accepted a wrong password")
	}
}

func TestVerifyPassword_MismatchedSaltOrHash(t *testing.T) {
	hash, salt, err := HashPassword("pass1234")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	_, otherSalt, err := HashPassword("pass1234")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}

	if VerifyPassword("pass1234", hash, otherSalt) {
		t.Error("VerifyPassword accepted a hash recomputed under a different salt")
	}

	tampered := append([]byte(nil), hash...)
	tampered[0] ^= 0xff
	if VerifyPassword("pass1234", tampered, salt) {
		t.Error("VerifyPassword accepted a tampered hash")
	}
}
