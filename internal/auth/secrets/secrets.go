// Package secrets handles password hashing.
package secrets

import (
	"golang.org/x/crypto/bcrypt"

	dErrors "medichain/pkg/domain-errors"
)

const minPasswordLength = 8

// HashPassword validates and hashes a plaintext password.
func HashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", dErrors.New(dErrors.CodeInvalidInput, "password must be at least 8 characters")
	}
	// bcrypt operates on at most 72 bytes.
	if len(password) > 72 {
		return "", dErrors.New(dErrors.CodeInvalidInput, "password too long")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}
	return string(hash), nil
}

// VerifyPassword reports whether the password matches the stored hash.
func VerifyPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
