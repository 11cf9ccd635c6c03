// Package auth hashes passwords and issues the signed session token carried
// in the browser cookie.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"budget/internal/core"
)

// HashPassword validates and bcrypt-hashes a new password.
func HashPassword(password string) (string, error) {
	if err := core.ValidatePassword(password); err != nil {
		return "", err
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// Verify checks password against the account. upgrade is true when the
// match came from the legacy unsalted SHA-256 hash and the caller should
// store a bcrypt hash instead.
func Verify(acc core.Account, password string) (upgrade bool, err error) {
	if acc.PasswordHash != "" {
		err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password))
		switch {
		case err == nil:
			return false, nil
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			return false, core.ErrInvalidCredentials
		default:
			return false, fmt.Errorf("compare password: %w", err)
		}
	}
	if acc.LegacyPassword != "" && legacyMatch(acc.LegacyPassword, password) {
		return true, nil
	}
	return false, core.ErrInvalidCredentials
}

// LegacyHash is the unsalted SHA-256 hex digest older account files store.
func LegacyHash(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

func legacyMatch(stored, password string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(LegacyHash(password))) == 1
}
