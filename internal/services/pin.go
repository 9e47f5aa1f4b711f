package services

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// HashPin returns the bcrypt hash stored in place of a PIN.
func HashPin(pin string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func isHashed(stored string) bool {
	return strings.HasPrefix(stored, "$2a$") || strings.HasPrefix(stored, "$2b$") || strings.HasPrefix(stored, "$2y$")
}

// VerifyPin checks pin against the stored value. Backups written by older
// clients hold the PIN in clear; legacy reports that case so the caller can
// upgrade it.
func VerifyPin(stored, pin string) (ok, legacy bool) {
	if isHashed(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(pin)) == nil, false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(pin)) == 1, true
}
