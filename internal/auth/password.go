package auth

import (
	"crypto/subtle"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// AdminCredentials verifies the admin login. The password is checked against
// a bcrypt hash when one is configured; the plaintext fallback keeps the
// original env-var deployment working.
type AdminCredentials struct {
	username     string
	passwordHash string
	password     string
}

// NewAdminCredentials builds a verifier. Exactly one of passwordHash and
// password needs to be set; when both are, the hash wins.
func NewAdminCredentials(username, passwordHash, password string) *AdminCredentials {
	return &AdminCredentials{
		username:     username,
		passwordHash: passwordHash,
		password:     password,
	}
}

// Verify checks a username/password pair, returning ErrInvalidCredentials
// on any mismatch.
func (c *AdminCredentials) Verify(username, password string) error {
	if subtle.ConstantTimeCompare([]byte(username), []byte(c.username)) != 1 {
		return ErrInvalidCredentials
	}

	if c.passwordHash != "" {
		if bcrypt.CompareHashAndPassword([]byte(c.passwordHash), []byte(password)) != nil {
			return ErrInvalidCredentials
		}
		return nil
	}

	if subtle.ConstantTimeCompare([]byte(password), []byte(c.password)) != 1 {
		return ErrInvalidCredentials
	}
	return nil
}

// HashPassword hashes a password using bcrypt, for generating
// ADMIN_PASSWORD_HASH values.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
