package auth

import (
	"context"
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// StaticCredentials checks against a single configured admin account.
// The secret is either a bcrypt hash or a plain password.
type StaticCredentials struct {
	username string
	secret   string
	hashed   bool
}

// NewStaticCredentials creates a checker for one username and secret
func NewStaticCredentials(username, secret string) *StaticCredentials {
	return &StaticCredentials{
		username: username,
		secret:   secret,
		hashed:   isBcryptHash(secret),
	}
}

// CheckCredentials implements CredentialChecker
func (s *StaticCredentials) CheckCredentials(_ context.Context, username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1

	var passOK bool
	if s.hashed {
		passOK = bcrypt.CompareHashAndPassword([]byte(s.secret), []byte(password)) == nil
	} else {
		passOK = subtle.ConstantTimeCompare([]byte(password), []byte(s.secret)) == 1
	}
	return userOK && passOK
}

// HashPassword hashes a password with bcrypt
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func isBcryptHash(s string) bool {
	return len(s) == 60 && (strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$"))
}
