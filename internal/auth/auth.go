// Package auth guards the download surface with an optional shared
// username and argon2id password.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
)

// DefaultUsername is used when a password is configured without a name.
const DefaultUsername = "filelist"

// Credentials is the single account accepted by HTTP basic auth.
type Credentials struct {
	Username     string
	PasswordHash string
}

// Enabled reports whether a password has been configured.
func (c Credentials) Enabled() bool {
	return c.PasswordHash != ""
}

func (c Credentials) username() string {
	if c.Username == "" {
		return DefaultUsername
	}
	return c.Username
}

// Check verifies a username and password pair. With no password configured
// every pair is accepted.
func (c Credentials) Check(username, password string) bool {
	if !c.Enabled() {
		return true
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(c.username())) == 1
	passOK, err := VerifyPassword(c.PasswordHash, password)
	return userOK && err == nil && passOK
}

func randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("random bytes: %w", err)
	}
	return b, nil
}
