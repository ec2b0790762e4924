package util

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
)

var errTokenSize = errors.New("token size must be > 0")

func randomBytes(n int) ([]byte, error) {
	if n <= 0 {
		return nil, errTokenSize
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("read random bytes: %w", err)
	}
	return buf, nil
}

// RandomToken returns n random bytes encoded as unpadded URL-safe base64.
// Generated passwords use it.
func RandomToken(n int) (string, error) {
	buf, err := randomBytes(n)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// RandomHex returns n random bytes as lower-case hex, safe to embed in
// markdown without escaping.
func RandomHex(n int) (string, error) {
	buf, err := randomBytes(n)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
