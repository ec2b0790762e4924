package auth

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	argonTime    uint32 = 3
	argonMemory  uint32 = 64 * 1024
	argonThreads uint8  = 2
	argonKeyLen  uint32 = 32
	saltLen             = 16

	// MinPasswordLength applies to new passwords only.
	MinPasswordLength = 8
	// maxArgonMemory bounds what a stored hash may ask for, in KiB.
	maxArgonMemory uint32 = 1 << 20
)

var ErrMalformedHash = errors.New("malformed password hash")

type argonHash struct {
	memory  uint32
	time    uint32
	threads uint8
	salt    []byte
	key     []byte
}

// HashPassword returns the PHC-style argon2id encoding of password.
func HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	saltRaw, err := randomBytes(saltLen)
	if err != nil {
		return "", err
	}
	h := argonHash{
		memory:  argonMemory,
		time:    argonTime,
		threads: argonThreads,
		salt:    saltRaw,
		key:     argon2.IDKey([]byte(password), saltRaw, argonTime, argonMemory, argonThreads, argonKeyLen),
	}
	return h.encode(), nil
}

// VerifyPassword reports whether password matches encodedHash. A malformed
// hash is an error; a wrong password is not.
func VerifyPassword(encodedHash, password string) (bool, error) {
	h, err := decodeHash(encodedHash)
	if err != nil {
		return false, err
	}
	candidate := argon2.IDKey([]byte(password), h.salt, h.time, h.memory, h.threads, uint32(len(h.key)))
	return subtle.ConstantTimeCompare(candidate, h.key) == 1, nil
}

// NeedsRehash reports whether encodedHash was made with weaker parameters
// than HashPassword uses today.
func NeedsRehash(encodedHash string) bool {
	h, err := decodeHash(encodedHash)
	if err != nil {
		return true
	}
	return h.memory < argonMemory || h.time < argonTime || len(h.key) < int(argonKeyLen)
}

func (h argonHash) encode() string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.memory, h.time, h.threads,
		base64.RawStdEncoding.EncodeToString(h.salt),
		base64.RawStdEncoding.EncodeToString(h.key))
}

func decodeHash(encoded string) (argonHash, error) {
	var h argonHash
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return h, fmt.Errorf("%w: expected 6 fields", ErrMalformedHash)
	}
	if parts[1] != "argon2id" {
		return h, fmt.Errorf("%w: unsupported algorithm %q", ErrMalformedHash, parts[1])
	}

	for _, pair := range strings.Split(parts[3], ",") {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		switch name {
		case "m":
			v, err := strconv.ParseUint(value, 10, 32)
			if err != nil {
				return h, fmt.Errorf("%w: memory: %v", ErrMalformedHash, err)
			}
			h.memory = uint32(v)
		case "t":
			v, err := strconv.ParseUint(value, 10, 32)
			if err != nil {
				return h, fmt.Errorf("%w: time: %v", ErrMalformedHash, err)
			}
			h.time = uint32(v)
		case "p":
			v, err := strconv.ParseUint(value, 10, 8)
			if err != nil {
				return h, fmt.Errorf("%w: threads: %v", ErrMalformedHash, err)
			}
			h.threads = uint8(v)
		}
	}
	if h.memory == 0 || h.time == 0 || h.threads == 0 || h.memory > maxArgonMemory {
		return h, fmt.Errorf("%w: invalid argon2 parameters", ErrMalformedHash)
	}

	var err error
	if h.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return h, fmt.Errorf("%w: salt: %v", ErrMalformedHash, err)
	}
	if h.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return h, fmt.Errorf("%w: key: %v", ErrMalformedHash, err)
	}
	if len(h.key) == 0 {
		return h, fmt.Errorf("%w: empty key", ErrMalformedHash)
	}
	return h, nil
}
