package auth

import (
	"errors"
	"testing"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	ok, err := VerifyPassword(hash, "correct horse battery staple")
	if err != nil {
		t.Fatalf("verify password: %v", err)
	}
	if !ok {
		t.Fatalf("expected password verification to pass")
	}
	ok, err = VerifyPassword(hash, "bad pass")
	if err != nil {
		t.Fatalf("verify bad password returned error: %v", err)
	}
	if ok {
		t.Fatalf("expected wrong password to fail")
	}
}

func TestHashPasswordRejectsShortPasswords(t *testing.T) {
	if _, err := HashPassword("short"); err == nil {
		t.Fatalf("expected short password to be rejected")
	}
}

func TestVerifyPasswordRejectsMalformedHash(t *testing.T) {
	for _, hash := range []string{
		"$bcrypt$nope",
		"$argon2id$v=19$m=0,t=3,p=2$c2FsdA$a2V5",
		"$argon2id$v=19$m=99999999,t=3,p=2$c2FsdA$a2V5",
		"$argon2id$v=19$m=65536,t=3,p=2$!!$a2V5",
	} {
		_, err := VerifyPassword(hash, "whatever")
		if !errors.Is(err, ErrMalformedHash) {
			t.Fatalf("VerifyPassword(%q) error = %v, want ErrMalformedHash", hash, err)
		}
	}
}

func TestNeedsRehash(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if NeedsRehash(hash) {
		t.Fatalf("fresh hash should not need rehashing")
	}
	if !NeedsRehash("$argon2id$v=19$m=1024,t=1,p=1$c2FsdHNhbHQ$a2V5a2V5a2V5") {
		t.Fatalf("weak parameters should need rehashing")
	}
	if !NeedsRehash("garbage") {
		t.Fatalf("malformed hash should need rehashing")
	}
}

func TestCredentialsCheck(t *testing.T) {
	open := Credentials{}
	if !open.Check("", "") {
		t.Fatalf("expected open credentials to accept anything")
	}

	hash, err := HashPassword("download-secret")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	c := Credentials{PasswordHash: hash}
	tests := []struct {
		user, pass string
		want       bool
	}{
		{DefaultUsername, "download-secret", true},
		{DefaultUsername, "wrong-secret", false},
		{"someone", "download-secret", false},
	}
	for _, tt := range tests {
		if got := c.Check(tt.user, tt.pass); got != tt.want {
			t.Fatalf("Check(%q, %q) = %v, want %v", tt.user, tt.pass, got, tt.want)
		}
	}

	named := Credentials{Username: "docs", PasswordHash: hash}
	if !named.Check("docs", "download-secret") {
		t.Fatalf("expected configured username to be accepted")
	}
}
