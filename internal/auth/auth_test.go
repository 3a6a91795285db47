package auth

import (
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	testEmail    = "admin@sstm.app"
	testPassword = "test123"
	testSecret   = "test-signing-secret"
)

func newTestVerifier(t *testing.T, ttl time.Duration) *Verifier {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return NewVerifier(testEmail, string(hash), testSecret, ttl)
}

func TestLoginIssuesValidToken(t *testing.T) {
	v := newTestVerifier(t, 12*time.Hour)

	token, err := v.Login(testEmail, testPassword)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if token == "" {
		t.Fatal("expected a token")
	}
	if err := v.Validate(token); err != nil {
		t.Fatalf("validate fresh token: %v", err)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	v := newTestVerifier(t, 12*time.Hour)

	cases := []struct{ email, password string }{
		{"wrong@sstm.app", testPassword},
		{testEmail, "wrong"},
		{"", ""},
	}
	for _, tc := range cases {
		if _, err := v.Login(tc.email, tc.password); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("login(%q, %q): expected ErrUnauthorized, got %v", tc.email, tc.password, err)
		}
	}
}

func TestLoginDisabledWithoutConfig(t *testing.T) {
	v := NewVerifier("", "", "", 12*time.Hour)
	if _, err := v.Login("", ""); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	v := newTestVerifier(t, -time.Minute)

	token, err := v.Login(testEmail, testPassword)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := v.Validate(token); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for expired token, got %v", err)
	}
}

func TestValidateRejectsForeignSignature(t *testing.T) {
	v := newTestVerifier(t, 12*time.Hour)
	other := newTestVerifier(t, 12*time.Hour)
	other.secret = []byte("another-secret")

	token, err := other.Login(testEmail, testPassword)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := v.Validate(token); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for foreign signature, got %v", err)
	}
}

func TestValidateRejectsGarbage(t *testing.T) {
	v := newTestVerifier(t, 12*time.Hour)
	for _, raw := range []string{"", "not.a.jwt", "aaaa"} {
		if err := v.Validate(raw); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("%q: expected ErrUnauthorized, got %v", raw, err)
		}
	}
}
