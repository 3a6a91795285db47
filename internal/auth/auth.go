package auth

import (
	"crypto/subtle"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// ErrUnauthorized covers every credential and token failure. Callers get the
// same error whether the email or the password was wrong.
var ErrUnauthorized = errors.New("unauthorized")

const subject = "admin"

// Verifier checks admin credentials and issues/validates session tokens.
type Verifier struct {
	adminEmail   string
	passwordHash string
	secret       []byte
	tokenTTL     time.Duration
}

// NewVerifier creates a verifier for the single configured admin account.
func NewVerifier(adminEmail, passwordHash, secret string, tokenTTL time.Duration) *Verifier {
	return &Verifier{
		adminEmail:   adminEmail,
		passwordHash: passwordHash,
		secret:       []byte(secret),
		tokenTTL:     tokenTTL,
	}
}

// Login verifies the email/password pair and returns a signed session token.
func (v *Verifier) Login(email, password string) (string, error) {
	if v.adminEmail == "" || v.passwordHash == "" || len(v.secret) == 0 {
		return "", ErrUnauthorized
	}
	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(v.adminEmail)) == 1
	pwdErr := bcrypt.CompareHashAndPassword([]byte(v.passwordHash), []byte(password))
	if !emailOK || pwdErr != nil {
		return "", ErrUnauthorized
	}
	return v.issue()
}

func (v *Verifier) issue() (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(now.Add(v.tokenTTL)),
		IssuedAt:  jwt.NewNumericDate(now),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// Validate checks the token signature and expiry. No claims are returned;
// holding a valid token is the whole contract.
func (v *Verifier) Validate(tokenStr string) error {
	parsed, err := jwt.ParseWithClaims(tokenStr, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return v.secret, nil
	})
	if err != nil || !parsed.Valid {
		return ErrUnauthorized
	}
	return nil
}
