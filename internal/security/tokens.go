package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when a token is malformed, carries a bad
	// signature, or is past its expiry. Verification is binary; callers get
	// no further detail.
	ErrInvalidToken = errors.New("invalid token")
	// ErrEmptySubject is returned when issuing a token without a subject.
	ErrEmptySubject = errors.New("token subject is empty")
)

// SessionClaims holds the claims of a session token: subject, issued-at, and
// expiry as integer timestamps.
type SessionClaims struct {
	jwt.RegisteredClaims
}

// TokenProvider issues and verifies HS256-signed session tokens for a single
// symmetric secret and lifetime.
type TokenProvider struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenProvider returns a TokenProvider signing with secret; issued tokens
// expire after ttl.
func NewTokenProvider(secret []byte, ttl time.Duration) *TokenProvider {
	return &TokenProvider{secret: secret, ttl: ttl}
}

// TTL returns the configured token lifetime. Session cookies use the same value.
func (p *TokenProvider) TTL() time.Duration { return p.ttl }

// Issue signs a session token for the given subject (a user id). Fails with
// ErrEmptySubject when subject is empty.
func (p *TokenProvider) Issue(subject string) (string, error) {
	if subject == "" {
		return "", ErrEmptySubject
	}
	now := time.Now().UTC()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
}

// Verify parses and validates tokenString (signature and expiry) and returns
// its subject. Any failure is ErrInvalidToken.
func (p *TokenProvider) Verify(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return p.secret, nil
	})
	if err != nil {
		return "", ErrInvalidToken
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
