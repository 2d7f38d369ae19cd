// Package security provides session token issuance/verification and password
// hashing. Handlers treat both as opaque collaborators.
package security

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

const (
	// MaxPasswordLength caps plaintext length before hashing. bcrypt ignores
	// input beyond 72 bytes; rejecting earlier keeps the limit visible.
	MaxPasswordLength = 64
	// MinPasswordLength is the shortest accepted plaintext.
	MinPasswordLength = 8
)

var (
	ErrEmptyPassword    = errors.New("password is empty")
	ErrPasswordTooShort = errors.New("password is too short")
	ErrPasswordTooLong  = errors.New("password exceeds maximum length")
)

// Hasher hashes and verifies passwords using bcrypt. Plaintext passwords must
// never be logged or persisted.
type Hasher struct {
	cost int
}

// NewHasher returns a Hasher with the given bcrypt cost, clamped to the valid
// range. Cost 12 is a reasonable default for interactive login.
func NewHasher(cost int) *Hasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &Hasher{cost: cost}
}

// Cost returns the configured bcrypt cost.
func (h *Hasher) Cost() int { return h.cost }

func checkLength(password string) error {
	switch {
	case password == "":
		return ErrEmptyPassword
	case len(password) < MinPasswordLength:
		return ErrPasswordTooShort
	case len(password) > MaxPasswordLength:
		return ErrPasswordTooLong
	}
	return nil
}

// Hash produces a bcrypt hash of password, rejecting plaintexts outside the
// accepted length range.
func (h *Hasher) Hash(password string) (string, error) {
	if err := checkLength(password); err != nil {
		return "", err
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify reports whether password matches hash. The comparison is
// constant-time; any malformed hash or length violation reads as no match.
func (h *Hasher) Verify(password, hash string) bool {
	if checkLength(password) != nil {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
