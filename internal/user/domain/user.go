package domain

import (
	"errors"
	"time"
)

// User is the core user entity. Password holds the bcrypt hash, never the
// plaintext.
type User struct {
	ID            string
	Name          string
	Email         string
	Password      string
	EmailVerified bool

	// PendingEmail carries an address change that has been requested but not
	// yet confirmed through the mailed token. Email swaps to PendingEmail
	// only when the token is redeemed before PendingEmailExpiresAt.
	PendingEmail          string
	PendingEmailToken     string
	PendingEmailExpiresAt time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate validates the user for persistence. Returns an error describing
// the first validation failure.
func (u *User) Validate() error {
	if u.Name == "" {
		return errors.New("name is required")
	}
	if u.Email == "" {
		return errors.New("email is required")
	}
	if u.Password == "" {
		return errors.New("password hash is required")
	}
	return nil
}
