package domain

import "time"

// EmailVerification is a one-time token mailed at registration. Redeeming it
// marks the user's email verified.
type EmailVerification struct {
	UserID    string
	Token     string
	ExpiresAt time.Time
}

// Expired reports whether the token is past its expiry at the given time.
func (v *EmailVerification) Expired(now time.Time) bool {
	return now.After(v.ExpiresAt)
}

// PasswordReset is a one-time token mailed on a forgot-password request.
type PasswordReset struct {
	UserID    string
	Token     string
	ExpiresAt time.Time
}

// Expired reports whether the token is past its expiry at the given time.
func (r *PasswordReset) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}
