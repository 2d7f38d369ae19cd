package repository

import (
	"context"

	"workspace-kit/internal/auth/domain"
	userdomain "workspace-kit/internal/user/domain"
)

// Repository defines persistence for registration and credential recovery.
type Repository interface {
	// CreateUser inserts the user and its email verification token in one
	// transaction.
	CreateUser(ctx context.Context, u *userdomain.User, verification *domain.EmailVerification) error
	// GetEmailVerification returns the verification for token, or nil if not found.
	GetEmailVerification(ctx context.Context, token string) (*domain.EmailVerification, error)
	// MarkEmailVerified flags the user verified and discards their
	// verification tokens.
	MarkEmailVerified(ctx context.Context, userID string) error
	SavePasswordReset(ctx context.Context, reset *domain.PasswordReset) error
	// GetPasswordReset returns the reset for token, or nil if not found.
	GetPasswordReset(ctx context.Context, token string) (*domain.PasswordReset, error)
	// ResetPassword replaces the user's password hash and discards their
	// reset tokens.
	ResetPassword(ctx context.Context, userID, passwordHash string) error
}
