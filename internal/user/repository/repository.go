package repository

import (
	"context"
	"time"

	"workspace-kit/internal/user/domain"
)

// Repository defines persistence for users.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	// RequestEmailChange stores the pending address and its confirmation token
	// on the user row without touching the live email.
	RequestEmailChange(ctx context.Context, userID, email, token string, expiresAt time.Time) (*domain.User, error)
	// ConfirmEmailChange swaps email to the pending address for the user whose
	// unexpired pending token matches. Returns false when no row matched.
	ConfirmEmailChange(ctx context.Context, token string) (bool, error)
}
