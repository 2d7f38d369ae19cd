package repository

import (
	"context"

	"workspace-kit/internal/audit/domain"
)

// Repository defines persistence for audit entries.
type Repository interface {
	Create(ctx context.Context, e *domain.Entry) error
}
