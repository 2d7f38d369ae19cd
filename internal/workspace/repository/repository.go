package repository

import (
	"context"

	"workspace-kit/internal/workspace/domain"
)

// Repository defines persistence for workspaces and workspace access.
type Repository interface {
	// Create inserts the workspace together with its protected admin role and
	// the owner's membership in one transaction. The first workspace a user
	// creates becomes their default.
	Create(ctx context.Context, name, ownerUserID string) (*domain.Workspace, error)
	// ResolveAccess returns the user's access to the given workspace, or to
	// their default workspace when workspaceID is empty. Returns nil if the
	// user has no membership there.
	ResolveAccess(ctx context.Context, userID, workspaceID string) (*domain.Access, error)
	UpdateName(ctx context.Context, workspaceID, name string) error
	Delete(ctx context.Context, workspaceID string) error
	ListForUser(ctx context.Context, userID string) ([]domain.Summary, error)
}
