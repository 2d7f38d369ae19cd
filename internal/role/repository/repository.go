package repository

import (
	"context"
	"errors"

	"workspace-kit/internal/role/domain"
)

// ErrRoleNotFound is returned for roles that do not exist in the workspace.
// Operations on the protected admin role report it as well, so the admin role
// is indistinguishable from a role that is not there.
var ErrRoleNotFound = errors.New("role not found")

// Repository defines persistence for workspace roles.
type Repository interface {
	// ListWithPermissions returns the workspace's roles with their permission
	// names folded in. The protected admin role is never included.
	ListWithPermissions(ctx context.Context, workspaceID string) ([]domain.Role, error)
	// Create inserts the role and its permission links in one transaction.
	// The role must have ID set; it is not assigned by this method.
	Create(ctx context.Context, role *domain.Role) error
	// Update renames the role and replaces its permission links wholesale.
	Update(ctx context.Context, role *domain.Role) error
	Delete(ctx context.Context, workspaceID, roleID string) error
	// ResolveIDByName returns the id of the named role, or "" if not found.
	ResolveIDByName(ctx context.Context, workspaceID, name string) (string, error)
}
