package repository

import (
	"context"

	"workspace-kit/internal/membership/domain"
)

// Repository defines persistence for workspace memberships.
type Repository interface {
	// FindJoinTarget resolves an invite code to its workspace and the
	// non-admin role whose name sorts first. Returns empty ids if the code
	// matches nothing.
	FindJoinTarget(ctx context.Context, inviteCode string) (workspaceID, roleID string, err error)
	// AddMember inserts the membership, doing nothing if the pair already
	// exists. Reports whether a row was inserted.
	AddMember(ctx context.Context, workspaceID, userID, roleID string) (bool, error)
	// Remove deletes the membership. Removing a non-member is a no-op.
	Remove(ctx context.Context, workspaceID, userID string) error
	ListMembers(ctx context.Context, workspaceID string) ([]domain.Member, error)
	UpdateMemberRole(ctx context.Context, workspaceID, userID, roleID string) error
}
