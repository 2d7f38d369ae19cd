// Package service implements invite-code joins and membership management.
package service

import (
	"context"
	"errors"

	"workspace-kit/internal/membership/domain"
)

// ErrInvalidInviteCode covers every join failure: unknown code, a workspace
// with no joinable role, and an existing membership. Callers cannot tell
// these apart.
var ErrInvalidInviteCode = errors.New("invalid invite code")

// MembershipRepo is the minimal membership repository needed by the service.
type MembershipRepo interface {
	FindJoinTarget(ctx context.Context, inviteCode string) (workspaceID, roleID string, err error)
	AddMember(ctx context.Context, workspaceID, userID, roleID string) (bool, error)
	Remove(ctx context.Context, workspaceID, userID string) error
	ListMembers(ctx context.Context, workspaceID string) ([]domain.Member, error)
	UpdateMemberRole(ctx context.Context, workspaceID, userID, roleID string) error
}

// MembershipService wraps the membership repository with join semantics.
type MembershipService struct {
	repo MembershipRepo
}

// NewMembershipService returns a MembershipService backed by repo.
func NewMembershipService(repo MembershipRepo) *MembershipService {
	return &MembershipService{repo: repo}
}

// Join redeems an invite code for the user and returns the workspace joined.
// The role assigned is the workspace's lexically first non-admin role. The
// insert does nothing on conflict, so concurrent joins by the same user
// produce at most one membership.
func (s *MembershipService) Join(ctx context.Context, userID, inviteCode string) (string, error) {
	workspaceID, roleID, err := s.repo.FindJoinTarget(ctx, inviteCode)
	if err != nil {
		return "", err
	}
	if workspaceID == "" {
		return "", ErrInvalidInviteCode
	}
	inserted, err := s.repo.AddMember(ctx, workspaceID, userID, roleID)
	if err != nil {
		return "", err
	}
	if !inserted {
		return "", ErrInvalidInviteCode
	}
	return workspaceID, nil
}

// Remove deletes the member from the workspace. Removing someone who is not
// a member succeeds without effect.
func (s *MembershipService) Remove(ctx context.Context, workspaceID, userID string) error {
	return s.repo.Remove(ctx, workspaceID, userID)
}

// ListMembers returns the workspace's members with their role names.
func (s *MembershipService) ListMembers(ctx context.Context, workspaceID string) ([]domain.Member, error) {
	return s.repo.ListMembers(ctx, workspaceID)
}

// AssignRole rebinds the member to another role in the workspace.
func (s *MembershipService) AssignRole(ctx context.Context, workspaceID, userID, roleID string) error {
	return s.repo.UpdateMemberRole(ctx, workspaceID, userID, roleID)
}
