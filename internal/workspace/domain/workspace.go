package domain

import (
	"errors"
	"time"

	"workspace-kit/internal/permission"
)

// Workspace is the tenant boundary. Every role, membership and permission
// grant lives inside exactly one workspace.
type Workspace struct {
	ID          string
	Name        string
	OwnerUserID string
	InviteCode  string
	IsDefault   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate validates the workspace for persistence.
func (w *Workspace) Validate() error {
	if w.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

// Access is one user's view of one workspace: the workspace itself, the role
// the user holds in it and what that role allows.
type Access struct {
	Workspace Workspace
	RoleID    string
	RoleName  string
	Grant     permission.Grant
}

// Summary is the list row for the workspaces a user belongs to.
type Summary struct {
	ID         string
	Name       string
	InviteCode string
	IsDefault  bool
	RoleName   string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
