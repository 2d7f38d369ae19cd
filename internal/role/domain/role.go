package domain

import (
	"errors"

	"workspace-kit/internal/permission"
)

// AdminRoleName is the protected role created with every workspace. It is
// never listed, never editable and never deletable, and it implicitly grants
// the whole permission catalog.
const AdminRoleName = "Admin"

// Role is a named permission set scoped to one workspace.
type Role struct {
	ID          string
	WorkspaceID string
	Name        string
	Description string
	Permissions []string
}

// Validate validates the role for persistence, including that every named
// permission is part of the catalog.
func (r *Role) Validate() error {
	if r.Name == "" {
		return errors.New("name is required")
	}
	if r.Name == AdminRoleName {
		return errors.New("role name is reserved")
	}
	for _, name := range r.Permissions {
		if !permission.Valid(name) {
			return errors.New("unknown permission: " + name)
		}
	}
	return nil
}
