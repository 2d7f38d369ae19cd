// Package permission defines the closed catalog of grantable capabilities and
// the authorization check performed against a caller's resolved grant.
package permission

// Permission is one identifier from the fixed catalog. It serializes to the
// same wire string the store and API use.
type Permission string

const (
	UpdateWorkspace      Permission = "update_workspace"
	DeleteWorkspace      Permission = "delete_workspace"
	ManageRoles          Permission = "manage_roles"
	ManagePermissions    Permission = "manage_permissions"
	InviteMembers        Permission = "invite_members"
	ViewMembers          Permission = "view_members"
	ViewRoles            Permission = "view_roles"
	ViewPermissions      Permission = "view_permissions"
	RemoveMembers        Permission = "remove_members"
	AssignRolesToMembers Permission = "assign_roles_to_members"
)

// All returns the full catalog in its canonical order.
func All() []Permission {
	return []Permission{
		UpdateWorkspace,
		DeleteWorkspace,
		ManageRoles,
		ManagePermissions,
		InviteMembers,
		ViewMembers,
		ViewRoles,
		ViewPermissions,
		RemoveMembers,
		AssignRolesToMembers,
	}
}

// AllNames returns the catalog as wire strings.
func AllNames() []string {
	all := All()
	names := make([]string, len(all))
	for i, p := range all {
		names[i] = string(p)
	}
	return names
}

// Valid reports whether name is a member of the catalog. The comparison is
// case-sensitive and exact.
func Valid(name string) bool {
	for _, p := range All() {
		if string(p) == name {
			return true
		}
	}
	return false
}

func (p Permission) String() string { return string(p) }
