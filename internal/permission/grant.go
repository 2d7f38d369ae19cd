package permission

// Grant is a caller's resolved capability set within one workspace: either the
// implicit full-catalog Admin grant, or the explicit set a custom role carries
// through its role_permissions links. The Admin variant is never materialized
// as links in the store.
type Grant struct {
	Admin       bool
	Permissions []string
}

// CustomGrant returns the grant for a non-Admin role with the given permission
// names. A nil slice is normalized to an empty one so callers always see a set.
func CustomGrant(names []string) Grant {
	if names == nil {
		names = []string{}
	}
	return Grant{Permissions: names}
}

// AdminGrant returns the implicit full-access grant of the protected Admin role.
func AdminGrant() Grant {
	return Grant{Admin: true, Permissions: AllNames()}
}

// Allows reports whether the grant covers the required permission. The Admin
// variant allows everything in the catalog; a custom grant allows exactly the
// names it carries, compared case-sensitively.
func (g Grant) Allows(required Permission) bool {
	if g.Admin {
		return true
	}
	for _, name := range g.Permissions {
		if name == string(required) {
			return true
		}
	}
	return false
}

// Names returns the wire-string permission list of the grant: the full catalog
// for Admin, the explicit set otherwise. Never nil.
func (g Grant) Names() []string {
	if g.Admin {
		return AllNames()
	}
	if g.Permissions == nil {
		return []string{}
	}
	return g.Permissions
}
