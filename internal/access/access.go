// Package access holds the pure role lattice shared by households and
// stores. It answers "can user U do A" given role facts the caller already
// loaded; it performs no I/O and never returns errors.
package access

type Role string

const (
	RoleOwner  Role = "owner"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

// rank orders roles: owner(3) > editor(2) > viewer(1). Unknown roles rank 0.
func rank(r Role) int {
	switch r {
	case RoleOwner:
		return 3
	case RoleEditor:
		return 2
	case RoleViewer:
		return 1
	default:
		return 0
	}
}

// ValidHouseholdRole reports whether r is in the household role set.
func ValidHouseholdRole(r Role) bool {
	return r == RoleOwner || r == RoleEditor || r == RoleViewer
}

// ValidStoreRole reports whether r is in the store role set. Stores have no
// viewer tier; editor is the lowest direct store permission.
func ValidStoreRole(r Role) bool {
	return r == RoleOwner || r == RoleEditor
}

// AtLeast reports whether r meets the given threshold.
func AtLeast(r, threshold Role) bool {
	return rank(r) >= rank(threshold)
}

// Max returns the higher-ranked of two roles.
func Max(a, b Role) Role {
	if rank(a) >= rank(b) {
		return a
	}
	return b
}

// ResolveStoreRole combines a direct collaborator role with the role
// inherited from the store's owning household, taking the higher of the two.
// Either fact may be absent (nil). Returns nil when the user has no
// relationship to the store at all.
func ResolveStoreRole(direct, inherited *Role) *Role {
	switch {
	case direct == nil && inherited == nil:
		return nil
	case direct == nil:
		r := *inherited
		return &r
	case inherited == nil:
		r := *direct
		return &r
	default:
		r := Max(*direct, *inherited)
		return &r
	}
}

// CanInviteMembers reports whether a holder of role may create invitations
// for the scope. Editors and owners may invite.
func CanInviteMembers(role Role) bool {
	return AtLeast(role, RoleEditor)
}

// CanManageRoles reports whether a holder of role may change other members'
// roles or remove them. Owners only.
func CanManageRoles(role Role) bool {
	return role == RoleOwner
}

// CanEdit reports whether a holder of role may mutate scope data (catalog
// items, aisles, list entries).
func CanEdit(role Role) bool {
	return AtLeast(role, RoleEditor)
}
