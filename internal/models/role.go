package models

// Role is the access tier of a user (admin > manager > viewer).
type Role string

const (
	// RoleAdmin may create, edit, delete items and read history.
	RoleAdmin Role = "admin"
	// RoleManager may create and edit items and read history.
	RoleManager Role = "manager"
	// RoleViewer may only list items.
	RoleViewer Role = "viewer"
	// RoleUnknown is granted nothing beyond what a viewer sees.
	RoleUnknown Role = "unknown"
)

// ParseRole maps free text onto a known role, falling back to RoleUnknown.
func ParseRole(s string) Role {
	switch r := Role(s); r {
	case RoleAdmin, RoleManager, RoleViewer:
		return r
	default:
		return RoleUnknown
	}
}

func (r Role) elevated() bool {
	return r == RoleAdmin || r == RoleManager
}

// CanCreate reports whether the role may add items.
func (r Role) CanCreate() bool { return r.elevated() }

// CanEdit reports whether the role may update items.
func (r Role) CanEdit() bool { return r.elevated() }

// CanViewHistory reports whether the role may read an item's audit trail.
func (r Role) CanViewHistory() bool { return r.elevated() }

// CanDelete reports whether the role may remove items.
func (r Role) CanDelete() bool { return r == RoleAdmin }
