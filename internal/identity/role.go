// internal/identity/role.go
package identity

import "strings"

// Role is the privilege level of a subject. Roles form a total order,
// Resident < Admin < SuperAdmin, and are compared by rank only.
type Role int

const (
	// RoleResident is the lowest privilege level: a tenant of a single house
	RoleResident Role = iota
	// RoleAdmin manages one or more houses
	RoleAdmin
	// RoleSuperAdmin has implicit access to every house
	RoleSuperAdmin
)

// roleNames maps each role to its canonical wire token
var roleNames = map[Role]string{
	RoleResident:   "resident",
	RoleAdmin:      "admin",
	RoleSuperAdmin: "superadmin",
}

// String returns the canonical token for the role
func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return "resident"
}

// AtLeast reports whether the role meets a minimum required role
func (r Role) AtLeast(min Role) bool {
	return r >= min
}

// ParseRole decodes a role token. Unknown or empty values decode to
// RoleResident so that a malformed session can never escalate privilege.
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "superadmin":
		return RoleSuperAdmin
	case "admin":
		return RoleAdmin
	default:
		return RoleResident
	}
}

// ValidRole reports whether s is one of the three recognized role tokens.
// Used for startup validation of the route table.
func ValidRole(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "resident", "admin", "superadmin":
		return true
	}
	return false
}
