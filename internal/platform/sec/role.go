// Copyright (c) 2026 Libria. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// # User Roles

// Role represents the authorization level granted to an account.
type Role string

const (
	// Unrestricted system access, including destructive operations
	RoleSuperAdmin Role = "super_admin"

	// Can manage accounts and delete catalog entries
	RoleAdmin Role = "admin"

	// Can create and edit catalog entries and manage circulation
	RoleLibrarian Role = "librarian"

	// Default role for standard registered users
	RoleMember Role = "member"
)

// # Role Hierarchy

// AtLeast checks if the current role meets or exceeds the required target role.
func (r Role) AtLeast(target Role) bool {
	return r.level() >= target.level()
}

// level maps a role to a numeric hierarchy level for comparison logic.
func (r Role) level() int {

	// Linear scale (10-40) allows for future intermediate roles
	switch r {
	case RoleSuperAdmin:
		return 40
	case RoleAdmin:
		return 30
	case RoleLibrarian:
		return 20
	case RoleMember:
		return 10
	default:
		return 0
	}
}
