package rbac

// HasPermission reports whether any role in roles grants perm.
func HasPermission(roles RoleSet, perm Permission) bool {
	for _, role := range roles.ordered {
		if _, ok := grants[role][perm]; ok {
			return true
		}
	}
	return false
}

// HasAnyPermission reports whether at least one of perms is granted.
// Asking for nothing is never satisfied.
func HasAnyPermission(roles RoleSet, perms ...Permission) bool {
	for _, p := range perms {
		if HasPermission(roles, p) {
			return true
		}
	}
	return false
}

// HasAllPermissions reports whether every one of perms is granted.
// Asking for nothing is always satisfied.
func HasAllPermissions(roles RoleSet, perms ...Permission) bool {
	for _, p := range perms {
		if !HasPermission(roles, p) {
			return false
		}
	}
	return true
}

// HasRole reports whether roles contains role.
func HasRole(roles RoleSet, role Role) bool {
	return roles.Has(role)
}

// HasAnyRole reports whether roles and candidates intersect.
func HasAnyRole(roles RoleSet, candidates ...Role) bool {
	for _, c := range candidates {
		if roles.Has(c) {
			return true
		}
	}
	return false
}

// AllPermissions returns the union of the permissions granted by each role.
func AllPermissions(roles RoleSet) PermissionSet {
	out := make(PermissionSet)
	for _, role := range roles.ordered {
		for perm := range grants[role] {
			out[perm] = struct{}{}
		}
	}
	return out
}
