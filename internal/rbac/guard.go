package rbac

// Guard describes one access predicate: a single Permission, or a list of
// Permissions matched as any-of (default) or all-of. A Guard with neither set
// denies.
type Guard struct {
	Permission  Permission
	Permissions []Permission
	RequireAll  bool
}

// Allows evaluates the guard against caps.
func (g Guard) Allows(caps *Capabilities) bool {
	switch {
	case g.Permission != "":
		return caps.Can(g.Permission)
	case len(g.Permissions) > 0:
		if g.RequireAll {
			return caps.CanAll(g.Permissions...)
		}
		return caps.CanAny(g.Permissions...)
	default:
		return false
	}
}

// Select returns children when g allows caps and fallback otherwise.
func Select[T any](g Guard, caps *Capabilities, children, fallback T) T {
	if g.Allows(caps) {
		return children
	}
	return fallback
}

// RequirePermission is shorthand for a single-permission guard.
func RequirePermission(p Permission) Guard {
	return Guard{Permission: p}
}

// RequireAnyOf is shorthand for an any-of guard.
func RequireAnyOf(perms ...Permission) Guard {
	return Guard{Permissions: perms}
}

// RequireAllOf is shorthand for an all-of guard.
func RequireAllOf(perms ...Permission) Guard {
	return Guard{Permissions: perms, RequireAll: true}
}
