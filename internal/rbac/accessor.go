package rbac

import (
	"context"
	"sync/atomic"
)

// RoleSource yields the current principal's role set. Implementations own
// the set; the accessor only reads it.
type RoleSource interface {
	Roles() RoleSet
}

// RoleSourceFunc adapts a function to RoleSource.
type RoleSourceFunc func() RoleSet

// Roles implements RoleSource.
func (f RoleSourceFunc) Roles() RoleSet {
	return f()
}

// StaticRoles is a RoleSource that always returns the same set.
func StaticRoles(roles ...Role) RoleSource {
	set := NewRoleSet(roles...)
	return RoleSourceFunc(func() RoleSet { return set })
}

// Capabilities is the query engine bound to one RoleSet.
type Capabilities struct {
	roles RoleSet
}

// Bind returns Capabilities for roles.
func Bind(roles RoleSet) *Capabilities {
	return &Capabilities{roles: roles}
}

// Can reports whether perm is granted.
func (c *Capabilities) Can(perm Permission) bool {
	if c == nil {
		return false
	}
	return HasPermission(c.roles, perm)
}

// CanAny reports whether any of perms is granted.
func (c *Capabilities) CanAny(perms ...Permission) bool {
	if c == nil {
		return false
	}
	return HasAnyPermission(c.roles, perms...)
}

// CanAll reports whether all of perms are granted.
func (c *Capabilities) CanAll(perms ...Permission) bool {
	if c == nil {
		return len(perms) == 0
	}
	return HasAllPermissions(c.roles, perms...)
}

// Is reports whether the principal holds role.
func (c *Capabilities) Is(role Role) bool {
	if c == nil {
		return false
	}
	return HasRole(c.roles, role)
}

// IsAny reports whether the principal holds any of roles.
func (c *Capabilities) IsAny(roles ...Role) bool {
	if c == nil {
		return false
	}
	return HasAnyRole(c.roles, roles...)
}

// All returns the derived permission set. It is recomputed on every call.
func (c *Capabilities) All() PermissionSet {
	if c == nil {
		return PermissionSet{}
	}
	return AllPermissions(c.roles)
}

// Roles returns the bound role set.
func (c *Capabilities) Roles() RoleSet {
	if c == nil {
		return RoleSet{}
	}
	return c.roles
}

// Accessor exposes Capabilities for a live RoleSource. The bound object is
// rebuilt only when the source hands out a RoleSet with a different identity.
// Safe for concurrent use.
type Accessor struct {
	source RoleSource
	bound  atomic.Pointer[Capabilities]
}

// NewAccessor constructs an Accessor over src. A nil src behaves as an empty
// role set.
func NewAccessor(src RoleSource) *Accessor {
	return &Accessor{source: src}
}

// Capabilities returns the bound query object for the source's current roles.
func (a *Accessor) Capabilities() *Capabilities {
	if a == nil || a.source == nil {
		return Bind(RoleSet{})
	}
	roles := a.source.Roles()
	if current := a.bound.Load(); current != nil && current.roles.id == roles.id {
		return current
	}
	next := Bind(roles)
	a.bound.Store(next)
	return next
}

type accessorContextKey struct{}

// WithAccessor stores the accessor in ctx.
func WithAccessor(ctx context.Context, a *Accessor) context.Context {
	return context.WithValue(ctx, accessorContextKey{}, a)
}

// AccessorFromContext returns the request accessor, or nil.
func AccessorFromContext(ctx context.Context) *Accessor {
	a, _ := ctx.Value(accessorContextKey{}).(*Accessor)
	return a
}

// CapabilitiesFromContext returns the capabilities of the request principal.
// Without an accessor the empty role set is used, so every check denies.
func CapabilitiesFromContext(ctx context.Context) *Capabilities {
	return AccessorFromContext(ctx).Capabilities()
}
