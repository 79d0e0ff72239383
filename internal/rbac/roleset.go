package rbac

import (
	"strings"
	"sync/atomic"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// RoleSet is an immutable set of roles. Every constructed RoleSet carries its
// own identity, so a replaced set is distinguishable from the previous one
// even when the members are equal. The zero value is the empty set.
type RoleSet struct {
	id      uint64
	members map[Role]struct{}
	ordered []Role
}

var roleSetSeq atomic.Uint64

// NewRoleSet builds a RoleSet from roles, dropping empty values and duplicates
// while keeping first-seen order.
func NewRoleSet(roles ...Role) RoleSet {
	set := RoleSet{
		id:      roleSetSeq.Add(1),
		members: make(map[Role]struct{}, len(roles)),
		ordered: make([]Role, 0, len(roles)),
	}
	for _, r := range roles {
		if r == "" {
			continue
		}
		if _, dup := set.members[r]; dup {
			continue
		}
		set.members[r] = struct{}{}
		set.ordered = append(set.ordered, r)
	}
	return set
}

// ParseRoles canonicalises raw role identifiers into a RoleSet. Values outside
// the catalog are kept and grant nothing.
func ParseRoles(raw []string) RoleSet {
	roles := make([]Role, 0, len(raw))
	for _, value := range raw {
		roles = append(roles, ParseRole(value))
	}
	return NewRoleSet(roles...)
}

// ParseRole canonicalises a wire role value: surrounding space is trimmed, a
// ROLE_ prefix is removed and the result is upper-cased.
func ParseRole(raw string) Role {
	value := cases.Upper(language.Und).String(strings.TrimSpace(raw))
	value = strings.TrimPrefix(value, "ROLE_")
	return Role(value)
}

// Identity returns the construction identity. The zero RoleSet reports 0.
func (s RoleSet) Identity() uint64 {
	return s.id
}

// Has reports membership.
func (s RoleSet) Has(role Role) bool {
	_, ok := s.members[role]
	return ok
}

// Len returns the number of roles.
func (s RoleSet) Len() int {
	return len(s.ordered)
}

// Empty reports whether the set holds no roles.
func (s RoleSet) Empty() bool {
	return len(s.ordered) == 0
}

// Slice returns a copy of the members in insertion order.
func (s RoleSet) Slice() []Role {
	out := make([]Role, len(s.ordered))
	copy(out, s.ordered)
	return out
}

// Strings returns the members as plain strings, for session payloads and JSON.
func (s RoleSet) Strings() []string {
	out := make([]string, len(s.ordered))
	for i, r := range s.ordered {
		out[i] = string(r)
	}
	return out
}

// Union returns a new RoleSet holding the members of both sets.
func (s RoleSet) Union(other RoleSet) RoleSet {
	roles := make([]Role, 0, s.Len()+other.Len())
	roles = append(roles, s.ordered...)
	roles = append(roles, other.ordered...)
	return NewRoleSet(roles...)
}

// PermissionSet is the derived set of permissions for a RoleSet.
type PermissionSet map[Permission]struct{}

// Has reports membership.
func (p PermissionSet) Has(perm Permission) bool {
	_, ok := p[perm]
	return ok
}

// Sorted lists the members in catalog declaration order. Permissions outside
// the catalog are never produced by the catalog and are not listed.
func (p PermissionSet) Sorted() []Permission {
	out := make([]Permission, 0, len(p))
	for _, perm := range permissionOrder {
		if _, ok := p[perm]; ok {
			out = append(out, perm)
		}
	}
	return out
}

// Strings lists the members as plain strings in catalog order.
func (p PermissionSet) Strings() []string {
	sorted := p.Sorted()
	out := make([]string, len(sorted))
	for i, perm := range sorted {
		out[i] = string(perm)
	}
	return out
}

// Equal reports whether both sets hold the same permissions.
func (p PermissionSet) Equal(other PermissionSet) bool {
	if len(p) != len(other) {
		return false
	}
	for perm := range p {
		if _, ok := other[perm]; !ok {
			return false
		}
	}
	return true
}
