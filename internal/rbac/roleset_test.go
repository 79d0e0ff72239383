package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRoleCanonicalises(t *testing.T) {
	cases := map[string]Role{
		"RECRUITER":         RoleRecruiter,
		"recruiter":         RoleRecruiter,
		"  hr ":             RoleHR,
		"ROLE_ADMIN":        RoleAdmin,
		"role_interviewer":  RoleInterviewer,
		"Candidate":         RoleCandidate,
		"":                  Role(""),
		"something-unknown": Role("SOMETHING-UNKNOWN"),
	}
	for raw, want := range cases {
		assert.Equal(t, want, ParseRole(raw), "raw=%q", raw)
	}
}

func TestParseRolesDropsEmptyAndDuplicates(t *testing.T) {
	set := ParseRoles([]string{"admin", "", "ADMIN", "ROLE_candidate", "  "})
	assert.Equal(t, []Role{RoleAdmin, RoleCandidate}, set.Slice())
	assert.Equal(t, 2, set.Len())
	assert.False(t, set.Empty())
}

func TestRoleSetIdentityIsPerConstruction(t *testing.T) {
	a := NewRoleSet(RoleViewer)
	b := NewRoleSet(RoleViewer)
	assert.NotZero(t, a.Identity())
	assert.NotEqual(t, a.Identity(), b.Identity())

	copied := a
	assert.Equal(t, a.Identity(), copied.Identity())

	var zero RoleSet
	assert.Zero(t, zero.Identity())
	assert.True(t, zero.Empty())
	assert.Empty(t, zero.Slice())
	assert.False(t, zero.Has(RoleAdmin))
}

func TestRoleSetSliceIsCopy(t *testing.T) {
	set := NewRoleSet(RoleHR, RoleViewer)
	slice := set.Slice()
	slice[0] = RoleAdmin
	assert.True(t, set.Has(RoleHR))
	assert.False(t, set.Has(RoleAdmin))
	assert.Equal(t, []string{"HR", "VIEWER"}, set.Strings())
}

func TestRoleSetUnion(t *testing.T) {
	left := NewRoleSet(RoleHR, RoleViewer)
	right := NewRoleSet(RoleViewer, RoleCandidate)
	union := left.Union(right)

	assert.Equal(t, []Role{RoleHR, RoleViewer, RoleCandidate}, union.Slice())
	assert.NotEqual(t, left.Identity(), union.Identity())
	assert.Equal(t, 2, left.Len())
}
