package rbac

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogIsValid(t *testing.T) {
	require.NoError(t, ValidateCatalog())
}

func TestCatalogEveryRoleHasEntry(t *testing.T) {
	for _, role := range Roles() {
		assert.True(t, IsKnownRole(role), "role %s", role)
	}
	assert.Len(t, rolePermissions, len(Roles()))
}

func TestCatalogHasNoOrphanPermissions(t *testing.T) {
	granted := make(map[Permission]bool)
	for _, role := range Roles() {
		for _, p := range PermissionsForRole(role) {
			granted[p] = true
		}
	}
	for _, p := range Permissions() {
		assert.True(t, granted[p], "permission %s is granted by no role", p)
	}
}

func TestPermissionsForUnknownRoleIsEmpty(t *testing.T) {
	perms := PermissionsForRole(Role("SUPERUSER"))
	assert.NotNil(t, perms)
	assert.Empty(t, perms)
	assert.False(t, IsKnownRole(Role("SUPERUSER")))
}

func TestPermissionsForRoleReturnsCopy(t *testing.T) {
	perms := PermissionsForRole(RoleViewer)
	require.NotEmpty(t, perms)
	perms[0] = Permission("tampered")
	assert.Equal(t, PermJobView, PermissionsForRole(RoleViewer)[0])
}

func TestCandidateGrantsNothing(t *testing.T) {
	assert.True(t, IsKnownRole(RoleCandidate))
	assert.Empty(t, PermissionsForRole(RoleCandidate))
}

func TestIsKnownPermission(t *testing.T) {
	assert.True(t, IsKnownPermission(PermInterviewFinalDecision))
	assert.False(t, IsKnownPermission(Permission("job:archive")))
	assert.False(t, IsKnownPermission(Permission("JOB:CREATE")))
}

func TestValidateTableReportsEveryProblem(t *testing.T) {
	roles := []Role{RoleAdmin, RoleViewer}
	perms := []Permission{PermJobView, PermJobCreate}
	table := map[Role][]Permission{
		RoleAdmin:     {PermJobView, PermJobView, Permission("job:archive")},
		Role("GHOST"): {PermJobCreate},
	}

	err := validateTable(roles, perms, table)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidCatalog))
	msg := err.Error()
	assert.Contains(t, msg, "role VIEWER has no entry")
	assert.Contains(t, msg, "role GHOST is not enumerated")
	assert.Contains(t, msg, `grants unknown permission "job:archive"`)
	assert.Contains(t, msg, `grants "job:view" twice`)
}

func TestRoleAndPermissionListsAreCopies(t *testing.T) {
	roles := Roles()
	roles[0] = Role("X")
	assert.Equal(t, RoleAdmin, Roles()[0])

	perms := Permissions()
	perms[0] = Permission("x")
	assert.Equal(t, PermJobCreate, Permissions()[0])
}
