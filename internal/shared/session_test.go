package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rms-platform/rms-access/internal/rbac"
)

func newTestManager(t *testing.T) (*SessionManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionManager(client, "test_session", "secret", time.Hour, false), mr
}

func reload(t *testing.T, sm *SessionManager, id string) *Session {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: sm.CookieName(), Value: id})
	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	return sess
}

func TestSessionRoundTripsPrincipalRoles(t *testing.T) {
	sm, _ := newTestManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	require.NoError(t, err)
	assert.False(t, sess.Authenticated())
	assert.True(t, sess.Roles().Empty())

	sess.SetPrincipal(Principal{
		UserID:    42,
		Email:     "recruiter@rms.test",
		Roles:     rbac.ParseRoles([]string{"recruiter", "ROLE_HR"}),
		ExpiresAt: time.Now().Add(time.Hour),
	})
	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec, req, sess))

	loaded := reload(t, sm, sess.ID)
	require.True(t, loaded.Authenticated())
	p := loaded.Principal()
	assert.Equal(t, int64(42), p.UserID)
	assert.Equal(t, "recruiter@rms.test", p.Email)
	assert.Equal(t, []rbac.Role{rbac.RoleRecruiter, rbac.RoleHR}, p.Roles.Slice())
	assert.True(t, rbac.HasPermission(loaded.Roles(), rbac.PermJobCreate))
}

func TestSetPrincipalReplacesRoleSetIdentity(t *testing.T) {
	sm, _ := newTestManager(t)
	sess, err := sm.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	roles := rbac.NewRoleSet(rbac.RoleViewer)
	sess.SetPrincipal(Principal{UserID: 1, Roles: roles})
	assert.NotEqual(t, roles.Identity(), sess.Roles().Identity())

	accessor := rbac.NewAccessor(sess)
	before := accessor.Capabilities()
	assert.Same(t, before, accessor.Capabilities())

	sess.SetPrincipal(Principal{UserID: 1, Roles: rbac.NewRoleSet(rbac.RoleAdmin)})
	after := accessor.Capabilities()
	assert.NotSame(t, before, after)
	assert.True(t, after.Can(rbac.PermUserManageRoles))

	sess.ClearPrincipal()
	assert.False(t, accessor.Capabilities().Can(rbac.PermJobView))
}

func TestExpiredPrincipalIsDroppedOnLoad(t *testing.T) {
	sm, _ := newTestManager(t)
	ctx := context.Background()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	require.NoError(t, err)

	sess.SetPrincipal(Principal{UserID: 9, Roles: rbac.NewRoleSet(rbac.RoleAdmin), ExpiresAt: time.Now().Add(-time.Minute)})
	require.NoError(t, sm.Commit(ctx, httptest.NewRecorder(), req, sess))

	loaded := reload(t, sm, sess.ID)
	assert.False(t, loaded.Authenticated())
	assert.True(t, loaded.Roles().Empty())
}

func TestDestroyRemovesSession(t *testing.T) {
	sm, mr := newTestManager(t)
	ctx := context.Background()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	require.NoError(t, err)
	sess.SetPrincipal(Principal{UserID: 3, Roles: rbac.NewRoleSet(rbac.RoleHR)})
	require.NoError(t, sm.Commit(ctx, httptest.NewRecorder(), req, sess))
	assert.True(t, mr.Exists("session:"+sess.ID))

	sm.Destroy(sess)
	assert.False(t, sess.Authenticated())
	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec, req, sess))
	assert.False(t, mr.Exists("session:"+sess.ID))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestFlashesAreShownOnce(t *testing.T) {
	sm, _ := newTestManager(t)
	ctx := context.Background()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	require.NoError(t, err)
	sess.AddFlash(FlashMessage{Kind: "success", Message: "Welcome back"})
	require.NoError(t, sm.Commit(ctx, httptest.NewRecorder(), req, sess))

	loaded := reload(t, sm, sess.ID)
	flash := loaded.PopFlash()
	require.NotNil(t, flash)
	assert.Equal(t, "Welcome back", flash.Message)
	assert.Nil(t, loaded.PopFlash())
	require.NoError(t, sm.Commit(ctx, httptest.NewRecorder(), req, loaded))

	assert.Nil(t, reload(t, sm, sess.ID).PopFlash())
}

func TestNilSessionHelpers(t *testing.T) {
	var sess *Session
	assert.Nil(t, sess.Principal())
	assert.False(t, sess.Authenticated())
	assert.True(t, sess.Roles().Empty())
	assert.Nil(t, PrincipalFromContext(context.Background()))
}

func TestCSRFTokenLifecycle(t *testing.T) {
	sm, _ := newTestManager(t)
	csrf := NewCSRFManager("csrfsecret")
	ctx := context.Background()
	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	token, err := csrf.EnsureToken(ctx, sess)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	again, err := csrf.EnsureToken(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, token, again)

	assert.NoError(t, csrf.VerifyToken(ctx, sess, token))
	assert.ErrorIs(t, csrf.VerifyToken(ctx, sess, "forged"), ErrCSRFTokenMismatch)
	assert.ErrorIs(t, csrf.VerifyToken(ctx, sess, ""), ErrCSRFTokenMissing)
	_, err = csrf.EnsureToken(ctx, nil)
	assert.ErrorIs(t, err, ErrCSRFTokenMissing)
}

func TestCSRFRotateInvalidatesPreviousToken(t *testing.T) {
	sm, _ := newTestManager(t)
	csrf := NewCSRFManager("csrfsecret")
	ctx := context.Background()
	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	before, err := csrf.EnsureToken(ctx, sess)
	require.NoError(t, err)
	after, err := csrf.Rotate(ctx, sess)
	require.NoError(t, err)

	assert.NotEqual(t, before, after)
	assert.ErrorIs(t, csrf.VerifyToken(ctx, sess, before), ErrCSRFTokenMismatch)
	assert.NoError(t, csrf.VerifyToken(ctx, sess, after))

	_, err = csrf.Rotate(ctx, nil)
	assert.ErrorIs(t, err, ErrCSRFTokenMissing)
}

func TestUnknownCookieIsNotAdopted(t *testing.T) {
	sm, mr := newTestManager(t)
	sess := reload(t, sm, "attacker-chosen-id")
	assert.NotEqual(t, "attacker-chosen-id", sess.ID)

	require.NoError(t, sm.Commit(context.Background(), httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil), sess))
	assert.False(t, mr.Exists("session:attacker-chosen-id"))
}

func TestSetPrincipalMovesSessionToNewID(t *testing.T) {
	sm, mr := newTestManager(t)
	ctx := context.Background()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	anon, err := sm.Load(ctx, req)
	require.NoError(t, err)
	anon.Set("csrf_token", "before")
	require.NoError(t, sm.Commit(ctx, httptest.NewRecorder(), req, anon))
	oldID := anon.ID
	require.True(t, mr.Exists("session:"+oldID))

	sess := reload(t, sm, oldID)
	sess.SetPrincipal(Principal{UserID: 5, Roles: rbac.NewRoleSet(rbac.RoleHR)})
	assert.NotEqual(t, oldID, sess.ID)

	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec, req, sess))
	assert.False(t, mr.Exists("session:"+oldID))
	assert.True(t, mr.Exists("session:"+sess.ID))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, sess.ID, cookies[0].Value)

	assert.False(t, reload(t, sm, oldID).Authenticated())
	loaded := reload(t, sm, sess.ID)
	require.True(t, loaded.Authenticated())
	assert.Equal(t, "before", loaded.Get("csrf_token"))
}
