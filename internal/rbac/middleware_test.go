package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type decisionCounter struct {
	granted int
	denied  int
}

func (d *decisionCounter) RecordAccessDecision(granted bool) {
	if granted {
		d.granted++
		return
	}
	d.denied++
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func serveAs(h http.Handler, roles ...Role) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if roles != nil {
		req = req.WithContext(WithAccessor(req.Context(), NewAccessor(StaticRoles(roles...))))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRequireAny(t *testing.T) {
	counter := &decisionCounter{}
	mw := Middleware{Recorder: counter}
	h := mw.RequireAny(PermJobCreate, PermJobEdit)(okHandler)

	assert.Equal(t, http.StatusNoContent, serveAs(h, RoleHR).Code)
	assert.Equal(t, http.StatusForbidden, serveAs(h, RoleViewer).Code)
	assert.Equal(t, http.StatusForbidden, serveAs(h).Code)
	assert.Equal(t, 1, counter.granted)
	assert.Equal(t, 2, counter.denied)
}

func TestRequireAllNormalisesPermissions(t *testing.T) {
	h := Middleware{}.RequireAll(" JOB:VIEW ", "job:edit", "job:view", "")(okHandler)

	assert.Equal(t, http.StatusNoContent, serveAs(h, RoleHR).Code)
	assert.Equal(t, http.StatusForbidden, serveAs(h, RoleViewer).Code)
}

func TestRequireAnyWithNothingDenies(t *testing.T) {
	h := Middleware{}.RequireAny()(okHandler)
	assert.Equal(t, http.StatusForbidden, serveAs(h, RoleAdmin).Code)
}

func TestRequireRole(t *testing.T) {
	h := Middleware{}.RequireRole(RoleAdmin, RoleRecruiter)(okHandler)

	assert.Equal(t, http.StatusNoContent, serveAs(h, RoleRecruiter).Code)
	assert.Equal(t, http.StatusForbidden, serveAs(h, RoleHR, RoleCandidate).Code)
}

func TestGuardFallback(t *testing.T) {
	fallback := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := Middleware{}.Guard(RequirePermission(PermUserManageRoles), fallback)(okHandler)

	assert.Equal(t, http.StatusNoContent, serveAs(h, RoleAdmin).Code)
	assert.Equal(t, http.StatusTeapot, serveAs(h, RoleRecruiter).Code)
}

func TestGuardWithoutAccessorDenies(t *testing.T) {
	h := Middleware{}.Guard(RequirePermission(PermJobView), nil)(okHandler)
	assert.Equal(t, http.StatusForbidden, serveAs(h).Code)
}

func TestDeniedResponseIsProblem(t *testing.T) {
	rec := serveAs(Middleware{}.RequireAny(PermUserManageRoles)(okHandler), RoleRecruiter)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"title":"Forbidden"`)
}
