package rbac

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/rms-platform/rms-access/internal/platform/httpx"
)

// DecisionRecorder receives every middleware access decision.
type DecisionRecorder interface {
	RecordAccessDecision(granted bool)
}

// Middleware wires RBAC authorization helpers for HTTP handlers. The request
// principal is read from the Accessor stored in the request context.
type Middleware struct {
	Logger   *slog.Logger
	Recorder DecisionRecorder
}

// RequireAny ensures the current principal has at least one of the required permissions.
func (m Middleware) RequireAny(perms ...Permission) func(http.Handler) http.Handler {
	return m.Guard(RequireAnyOf(normalizePermissions(perms)...), nil)
}

// RequireAll ensures the current principal has all required permissions.
func (m Middleware) RequireAll(perms ...Permission) func(http.Handler) http.Handler {
	return m.Guard(RequireAllOf(normalizePermissions(perms)...), nil)
}

// RequireRole ensures the current principal holds at least one of roles.
func (m Middleware) RequireRole(roles ...Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caps := CapabilitiesFromContext(r.Context())
			granted := caps.IsAny(roles...)
			m.record(r, granted)
			if granted {
				next.ServeHTTP(w, r)
				return
			}
			forbidden(w, r)
		})
	}
}

// Guard serves next when g allows the request principal and fallback
// otherwise. A nil fallback answers 403.
func (m Middleware) Guard(g Guard, fallback http.Handler) func(http.Handler) http.Handler {
	if fallback == nil {
		fallback = http.HandlerFunc(forbidden)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caps := CapabilitiesFromContext(r.Context())
			granted := g.Allows(caps)
			m.record(r, granted)
			if granted {
				next.ServeHTTP(w, r)
				return
			}
			fallback.ServeHTTP(w, r)
		})
	}
}

func (m Middleware) record(r *http.Request, granted bool) {
	if m.Recorder != nil {
		m.Recorder.RecordAccessDecision(granted)
	}
	if !granted && m.Logger != nil {
		m.Logger.Debug("rbac denied", slog.String("path", r.URL.Path))
	}
}

func forbidden(w http.ResponseWriter, _ *http.Request) {
	httpx.Problem(w, http.StatusForbidden, "", DeniedMessage("access this resource"))
}

func normalizePermissions(perms []Permission) []Permission {
	unique := make(map[Permission]struct{}, len(perms))
	normalized := make([]Permission, 0, len(perms))
	for _, p := range perms {
		p = Permission(strings.TrimSpace(strings.ToLower(string(p))))
		if p == "" {
			continue
		}
		if _, dup := unique[p]; dup {
			continue
		}
		unique[p] = struct{}{}
		normalized = append(normalized, p)
	}
	return normalized
}
