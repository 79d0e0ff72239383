package access

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/rms-platform/rms-access/internal/platform/httpx"
	"github.com/rms-platform/rms-access/internal/rbac"
	"github.com/rms-platform/rms-access/internal/shared"
	"github.com/rms-platform/rms-access/internal/view"
)

// Handler serves the catalog matrix, the workspace sections and the access
// JSON API.
type Handler struct {
	logger    *slog.Logger
	templates *view.Engine
	csrf      *shared.CSRFManager
	rbac      rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, templates *view.Engine, csrf *shared.CSRFManager, mw rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, templates: templates, csrf: csrf, rbac: mw}
}

// MountRoutes registers the HTML pages.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Guard(rbac.RequirePermission(rbac.PermUserManageRoles), h.deniedPage("manage roles")))
		r.Get("/permissions", h.listPermissions)
	})
	for _, section := range Sections() {
		r.Get("/"+section.Slug, h.sectionPage(section))
	}
}

// MountAPI registers the JSON endpoints.
func (h *Handler) MountAPI(r chi.Router) {
	r.Get("/catalog", h.catalog)
	r.Get("/me", h.me)
	r.Get("/check", h.check)
	r.Get("/sections/{slug}", h.section)
}

type permissionRow struct {
	Permission  rbac.Permission
	Description string
	Granted     map[rbac.Role]bool
}

func (h *Handler) listPermissions(w http.ResponseWriter, r *http.Request) {
	roles := rbac.Roles()
	rows := make([]permissionRow, 0, len(rbac.Permissions()))
	for _, p := range rbac.Permissions() {
		row := permissionRow{Permission: p, Description: rbac.PermissionDescription(p), Granted: make(map[rbac.Role]bool, len(roles))}
		for _, role := range roles {
			row.Granted[role] = rbac.HasPermission(rbac.NewRoleSet(role), p)
		}
		rows = append(rows, row)
	}
	h.render(w, r, "Permissions", "pages/permissions.html", map[string]any{"Roles": roles, "Rows": rows}, http.StatusOK)
}

func (h *Handler) sectionPage(section Section) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caps := rbac.CapabilitiesFromContext(r.Context())
		if !section.Admits(caps) {
			h.deniedPage("open " + strings.ToLower(section.Title)).ServeHTTP(w, r)
			return
		}
		h.render(w, r, section.Title, "pages/section.html", map[string]any{
			"Section": section,
			"Actions": section.VisibleActions(caps),
		}, http.StatusOK)
	}
}

func (h *Handler) deniedPage(action string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !shared.SessionFromContext(r.Context()).Authenticated() {
			http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
			return
		}
		h.render(w, r, "Access denied", "pages/forbidden.html", map[string]any{"Message": rbac.DeniedMessage(action)}, http.StatusForbidden)
	})
}

// RoleEntry is one role in the catalog response.
type RoleEntry struct {
	Role        string   `json:"role"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Internal    bool     `json:"internal"`
	Permissions []string `json:"permissions"`
}

// PermissionEntry is one permission in the catalog response.
type PermissionEntry struct {
	Permission  string `json:"permission"`
	Description string `json:"description"`
}

// CatalogResponse lists the static role table.
type CatalogResponse struct {
	Roles       []RoleEntry       `json:"roles"`
	Permissions []PermissionEntry `json:"permissions"`
}

// PrincipalResponse lists the caller's roles and derived permissions.
type PrincipalResponse struct {
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

// CheckResponse is the result of an access check. Unknown lists requested
// names missing from the catalog; they never grant anything.
type CheckResponse struct {
	Allowed     bool     `json:"allowed"`
	Mode        string   `json:"mode"`
	Permissions []string `json:"permissions"`
	Unknown     []string `json:"unknown,omitempty"`
}

// SectionResponse tells a client whether the caller may open a workspace
// section and which of its actions to render.
type SectionResponse struct {
	Slug     string   `json:"slug"`
	Title    string   `json:"title"`
	Admitted bool     `json:"admitted"`
	Actions  []string `json:"actions"`
}

func (h *Handler) catalog(w http.ResponseWriter, r *http.Request) {
	resp := CatalogResponse{}
	for _, role := range rbac.Roles() {
		perms := rbac.PermissionsForRole(role)
		names := make([]string, len(perms))
		for i, p := range perms {
			names[i] = string(p)
		}
		resp.Roles = append(resp.Roles, RoleEntry{
			Role:        string(role),
			Name:        rbac.DisplayName(role),
			Description: rbac.Description(role),
			Internal:    rbac.IsInternalRole(role),
			Permissions: names,
		})
	}
	for _, p := range rbac.Permissions() {
		resp.Permissions = append(resp.Permissions, PermissionEntry{Permission: string(p), Description: rbac.PermissionDescription(p)})
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	caps := rbac.CapabilitiesFromContext(r.Context())
	httpx.JSON(w, http.StatusOK, PrincipalResponse{
		Roles:       caps.Roles().Strings(),
		Permissions: caps.All().Strings(),
	})
}

func (h *Handler) check(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	mode := strings.ToLower(strings.TrimSpace(query.Get("mode")))
	if mode == "" {
		mode = "any"
	}
	if mode != "any" && mode != "all" {
		httpx.RespondError(w, fmt.Errorf("%w: mode must be any or all", httpx.ErrValidation))
		return
	}
	requested := make([]rbac.Permission, 0, len(query["permission"]))
	names := make([]string, 0, len(query["permission"]))
	var unknown []string
	for _, raw := range query["permission"] {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		p := rbac.Permission(raw)
		if !rbac.IsKnownPermission(p) {
			unknown = append(unknown, raw)
		}
		requested = append(requested, p)
		names = append(names, raw)
	}
	guard := rbac.Guard{Permissions: requested, RequireAll: mode == "all"}
	httpx.JSON(w, http.StatusOK, CheckResponse{
		Allowed:     guard.Allows(rbac.CapabilitiesFromContext(r.Context())),
		Mode:        mode,
		Permissions: names,
		Unknown:     unknown,
	})
}

func (h *Handler) section(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	section, ok := FindSection(slug)
	if !ok {
		httpx.RespondError(w, fmt.Errorf("%w: section %q", httpx.ErrNotFound, slug))
		return
	}
	caps := rbac.CapabilitiesFromContext(r.Context())
	resp := SectionResponse{Slug: section.Slug, Title: section.Title, Actions: []string{}}
	if section.Admits(caps) {
		resp.Admitted = true
		for _, a := range section.VisibleActions(caps) {
			resp.Actions = append(resp.Actions, a.Label)
		}
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, title, template string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       title,
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Principal:   sess.Principal(),
		Access:      rbac.CapabilitiesFromContext(r.Context()),
		Data:        data,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.templates.Render(w, template, viewData); err != nil {
		h.logger.Error("render template", slog.Any("error", err))
	}
}
