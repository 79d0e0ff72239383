package view

import (
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/rms-platform/rms-access/internal/rbac"
	"github.com/rms-platform/rms-access/internal/shared"
	"github.com/rms-platform/rms-access/web"
)

// Engine renders HTML templates.
type Engine struct {
	templates *template.Template
}

// TemplateData contains values shared across templates.
type TemplateData struct {
	Title       string
	CSRFToken   string
	Flash       *shared.FlashMessage
	CurrentPath string
	Principal   *shared.Principal
	Access      *rbac.Capabilities
	Nav         []NavItem
	Data        any
}

// NewEngine parses templates at build-time.
func NewEngine() (*Engine, error) {
	tpl, err := template.New("root").Funcs(FuncMap()).ParseFS(web.Templates, web.TemplatePatterns...)
	if err != nil {
		return nil, err
	}
	return &Engine{templates: tpl}, nil
}

// FuncMap returns the helpers available to every template. The access
// helpers route through the rbac catalog so pages never compare raw role
// strings.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02 Jan 2006 15:04")
		},
		"can": func(caps *rbac.Capabilities, perm string) bool {
			return caps.Can(rbac.Permission(perm))
		},
		"canAny": func(caps *rbac.Capabilities, perms ...string) bool {
			return caps.CanAny(toPermissions(perms)...)
		},
		"canAll": func(caps *rbac.Capabilities, perms ...string) bool {
			return caps.CanAll(toPermissions(perms)...)
		},
		"is": func(caps *rbac.Capabilities, role string) bool {
			return caps.Is(rbac.ParseRole(role))
		},
		"isAny": func(caps *rbac.Capabilities, roles ...string) bool {
			parsed := make([]rbac.Role, len(roles))
			for i, r := range roles {
				parsed[i] = rbac.ParseRole(r)
			}
			return caps.IsAny(parsed...)
		},
		"guard": func(caps *rbac.Capabilities, g rbac.Guard) bool {
			return g.Allows(caps)
		},
		"roleName": func(role rbac.Role) string {
			return rbac.DisplayName(role)
		},
		"roleDescription": func(role rbac.Role) string {
			return rbac.Description(role)
		},
		"permissionDescription": func(p rbac.Permission) string {
			return rbac.PermissionDescription(p)
		},
	}
}

func toPermissions(perms []string) []rbac.Permission {
	out := make([]rbac.Permission, len(perms))
	for i, p := range perms {
		out[i] = rbac.Permission(p)
	}
	return out
}

// Render executes a named template with TemplateData.
func (e *Engine) Render(w http.ResponseWriter, name string, data TemplateData) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	if data.Nav == nil {
		data.Nav = BuildNav(data.Access, data.CurrentPath)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return e.templates.ExecuteTemplate(w, name, data)
}
