package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/rms-platform/rms-access/internal/access"
	audithttp "github.com/rms-platform/rms-access/internal/audit/http"
	"github.com/rms-platform/rms-access/internal/auth"
	"github.com/rms-platform/rms-access/internal/observability"
	"github.com/rms-platform/rms-access/internal/rbac"
	"github.com/rms-platform/rms-access/internal/shared"
	"github.com/rms-platform/rms-access/internal/view"
	"github.com/rms-platform/rms-access/jobs"
	"github.com/rms-platform/rms-access/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	Templates      *view.Engine
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	AuthHandler    *auth.Handler
	AccessHandler  *access.Handler
	JobHandler     *jobs.Handler
	AuditHandler   *audithttp.Handler
	RBAC           rbac.Middleware
	Metrics        *observability.Metrics
}

// NewRouter constructs the chi.Router with the service defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Landing page for unauthenticated users
	r.Get("/welcome", func(w http.ResponseWriter, r *http.Request) {
		renderPage(params, w, r, "RMS", "pages/landing.html", nil)
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if !sess.Authenticated() {
			http.Redirect(w, r, "/welcome", http.StatusSeeOther)
			return
		}
		renderPage(params, w, r, "Dashboard", "pages/home.html", map[string]any{
			"AppEnv": params.Config.AppEnv,
		})
	})

	if params.AuthHandler != nil {
		r.Route("/auth", params.AuthHandler.MountRoutes)
	}
	if params.AccessHandler != nil {
		params.AccessHandler.MountRoutes(r)
		r.Route("/api/access", params.AccessHandler.MountAPI)
	}
	if params.JobHandler != nil {
		r.Route("/api/jobs", func(r chi.Router) {
			r.Use(params.RBAC.RequireRole(rbac.RoleAdmin))
			params.JobHandler.MountRoutes(r)
		})
	}
	if params.AuditHandler != nil {
		r.Route("/api/audit", params.AuditHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := web.Static()
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

func renderPage(params RouterParams, w http.ResponseWriter, r *http.Request, title, name string, data map[string]any) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := params.CSRFManager.EnsureToken(r.Context(), sess)
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
	if err := params.Templates.Render(w, name, viewData); err != nil {
		params.Logger.Error("render page", slog.String("template", name), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// staticCacheHandler wraps a file server with Cache-Control headers.
// Static assets are cached for 1 hour in browser.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
