package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/classhub/classhub/internal/auth"
	"github.com/classhub/classhub/internal/classroom"
	"github.com/classhub/classhub/internal/observability"
	"github.com/classhub/classhub/internal/platform/httpx"
	"github.com/classhub/classhub/internal/rbac"
	"github.com/classhub/classhub/internal/users"
	"github.com/classhub/classhub/internal/whitelist"
	"github.com/classhub/classhub/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger        *slog.Logger
	Config        *Config
	Authenticator auth.Authenticator
	Metrics       *observability.Metrics
	RBAC          rbac.Middleware

	AuthHandler        *auth.Handler
	UsersHandler       *users.Handler
	WhitelistHandler   *whitelist.Handler
	ClassroomHandler   *classroom.Handler
	PermissionsHandler *rbac.PermissionsHandler
	JobHandler         *jobs.Handler
}

// NewRouter constructs the chi.Router with ClassHub defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:        params.Logger,
		Config:        params.Config,
		Authenticator: params.Authenticator,
		Metrics:       params.Metrics,
	}) {
		r.Use(mw)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Fail(w, http.StatusNotFound, httpx.CodeNotFound, "route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.Fail(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", nil)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	if params.AuthHandler != nil {
		r.Route("/auth", params.AuthHandler.MountRoutes)
	}

	r.Route("/api/v1", func(r chi.Router) {
		if params.UsersHandler != nil {
			r.Route("/me", params.UsersHandler.MountMe)
			r.Route("/admin/users", params.UsersHandler.MountRoutes)
		}
		if params.WhitelistHandler != nil {
			r.Route("/admin/whitelist", params.WhitelistHandler.MountRoutes)
		}
		if params.PermissionsHandler != nil {
			r.Route("/admin/catalog", params.PermissionsHandler.MountRoutes)
		}
		if params.JobHandler != nil {
			r.Route("/admin/jobs", func(r chi.Router) {
				r.Use(params.RBAC.RequirePermission(rbac.PermSystemDebug))
				params.JobHandler.MountRoutes(r)
			})
		}
		if params.ClassroomHandler != nil {
			params.ClassroomHandler.MountRoutes(r)
		}
	})

	return r
}
