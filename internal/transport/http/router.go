// Package httptransport assembles the HTTP surface: middleware chain,
// public routes, and the authenticated and admin route groups.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	attendancehandler "attendly/internal/attendance/handler"
	identityhandler "attendly/internal/identity/handler"
	identitymodels "attendly/internal/identity/models"
	"attendly/internal/platform/metrics"
	"attendly/internal/platform/middleware"
	reportinghandler "attendly/internal/reporting/handler"
	sessionhandler "attendly/internal/session/handler"
	"attendly/pkg/platform/httputil"
)

const requestTimeout = 30 * time.Second

// Deps carries everything the router mounts.
type Deps struct {
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
	Validator  middleware.JWTValidator
	Identity   *identityhandler.Handler
	Sessions   *sessionhandler.Handler
	Attendance *attendancehandler.Handler
	Reporting  *reportinghandler.Handler
	Health     func() error
}

// NewRouter wires all endpoints behind the shared middleware chain.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.ClientIP)
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(deps.Metrics.Latency)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/healthz", handleHealth(deps.Health))
	r.Handle("/metrics", metrics.Handler())

	// Public
	deps.Identity.Register(r)

	// Authenticated
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(deps.Validator, deps.Logger))
		deps.Attendance.Register(r)
	})

	// Admin
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(deps.Validator, deps.Logger))
		r.Use(middleware.RequireRole(string(identitymodels.RoleAdmin)))
		deps.Sessions.Register(r)
		deps.Reporting.Register(r)
	})

	return r
}

func handleHealth(check func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(); err != nil {
				httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
					"status": "degraded",
				})
				return
			}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
