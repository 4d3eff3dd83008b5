// Package handler wires dashboard endpoints to the reporting service.
package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"attendly/internal/reporting/service"
	id "attendly/pkg/domain"
	dErrors "attendly/pkg/domain-errors"
	"attendly/pkg/platform/httputil"
)

const defaultAnalyticsDays = 7

// Service defines the interface for reporting operations.
type Service interface {
	Summary(ctx context.Context) (*service.Summary, error)
	Analytics(ctx context.Context, days int) ([]service.DayCount, error)
	SessionReport(ctx context.Context, sessionID id.SessionID) (*service.SessionReport, error)
}

// Handler wires dashboard endpoints to the reporting service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a reporting handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts dashboard endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/admin/dashboard/summary", h.HandleSummary)
	r.Get("/admin/dashboard/analytics", h.HandleAnalytics)
	r.Get("/admin/sessions/{sessionID}/records", h.HandleSessionReport)
}

// HandleSummary handles GET /admin/dashboard/summary requests.
func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, summary)
}

// HandleAnalytics handles GET /admin/dashboard/analytics requests.
// Accepts an optional days query parameter.
func (h *Handler) HandleAnalytics(w http.ResponseWriter, r *http.Request) {
	days := defaultAnalyticsDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "days must be an integer"))
			return
		}
		days = parsed
	}

	counts, err := h.service.Analytics(r.Context(), days)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"days": counts})
}

// HandleSessionReport handles GET /admin/sessions/{sessionID}/records requests.
func (h *Handler) HandleSessionReport(w http.ResponseWriter, r *http.Request) {
	sessionID, err := id.ParseSessionID(chi.URLParam(r, "sessionID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "malformed session id"))
		return
	}

	report, err := h.service.SessionReport(r.Context(), sessionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}
