// Package handler wires session endpoints to the session service.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"attendly/internal/session/models"
	sessionservice "attendly/internal/session/service"
	id "attendly/pkg/domain"
	"attendly/pkg/platform/httputil"
	"attendly/pkg/requestcontext"
)

// Service defines the interface for session operations.
type Service interface {
	Create(ctx context.Context, params sessionservice.CreateParams) (*models.Session, error)
	QRPNG(ctx context.Context, sessionID id.SessionID) ([]byte, error)
}

// Handler wires session endpoints to the session service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a session handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts session endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/sessions", h.HandleCreate)
	r.Get("/sessions/{sessionID}/qr", h.HandleQR)
}

// HandleCreate handles POST /sessions requests.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateSessionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	session, err := h.service.Create(ctx, sessionservice.CreateParams{
		CreatedBy:    requestcontext.UserID(ctx),
		Title:        req.Title,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		Lat:          req.Lat,
		Lon:          req.Lon,
		RadiusMeters: req.RadiusMeters,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "session created",
		"request_id", requestID,
		"session_id", session.ID.String(),
	)
	httputil.WriteJSON(w, http.StatusCreated, fromSession(session))
}

// HandleQR handles GET /sessions/{sessionID}/qr requests. Responds
// with the session code as a PNG image.
func (h *Handler) HandleQR(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessionID, err := id.ParseSessionID(chi.URLParam(r, "sessionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	png, err := h.service.QRPNG(ctx, sessionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
