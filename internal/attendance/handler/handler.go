// Package handler wires the attendance marking endpoint to the
// attendance service.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"attendly/internal/attendance/models"
	"attendly/internal/geofence"
	id "attendly/pkg/domain"
	dErrors "attendly/pkg/domain-errors"
	"attendly/pkg/platform/httputil"
	"attendly/pkg/requestcontext"
)

// Service defines the interface for attendance operations.
type Service interface {
	Submit(ctx context.Context, req *models.VerificationRequest) (*models.SubmissionResult, error)
	Status(ctx context.Context, sessionID id.SessionID, userID id.UserID) (*models.AttendanceRecord, error)
}

// Handler wires the attendance endpoint to the attendance service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an attendance handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts attendance endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/attendance/mark", h.HandleMark)
	r.Get("/attendance/sessions/{sessionID}", h.HandleStatus)
}

// HandleMark handles POST /attendance/mark requests.
func (h *Handler) HandleMark(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	userID := requestcontext.UserID(ctx)
	if userID == (id.UserID{}) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[MarkRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Submit(ctx, &models.VerificationRequest{
		SessionID:       req.ParsedSessionID(),
		UserID:          userID,
		Coordinate:      geofence.Coordinate{Lat: req.Lat, Lon: req.Lon},
		ClientAddress:   requestcontext.ClientIP(ctx),
		BiometricSample: req.FaceEmbedding,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "attendance submission failed",
			"request_id", requestID,
			"user_id", userID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "attendance submission processed",
		"request_id", requestID,
		"user_id", userID.String(),
		"outcome", string(result.Outcome),
		"status", string(result.Ledger),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, statusFor(result), fromResult(result))
}

// HandleStatus handles GET /attendance/sessions/{sessionID} requests.
// Returns the caller's own record for the session.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := requestcontext.UserID(ctx)
	if userID == (id.UserID{}) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	sessionID, err := id.ParseSessionID(chi.URLParam(r, "sessionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	record, err := h.service.Status(ctx, sessionID, userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromRecord(record))
}

// statusFor maps a submission result to its HTTP status. Denials are
// forbidden except for an unknown session; an exhausted record
// lifecycle is a conflict.
func statusFor(result *models.SubmissionResult) int {
	switch result.Outcome {
	case models.OutcomeAdmitted:
		if result.Ledger == models.ResultRejected {
			return http.StatusConflict
		}
		return http.StatusOK
	case models.OutcomeDeniedSessionNotFound:
		return http.StatusNotFound
	default:
		return http.StatusForbidden
	}
}
