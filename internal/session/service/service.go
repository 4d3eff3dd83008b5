// Package service implements session creation and the registry the
// verification gate reads from.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	qrcode "github.com/skip2/go-qrcode"

	"attendly/internal/geofence"
	"attendly/internal/session/models"
	"attendly/internal/session/store"
	id "attendly/pkg/domain"
	dErrors "attendly/pkg/domain-errors"
	"attendly/pkg/sentinel"
)

// Service owns session creation and lookups. It is read-only from the
// verification gate's perspective.
type Service struct {
	store         store.Store
	defaultRadius int
	logger        *slog.Logger
}

// New builds the session service. defaultRadius (meters) applies when
// a geofenced session is created without an explicit radius.
func New(st store.Store, defaultRadius int, logger *slog.Logger) *Service {
	return &Service{store: st, defaultRadius: defaultRadius, logger: logger}
}

// CreateParams describes a new session.
type CreateParams struct {
	CreatedBy id.UserID
	Title     string
	StartTime time.Time
	EndTime   time.Time

	// Optional geofence. Lat and Lon must be present together; a
	// missing radius gets the configured default.
	Lat          *float64
	Lon          *float64
	RadiusMeters *int
}

// Create validates and persists a session, stamping its QR payload.
func (s *Service) Create(ctx context.Context, p CreateParams) (*models.Session, error) {
	if p.Title == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "title is required")
	}
	if p.CreatedBy.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "creator is required")
	}
	if p.EndTime.Before(p.StartTime) {
		return nil, dErrors.New(dErrors.CodeValidation, "end_time must not precede start_time")
	}

	fence, err := s.buildGeofence(p)
	if err != nil {
		return nil, err
	}

	session := &models.Session{
		ID:        id.NewSessionID(),
		CreatedBy: p.CreatedBy,
		Title:     p.Title,
		StartTime: p.StartTime.UTC(),
		EndTime:   p.EndTime.UTC(),
		Geofence:  fence,
		CreatedAt: time.Now().UTC(),
	}
	session.QRRef = qrPayload(session)

	if err := s.store.Create(ctx, session); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create session")
	}

	s.logger.InfoContext(ctx, "session created",
		"session_id", session.ID.String(),
		"title", session.Title,
		"geofenced", fence != nil,
	)
	return session, nil
}

func (s *Service) buildGeofence(p CreateParams) (*models.Geofence, error) {
	if p.Lat == nil && p.Lon == nil {
		if p.RadiusMeters != nil {
			return nil, dErrors.New(dErrors.CodeValidation, "allowed_radius requires a reference coordinate")
		}
		return nil, nil
	}
	if p.Lat == nil || p.Lon == nil {
		return nil, dErrors.New(dErrors.CodeValidation, "gps_lat and gps_lon must be provided together")
	}
	if !(geofence.Coordinate{Lat: *p.Lat, Lon: *p.Lon}).Valid() {
		return nil, dErrors.New(dErrors.CodeValidation, "reference coordinate out of range")
	}

	radius := s.defaultRadius
	if p.RadiusMeters != nil {
		radius = *p.RadiusMeters
	}
	if radius <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "allowed_radius must be positive")
	}
	return &models.Geofence{Lat: *p.Lat, Lon: *p.Lon, RadiusMeters: radius}, nil
}

// Resolve returns the session or a not-found domain error.
func (s *Service) Resolve(ctx context.Context, sessionID id.SessionID) (*models.Session, error) {
	session, err := s.store.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "session not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve session")
	}
	return session, nil
}

// QRPNG renders the session's QR payload as a PNG image.
func (s *Service) QRPNG(ctx context.Context, sessionID id.SessionID) ([]byte, error) {
	session, err := s.Resolve(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	png, err := qrcode.Encode(session.QRRef, qrcode.Medium, 256)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to render qr code")
	}
	return png, nil
}

// qrPayload is the opaque string embedded in the session QR code.
func qrPayload(session *models.Session) string {
	payload, _ := json.Marshal(map[string]string{
		"session_id": session.ID.String(),
		"expires_at": session.EndTime.Format(time.RFC3339),
	})
	return string(payload)
}
