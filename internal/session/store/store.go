// Package store persists attendance sessions.
package store

import (
	"context"

	"attendly/internal/session/models"
	id "attendly/pkg/domain"
)

// Store is the session persistence contract. Stores are pure I/O;
// window and geofence rules live in the service.
type Store interface {
	Create(ctx context.Context, session *models.Session) error
	FindByID(ctx context.Context, sessionID id.SessionID) (*models.Session, error)
	SetQRRef(ctx context.Context, sessionID id.SessionID, qrRef string) error
}
