// Package models defines the attendance session domain model.
package models

import (
	"time"

	id "attendly/pkg/domain"
)

// Geofence is the circular allowed area attached to a session.
// Invariant: when a reference coordinate is present a positive radius
// is present too; "no geofence" is represented by a nil *Geofence.
type Geofence struct {
	Lat          float64
	Lon          float64
	RadiusMeters int
}

// Session is an attendance session. Immutable once created except for
// the opaque QR reference; never deleted by this service.
type Session struct {
	ID        id.SessionID
	CreatedBy id.UserID
	Title     string
	StartTime time.Time
	EndTime   time.Time
	Geofence  *Geofence
	QRRef     string
	CreatedAt time.Time
}

// IsOpen reports whether the session accepts submissions at now.
// Both window bounds are inclusive.
func (s *Session) IsOpen(now time.Time) bool {
	return !now.Before(s.StartTime) && !now.After(s.EndTime)
}
