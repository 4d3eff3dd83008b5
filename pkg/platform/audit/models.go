// Package audit captures key domain actions for later review.
package audit

import (
	"context"
	"time"

	id "attendly/pkg/domain"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time
	UserID    id.UserID
	SessionID id.SessionID
	Action    string
	Outcome   string
	Reason    string
	IP        string
	RequestID string
}

type AuditEvent string

const (
	// Identity events
	EventUserRegistered AuditEvent = "user_registered"
	EventLoginSucceeded AuditEvent = "login_succeeded"
	EventLoginFailed    AuditEvent = "login_failed"

	// Session events
	EventSessionCreated AuditEvent = "session_created"

	// Attendance events
	EventCheckedIn          AuditEvent = "attendance_checked_in"
	EventCheckedOut         AuditEvent = "attendance_checked_out"
	EventDuplicateRejected  AuditEvent = "attendance_duplicate_rejected"
	EventVerificationDenied AuditEvent = "verification_denied"
)

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByUser(ctx context.Context, userID id.UserID) ([]Event, error)
}

// Sink forwards audit events to an external system, such as a message
// broker. Sink failures must not block domain logic.
type Sink interface {
	Publish(ctx context.Context, event Event) error
	Close()
}
