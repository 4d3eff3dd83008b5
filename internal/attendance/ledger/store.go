// Package ledger owns the durable per-(session,user) attendance state.
package ledger

import (
	"context"
	"time"

	"attendly/internal/attendance/models"
	id "attendly/pkg/domain"
)

// DayCount is one day's record count, for reporting.
type DayCount struct {
	Day   time.Time
	Count int
}

// Store is the ledger persistence contract. Stores are pure I/O; the
// toggle policy lives in the Service. Implementations must make each
// method atomic with respect to concurrent calls for the same
// (session, user) key.
type Store interface {
	// CreateIfAbsent inserts the record if no record exists for its
	// (session, user) key. Returns sentinel.ErrDuplicate when one does.
	CreateIfAbsent(ctx context.Context, record *models.AttendanceRecord) error

	// CompleteCheckout sets the check-out timestamp and refreshes the
	// observation fields on the key's open record. Returns false when
	// no open record exists (either absent or already checked out).
	// A checkOut earlier than the stored check-in is clamped to it so
	// the record never reads check_out < check_in.
	CompleteCheckout(ctx context.Context, sessionID id.SessionID, userID id.UserID, checkOut time.Time, obs models.Observation) (bool, error)

	// FindByKey returns the record for the key, or sentinel.ErrNotFound.
	FindByKey(ctx context.Context, sessionID id.SessionID, userID id.UserID) (*models.AttendanceRecord, error)

	// ListByDay returns records whose check-in falls on the given UTC day.
	ListByDay(ctx context.Context, day time.Time) ([]*models.AttendanceRecord, error)

	// ListBySession returns all records for a session.
	ListBySession(ctx context.Context, sessionID id.SessionID) ([]*models.AttendanceRecord, error)

	// Count returns the total number of records.
	Count(ctx context.Context) (int, error)

	// DailyCounts returns per-day record counts for the most recent
	// days, newest first.
	DailyCounts(ctx context.Context, days int) ([]DayCount, error)
}
