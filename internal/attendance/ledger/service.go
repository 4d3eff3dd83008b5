package ledger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"attendly/internal/attendance/models"
	id "attendly/pkg/domain"
	dErrors "attendly/pkg/domain-errors"
	"attendly/pkg/requestcontext"
	"attendly/pkg/sentinel"
)

// Service applies admitted events to the ledger with toggle semantics:
// first event checks in, second checks out, anything after that is
// rejected. The check-in timestamp is immutable once written.
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService builds a ledger service.
func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Apply records one admitted event and reports which lifecycle step it
// landed on. Records are never deleted, so the two store operations
// resolve any interleaving without retries: concurrent first-time
// events for the same key see exactly one check-in, and the rest fall
// through to checkout or rejection in some serial order.
func (s *Service) Apply(ctx context.Context, sessionID id.SessionID, userID id.UserID, obs models.Observation, now time.Time) (models.LedgerResult, error) {
	record := &models.AttendanceRecord{
		ID:               id.NewRecordID(),
		SessionID:        sessionID,
		UserID:           userID,
		CheckInTime:      now,
		Lat:              obs.Coordinate.Lat,
		Lon:              obs.Coordinate.Lon,
		NetworkUntrusted: obs.NetworkUntrusted,
		Similarity:       obs.Similarity,
	}

	err := s.store.CreateIfAbsent(ctx, record)
	if err == nil {
		s.logger.InfoContext(ctx, "checked in",
			"session_id", sessionID.String(),
			"user_id", userID.String(),
			"request_id", requestcontext.RequestID(ctx))
		return models.ResultCheckedIn, nil
	}
	if !errors.Is(err, sentinel.ErrDuplicate) {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "record check-in")
	}

	// A record exists. The conditional update lets only one caller ever
	// flip it to checked out; a false result means the lifecycle is
	// already exhausted.
	closed, err := s.store.CompleteCheckout(ctx, sessionID, userID, now, obs)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "record check-out")
	}
	if closed {
		s.logger.InfoContext(ctx, "checked out",
			"session_id", sessionID.String(),
			"user_id", userID.String(),
			"request_id", requestcontext.RequestID(ctx))
		return models.ResultCheckedOut, nil
	}

	s.logger.InfoContext(ctx, "duplicate submission rejected",
		"session_id", sessionID.String(),
		"user_id", userID.String(),
		"request_id", requestcontext.RequestID(ctx))
	return models.ResultRejected, nil
}

// Record returns the ledger entry for a key, if any.
func (s *Service) Record(ctx context.Context, sessionID id.SessionID, userID id.UserID) (*models.AttendanceRecord, error) {
	record, err := s.store.FindByKey(ctx, sessionID, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "attendance record not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "find record")
	}
	return record, nil
}
