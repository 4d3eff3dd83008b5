// Package service orchestrates verification and ledger recording for
// one attendance submission.
package service

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"attendly/internal/attendance/gate"
	"attendly/internal/attendance/ledger"
	"attendly/internal/attendance/metrics"
	"attendly/internal/attendance/models"
	id "attendly/pkg/domain"
	dErrors "attendly/pkg/domain-errors"
	audit "attendly/pkg/platform/audit"
	"attendly/pkg/requestcontext"
)

const tracerName = "attendly/attendance"

// Auditor records domain events. Satisfied by the audit publisher.
type Auditor interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service runs the full submission flow: validate, evaluate, record.
type Service struct {
	gate    *gate.Gate
	ledger  *ledger.Service
	metrics *metrics.Metrics
	auditor Auditor
	logger  *slog.Logger
	tracer  trace.Tracer
	now     func() time.Time
}

// New builds an attendance service.
func New(g *gate.Gate, l *ledger.Service, m *metrics.Metrics, auditor Auditor, logger *slog.Logger) *Service {
	return &Service{
		gate:    g,
		ledger:  l,
		metrics: m,
		auditor: auditor,
		logger:  logger,
		tracer:  otel.Tracer(tracerName),
		now:     time.Now,
	}
}

// Submit processes one presence event end to end. Denials and ledger
// rejections are results, not errors; errors mean the decision itself
// could not be made and nothing was recorded.
func (s *Service) Submit(ctx context.Context, req *models.VerificationRequest) (*models.SubmissionResult, error) {
	ctx, span := s.tracer.Start(ctx, "attendance.submit")
	defer span.End()

	if err := validate(req); err != nil {
		return nil, err
	}

	now := s.now().UTC()

	start := time.Now()
	verdict, err := s.gate.Evaluate(ctx, req, now)
	s.metrics.ObserveEvaluation(start)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordOutcome(string(verdict.Outcome))
	span.SetAttributes(attribute.String("attendance.outcome", string(verdict.Outcome)))

	if !verdict.Admitted() {
		s.audit(ctx, req, audit.EventVerificationDenied, string(verdict.Outcome))
		return &models.SubmissionResult{
			Outcome:        verdict.Outcome,
			Similarity:     verdict.Similarity,
			DistanceMeters: verdict.DistanceMeters,
		}, nil
	}

	obs := models.Observation{
		Coordinate:       req.Coordinate,
		NetworkUntrusted: verdict.NetworkUntrusted,
		Similarity:       verdict.Similarity,
	}
	result, err := s.ledger.Apply(ctx, req.SessionID, req.UserID, obs, now)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("attendance.ledger_result", string(result)))

	switch result {
	case models.ResultCheckedIn:
		s.metrics.CheckIns.Inc()
		s.audit(ctx, req, audit.EventCheckedIn, string(verdict.Outcome))
	case models.ResultCheckedOut:
		s.metrics.CheckOuts.Inc()
		s.audit(ctx, req, audit.EventCheckedOut, string(verdict.Outcome))
	case models.ResultRejected:
		s.metrics.DuplicateRejected.Inc()
		s.audit(ctx, req, audit.EventDuplicateRejected, string(verdict.Outcome))
	}

	return &models.SubmissionResult{
		Outcome:        verdict.Outcome,
		Ledger:         result,
		Similarity:     verdict.Similarity,
		DistanceMeters: verdict.DistanceMeters,
	}, nil
}

// Status returns the caller's attendance record for a session, or a
// not-found error when no admitted event has been recorded yet.
func (s *Service) Status(ctx context.Context, sessionID id.SessionID, userID id.UserID) (*models.AttendanceRecord, error) {
	if sessionID.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "session id is required")
	}
	if userID.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "user id is required")
	}
	return s.ledger.Record(ctx, sessionID, userID)
}

func validate(req *models.VerificationRequest) error {
	switch {
	case req.SessionID.IsZero():
		return dErrors.New(dErrors.CodeInvalidInput, "session id is required")
	case req.UserID.IsZero():
		return dErrors.New(dErrors.CodeInvalidInput, "user id is required")
	case !req.Coordinate.Valid():
		return dErrors.New(dErrors.CodeInvalidInput, "coordinate out of range")
	case req.BiometricSample == "":
		return dErrors.New(dErrors.CodeInvalidInput, "biometric sample is required")
	}
	return nil
}

func (s *Service) audit(ctx context.Context, req *models.VerificationRequest, action audit.AuditEvent, outcome string) {
	event := audit.Event{
		UserID:    req.UserID,
		SessionID: req.SessionID,
		Action:    string(action),
		Outcome:   outcome,
		IP:        req.ClientAddress,
		RequestID: requestcontext.RequestID(ctx),
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", string(action), "error", err)
	}
}
