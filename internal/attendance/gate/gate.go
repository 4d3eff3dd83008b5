// Package gate implements the verification pipeline that turns an
// inbound presence event into a single admit/deny verdict.
package gate

import (
	"context"
	"log/slog"
	"time"

	"attendly/internal/attendance/models"
	"attendly/internal/biometric"
	"attendly/internal/geofence"
	"attendly/internal/nettrust"
	sessionmodels "attendly/internal/session/models"
	id "attendly/pkg/domain"
	dErrors "attendly/pkg/domain-errors"
	"attendly/pkg/requestcontext"
)

// SessionResolver looks up a session. Not-found is reported as a
// domain error with CodeNotFound.
type SessionResolver interface {
	Resolve(ctx context.Context, sessionID id.SessionID) (*sessionmodels.Session, error)
}

// ReferenceSource supplies a user's stored biometric reference.
type ReferenceSource interface {
	BiometricReference(ctx context.Context, userID id.UserID) (string, error)
}

// Config carries the gate's tunables, injected at construction.
type Config struct {
	// BiometricThreshold is the minimum similarity accepted, in [0,1].
	BiometricThreshold float64
}

// Gate orders and combines the three evidence checks. Stages run
// strictly in sequence - session existence, session window, geofence,
// network trust, biometric - and short-circuit on the first hard
// failure, so a request failing a free check never pays for the
// expensive biometric stage.
type Gate struct {
	sessions   SessionResolver
	references ReferenceSource
	probe      nettrust.Probe
	comparator biometric.Comparator
	cfg        Config
	logger     *slog.Logger
}

// New builds a verification gate.
func New(
	sessions SessionResolver,
	references ReferenceSource,
	probe nettrust.Probe,
	comparator biometric.Comparator,
	cfg Config,
	logger *slog.Logger,
) *Gate {
	return &Gate{
		sessions:   sessions,
		references: references,
		probe:      probe,
		comparator: comparator,
		cfg:        cfg,
		logger:     logger,
	}
}

// Evaluate runs the pipeline for one request. Policy denials come back
// as verdict outcomes, not errors. A non-nil error means the pipeline
// itself could not run to a decision (reference lookup failure or a
// comparator fault) and is distinguishable from "biometric did not
// match" via CodeUnavailable.
func (g *Gate) Evaluate(ctx context.Context, req *models.VerificationRequest, now time.Time) (*models.Verdict, error) {
	session, err := g.sessions.Resolve(ctx, req.SessionID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return &models.Verdict{Outcome: models.OutcomeDeniedSessionNotFound}, nil
		}
		return nil, err
	}

	if !session.IsOpen(now) {
		return &models.Verdict{Outcome: models.OutcomeDeniedSessionClosed}, nil
	}

	var distance *float64
	if session.Geofence != nil {
		reference := geofence.Coordinate{Lat: session.Geofence.Lat, Lon: session.Geofence.Lon}
		d := geofence.Distance(req.Coordinate, reference)
		distance = &d
		if d > float64(session.Geofence.RadiusMeters) {
			g.logDenial(ctx, req, models.OutcomeDeniedGeofence, "distance_m", d)
			return &models.Verdict{Outcome: models.OutcomeDeniedGeofence, DistanceMeters: distance}, nil
		}
	}

	// Probe faults degrade to trusted inside the probe; only positive
	// evidence denies here.
	if g.probe.IsUntrusted(ctx, req.ClientAddress) {
		g.logDenial(ctx, req, models.OutcomeDeniedNetwork, "address", req.ClientAddress)
		return &models.Verdict{
			Outcome:          models.OutcomeDeniedNetwork,
			NetworkUntrusted: true,
			DistanceMeters:   distance,
		}, nil
	}

	reference, err := g.references.BiometricReference(ctx, req.UserID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "biometric reference unavailable")
	}

	match, similarity, err := g.comparator.Compare(ctx, req.BiometricSample, reference)
	if err != nil {
		// A broken comparator must not masquerade as a mismatch; that
		// would silently deny everyone without alarm.
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "biometric verification unavailable")
	}

	if !match || similarity < g.cfg.BiometricThreshold {
		g.logDenial(ctx, req, models.OutcomeDeniedBiometric, "similarity", similarity)
		return &models.Verdict{
			Outcome:        models.OutcomeDeniedBiometric,
			Similarity:     &similarity,
			DistanceMeters: distance,
		}, nil
	}

	return &models.Verdict{
		Outcome:        models.OutcomeAdmitted,
		Similarity:     &similarity,
		DistanceMeters: distance,
	}, nil
}

func (g *Gate) logDenial(ctx context.Context, req *models.VerificationRequest, outcome models.Outcome, attrs ...any) {
	args := append([]any{
		"outcome", string(outcome),
		"session_id", req.SessionID.String(),
		"user_id", req.UserID.String(),
		"request_id", requestcontext.RequestID(ctx),
	}, attrs...)
	g.logger.InfoContext(ctx, "verification denied", args...)
}
