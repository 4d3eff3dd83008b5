package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"attendly/internal/attendance/gate"
	"attendly/internal/attendance/ledger"
	"attendly/internal/attendance/metrics"
	"attendly/internal/attendance/models"
	"attendly/internal/biometric"
	"attendly/internal/geofence"
	sessionmodels "attendly/internal/session/models"
	id "attendly/pkg/domain"
	dErrors "attendly/pkg/domain-errors"
	audit "attendly/pkg/platform/audit"
)

// Registered once; promauto metrics cannot be registered twice in one
// process.
var testMetrics = metrics.New()

type stubResolver struct {
	session *sessionmodels.Session
	err     error
}

func (s *stubResolver) Resolve(context.Context, id.SessionID) (*sessionmodels.Session, error) {
	return s.session, s.err
}

type stubReferences struct{ reference string }

func (s *stubReferences) BiometricReference(context.Context, id.UserID) (string, error) {
	return s.reference, nil
}

type stubProbe struct{ untrusted bool }

func (s *stubProbe) IsUntrusted(context.Context, string) bool { return s.untrusted }

type recordingAuditor struct {
	events []audit.Event
}

func (a *recordingAuditor) Emit(_ context.Context, event audit.Event) error {
	a.events = append(a.events, event)
	return nil
}

type SubmitSuite struct {
	suite.Suite
	ctx context.Context
	now time.Time

	resolver *stubResolver
	probe    *stubProbe
	store    *ledger.InMemoryStore
	auditor  *recordingAuditor
	service  *Service
}

func TestSubmitSuite(t *testing.T) {
	suite.Run(t, new(SubmitSuite))
}

func (s *SubmitSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reference := biometric.EncodeEmbedding([]float32{1, 0})

	s.resolver = &stubResolver{session: &sessionmodels.Session{
		ID:        id.NewSessionID(),
		Title:     "Lecture",
		StartTime: s.now.Add(-time.Hour),
		EndTime:   s.now.Add(time.Hour),
	}}
	s.probe = &stubProbe{}
	s.store = ledger.NewInMemoryStore()
	s.auditor = &recordingAuditor{}

	g := gate.New(s.resolver, &stubReferences{reference: reference}, s.probe,
		biometric.NewCosineComparator(0.6), gate.Config{BiometricThreshold: 0.6}, logger)
	s.service = New(g, ledger.NewService(s.store, logger), testMetrics, s.auditor, logger)
	s.service.now = func() time.Time { return s.now }
}

func (s *SubmitSuite) request() *models.VerificationRequest {
	return &models.VerificationRequest{
		SessionID:       s.resolver.session.ID,
		UserID:          id.NewUserID(),
		Coordinate:      geofence.Coordinate{Lat: 6.5244, Lon: 3.3791},
		ClientAddress:   "203.0.113.9",
		BiometricSample: biometric.EncodeEmbedding([]float32{1, 0}),
	}
}

func (s *SubmitSuite) TestInvalidInputRejectedBeforeAnyStage() {
	cases := map[string]func(*models.VerificationRequest){
		"missing session id": func(r *models.VerificationRequest) { r.SessionID = id.SessionID{} },
		"missing user id":    func(r *models.VerificationRequest) { r.UserID = id.UserID{} },
		"latitude out of range": func(r *models.VerificationRequest) {
			r.Coordinate = geofence.Coordinate{Lat: 91, Lon: 0}
		},
		"empty biometric sample": func(r *models.VerificationRequest) { r.BiometricSample = "" },
	}

	for name, mutate := range cases {
		s.Run(name, func() {
			s.SetupTest()
			req := s.request()
			mutate(req)

			_, err := s.service.Submit(s.ctx, req)
			s.Require().Error(err)
			s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

			count, err := s.store.Count(s.ctx)
			s.Require().NoError(err)
			s.Zero(count, "nothing may be recorded for malformed input")
			s.Empty(s.auditor.events)
		})
	}
}

func (s *SubmitSuite) TestDenialLeavesLedgerUntouched() {
	s.probe.untrusted = true
	req := s.request()

	result, err := s.service.Submit(s.ctx, req)
	s.Require().NoError(err)
	s.Equal(models.OutcomeDeniedNetwork, result.Outcome)
	s.Empty(result.Ledger)

	count, err := s.store.Count(s.ctx)
	s.Require().NoError(err)
	s.Zero(count, "a denied event must not touch the ledger")

	s.Require().Len(s.auditor.events, 1)
	s.Equal(string(audit.EventVerificationDenied), s.auditor.events[0].Action)
	s.Equal(string(models.OutcomeDeniedNetwork), s.auditor.events[0].Outcome)
	s.Equal(req.ClientAddress, s.auditor.events[0].IP)
}

func (s *SubmitSuite) TestAdmittedLifecycle() {
	req := s.request()

	result, err := s.service.Submit(s.ctx, req)
	s.Require().NoError(err)
	s.Equal(models.OutcomeAdmitted, result.Outcome)
	s.Equal(models.ResultCheckedIn, result.Ledger)
	s.Require().NotNil(result.Similarity)
	s.InDelta(1.0, *result.Similarity, 1e-9)

	result, err = s.service.Submit(s.ctx, req)
	s.Require().NoError(err)
	s.Equal(models.ResultCheckedOut, result.Ledger)

	result, err = s.service.Submit(s.ctx, req)
	s.Require().NoError(err)
	s.Equal(models.ResultRejected, result.Ledger)
	s.Equal(models.OutcomeAdmitted, result.Outcome, "rejection happens after a passing verification")

	actions := make([]string, 0, len(s.auditor.events))
	for _, event := range s.auditor.events {
		actions = append(actions, event.Action)
	}
	s.Equal([]string{
		string(audit.EventCheckedIn),
		string(audit.EventCheckedOut),
		string(audit.EventDuplicateRejected),
	}, actions)
}

func (s *SubmitSuite) TestStatusFollowsLifecycle() {
	req := s.request()

	_, err := s.service.Status(s.ctx, req.SessionID, req.UserID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = s.service.Submit(s.ctx, req)
	s.Require().NoError(err)

	record, err := s.service.Status(s.ctx, req.SessionID, req.UserID)
	s.Require().NoError(err)
	s.Equal(s.now, record.CheckInTime)
	s.Nil(record.CheckOutTime)
	s.False(record.NetworkUntrusted, "an admitted event records a trusted origin")
}

func (s *SubmitSuite) TestStatusValidation() {
	_, err := s.service.Status(s.ctx, id.SessionID{}, id.NewUserID())
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, err = s.service.Status(s.ctx, id.NewSessionID(), id.UserID{})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *SubmitSuite) TestGateFaultReturnsErrorAndNoRecord() {
	req := s.request()
	s.resolver.session = nil
	s.resolver.err = dErrors.New(dErrors.CodeInternal, "store down")

	_, err := s.service.Submit(s.ctx, req)
	s.Require().Error(err)

	count, err := s.store.Count(s.ctx)
	s.Require().NoError(err)
	s.Zero(count)
}

func (s *SubmitSuite) TestUnknownSessionIsADenialNotAnError() {
	req := s.request()
	s.resolver.session = nil
	s.resolver.err = dErrors.New(dErrors.CodeNotFound, "session not found")

	result, err := s.service.Submit(s.ctx, req)
	s.Require().NoError(err)
	s.Equal(models.OutcomeDeniedSessionNotFound, result.Outcome)
	s.Empty(result.Ledger)
}
