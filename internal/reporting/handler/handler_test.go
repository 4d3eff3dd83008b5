package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"attendly/internal/reporting/handler/mocks"
	"attendly/internal/reporting/service"
	id "attendly/pkg/domain"
	dErrors "attendly/pkg/domain-errors"
)

type HandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	router  http.Handler
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)

	h := New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	h.Register(r)
	s.router = r
}

func (s *HandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *HandlerSuite) get(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) TestSummary() {
	s.service.EXPECT().Summary(gomock.Any()).Return(&service.Summary{
		TotalUsers:    12,
		TotalRecords:  40,
		CheckInsToday: 5,
		StillOnSite:   2,
	}, nil)

	rec := s.get("/admin/dashboard/summary")
	s.Equal(http.StatusOK, rec.Code)

	var summary service.Summary
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&summary))
	s.Equal(12, summary.TotalUsers)
	s.Equal(5, summary.CheckInsToday)
}

func (s *HandlerSuite) TestSummaryFailure() {
	s.service.EXPECT().Summary(gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeInternal, "store down"))

	rec := s.get("/admin/dashboard/summary")
	s.Equal(http.StatusInternalServerError, rec.Code)
}

func (s *HandlerSuite) TestAnalyticsDefaultsToSevenDays() {
	s.service.EXPECT().Analytics(gomock.Any(), 7).Return([]service.DayCount{
		{Day: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), Count: 3},
	}, nil)

	rec := s.get("/admin/dashboard/analytics")
	s.Equal(http.StatusOK, rec.Code)
}

func (s *HandlerSuite) TestAnalyticsHonorsDaysParam() {
	s.service.EXPECT().Analytics(gomock.Any(), 30).Return(nil, nil)

	rec := s.get("/admin/dashboard/analytics?days=30")
	s.Equal(http.StatusOK, rec.Code)
}

func (s *HandlerSuite) TestAnalyticsRejectsBadDaysParam() {
	rec := s.get("/admin/dashboard/analytics?days=soon")
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestSessionReport() {
	sessionID := id.NewSessionID()
	s.service.EXPECT().SessionReport(gomock.Any(), sessionID).Return(&service.SessionReport{
		SessionID:   sessionID,
		Total:       3,
		StillOnSite: 1,
	}, nil)

	rec := s.get("/admin/sessions/" + sessionID.String() + "/records")
	s.Equal(http.StatusOK, rec.Code)

	var report service.SessionReport
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&report))
	s.Equal(3, report.Total)
	s.Equal(1, report.StillOnSite)
}

func (s *HandlerSuite) TestSessionReportRejectsMalformedID() {
	rec := s.get("/admin/sessions/not-a-uuid/records")
	s.Equal(http.StatusBadRequest, rec.Code)
}
