// Package service aggregates ledger data for the admin dashboard.
package service

import (
	"context"
	"log/slog"
	"time"

	"attendly/internal/attendance/ledger"
	identitystore "attendly/internal/identity/store"
	id "attendly/pkg/domain"
	dErrors "attendly/pkg/domain-errors"
)

// maxAnalyticsDays caps the analytics window; the dashboard chart
// never shows more than a quarter.
const maxAnalyticsDays = 90

// Summary is the dashboard headline view.
type Summary struct {
	TotalUsers    int `json:"total_users"`
	TotalRecords  int `json:"total_records"`
	CheckInsToday int `json:"check_ins_today"`
	StillOnSite   int `json:"still_on_site"`
}

// DayCount is one bar of the analytics chart.
type DayCount struct {
	Day   time.Time `json:"day"`
	Count int       `json:"count"`
}

// SessionEntry is one attendee row in a per-session report.
type SessionEntry struct {
	UserID       id.UserID  `json:"user_id"`
	CheckInTime  time.Time  `json:"check_in_time"`
	CheckOutTime *time.Time `json:"check_out_time,omitempty"`
}

// SessionReport is the attendee roll for one session.
type SessionReport struct {
	SessionID   id.SessionID   `json:"session_id"`
	Total       int            `json:"total"`
	StillOnSite int            `json:"still_on_site"`
	Entries     []SessionEntry `json:"entries"`
}

// Service computes dashboard aggregates.
type Service struct {
	records ledger.Store
	users   identitystore.Store
	logger  *slog.Logger
	now     func() time.Time
}

// New builds a reporting service.
func New(records ledger.Store, users identitystore.Store, logger *slog.Logger) *Service {
	return &Service{records: records, users: users, logger: logger, now: time.Now}
}

// Summary returns the headline numbers for today.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	totalUsers, err := s.users.Count(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "count users")
	}
	totalRecords, err := s.records.Count(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "count records")
	}

	today, err := s.records.ListByDay(ctx, s.now().UTC())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list today's records")
	}

	stillOnSite := 0
	for _, record := range today {
		if record.CheckOutTime == nil {
			stillOnSite++
		}
	}

	return &Summary{
		TotalUsers:    totalUsers,
		TotalRecords:  totalRecords,
		CheckInsToday: len(today),
		StillOnSite:   stillOnSite,
	}, nil
}

// Analytics returns per-day check-in counts for the last days, newest
// first.
func (s *Service) Analytics(ctx context.Context, days int) ([]DayCount, error) {
	if days <= 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "days must be positive")
	}
	if days > maxAnalyticsDays {
		days = maxAnalyticsDays
	}

	counts, err := s.records.DailyCounts(ctx, days)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "daily counts")
	}

	out := make([]DayCount, 0, len(counts))
	for _, c := range counts {
		out = append(out, DayCount{Day: c.Day, Count: c.Count})
	}
	return out, nil
}

// SessionReport returns the attendee roll for one session. An unknown
// session yields an empty roll, not an error; the ledger does not know
// which sessions exist.
func (s *Service) SessionReport(ctx context.Context, sessionID id.SessionID) (*SessionReport, error) {
	records, err := s.records.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list session records")
	}

	report := &SessionReport{
		SessionID: sessionID,
		Total:     len(records),
		Entries:   make([]SessionEntry, 0, len(records)),
	}
	for _, record := range records {
		if record.CheckOutTime == nil {
			report.StillOnSite++
		}
		report.Entries = append(report.Entries, SessionEntry{
			UserID:       record.UserID,
			CheckInTime:  record.CheckInTime,
			CheckOutTime: record.CheckOutTime,
		})
	}
	return report, nil
}
