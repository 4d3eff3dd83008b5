package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"attendly/internal/attendance/models"
	id "attendly/pkg/domain"
	"attendly/pkg/sentinel"
)

type recordKey struct {
	sessionID id.SessionID
	userID    id.UserID
}

// InMemoryStore keeps the ledger in a map guarded by one mutex, which
// trivially satisfies the per-key atomicity contract.
type InMemoryStore struct {
	mu      sync.Mutex
	records map[recordKey]*models.AttendanceRecord
}

// NewInMemoryStore creates an empty in-memory ledger store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[recordKey]*models.AttendanceRecord)}
}

func (s *InMemoryStore) CreateIfAbsent(_ context.Context, record *models.AttendanceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := recordKey{record.SessionID, record.UserID}
	if _, exists := s.records[key]; exists {
		return sentinel.ErrDuplicate
	}
	cp := *record
	s.records[key] = &cp
	return nil
}

func (s *InMemoryStore) CompleteCheckout(_ context.Context, sessionID id.SessionID, userID id.UserID, checkOut time.Time, obs models.Observation) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, exists := s.records[recordKey{sessionID, userID}]
	if !exists || record.CheckOutTime != nil {
		return false, nil
	}

	// A losing racer may carry a timestamp captured before the winner's
	// insert; clamp so check-out never precedes check-in.
	out := checkOut
	if out.Before(record.CheckInTime) {
		out = record.CheckInTime
	}
	record.CheckOutTime = &out
	record.Lat = obs.Coordinate.Lat
	record.Lon = obs.Coordinate.Lon
	record.NetworkUntrusted = obs.NetworkUntrusted
	record.Similarity = obs.Similarity
	return true, nil
}

func (s *InMemoryStore) FindByKey(_ context.Context, sessionID id.SessionID, userID id.UserID) (*models.AttendanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, exists := s.records[recordKey{sessionID, userID}]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	cp := *record
	return &cp, nil
}

func (s *InMemoryStore) ListByDay(_ context.Context, day time.Time) ([]*models.AttendanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dayStart := day.UTC().Truncate(24 * time.Hour)
	dayEnd := dayStart.Add(24 * time.Hour)

	var out []*models.AttendanceRecord
	for _, record := range s.records {
		if !record.CheckInTime.Before(dayStart) && record.CheckInTime.Before(dayEnd) {
			cp := *record
			out = append(out, &cp)
		}
	}
	sortRecords(out)
	return out, nil
}

func (s *InMemoryStore) ListBySession(_ context.Context, sessionID id.SessionID) ([]*models.AttendanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.AttendanceRecord
	for key, record := range s.records {
		if key.sessionID == sessionID {
			cp := *record
			out = append(out, &cp)
		}
	}
	sortRecords(out)
	return out, nil
}

func (s *InMemoryStore) Count(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records), nil
}

func (s *InMemoryStore) DailyCounts(_ context.Context, days int) ([]DayCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byDay := make(map[time.Time]int)
	for _, record := range s.records {
		byDay[record.CheckInTime.UTC().Truncate(24*time.Hour)]++
	}

	out := make([]DayCount, 0, len(byDay))
	for day, count := range byDay {
		out = append(out, DayCount{Day: day, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day.After(out[j].Day) })
	if len(out) > days {
		out = out[:days]
	}
	return out, nil
}

func sortRecords(records []*models.AttendanceRecord) {
	sort.Slice(records, func(i, j int) bool {
		return records[i].CheckInTime.Before(records[j].CheckInTime)
	})
}
