package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"attendly/internal/attendance/models"
	id "attendly/pkg/domain"
	"attendly/pkg/sentinel"
)

// PostgresStore persists the ledger in PostgreSQL. Atomicity per key
// comes from the records_session_user_uq constraint plus conditional
// updates; no explicit transactions or advisory locks needed.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed ledger store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateIfAbsent(ctx context.Context, record *models.AttendanceRecord) error {
	query := `
		INSERT INTO attendance_records
			(record_id, session_id, user_id, check_in_time, check_out_time, gps_lat, gps_lon, vpn_detected, face_match_score)
		VALUES ($1, $2, $3, $4, NULL, $5, $6, $7, $8)
		ON CONFLICT ON CONSTRAINT records_session_user_uq DO NOTHING
	`
	result, err := s.db.ExecContext(ctx, query,
		uuid.UUID(record.ID),
		uuid.UUID(record.SessionID),
		uuid.UUID(record.UserID),
		record.CheckInTime,
		record.Lat,
		record.Lon,
		record.NetworkUntrusted,
		nullFloat(record.Similarity),
	)
	if err != nil {
		return fmt.Errorf("insert attendance record: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert attendance record rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrDuplicate
	}
	return nil
}

func (s *PostgresStore) CompleteCheckout(ctx context.Context, sessionID id.SessionID, userID id.UserID, checkOut time.Time, obs models.Observation) (bool, error) {
	// GREATEST keeps check-out from preceding check-in when a losing
	// racer arrives with an older timestamp.
	query := `
		UPDATE attendance_records
		SET check_out_time = GREATEST(check_in_time, $3), gps_lat = $4, gps_lon = $5, vpn_detected = $6, face_match_score = $7
		WHERE session_id = $1 AND user_id = $2 AND check_out_time IS NULL
	`
	result, err := s.db.ExecContext(ctx, query,
		uuid.UUID(sessionID),
		uuid.UUID(userID),
		checkOut,
		obs.Coordinate.Lat,
		obs.Coordinate.Lon,
		obs.NetworkUntrusted,
		nullFloat(obs.Similarity),
	)
	if err != nil {
		return false, fmt.Errorf("complete checkout: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("complete checkout rows affected: %w", err)
	}
	return rows == 1, nil
}

func (s *PostgresStore) FindByKey(ctx context.Context, sessionID id.SessionID, userID id.UserID) (*models.AttendanceRecord, error) {
	query := selectRecords + ` WHERE session_id = $1 AND user_id = $2`
	row := s.db.QueryRowContext(ctx, query, uuid.UUID(sessionID), uuid.UUID(userID))
	record, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find attendance record: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) ListByDay(ctx context.Context, day time.Time) ([]*models.AttendanceRecord, error) {
	dayStart := day.UTC().Truncate(24 * time.Hour)
	query := selectRecords + `
		WHERE check_in_time >= $1 AND check_in_time < $2
		ORDER BY check_in_time
	`
	rows, err := s.db.QueryContext(ctx, query, dayStart, dayStart.Add(24*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("list records by day: %w", err)
	}
	return collectRecords(rows)
}

func (s *PostgresStore) ListBySession(ctx context.Context, sessionID id.SessionID) ([]*models.AttendanceRecord, error) {
	query := selectRecords + ` WHERE session_id = $1 ORDER BY check_in_time`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(sessionID))
	if err != nil {
		return nil, fmt.Errorf("list records by session: %w", err)
	}
	return collectRecords(rows)
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM attendance_records`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) DailyCounts(ctx context.Context, days int) ([]DayCount, error) {
	query := `
		SELECT date_trunc('day', check_in_time AT TIME ZONE 'UTC') AS day, COUNT(*)
		FROM attendance_records
		GROUP BY day
		ORDER BY day DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, days)
	if err != nil {
		return nil, fmt.Errorf("daily counts: %w", err)
	}
	defer rows.Close()

	var out []DayCount
	for rows.Next() {
		var dc DayCount
		if err := rows.Scan(&dc.Day, &dc.Count); err != nil {
			return nil, fmt.Errorf("scan daily count: %w", err)
		}
		out = append(out, dc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily counts: %w", err)
	}
	return out, nil
}

const selectRecords = `
	SELECT record_id, session_id, user_id, check_in_time, check_out_time, gps_lat, gps_lon, vpn_detected, face_match_score
	FROM attendance_records`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.AttendanceRecord, error) {
	var record models.AttendanceRecord
	var recordID, sessionID, userID uuid.UUID
	var checkOut sql.NullTime
	var score sql.NullFloat64
	err := row.Scan(&recordID, &sessionID, &userID, &record.CheckInTime, &checkOut,
		&record.Lat, &record.Lon, &record.NetworkUntrusted, &score)
	if err != nil {
		return nil, err
	}

	record.ID = id.RecordID(recordID)
	record.SessionID = id.SessionID(sessionID)
	record.UserID = id.UserID(userID)
	if checkOut.Valid {
		t := checkOut.Time
		record.CheckOutTime = &t
	}
	if score.Valid {
		v := score.Float64
		record.Similarity = &v
	}
	return &record, nil
}

func collectRecords(rows *sql.Rows) ([]*models.AttendanceRecord, error) {
	defer rows.Close()

	var out []*models.AttendanceRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attendance record: %w", err)
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance records: %w", err)
	}
	return out, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
