package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"attendly/internal/session/models"
	id "attendly/pkg/domain"
	"attendly/pkg/sentinel"
)

// Postgres persists sessions in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed session store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Create(ctx context.Context, session *models.Session) error {
	query := `
		INSERT INTO attendance_sessions
			(session_id, created_by, title, start_time, end_time, qr_ref, gps_lat, gps_lon, allowed_radius, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	var lat, lon sql.NullFloat64
	var radius sql.NullInt64
	if session.Geofence != nil {
		lat = sql.NullFloat64{Float64: session.Geofence.Lat, Valid: true}
		lon = sql.NullFloat64{Float64: session.Geofence.Lon, Valid: true}
		radius = sql.NullInt64{Int64: int64(session.Geofence.RadiusMeters), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(session.ID),
		uuid.UUID(session.CreatedBy),
		session.Title,
		session.StartTime,
		session.EndTime,
		session.QRRef,
		lat,
		lon,
		radius,
		session.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrDuplicate
		}
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, sessionID id.SessionID) (*models.Session, error) {
	query := `
		SELECT session_id, created_by, title, start_time, end_time, qr_ref, gps_lat, gps_lon, allowed_radius, created_at
		FROM attendance_sessions
		WHERE session_id = $1
	`
	row := s.db.QueryRowContext(ctx, query, uuid.UUID(sessionID))

	var session models.Session
	var sid, createdBy uuid.UUID
	var lat, lon sql.NullFloat64
	var radius sql.NullInt64
	err := row.Scan(&sid, &createdBy, &session.Title, &session.StartTime, &session.EndTime,
		&session.QRRef, &lat, &lon, &radius, &session.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find session: %w", err)
	}

	session.ID = id.SessionID(sid)
	session.CreatedBy = id.UserID(createdBy)
	if lat.Valid && lon.Valid && radius.Valid {
		session.Geofence = &models.Geofence{
			Lat:          lat.Float64,
			Lon:          lon.Float64,
			RadiusMeters: int(radius.Int64),
		}
	}
	return &session, nil
}

func (s *Postgres) SetQRRef(ctx context.Context, sessionID id.SessionID, qrRef string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE attendance_sessions SET qr_ref = $2 WHERE session_id = $1`,
		uuid.UUID(sessionID), qrRef)
	if err != nil {
		return fmt.Errorf("set qr ref: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set qr ref rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation"
}
