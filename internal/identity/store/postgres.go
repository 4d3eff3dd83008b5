package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"attendly/internal/identity/models"
	id "attendly/pkg/domain"
	"attendly/pkg/sentinel"
)

// Postgres persists users in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed user store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (user_id, full_name, email, password_hash, role, face_embedding, matric_number, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	var matric sql.NullString
	if user.MatricNumber != nil {
		matric = sql.NullString{String: *user.MatricNumber, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(user.ID),
		user.FullName,
		strings.ToLower(user.Email),
		user.PasswordHash,
		string(user.Role),
		user.FaceEmbedding,
		matric,
		user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrDuplicate
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, userID id.UserID) (*models.User, error) {
	return s.findOne(ctx, `WHERE user_id = $1`, uuid.UUID(userID))
}

func (s *Postgres) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, `WHERE email = $1`, strings.ToLower(email))
}

func (s *Postgres) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

func (s *Postgres) findOne(ctx context.Context, where string, arg any) (*models.User, error) {
	query := `
		SELECT user_id, full_name, email, password_hash, role, face_embedding, matric_number, created_at
		FROM users ` + where

	var user models.User
	var userID uuid.UUID
	var role string
	var matric sql.NullString
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&userID, &user.FullName, &user.Email, &user.PasswordHash,
		&role, &user.FaceEmbedding, &matric, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	user.ID = id.UserID(userID)
	user.Role = models.Role(role)
	if matric.Valid {
		m := matric.String
		user.MatricNumber = &m
	}
	return &user, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation"
}
