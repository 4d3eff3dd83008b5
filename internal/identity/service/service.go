// Package service implements account registration, login, and
// biometric reference lookup.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/asaskevich/govalidator"
	"golang.org/x/crypto/bcrypt"

	"attendly/internal/biometric"
	"attendly/internal/identity/models"
	"attendly/internal/identity/store"
	id "attendly/pkg/domain"
	dErrors "attendly/pkg/domain-errors"
	audit "attendly/pkg/platform/audit"
	"attendly/pkg/requestcontext"
	"attendly/pkg/sentinel"
)

const minPasswordLength = 8

// Auditor records identity events. Satisfied by the audit publisher.
type Auditor interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service owns the user lifecycle.
type Service struct {
	store   store.Store
	tokens  *TokenIssuer
	auditor Auditor
	logger  *slog.Logger
	now     func() time.Time
}

// New builds an identity service.
func New(s store.Store, tokens *TokenIssuer, auditor Auditor, logger *slog.Logger) *Service {
	return &Service{store: s, tokens: tokens, auditor: auditor, logger: logger, now: time.Now}
}

// RegisterParams carries a registration request.
type RegisterParams struct {
	FullName      string
	Email         string
	Password      string
	Role          models.Role
	FaceEmbedding string
	MatricNumber  *string
}

// Register creates an account with a hashed password and an enrolled
// biometric reference.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*models.User, error) {
	if err := validateRegistration(params); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "hash password")
	}

	user := &models.User{
		ID:            id.NewUserID(),
		FullName:      params.FullName,
		Email:         params.Email,
		PasswordHash:  string(hash),
		Role:          params.Role,
		FaceEmbedding: params.FaceEmbedding,
		MatricNumber:  params.MatricNumber,
		CreatedAt:     s.now().UTC(),
	}

	if err := s.store.Create(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrDuplicate) {
			return nil, dErrors.New(dErrors.CodeConflict, "email or matric number already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "create user")
	}

	s.audit(ctx, user.ID, audit.EventUserRegistered, "")
	s.logger.InfoContext(ctx, "user registered",
		"user_id", user.ID.String(),
		"role", string(user.Role),
		"request_id", requestcontext.RequestID(ctx))
	return user, nil
}

// Login verifies credentials and returns a signed access token.
func (s *Service) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			// Indistinguishable from a wrong password on purpose.
			s.audit(ctx, id.UserID{}, audit.EventLoginFailed, "unknown_email")
			return "", nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return "", nil, dErrors.Wrap(err, dErrors.CodeInternal, "find user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.audit(ctx, user.ID, audit.EventLoginFailed, "bad_password")
		return "", nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}

	token, err := s.tokens.IssueToken(user.ID, string(user.Role))
	if err != nil {
		return "", nil, dErrors.Wrap(err, dErrors.CodeInternal, "issue token")
	}

	s.audit(ctx, user.ID, audit.EventLoginSucceeded, "")
	return token, user, nil
}

// BiometricReference returns the enrolled reference for a user. It is
// the gate's reference source.
func (s *Service) BiometricReference(ctx context.Context, userID id.UserID) (string, error) {
	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "find user")
	}
	return user.FaceEmbedding, nil
}

func validateRegistration(params RegisterParams) error {
	switch {
	case params.FullName == "":
		return dErrors.New(dErrors.CodeInvalidInput, "full name is required")
	case !govalidator.IsEmail(params.Email):
		return dErrors.New(dErrors.CodeInvalidInput, "invalid email address")
	case len(params.Password) < minPasswordLength:
		return dErrors.Newf(dErrors.CodeInvalidInput, "password must be at least %d characters", minPasswordLength)
	case !params.Role.Valid():
		return dErrors.New(dErrors.CodeInvalidInput, "unknown role")
	case params.MatricNumber != nil && *params.MatricNumber == "":
		return dErrors.New(dErrors.CodeInvalidInput, "matric number cannot be empty")
	}
	embedding, err := biometric.DecodeEmbedding(params.FaceEmbedding)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid face embedding")
	}
	// An empty embedding would enroll fine and then fail every
	// comparison; reject it here where it reads as the input problem
	// it is.
	if len(embedding) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "face embedding is required")
	}
	return nil
}

func (s *Service) audit(ctx context.Context, userID id.UserID, action audit.AuditEvent, reason string) {
	event := audit.Event{
		UserID:    userID,
		Action:    string(action),
		Reason:    reason,
		IP:        requestcontext.ClientIP(ctx),
		RequestID: requestcontext.RequestID(ctx),
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", string(action), "error", err)
	}
}
