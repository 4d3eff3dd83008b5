// Package store persists user accounts.
package store

import (
	"context"

	"attendly/internal/identity/models"
	id "attendly/pkg/domain"
)

// Store is the user persistence contract. Email and matric number
// uniqueness is enforced by the store; violations surface as
// sentinel.ErrDuplicate.
type Store interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Count(ctx context.Context) (int, error)
}
