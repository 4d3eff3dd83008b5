package handler

import (
	"time"

	"attendly/internal/identity/models"
)

// UserResponse is the public view of an account. The password hash and
// the enrolled embedding never leave the service.
type UserResponse struct {
	ID           string    `json:"id"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	MatricNumber *string   `json:"matric_number,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// LoginResponse carries the issued access token.
type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        UserResponse `json:"user"`
}

func fromUser(user *models.User) UserResponse {
	return UserResponse{
		ID:           user.ID.String(),
		FullName:     user.FullName,
		Email:        user.Email,
		Role:         string(user.Role),
		MatricNumber: user.MatricNumber,
		CreatedAt:    user.CreatedAt,
	}
}
