package handler

import (
	"strings"

	"attendly/internal/identity/models"
	dErrors "attendly/pkg/domain-errors"
)

// RegisterRequest is the HTTP request body for POST /auth/register.
type RegisterRequest struct {
	FullName      string  `json:"full_name"`
	Email         string  `json:"email"`
	Password      string  `json:"password"`
	Role          string  `json:"role"`
	FaceEmbedding string  `json:"face_embedding"`
	MatricNumber  *string `json:"matric_number,omitempty"`
}

// Validate normalizes the request. Field-level rules live in the
// service; this only rejects structurally empty bodies.
func (r *RegisterRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.FullName = strings.TrimSpace(r.FullName)
	r.Email = strings.TrimSpace(r.Email)
	r.Role = strings.TrimSpace(r.Role)
	if r.Role == "" {
		r.Role = string(models.RoleStudent)
	}
	return nil
}

// LoginRequest is the HTTP request body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Email = strings.TrimSpace(r.Email)
	if r.Email == "" {
		return dErrors.New(dErrors.CodeValidation, "email is required")
	}
	if r.Password == "" {
		return dErrors.New(dErrors.CodeValidation, "password is required")
	}
	return nil
}
