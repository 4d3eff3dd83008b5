// Package models defines the identity domain types.
package models

import (
	"time"

	id "attendly/pkg/domain"
)

// Role classifies what a user may do.
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleAdmin
}

// User is a registered account. FaceEmbedding is the enrolled
// biometric reference, stored in its encoded wire form. MatricNumber
// is set for students only and unique when present.
type User struct {
	ID            id.UserID
	FullName      string
	Email         string
	PasswordHash  string
	Role          Role
	FaceEmbedding string
	MatricNumber  *string
	CreatedAt     time.Time
}
