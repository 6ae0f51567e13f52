package models

import (
	"time"

	"github.com/google/uuid"
)

// UserRole represents the role embedded in a verified bearer token.
type UserRole string

const (
	RoleSender  UserRole = "sender"
	RoleCourier UserRole = "courier"
	RoleAdmin   UserRole = "admin"
)

// User is the minimal account reference shared across packages that need to
// know who is acting (auth middleware, ownership checks) without owning
// registration or login themselves.
type User struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	Email       string     `json:"email" db:"email"`
	PhoneNumber string     `json:"phone_number" db:"phone_number"`
	FirstName   string     `json:"first_name" db:"first_name"`
	LastName    string     `json:"last_name" db:"last_name"`
	Role        UserRole   `json:"role" db:"role"`
	IsActive    bool       `json:"is_active" db:"is_active"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}
