package domain

import (
	"context"
	"time"
)

// RoleAdmin is the default privileged role.
const (
	RoleAdmin     = "admin"
	RoleRecruiter = "recruiter"
)

type User struct {
	ID        string    `json:"id"` // identity provider subject
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	Update(ctx context.Context, user *User) error
}

type AuthUsecase interface {
	EnsureUserExists(ctx context.Context, user *User) (*User, error)
	GetCurrentUser(ctx context.Context, id string) (*User, error)
}
