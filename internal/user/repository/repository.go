// Package repository defines the user directory contract and its Postgres
// implementation.
package repository

import (
	"context"

	"github.com/kaikyMoura/Schedule-Pro-API-sub000/internal/user/domain"
)

// Repository is the user directory as seen by the auth core: lookups by id and
// email, plus password replacement for the reset flow. Create exists for
// seeding; everything else is read-only.
type Repository interface {
	// GetByID returns the user for id, or nil if not found. It returns an
	// error only for database failures, not for missing rows.
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// GetByEmail returns the user with the given email, or nil if not found.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// Create persists the user. The user must have ID set.
	Create(ctx context.Context, u *domain.User) error
	// UpdatePassword replaces the user's password hash.
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}
