// Package repository defines the session store contract and its Postgres
// implementation.
package repository

import (
	"context"
	"time"

	"github.com/kaikyMoura/Schedule-Pro-API-sub000/internal/session/domain"
)

// Repository is the narrow session store used by the session service.
//
// RotateRefreshToken is the one correctness-critical operation: it must be a
// single conditional write keyed on the pre-rotation token so that of two
// concurrent refreshes presenting the same token, exactly one observes it.
type Repository interface {
	// GetByRefreshToken returns the session holding the given refresh token,
	// or nil if no row matches. It returns an error only for store failures,
	// not for missing rows.
	GetByRefreshToken(ctx context.Context, refreshToken string) (*domain.Session, error)
	// Create persists a new session row. The session must have ID set.
	Create(ctx context.Context, s *domain.Session) error
	// RotateRefreshToken atomically replaces oldToken with newToken and the new
	// expiry on the row currently holding oldToken. Returns false when no row
	// holds oldToken (already rotated away, revoked, or never issued).
	RotateRefreshToken(ctx context.Context, oldToken, newToken string, newExpiresAt time.Time) (bool, error)
	// DeleteByRefreshToken removes the row holding the token. Deleting a token
	// that no longer exists is not an error.
	DeleteByRefreshToken(ctx context.Context, refreshToken string) error
	// DeleteByUser removes every session belonging to the user.
	DeleteByUser(ctx context.Context, userID string) error
	// DeleteExpired removes all sessions whose expiry is at or before now and
	// returns the number of rows deleted.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
