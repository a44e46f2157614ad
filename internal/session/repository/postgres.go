package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/kaikyMoura/Schedule-Pro-API-sub000/internal/session/domain"
)

// PostgresRepository implements Repository over database/sql.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a session repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByRefreshToken returns the session holding refreshToken, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByRefreshToken(ctx context.Context, refreshToken string) (*domain.Session, error) {
	const q = `
		SELECT id, user_id, refresh_token, user_agent, ip_address, created_at, expires_at
		FROM sessions
		WHERE refresh_token = $1`
	var s domain.Session
	var userAgent, ipAddress sql.NullString
	err := r.db.QueryRowContext(ctx, q, refreshToken).Scan(
		&s.ID, &s.UserID, &s.RefreshToken, &userAgent, &ipAddress, &s.CreatedAt, &s.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	s.UserAgent = userAgent.String
	s.IPAddress = ipAddress.String
	return &s, nil
}

// Create persists the session to the database. The session must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, s *domain.Session) error {
	const q = `
		INSERT INTO sessions (id, user_id, refresh_token, user_agent, ip_address, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.ExecContext(ctx, q,
		s.ID,
		s.UserID,
		s.RefreshToken,
		sql.NullString{String: s.UserAgent, Valid: s.UserAgent != ""},
		sql.NullString{String: s.IPAddress, Valid: s.IPAddress != ""},
		s.CreatedAt,
		s.ExpiresAt,
	)
	return err
}

// RotateRefreshToken replaces oldToken with newToken on the row that still
// holds oldToken. The WHERE clause on the pre-rotation value makes the update
// the compare-and-swap that decides which of two racing refreshes wins; the
// affected-row count tells the loser apart.
func (r *PostgresRepository) RotateRefreshToken(ctx context.Context, oldToken, newToken string, newExpiresAt time.Time) (bool, error) {
	const q = `
		UPDATE sessions
		SET refresh_token = $1, expires_at = $2
		WHERE refresh_token = $3`
	res, err := r.db.ExecContext(ctx, q, newToken, newExpiresAt, oldToken)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// DeleteByRefreshToken removes the row holding refreshToken; a no-op when the
// token is already gone, to keep logout idempotent.
func (r *PostgresRepository) DeleteByRefreshToken(ctx context.Context, refreshToken string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE refresh_token = $1`, refreshToken)
	return err
}

// DeleteByUser removes every session belonging to userID.
func (r *PostgresRepository) DeleteByUser(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
	return err
}

// DeleteExpired removes all sessions whose expiry is at or before now.
func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
