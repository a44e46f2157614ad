package repository

import (
	"context"
	"database/sql"

	"github.com/kaikyMoura/Schedule-Pro-API-sub000/internal/audit/domain"
)

// PostgresRepository implements Repository over database/sql.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an audit repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create appends one audit log row.
func (r *PostgresRepository) Create(ctx context.Context, entry *domain.AuditLog) error {
	const q = `
		INSERT INTO audit_logs (id, user_id, action, resource, ip, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.ExecContext(ctx, q,
		entry.ID,
		entry.UserID,
		entry.Action,
		entry.Resource,
		entry.IP,
		sql.NullString{String: entry.Metadata, Valid: entry.Metadata != ""},
		entry.CreatedAt,
	)
	return err
}
