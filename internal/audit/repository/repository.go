// Package repository persists audit log entries.
package repository

import (
	"context"

	"github.com/kaikyMoura/Schedule-Pro-API-sub000/internal/audit/domain"
)

// Repository stores audit log entries. Writes are append-only.
type Repository interface {
	Create(ctx context.Context, entry *domain.AuditLog) error
}
