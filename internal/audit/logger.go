// Package audit records best-effort auth audit events.
package audit

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/kaikyMoura/Schedule-Pro-API-sub000/internal/audit/domain"
	auditrepo "github.com/kaikyMoura/Schedule-Pro-API-sub000/internal/audit/repository"
)

// SentinelUserID is the user_id recorded for events that have no resolved user
// (e.g. login_failure for an unknown email).
const SentinelUserID = "_anonymous"

// AuditLogger writes a single audit event with explicit action/resource. Used
// by the session service code paths. LogEvent is best-effort: failures are
// logged and do not affect the caller.
type AuditLogger interface {
	LogEvent(ctx context.Context, userID, action, resource, ip, metadata string)
}

// Logger implements AuditLogger using the audit repository.
type Logger struct {
	repo auditrepo.Repository
}

// NewLogger returns an AuditLogger that persists to repo.
func NewLogger(repo auditrepo.Repository) *Logger {
	return &Logger{repo: repo}
}

// LogEvent writes one audit log entry. Best-effort: errors are logged and not returned.
func (l *Logger) LogEvent(ctx context.Context, userID, action, resource, ip, metadata string) {
	if l == nil || l.repo == nil {
		return
	}
	if userID == "" {
		userID = SentinelUserID
	}
	if ip == "" {
		ip = "unknown"
	}
	entry := &domain.AuditLog{
		ID:        uuid.New().String(),
		UserID:    userID,
		Action:    action,
		Resource:  resource,
		IP:        ip,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
	if err := l.repo.Create(ctx, entry); err != nil {
		log.Printf("audit: failed to log event %s/%s: %v", action, resource, err)
	}
}
