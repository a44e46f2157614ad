package domain

import "time"

// AuditLog is one persisted auth audit event.
type AuditLog struct {
	ID        string
	UserID    string
	Action    string // e.g. "login", "login_failure", "refresh", "logout", "password_reset"
	Resource  string // e.g. "session", "user"
	IP        string
	Metadata  string
	CreatedAt time.Time
}
