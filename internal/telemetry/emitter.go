// Package telemetry emits auth lifecycle events to optional backends
// (Kafka, OTel) and records auth counters.
package telemetry

import (
	"context"
	"time"
)

// Event types emitted by the auth core.
const (
	EventLogin        = "login"
	EventLoginFailure = "login_failure"
	EventRefresh      = "refresh"
	EventRenewal      = "renewal"
	EventLogout       = "logout"
	EventReset        = "password_reset"
)

// Event is one auth lifecycle event. Token values are never included.
type Event struct {
	EventType string    `json:"event_type"`
	UserID    string    `json:"user_id,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
	IP        string    `json:"ip,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	Metadata  string    `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// EventEmitter delivers one telemetry event. Implementations must be safe for
// concurrent use and must treat delivery as best-effort.
type EventEmitter interface {
	Emit(ctx context.Context, event *Event) error
}

// NoopEmitter discards all events.
type NoopEmitter struct{}

// Emit discards the event.
func (NoopEmitter) Emit(context.Context, *Event) error { return nil }

// MultiEmitter fans one event out to several emitters. Nil entries are skipped;
// the first error is returned after all emitters have been tried.
type MultiEmitter []EventEmitter

// Emit delivers the event to every non-nil emitter.
func (m MultiEmitter) Emit(ctx context.Context, event *Event) error {
	var firstErr error
	for _, e := range m {
		if e == nil {
			continue
		}
		if err := e.Emit(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
