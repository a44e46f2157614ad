package domain

import (
	"errors"
	"time"
)

// Session is the persisted record binding a refresh token to a user and the
// device context it was issued for. A row's existence is itself the "active"
// signal: rotation mutates the row in place, logout and expiry delete it.
type Session struct {
	ID           string
	UserID       string
	RefreshToken string // opaque, unique across all live sessions
	UserAgent    string
	IPAddress    string
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

// Validate validates the session for persistence. Returns an error describing
// the first validation failure.
func (s *Session) Validate() error {
	if s.ID == "" {
		return errors.New("session id is required")
	}
	if s.UserID == "" {
		return errors.New("user id is required")
	}
	if s.RefreshToken == "" {
		return errors.New("refresh token is required")
	}
	if !s.ExpiresAt.After(time.Now()) {
		return errors.New("expiry must be in the future")
	}
	return nil
}

// Expired reports whether the session has lapsed at the given instant.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
