// Package service orchestrates the session lifecycle: create on login,
// rotate on refresh, delete on logout or expiry.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kaikyMoura/Schedule-Pro-API-sub000/internal/audit"
	"github.com/kaikyMoura/Schedule-Pro-API-sub000/internal/security"
	sessiondomain "github.com/kaikyMoura/Schedule-Pro-API-sub000/internal/session/domain"
	sessionrepo "github.com/kaikyMoura/Schedule-Pro-API-sub000/internal/session/repository"
	"github.com/kaikyMoura/Schedule-Pro-API-sub000/internal/telemetry"
	"github.com/kaikyMoura/Schedule-Pro-API-sub000/internal/token"
	userdomain "github.com/kaikyMoura/Schedule-Pro-API-sub000/internal/user/domain"
	userrepo "github.com/kaikyMoura/Schedule-Pro-API-sub000/internal/user/repository"
)

// Sentinel errors for the session service; the HTTP layer maps them to status codes.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
	ErrResetInvalid       = errors.New("invalid or expired reset token")
)

// TokenPair is the outcome of Login, CreateSession, or Refresh.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// ExpiresIn returns the access token's remaining lifetime in whole seconds.
func (p *TokenPair) ExpiresIn() int64 {
	return int64(time.Until(p.AccessExpiresAt).Seconds())
}

// Device is the client context a session is bound to.
type Device struct {
	UserAgent string
	IP        string
}

// SessionService implements login, refresh-token rotation, revocation, and
// password reset over the user directory and the session store.
//
// Validation failures (bad credentials, unknown or expired sessions) are
// terminal for the request and must never be retried; store errors propagate
// unchanged so the caller can treat them as retryable infrastructure failures.
type SessionService struct {
	users    userrepo.Repository
	sessions sessionrepo.Repository
	codec    *token.Codec
	refresh  *token.RefreshGenerator
	hasher   *security.Hasher
	auditor  audit.AuditLogger
	emitter  telemetry.EventEmitter
	metrics  *telemetry.Metrics
	resetTTL time.Duration
}

// NewSessionService returns a SessionService with the given dependencies.
// auditor, emitter, and metrics may be nil; the corresponding signals are then skipped.
func NewSessionService(
	users userrepo.Repository,
	sessions sessionrepo.Repository,
	codec *token.Codec,
	refresh *token.RefreshGenerator,
	hasher *security.Hasher,
	auditor audit.AuditLogger,
	emitter telemetry.EventEmitter,
	metrics *telemetry.Metrics,
	resetTTL time.Duration,
) *SessionService {
	if resetTTL <= 0 {
		resetTTL = time.Hour
	}
	return &SessionService{
		users:    users,
		sessions: sessions,
		codec:    codec,
		refresh:  refresh,
		hasher:   hasher,
		auditor:  auditor,
		emitter:  emitter,
		metrics:  metrics,
		resetTTL: resetTTL,
	}
}

// Login verifies email/password against the user directory and creates a new
// session for the device. Returns ErrInvalidCredentials on any credential
// defect; the reason (unknown email vs. wrong password) is not distinguished.
func (s *SessionService) Login(ctx context.Context, email, password string, dev Device) (*TokenPair, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.recordFailure(ctx, email, dev)
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(user.PasswordHash, []byte(password)); err != nil {
		s.recordFailure(ctx, email, dev)
		return nil, ErrInvalidCredentials
	}
	pair, err := s.CreateSession(ctx, user, dev)
	if err != nil {
		return nil, err
	}
	s.record(ctx, telemetry.EventLogin, user.ID, "", dev, "")
	s.metrics.CountLogin(ctx)
	return pair, nil
}

// CreateSession persists a new session for the user and mints the token pair.
// Existing sessions are not checked: a user may hold one session per device,
// each independently renewable and revocable.
func (s *SessionService) CreateSession(ctx context.Context, user *userdomain.User, dev Device) (*TokenPair, error) {
	rt, err := s.refresh.Generate()
	if err != nil {
		return nil, err
	}
	sess := &sessiondomain.Session{
		ID:           uuid.New().String(),
		UserID:       user.ID,
		RefreshToken: rt.Token,
		UserAgent:    dev.UserAgent,
		IPAddress:    dev.IP,
		CreatedAt:    time.Now().UTC(),
		ExpiresAt:    rt.ExpiresAt,
	}
	if err := sess.Validate(); err != nil {
		return nil, err
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, err
	}
	access, accessExp, err := s.codec.Sign(identityOf(user), 0)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     rt.Token,
		RefreshExpiresAt: rt.ExpiresAt,
	}, nil
}

// Refresh exchanges a presented refresh token for a new token pair, rotating
// the stored token in place. The conditional update on the presented token is
// what decides a race between two refreshes: the loser's update matches zero
// rows and it observes ErrSessionNotFound.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" {
		return nil, ErrSessionNotFound
	}
	sess, err := s.sessions.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrSessionNotFound
	}
	if sess.Expired(time.Now().UTC()) {
		// Lapsed sessions are removed on sight; the delete is best-effort
		// since the sweep will also catch the row.
		_ = s.sessions.DeleteByRefreshToken(ctx, refreshToken)
		return nil, ErrSessionExpired
	}

	rt, err := s.refresh.Generate()
	if err != nil {
		return nil, err
	}
	rotated, err := s.sessions.RotateRefreshToken(ctx, refreshToken, rt.Token, rt.ExpiresAt)
	if err != nil {
		return nil, err
	}
	if !rotated {
		return nil, ErrSessionNotFound
	}

	// Re-read the owner so the new access token carries current name/email,
	// not whatever was true when the session was created.
	user, err := s.users.GetByID(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		_ = s.sessions.DeleteByRefreshToken(ctx, rt.Token)
		return nil, ErrSessionNotFound
	}
	access, accessExp, err := s.codec.Sign(identityOf(user), 0)
	if err != nil {
		return nil, err
	}

	dev := Device{UserAgent: sess.UserAgent, IP: sess.IPAddress}
	s.record(ctx, telemetry.EventRefresh, user.ID, sess.ID, dev, "")
	s.metrics.CountRefresh(ctx)

	return &TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     rt.Token,
		RefreshExpiresAt: rt.ExpiresAt,
	}, nil
}

// Revoke deletes the session holding the refresh token. Revoking a token that
// is already gone is a no-op, keeping logout idempotent.
func (s *SessionService) Revoke(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	sess, err := s.sessions.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		return err
	}
	if err := s.sessions.DeleteByRefreshToken(ctx, refreshToken); err != nil {
		return err
	}
	if sess != nil {
		dev := Device{UserAgent: sess.UserAgent, IP: sess.IPAddress}
		s.record(ctx, telemetry.EventLogout, sess.UserID, sess.ID, dev, "")
		s.metrics.CountRevocation(ctx)
	}
	return nil
}

// RequestPasswordReset mints a single-use reset token for the account with the
// given email. Returns the empty string when the email is unknown so callers
// cannot probe for registered addresses.
func (s *SessionService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return "", nil
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", nil
	}
	reset, _, err := s.codec.SignPurpose(identityOf(user), token.PurposePasswordReset, s.resetTTL)
	if err != nil {
		return "", err
	}
	s.record(ctx, telemetry.EventReset, user.ID, "", Device{}, "requested")
	return reset, nil
}

// ResetPassword validates the reset token, replaces the user's password hash,
// and revokes every session the user holds. Both arguments are required.
func (s *SessionService) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	if resetToken == "" || newPassword == "" {
		return ErrResetInvalid
	}
	claims, err := s.codec.Verify(resetToken)
	if err != nil {
		return ErrResetInvalid
	}
	if claims.Purpose != token.PurposePasswordReset {
		return ErrResetInvalid
	}
	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrResetInvalid
	}
	hash, err := s.hasher.Hash([]byte(newPassword))
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return err
	}
	// A reset invalidates every outstanding credential for the account.
	if err := s.sessions.DeleteByUser(ctx, user.ID); err != nil {
		return err
	}
	s.record(ctx, telemetry.EventReset, user.ID, "", Device{}, "completed")
	return nil
}

// SweepExpired deletes all lapsed sessions and returns the number removed.
func (s *SessionService) SweepExpired(ctx context.Context) (int64, error) {
	return s.sessions.DeleteExpired(ctx, time.Now().UTC())
}

func (s *SessionService) record(ctx context.Context, eventType, userID, sessionID string, dev Device, metadata string) {
	if s.auditor != nil {
		s.auditor.LogEvent(ctx, userID, eventType, "session", dev.IP, metadata)
	}
	if s.emitter != nil {
		telemetry.EmitAsync(s.emitter, &telemetry.Event{
			EventType: eventType,
			UserID:    userID,
			SessionID: sessionID,
			IP:        dev.IP,
			UserAgent: dev.UserAgent,
			Metadata:  metadata,
			CreatedAt: time.Now().UTC(),
		})
	}
}

func (s *SessionService) recordFailure(ctx context.Context, email string, dev Device) {
	if s.auditor != nil {
		s.auditor.LogEvent(ctx, "", telemetry.EventLoginFailure, "session", dev.IP, email)
	}
	s.metrics.CountLoginFailure(ctx)
}

func identityOf(u *userdomain.User) token.Identity {
	return token.Identity{SubjectID: u.ID, Name: u.Name, Email: u.Email}
}
