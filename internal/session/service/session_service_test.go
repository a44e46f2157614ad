package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kaikyMoura/Schedule-Pro-API-sub000/internal/security"
	sessiondomain "github.com/kaikyMoura/Schedule-Pro-API-sub000/internal/session/domain"
	"github.com/kaikyMoura/Schedule-Pro-API-sub000/internal/token"
	userdomain "github.com/kaikyMoura/Schedule-Pro-API-sub000/internal/user/domain"
)

type memUserRepo struct {
	mu      sync.Mutex
	byID    map[string]*userdomain.User
	byEmail map[string]*userdomain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byID: make(map[string]*userdomain.User), byEmail: make(map[string]*userdomain.User)}
}

func (r *memUserRepo) GetByID(ctx context.Context, id string) (*userdomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[id], nil
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*userdomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byEmail[email], nil
}

func (r *memUserRepo) Create(ctx context.Context, u *userdomain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u2 := *u
	r.byID[u.ID] = &u2
	r.byEmail[u.Email] = &u2
	return nil
}

func (r *memUserRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byID[id]; ok {
		u.PasswordHash = passwordHash
	}
	return nil
}

// memSessionRepo honors the Repository CAS contract: RotateRefreshToken only
// succeeds for the caller that still sees the pre-rotation token.
type memSessionRepo struct {
	mu      sync.Mutex
	byToken map[string]*sessiondomain.Session
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{byToken: make(map[string]*sessiondomain.Session)}
}

func (r *memSessionRepo) GetByRefreshToken(ctx context.Context, refreshToken string) (*sessiondomain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.byToken[refreshToken]; ok {
		s2 := *s
		return &s2, nil
	}
	return nil, nil
}

func (r *memSessionRepo) Create(ctx context.Context, s *sessiondomain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s2 := *s
	r.byToken[s.RefreshToken] = &s2
	return nil
}

func (r *memSessionRepo) RotateRefreshToken(ctx context.Context, oldToken, newToken string, newExpiresAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byToken[oldToken]
	if !ok {
		return false, nil
	}
	delete(r.byToken, oldToken)
	s.RefreshToken = newToken
	s.ExpiresAt = newExpiresAt
	r.byToken[newToken] = s
	return true, nil
}

func (r *memSessionRepo) DeleteByRefreshToken(ctx context.Context, refreshToken string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byToken, refreshToken)
	return nil
}

func (r *memSessionRepo) DeleteByUser(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for tok, s := range r.byToken {
		if s.UserID == userID {
			delete(r.byToken, tok)
		}
	}
	return nil
}

func (r *memSessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for tok, s := range r.byToken {
		if !now.Before(s.ExpiresAt) {
			delete(r.byToken, tok)
			n++
		}
	}
	return n, nil
}

func (r *memSessionRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byToken)
}

func newTestService(t *testing.T) (*SessionService, *memUserRepo, *memSessionRepo) {
	t.Helper()
	users := newMemUserRepo()
	sessions := newMemSessionRepo()
	codec, err := token.NewCodec([]byte("unit-test-secret"), "schedule-pro-auth", 15*time.Minute)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	svc := NewSessionService(
		users,
		sessions,
		codec,
		token.NewRefreshGenerator(168*time.Hour),
		security.NewHasher(4), // min cost; tests only
		nil,
		nil,
		nil,
		time.Hour,
	)
	return svc, users, sessions
}

func seedUser(t *testing.T, svc *SessionService, users *memUserRepo, email, password string) *userdomain.User {
	t.Helper()
	hash, err := svc.hasher.Hash([]byte(password))
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	u := &userdomain.User{
		ID:           "user-" + email,
		Name:         "Test User",
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	if err := users.Create(context.Background(), u); err != nil {
		t.Fatalf("Create user: %v", err)
	}
	return u
}

func TestSessionService_Login(t *testing.T) {
	svc, users, sessions := newTestService(t)
	ctx := context.Background()
	seedUser(t, svc, users, "ada@example.com", "correct horse")

	pair, err := svc.Login(ctx, "Ada@Example.com", "correct horse", Device{UserAgent: "ua", IP: "10.0.0.1"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("Login returned empty tokens")
	}
	if pair.ExpiresIn() <= 0 {
		t.Errorf("ExpiresIn = %d, want positive", pair.ExpiresIn())
	}
	if sessions.count() != 1 {
		t.Errorf("session count = %d, want 1", sessions.count())
	}

	sess, _ := sessions.GetByRefreshToken(ctx, pair.RefreshToken)
	if sess == nil {
		t.Fatal("session row not found by refresh token")
	}
	if sess.UserAgent != "ua" || sess.IPAddress != "10.0.0.1" {
		t.Errorf("device context = %q/%q, want ua/10.0.0.1", sess.UserAgent, sess.IPAddress)
	}
}

func TestSessionService_LoginBadCredentials(t *testing.T) {
	svc, users, _ := newTestService(t)
	ctx := context.Background()
	seedUser(t, svc, users, "ada@example.com", "correct horse")

	if _, err := svc.Login(ctx, "ada@example.com", "wrong", Device{}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: want ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(ctx, "nobody@example.com", "x", Device{}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email: want ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(ctx, "", "", Device{}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("empty credentials: want ErrInvalidCredentials, got %v", err)
	}
}

func TestSessionService_MultipleSessionsPerUser(t *testing.T) {
	svc, users, sessions := newTestService(t)
	ctx := context.Background()
	seedUser(t, svc, users, "ada@example.com", "pw")

	for i := 0; i < 3; i++ {
		if _, err := svc.Login(ctx, "ada@example.com", "pw", Device{UserAgent: "device"}); err != nil {
			t.Fatalf("Login #%d: %v", i, err)
		}
	}
	if sessions.count() != 3 {
		t.Errorf("session count = %d, want 3 (one per device login)", sessions.count())
	}
}

func TestSessionService_RefreshRotates(t *testing.T) {
	svc, users, _ := newTestService(t)
	ctx := context.Background()
	seedUser(t, svc, users, "ada@example.com", "pw")

	pair, err := svc.Login(ctx, "ada@example.com", "pw", Device{})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	next, err := svc.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if next.RefreshToken == pair.RefreshToken {
		t.Fatal("refresh token was not rotated")
	}
	if next.AccessToken == "" {
		t.Fatal("Refresh returned empty access token")
	}

	// Rotation invariant: the presented token is permanently unusable.
	if _, err := svc.Refresh(ctx, pair.RefreshToken); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("second refresh with rotated token: want ErrSessionNotFound, got %v", err)
	}
	// The rotated-in token works.
	if _, err := svc.Refresh(ctx, next.RefreshToken); err != nil {
		t.Fatalf("refresh with rotated-in token: %v", err)
	}
}

func TestSessionService_RefreshEmbedsCurrentIdentity(t *testing.T) {
	svc, users, _ := newTestService(t)
	ctx := context.Background()
	u := seedUser(t, svc, users, "ada@example.com", "pw")

	pair, err := svc.Login(ctx, "ada@example.com", "pw", Device{})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	// Rename the user after login; the refreshed access token must carry the
	// new name, not the one captured at session creation.
	users.mu.Lock()
	users.byID[u.ID].Name = "Renamed User"
	users.mu.Unlock()

	next, err := svc.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	claims, err := svc.codec.Verify(next.AccessToken)
	if err != nil {
		t.Fatalf("Verify refreshed access token: %v", err)
	}
	if claims.Name != "Renamed User" {
		t.Errorf("refreshed token name = %q, want %q", claims.Name, "Renamed User")
	}
	if claims.Subject != u.ID {
		t.Errorf("refreshed token subject = %q, want %q", claims.Subject, u.ID)
	}
}

func TestSessionService_RefreshExpiredSession(t *testing.T) {
	svc, users, sessions := newTestService(t)
	ctx := context.Background()
	u := seedUser(t, svc, users, "ada@example.com", "pw")

	sess := &sessiondomain.Session{
		ID:           "sess-1",
		UserID:       u.ID,
		RefreshToken: "stale-token",
		CreatedAt:    time.Now().Add(-8 * 24 * time.Hour),
		ExpiresAt:    time.Now().Add(-time.Hour),
	}
	if err := sessions.Create(ctx, sess); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.Refresh(ctx, "stale-token"); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("refresh of expired session: want ErrSessionExpired, got %v", err)
	}
	// The lapsed row is removed on sight.
	if got, _ := sessions.GetByRefreshToken(ctx, "stale-token"); got != nil {
		t.Error("expired session row should be deleted on refresh attempt")
	}
}

func TestSessionService_RefreshUnknownToken(t *testing.T) {
	svc, _, _ := newTestService(t)

	if _, err := svc.Refresh(context.Background(), "never-issued"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("unknown token: want ErrSessionNotFound, got %v", err)
	}
	if _, err := svc.Refresh(context.Background(), ""); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("empty token: want ErrSessionNotFound, got %v", err)
	}
}

func TestSessionService_ConcurrentRefreshSingleWinner(t *testing.T) {
	svc, users, sessions := newTestService(t)
	ctx := context.Background()
	seedUser(t, svc, users, "ada@example.com", "pw")

	pair, err := svc.Login(ctx, "ada@example.com", "pw", Device{})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	const workers = 16
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)

	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			_, err := svc.Refresh(ctx, pair.RefreshToken)
			results <- err
		}()
	}

	close(start)
	wg.Wait()
	close(results)

	success := 0
	for err := range results {
		switch {
		case err == nil:
			success++
		case errors.Is(err, ErrSessionNotFound):
		default:
			t.Fatalf("unexpected refresh error: %v", err)
		}
	}
	if success != 1 {
		t.Fatalf("expected exactly one winner, got %d", success)
	}
	if sessions.count() != 1 {
		t.Fatalf("session count after race = %d, want 1", sessions.count())
	}
}

func TestSessionService_RevokeIdempotent(t *testing.T) {
	svc, users, sessions := newTestService(t)
	ctx := context.Background()
	seedUser(t, svc, users, "ada@example.com", "pw")

	pair, err := svc.Login(ctx, "ada@example.com", "pw", Device{})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if err := svc.Revoke(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if sessions.count() != 0 {
		t.Fatalf("session count after revoke = %d, want 0", sessions.count())
	}
	// Second revoke with the same token is a no-op, not an error.
	if err := svc.Revoke(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("second Revoke: %v", err)
	}
	if err := svc.Revoke(ctx, ""); err != nil {
		t.Fatalf("Revoke with empty token: %v", err)
	}

	if _, err := svc.Refresh(ctx, pair.RefreshToken); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("refresh after revoke: want ErrSessionNotFound, got %v", err)
	}
}

func TestSessionService_PasswordReset(t *testing.T) {
	svc, users, sessions := newTestService(t)
	ctx := context.Background()
	seedUser(t, svc, users, "ada@example.com", "old password")

	if _, err := svc.Login(ctx, "ada@example.com", "old password", Device{}); err != nil {
		t.Fatalf("Login: %v", err)
	}

	reset, err := svc.RequestPasswordReset(ctx, "ada@example.com")
	if err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}
	if reset == "" {
		t.Fatal("expected reset token for known email")
	}

	if err := svc.ResetPassword(ctx, reset, "new password"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	// All sessions are revoked by a completed reset.
	if sessions.count() != 0 {
		t.Errorf("session count after reset = %d, want 0", sessions.count())
	}
	if _, err := svc.Login(ctx, "ada@example.com", "old password", Device{}); !errors.Is(err, ErrInvalidCredentials) {
		t.Error("old password should no longer work")
	}
	if _, err := svc.Login(ctx, "ada@example.com", "new password", Device{}); err != nil {
		t.Errorf("new password should work: %v", err)
	}
}

func TestSessionService_PasswordResetValidation(t *testing.T) {
	svc, users, _ := newTestService(t)
	ctx := context.Background()
	u := seedUser(t, svc, users, "ada@example.com", "pw")

	// Both token and new password are required.
	if err := svc.ResetPassword(ctx, "", "new"); !errors.Is(err, ErrResetInvalid) {
		t.Errorf("missing token: want ErrResetInvalid, got %v", err)
	}
	if err := svc.ResetPassword(ctx, "some-token", ""); !errors.Is(err, ErrResetInvalid) {
		t.Errorf("missing new password: want ErrResetInvalid, got %v", err)
	}
	if err := svc.ResetPassword(ctx, "garbage", "new"); !errors.Is(err, ErrResetInvalid) {
		t.Errorf("garbage token: want ErrResetInvalid, got %v", err)
	}

	// An access token must not be accepted as a reset token.
	access, _, err := svc.codec.Sign(token.Identity{SubjectID: u.ID, Email: u.Email}, time.Minute)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if err := svc.ResetPassword(ctx, access, "new"); !errors.Is(err, ErrResetInvalid) {
		t.Errorf("access token as reset token: want ErrResetInvalid, got %v", err)
	}

	// Unknown email does not reveal anything.
	tok, err := svc.RequestPasswordReset(ctx, "nobody@example.com")
	if err != nil {
		t.Fatalf("RequestPasswordReset unknown email: %v", err)
	}
	if tok != "" {
		t.Error("unknown email should yield an empty reset token")
	}
}

func TestSessionService_SweepExpired(t *testing.T) {
	svc, users, sessions := newTestService(t)
	ctx := context.Background()
	u := seedUser(t, svc, users, "ada@example.com", "pw")

	if _, err := svc.Login(ctx, "ada@example.com", "pw", Device{}); err != nil {
		t.Fatalf("Login: %v", err)
	}
	_ = sessions.Create(ctx, &sessiondomain.Session{
		ID: "old-1", UserID: u.ID, RefreshToken: "old-token-1",
		CreatedAt: time.Now().Add(-9 * 24 * time.Hour), ExpiresAt: time.Now().Add(-2 * 24 * time.Hour),
	})
	_ = sessions.Create(ctx, &sessiondomain.Session{
		ID: "old-2", UserID: u.ID, RefreshToken: "old-token-2",
		CreatedAt: time.Now().Add(-9 * 24 * time.Hour), ExpiresAt: time.Now().Add(-time.Minute),
	})

	n, err := svc.SweepExpired(ctx)
	if err != nil {
		t.Fatalf("SweepExpired: %v", err)
	}
	if n != 2 {
		t.Errorf("swept %d sessions, want 2", n)
	}
	if sessions.count() != 1 {
		t.Errorf("session count after sweep = %d, want 1", sessions.count())
	}
}
