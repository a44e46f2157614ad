package token

import (
	"crypto/rand"
	"encoding/base64"
	"time"
)

const refreshTokenSize = 16 // 128 bits of randomness

// RefreshToken is an opaque refresh credential and its absolute expiry.
// It carries no claims; its validity is determined solely by a matching,
// unexpired session row.
type RefreshToken struct {
	Token     string
	ExpiresAt time.Time
}

// RefreshGenerator produces cryptographically random refresh tokens with a
// fixed lifetime.
type RefreshGenerator struct {
	ttl time.Duration
}

// NewRefreshGenerator returns a generator whose tokens expire ttl from the
// moment of generation.
func NewRefreshGenerator(ttl time.Duration) *RefreshGenerator {
	if ttl <= 0 {
		ttl = 168 * time.Hour
	}
	return &RefreshGenerator{ttl: ttl}
}

// Generate returns a new opaque refresh token (base64url, no padding) and its
// absolute expiry.
func (g *RefreshGenerator) Generate() (RefreshToken, error) {
	raw := make([]byte, refreshTokenSize)
	if _, err := rand.Read(raw); err != nil {
		return RefreshToken{}, err
	}
	return RefreshToken{
		Token:     base64.RawURLEncoding.EncodeToString(raw),
		ExpiresAt: time.Now().UTC().Add(g.ttl),
	}, nil
}
