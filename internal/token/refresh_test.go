package token

import (
	"encoding/base64"
	"testing"
	"time"
)

func TestRefreshGenerator_Generate(t *testing.T) {
	g := NewRefreshGenerator(168 * time.Hour)

	rt, err := g.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	raw, err := base64.RawURLEncoding.DecodeString(rt.Token)
	if err != nil {
		t.Fatalf("token is not base64url: %v", err)
	}
	if len(raw) != refreshTokenSize {
		t.Errorf("token entropy = %d bytes, want %d", len(raw), refreshTokenSize)
	}
	if until := time.Until(rt.ExpiresAt); until < 167*time.Hour || until > 168*time.Hour {
		t.Errorf("expiry = %v from now, want ~168h", until)
	}
}

func TestRefreshGenerator_TokensAreUnique(t *testing.T) {
	g := NewRefreshGenerator(time.Hour)

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		rt, err := g.Generate()
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if seen[rt.Token] {
			t.Fatalf("duplicate token after %d generations", i)
		}
		seen[rt.Token] = true
	}
}
