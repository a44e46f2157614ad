package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/kaikyMoura/Schedule-Pro-API-sub000/internal/telemetry"
	"github.com/kaikyMoura/Schedule-Pro-API-sub000/internal/token"
)

const bearerPrefix = "bearer "

// RenewalGuard authenticates requests with a Bearer access token and renews
// tokens that are expired or within the renewal window of expiry. A renewed
// token is returned in the Authorization response header; clients that see
// the header swap it in for subsequent requests.
//
// Expired tokens are still honored here: expiry alone does not end the
// caller's session, it only forces a renewal. Tokens that fail signature or
// structural checks are rejected outright.
type RenewalGuard struct {
	codec   *token.Codec
	window  time.Duration
	metrics *telemetry.Metrics
}

func NewRenewalGuard(codec *token.Codec, window time.Duration, metrics *telemetry.Metrics) *RenewalGuard {
	return &RenewalGuard{codec: codec, window: window, metrics: metrics}
}

// Wrap is the mux.MiddlewareFunc for the guard.
func (g *RenewalGuard) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := extractBearer(r)
		if raw == "" {
			writeAuthError(w, http.StatusUnauthorized, "missing or invalid authorization")
			return
		}

		claims, err := g.codec.Verify(raw)
		renew := false
		switch {
		case err == nil:
			renew = claims.ExpiresAt == nil || time.Until(claims.ExpiresAt.Time) <= g.window
		case errors.Is(err, token.ErrTokenExpired):
			// Signature is good, lifetime is not. Recover the identity from
			// the payload and force a renewal.
			claims = g.codec.Decode(raw)
			if claims == nil {
				writeAuthError(w, http.StatusForbidden, "invalid token")
				return
			}
			renew = true
		default:
			writeAuthError(w, http.StatusForbidden, "invalid token")
			return
		}

		// Purpose-bound tokens (password reset) never grant API access.
		if claims.Purpose != "" {
			writeAuthError(w, http.StatusForbidden, "invalid token")
			return
		}

		if renew {
			fresh, _, err := g.codec.Sign(claims.Identity(), 0)
			if err != nil {
				writeAuthError(w, http.StatusInternalServerError, "token renewal failed")
				return
			}
			w.Header().Set("Authorization", "Bearer "+fresh)
			g.metrics.CountRenewal(r.Context())
		}

		ctx := WithIdentity(r.Context(), claims.Identity())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractBearer returns the Bearer token from the request, or "" if missing
// or malformed.
func extractBearer(r *http.Request) string {
	v := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}

func writeAuthError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
