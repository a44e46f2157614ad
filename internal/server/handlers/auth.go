package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/kaikyMoura/Schedule-Pro-API-sub000/internal/security"
	"github.com/kaikyMoura/Schedule-Pro-API-sub000/internal/server/middleware"
	"github.com/kaikyMoura/Schedule-Pro-API-sub000/internal/session/service"
)

const (
	refreshCookieName = "refreshToken"

	// Covers both the refresh and logout endpoints; anything wider would
	// leak the refresh token onto API requests that have no use for it.
	refreshCookiePath = "/auth"

	requestTimeout = 3 * time.Second
)

// AuthHandler is the HTTP edge over the session service: login, refresh,
// logout and the password-reset pair. Refresh tokens travel only in an
// HTTP-only cookie; access tokens only in JSON bodies and headers.
type AuthHandler struct {
	sessions *service.SessionService

	refreshTTL time.Duration

	// When set (dev/test only), the password-reset request endpoint returns
	// the reset token in the response body instead of relying on delivery.
	returnResetToken bool
}

func NewAuthHandler(sessions *service.SessionService, refreshTTL time.Duration, returnResetToken bool) *AuthHandler {
	return &AuthHandler{sessions: sessions, refreshTTL: refreshTTL, returnResetToken: returnResetToken}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int64  `json:"expiresIn"`
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	pair, err := h.sessions.Login(ctx, req.Email, req.Password, deviceOf(r))
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		serverError(w, "login", err)
		return
	}

	h.setRefreshCookie(w, pair.RefreshToken)
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: pair.AccessToken, ExpiresIn: pair.ExpiresIn()})
}

// Refresh handles POST /auth/refresh. The refresh token arrives in the
// cookie set by Login; on success the rotated token replaces it.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	cookie, err := r.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		writeError(w, http.StatusUnauthorized, "missing refresh token")
		return
	}

	pair, err := h.sessions.Refresh(ctx, cookie.Value)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, service.ErrSessionExpired):
			h.clearRefreshCookie(w)
			writeError(w, http.StatusUnauthorized, "session is no longer valid")
		default:
			serverError(w, "refresh", err)
		}
		return
	}

	h.setRefreshCookie(w, pair.RefreshToken)
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: pair.AccessToken, ExpiresIn: pair.ExpiresIn()})
}

// Logout handles POST /auth/logout. Revocation is best effort and the
// response is 204 regardless: a logout must never fail from the client's
// point of view.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if cookie, err := r.Cookie(refreshCookieName); err == nil && cookie.Value != "" {
		if err := h.sessions.Revoke(ctx, cookie.Value); err != nil {
			log.Printf("logout: revoke failed: %v", err)
		}
	}
	h.clearRefreshCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

type resetRequestBody struct {
	Email string `json:"email"`
}

type resetConfirmBody struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// RequestPasswordReset handles POST /auth/password-reset/request. Always
// answers 202 so the endpoint cannot be used to probe for registered emails.
func (h *AuthHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var req resetRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	token, err := h.sessions.RequestPasswordReset(ctx, req.Email)
	if err != nil {
		serverError(w, "password reset request", err)
		return
	}

	if h.returnResetToken && token != "" {
		writeJSON(w, http.StatusAccepted, map[string]string{"resetToken": token})
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// ResetPassword handles POST /auth/password-reset. Both the reset token and
// the new password are required.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var req resetConfirmBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.Token == "" || req.NewPassword == "" {
		writeError(w, http.StatusBadRequest, "token and newPassword are required")
		return
	}

	if err := h.sessions.ResetPassword(ctx, req.Token, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, service.ErrResetInvalid):
			writeError(w, http.StatusUnauthorized, "reset token is invalid or expired")
		case errors.Is(err, security.ErrPasswordEmpty), errors.Is(err, security.ErrPasswordTooLong):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			serverError(w, "password reset", err)
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/me; it echoes the identity the auth guard attached.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.GetIdentity(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing or invalid authorization")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"id":    id.SubjectID,
		"name":  id.Name,
		"email": id.Email,
	})
}

func (h *AuthHandler) setRefreshCookie(w http.ResponseWriter, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    value,
		Path:     refreshCookiePath,
		MaxAge:   int(h.refreshTTL / time.Second),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandler) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     refreshCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

func deviceOf(r *http.Request) service.Device {
	ip := r.Header.Get("X-Forwarded-For")
	if ip == "" {
		ip = r.RemoteAddr
	}
	return service.Device{UserAgent: r.UserAgent(), IP: ip}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func serverError(w http.ResponseWriter, op string, err error) {
	log.Printf("%s: %v", op, err)
	writeError(w, http.StatusInternalServerError, "internal error")
}
