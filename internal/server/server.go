package server

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/kaikyMoura/Schedule-Pro-API-sub000/internal/server/handlers"
	"github.com/kaikyMoura/Schedule-Pro-API-sub000/internal/server/middleware"
)

// NewRouter wires the auth edge and the guarded API surface. Everything
// under /auth is public; everything under /api sits behind the renewal
// guard.
func NewRouter(auth *handlers.AuthHandler, guard *middleware.RenewalGuard) *mux.Router {
	r := mux.NewRouter()

	pub := r.PathPrefix("/auth").Subrouter()
	pub.HandleFunc("/login", auth.Login).Methods(http.MethodPost)
	pub.HandleFunc("/refresh", auth.Refresh).Methods(http.MethodPost)
	pub.HandleFunc("/logout", auth.Logout).Methods(http.MethodPost)
	pub.HandleFunc("/password-reset/request", auth.RequestPasswordReset).Methods(http.MethodPost)
	pub.HandleFunc("/password-reset", auth.ResetPassword).Methods(http.MethodPost)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(guard.Wrap)
	api.HandleFunc("/me", auth.Me).Methods(http.MethodGet)

	return r
}

// New returns an http.Server with sane timeouts around the router.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
