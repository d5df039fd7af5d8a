package identitysvc

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// NewRouter builds the identity service's standalone HTTP surface
// (spec §6) under /api/auth — register, login, refresh, logout, me — the
// same paths the gateway forwards unchanged.
func NewRouter(h *Handlers, issuer *TokenIssuer) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/refresh", h.Refresh)

		r.Group(func(r chi.Router) {
			r.Use(h.RequireUser(issuer))
			r.Post("/logout", h.Logout)
			r.Get("/me", h.Me)
		})
	})

	// Internal, service-to-service only: lets the gateway's JWTProvider
	// resolve a verified token's subject to a full user record without
	// importing the store package directly. Not part of the
	// client-facing HTTP surface.
	r.Get("/internal/users/by-email", h.GetUserByEmail)

	return r
}
