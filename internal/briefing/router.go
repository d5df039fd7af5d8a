package briefing

import (
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/orqestra/campaign-platform/internal/apierr"
)

func decodeHeader(v string) string {
	const prefix = "base64:"
	if !strings.HasPrefix(v, prefix) {
		return v
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(v, prefix))
	if err != nil {
		return v
	}
	return string(raw)
}

// requireIdentity rejects requests the gateway never authenticated,
// mirroring validation.RequireIdentity's shape for this package's own
// HTTP surface.
func requireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-User-Id") == "" {
			writeErr(w, apierr.New(apierr.AuthMissing, "missing identity headers"))
			return
		}
		if decodeHeader(r.Header.Get("X-User-Is-Active")) != "true" {
			writeErr(w, apierr.New(apierr.AuthInactive, "user account is inactive"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// NewRouter mounts the briefing enhancer's HTTP surface (spec §4.4's
// POST /api/enhance-objective and its decision PATCH).
func NewRouter(h *Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/enhance-objective", func(r chi.Router) {
		r.Use(requireIdentity)
		r.Post("/", h.EnhanceObjective)
		r.Patch("/{interactionID}", h.RecordDecision)
	})

	return r
}
