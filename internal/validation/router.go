package validation

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// NewRouter mounts the validation orchestrator's HTTP surface (spec
// §4.1 routing table's /api/ai/analyze-piece and /api/ai/generate-text),
// gated behind RequireIdentity the same way campaignengine trusts the
// gateway's injected headers.
func NewRouter(h *Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/ai", func(r chi.Router) {
		r.Use(RequireIdentity)
		r.Post("/analyze-piece", h.AnalyzePiece)
		r.Post("/generate-text", h.GenerateText)
	})

	return r
}
