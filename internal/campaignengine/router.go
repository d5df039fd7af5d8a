package campaignengine

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// NewRouter builds the campaign engine's HTTP surface, mounted by the
// gateway at /api/campaigns (spec §4.1/§4.2).
func NewRouter(h *Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/campaigns", func(r chi.Router) {
		r.Use(RequireIdentity)

		r.Get("/", h.ListCampaigns)
		r.Post("/", h.CreateCampaign)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetCampaign)
			r.Patch("/", h.UpdateCampaign)
			r.Delete("/", h.DeleteCampaign)

			r.Get("/status-events", h.ListStatusEvents)

			r.Get("/comments", h.ListComments)
			r.Post("/comments", h.AddComment)

			r.Get("/creative-pieces", h.ListCreativePieces)
			r.Post("/creative-pieces", h.SubmitCreativePiece)

			r.Put("/creative-pieces/{pieceType}/content", h.UploadCreativeContent)
			r.Get("/creative-pieces/{pieceType}/content", h.GetCreativePieceContent)

			r.Post("/submit-for-review", h.SubmitForReview)
			r.Get("/reviews", h.ListPieceReviews)
			r.Get("/review-events", h.ListPieceReviewEvents)
			r.Post("/reviews/decide", h.Review)

			// Internal, called by the validation orchestrator only.
			r.Post("/reviews/ia-verdict", h.UpdateIAVerdict)
		})
	})

	return r
}
