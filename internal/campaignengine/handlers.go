package campaignengine

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/orqestra/campaign-platform/internal/apierr"
	"github.com/orqestra/campaign-platform/internal/models"
)

// Handlers wires Service onto HTTP. It trusts the gateway's identity
// headers (spec §4.1) rather than verifying tokens itself — this
// service sits entirely behind the gateway.
type Handlers struct {
	Service *Service
	Log     zerolog.Logger
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeErr(w http.ResponseWriter, err error) {
	apierr.WriteJSON(w, apierr.As(err))
}

// decodeHeader reverses the gateway's base64:<b64> encoding of non-ASCII
// header values (spec §4.1); a header with no such prefix is returned
// as-is.
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

type actorKey struct{}

type actor struct {
	id       string
	email    string
	role     models.UserRole
	isActive bool
}

// RequireIdentity extracts the gateway-injected identity headers and
// rejects the request if they're absent (meaning the gateway never
// authenticated the caller, or this service was reached directly).
func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-User-Id")
		if id == "" {
			writeErr(w, apierr.New(apierr.AuthMissing, "missing identity headers"))
			return
		}
		a := actor{
			id:       decodeHeader(id),
			email:    decodeHeader(r.Header.Get("X-User-Email")),
			role:     models.UserRole(decodeHeader(r.Header.Get("X-User-Role"))),
			isActive: decodeHeader(r.Header.Get("X-User-Is-Active")) == "true",
		}
		if !a.isActive {
			writeErr(w, apierr.New(apierr.AuthInactive, "user account is inactive"))
			return
		}
		ctx := context.WithValue(r.Context(), actorKey{}, a)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func actorFromContext(r *http.Request) actor {
	a, _ := r.Context().Value(actorKey{}).(actor)
	return a
}

func (h *Handlers) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	a := actorFromContext(r)
	cs, err := h.Service.ListCampaigns(r.Context(), a.role, a.id)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"campaigns": cs})
}

func (h *Handlers) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	a := actorFromContext(r)
	if a.role != models.RoleBusinessAnalyst {
		writeErr(w, apierr.New(apierr.AuthForbiddenRole, "only business analysts can create campaigns"))
		return
	}
	var in CreateCampaignInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeErr(w, apierr.New(apierr.ValidationErr, "invalid request body"))
		return
	}
	c, err := h.Service.CreateCampaign(r.Context(), in, a.id)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *Handlers) GetCampaign(w http.ResponseWriter, r *http.Request) {
	a := actorFromContext(r)
	c, err := h.Service.GetCampaign(r.Context(), chi.URLParam(r, "id"), a.role, a.id)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handlers) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
	a := actorFromContext(r)
	var in UpdateCampaignInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeErr(w, apierr.New(apierr.ValidationErr, "invalid request body"))
		return
	}
	c, err := h.Service.UpdateCampaign(r.Context(), chi.URLParam(r, "id"), in, a.role, a.id)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handlers) DeleteCampaign(w http.ResponseWriter, r *http.Request) {
	a := actorFromContext(r)
	if err := h.Service.DeleteCampaign(r.Context(), chi.URLParam(r, "id"), a.role, a.id); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) ListStatusEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.Service.ListStatusEvents(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

type commentRequest struct {
	Text string `json:"text"`
}

func (h *Handlers) AddComment(w http.ResponseWriter, r *http.Request) {
	a := actorFromContext(r)
	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, apierr.New(apierr.ValidationErr, "invalid request body"))
		return
	}
	c, err := h.Service.AddComment(r.Context(), chi.URLParam(r, "id"), a.email, a.role, req.Text, a.id)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *Handlers) ListComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.Service.ListComments(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"comments": comments})
}

func (h *Handlers) SubmitCreativePiece(w http.ResponseWriter, r *http.Request) {
	a := actorFromContext(r)
	var piece models.CreativePiece
	if err := json.NewDecoder(r.Body).Decode(&piece); err != nil {
		writeErr(w, apierr.New(apierr.ValidationErr, "invalid request body"))
		return
	}
	piece.CampaignID = chi.URLParam(r, "id")
	out, err := h.Service.SubmitCreativePiece(r.Context(), piece.CampaignID, &piece, a.role)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) ListCreativePieces(w http.ResponseWriter, r *http.Request) {
	pieces, err := h.Service.ListCreativePieces(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"creative_pieces": pieces})
}

type submitForReviewUnit struct {
	Channel         models.CreativePieceType `json:"channel"`
	PieceID         string                   `json:"piece_id"`
	CommercialSpace string                   `json:"commercial_space,omitempty"`
	IAVerdict       *models.IAVerdict        `json:"ia_verdict,omitempty"`
}

type submitForReviewRequest struct {
	Units []submitForReviewUnit `json:"units"`
}

func (h *Handlers) SubmitForReview(w http.ResponseWriter, r *http.Request) {
	a := actorFromContext(r)
	campaignID := chi.URLParam(r, "id")
	var req submitForReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, apierr.New(apierr.ValidationErr, "invalid request body"))
		return
	}
	units := make([]ReviewUnit, 0, len(req.Units))
	for _, u := range req.Units {
		units = append(units, ReviewUnit{
			Key: models.ReviewKey{
				CampaignID: campaignID, Channel: u.Channel, PieceID: u.PieceID, CommercialSpace: u.CommercialSpace,
			},
			IAVerdict: u.IAVerdict,
		})
	}
	reviews, err := h.Service.SubmitForReview(r.Context(), campaignID, units, a.role, a.id)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reviews": reviews})
}

type reviewRequest struct {
	Channel         models.CreativePieceType `json:"channel"`
	PieceID         string                   `json:"piece_id"`
	CommercialSpace string                   `json:"commercial_space,omitempty"`
	Action          ReviewAction             `json:"action"`
	RejectionReason string                   `json:"rejection_reason,omitempty"`
}

func (h *Handlers) Review(w http.ResponseWriter, r *http.Request) {
	a := actorFromContext(r)
	campaignID := chi.URLParam(r, "id")
	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, apierr.New(apierr.ValidationErr, "invalid request body"))
		return
	}
	key := models.ReviewKey{
		CampaignID: campaignID, Channel: req.Channel, PieceID: req.PieceID, CommercialSpace: req.CommercialSpace,
	}
	review, err := h.Service.Review(r.Context(), key, req.Action, req.RejectionReason, a.role, a.id)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, review)
}

func (h *Handlers) ListPieceReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.Service.ListPieceReviews(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reviews": reviews})
}

func (h *Handlers) ListPieceReviewEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.Service.ListPieceReviewEvents(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

type updateIAVerdictRequest struct {
	Channel         models.CreativePieceType `json:"channel"`
	PieceID         string                   `json:"piece_id"`
	CommercialSpace string                   `json:"commercial_space,omitempty"`
	IAVerdict       models.IAVerdict         `json:"ia_verdict"`
}

// UpdateIAVerdict is called by the validation orchestrator (internal,
// service-to-service) to record its verdict on a reviewable unit ahead
// of human review.
func (h *Handlers) UpdateIAVerdict(w http.ResponseWriter, r *http.Request) {
	campaignID := chi.URLParam(r, "id")
	var req updateIAVerdictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, apierr.New(apierr.ValidationErr, "invalid request body"))
		return
	}
	key := models.ReviewKey{
		CampaignID: campaignID, Channel: req.Channel, PieceID: req.PieceID, CommercialSpace: req.CommercialSpace,
	}
	review, err := h.Service.UpdateIAVerdict(r.Context(), key, req.IAVerdict)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, review)
}

// UploadCreativeContent is PUT /api/campaigns/{id}/creative-pieces/{pieceType}/content:
// stores the raw HTML (EMAIL) or image (APP) body for the piece.
func (h *Handlers) UploadCreativeContent(w http.ResponseWriter, r *http.Request) {
	a := actorFromContext(r)
	campaignID := chi.URLParam(r, "id")
	pieceType := models.CreativePieceType(chi.URLParam(r, "pieceType"))
	commercialSpace := r.URL.Query().Get("commercial_space")

	body, err := io.ReadAll(io.LimitReader(r.Body, maxCreativeContentBytes))
	if err != nil {
		writeErr(w, apierr.New(apierr.ValidationErr, "failed to read request body"))
		return
	}
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	piece, err := h.Service.UploadCreativeContent(r.Context(), campaignID, pieceType, commercialSpace, body, contentType, a.role)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, piece)
}

// maxCreativeContentBytes bounds a single upload (spec §6's channel
// specs cap EMAIL HTML at 100KB and APP images at 1MB; this is a
// generous outer bound ahead of validate_specs' exact per-channel check).
const maxCreativeContentBytes = 8 << 20

// GetCreativePieceContent is GET
// /api/campaigns/{id}/creative-pieces/{pieceType}/content?commercial_space=
// (spec §6): returns HTML text for EMAIL or a base64 data URL for APP.
func (h *Handlers) GetCreativePieceContent(w http.ResponseWriter, r *http.Request) {
	campaignID := chi.URLParam(r, "id")
	pieceType := models.CreativePieceType(chi.URLParam(r, "pieceType"))
	commercialSpace := r.URL.Query().Get("commercial_space")

	content, err := h.Service.GetCreativePieceContent(r.Context(), campaignID, pieceType, commercialSpace)
	if err != nil {
		writeErr(w, err)
		return
	}
	if content.HTML != "" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(content.HTML))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data_url": content.DataURL})
}

func parseIntQuery(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
