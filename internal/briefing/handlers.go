package briefing

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/orqestra/campaign-platform/internal/apierr"
	"github.com/orqestra/campaign-platform/internal/models"
)

// Handlers wires Agent onto HTTP, trusting the identity headers the
// gateway injects the same way campaignengine and validation do.
type Handlers struct {
	Agent *Agent
	Log   zerolog.Logger
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeErr(w http.ResponseWriter, err error) {
	apierr.WriteJSON(w, apierr.As(err))
}

type enhanceRequest struct {
	FieldName    string `json:"field_name"`
	Text         string `json:"text"`
	CampaignID   string `json:"campaign_id,omitempty"`
	SessionID    string `json:"session_id,omitempty"`
	CampaignName string `json:"campaign_name,omitempty"`
}

// EnhanceObjective is POST /api/enhance-objective (spec §4.4).
func (h *Handlers) EnhanceObjective(w http.ResponseWriter, r *http.Request) {
	var in enhanceRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeErr(w, apierr.New(apierr.ValidationErr, "invalid request body"))
		return
	}
	if in.FieldName == "" || in.Text == "" {
		writeErr(w, apierr.New(apierr.ValidationErr, "field_name and text are required"))
		return
	}

	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeErr(w, apierr.New(apierr.AuthMissing, "missing identity headers"))
		return
	}

	resp, err := h.Agent.Enhance(r.Context(), Request{
		UserID: userID, FieldName: in.FieldName, Text: in.Text,
		CampaignID: in.CampaignID, SessionID: in.SessionID, CampaignName: in.CampaignName,
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type decisionRequest struct {
	Decision models.InteractionDecision `json:"decision"`
}

// RecordDecision is PATCH /api/enhance-objective/{interaction_id}.
func (h *Handlers) RecordDecision(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "interactionID")
	var in decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeErr(w, apierr.New(apierr.ValidationErr, "invalid request body"))
		return
	}
	if in.Decision != models.DecisionApproved && in.Decision != models.DecisionRejected {
		writeErr(w, apierr.New(apierr.ValidationErr, "decision must be 'approved' or 'rejected'"))
		return
	}
	if err := h.Agent.RecordDecision(r.Context(), id, in.Decision); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
