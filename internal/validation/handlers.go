package validation

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/orqestra/campaign-platform/internal/apierr"
)

// Handlers wires Engine onto HTTP. Like campaignengine, it sits behind
// the gateway and trusts the identity headers injected there (spec
// §4.1) purely for audit logging — the orchestrator itself is
// role-agnostic, any authenticated caller may request a validation.
type Handlers struct {
	Engine *Engine
	Tools  *ToolClient
	Log    zerolog.Logger
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeErr(w http.ResponseWriter, err error) {
	apierr.WriteJSON(w, apierr.As(err))
}

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

// RequireIdentity rejects requests the gateway never authenticated.
func RequireIdentity(next http.Handler) http.Handler {
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

// AnalyzePiece is POST /api/ai/analyze-piece: runs the full validation
// DAG against one submission and returns the persisted Result.
func (h *Handlers) AnalyzePiece(w http.ResponseWriter, r *http.Request) {
	var sub Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeErr(w, apierr.New(apierr.ValidationErr, "invalid request body"))
		return
	}
	if sub.CampaignID == "" || sub.Channel == "" {
		writeErr(w, apierr.New(apierr.ValidationErr, "campaign_id and channel are required"))
		return
	}

	result, err := h.Engine.Run(r.Context(), sub)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type generateTextRequest struct {
	Prompt    string `json:"prompt"`
	MaxTokens int    `json:"max_tokens"`
}

// GenerateText is POST /api/ai/generate-text: a direct passthrough to
// the external LLM tool, used by briefing/campaign UIs for ad-hoc copy
// drafting outside the analyze-piece DAG.
func (h *Handlers) GenerateText(w http.ResponseWriter, r *http.Request) {
	var in generateTextRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeErr(w, apierr.New(apierr.ValidationErr, "invalid request body"))
		return
	}
	if in.Prompt == "" {
		writeErr(w, apierr.New(apierr.ValidationErr, "prompt is required"))
		return
	}
	if in.MaxTokens <= 0 {
		in.MaxTokens = 512
	}
	text, err := h.Tools.GenerateText(r.Context(), in.Prompt, in.MaxTokens)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"text": text})
}
