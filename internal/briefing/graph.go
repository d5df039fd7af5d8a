// Package briefing implements the Briefing Enhancer (spec §4.4): a
// two-node graph that rewrites an objective field with an LLM, grounded
// on briefing-enhancer-service/app/agent/{state,nodes,graph}.py.
package briefing

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/orqestra/campaign-platform/internal/models"
)

// maxPreviousEnhancementChars truncates each prior enhancement folded
// into the prompt, matching _build_previous_fields_summary's
// enhanced_text[:200] + "...".
const maxPreviousEnhancementChars = 200

// FieldStore looks up the metadata that shapes the enhancement prompt
// (fetchFieldInfo's data source).
type FieldStore interface {
	GetEnhanceableField(ctx context.Context, fieldName string) (*models.EnhanceableField, error)
}

// InteractionStore records every invocation and its eventual decision,
// and lists the prior enhancements in a session for the prompt's
// previous-fields summary (fetch_field_info's `enhancement_history`).
type InteractionStore interface {
	CreateAIInteraction(ctx context.Context, i *models.AIInteraction) error
	UpdateAIInteractionDecision(ctx context.Context, id string, decision models.InteractionDecision) error
	ListAIInteractionsBySession(ctx context.Context, sessionID string) ([]*models.AIInteraction, error)
}

// LLMClient produces the rewritten text plus an explanation, the shape
// enhance_text's structured LLM call returns. The model provider behind
// this interface is an external collaborator.
type LLMClient interface {
	EnhanceText(ctx context.Context, prompt string) (enhancedText, explanation string, err error)
}

// Request is the fetchFieldInfo/enhanceText graph's single input,
// matching POST /api/enhance-objective's body.
type Request struct {
	UserID       string
	FieldName    string
	Text         string
	CampaignID   string
	SessionID    string
	CampaignName string
}

// Response is what the graph returns on success.
type Response struct {
	EnhancedText  string `json:"enhanced_text"`
	Explanation   string `json:"explanation"`
	InteractionID string `json:"interaction_id"`
}

// Agent runs the two-node graph: fetchFieldInfo then enhanceText,
// writing an AIInteraction audit row and consulting the decision cache
// on each call.
type Agent struct {
	fields   FieldStore
	audit    InteractionStore
	llm      LLMClient
	cache    *Cache
	log      zerolog.Logger
}

func NewAgent(fields FieldStore, audit InteractionStore, llm LLMClient, cache *Cache, log zerolog.Logger) *Agent {
	return &Agent{fields: fields, audit: audit, llm: llm, cache: cache, log: log.With().Str("component", "briefing.agent").Logger()}
}

// Enhance runs fetchFieldInfo → enhanceText, short-circuiting on a
// decision-cache hit (spec §4.4: cache key is
// (user_id, field_name, text_hash, scope)).
func (a *Agent) Enhance(ctx context.Context, req Request) (*Response, error) {
	scope := cacheScope(req.SessionID, req.CampaignID)

	if hit, ok := a.cache.Get(ctx, req.UserID, req.FieldName, req.Text, scope); ok {
		a.log.Debug().Str("field_name", req.FieldName).Str("scope", scope).Msg("enhancer decision cache hit")
		return &Response{EnhancedText: hit.EnhancedText, Explanation: hit.Explanation, InteractionID: hit.InteractionID}, nil
	}

	field, err := a.fields.GetEnhanceableField(ctx, req.FieldName)
	if err != nil {
		return nil, err
	}

	var history []*models.AIInteraction
	if req.SessionID != "" {
		history, err = a.audit.ListAIInteractionsBySession(ctx, req.SessionID)
		if err != nil {
			return nil, err
		}
	}

	prompt := buildPrompt(field, req, history)
	enhancedText, explanation, err := a.llm.EnhanceText(ctx, prompt)
	if err != nil {
		return nil, err
	}

	interaction := &models.AIInteraction{
		ID:           newInteractionID(),
		UserID:       req.UserID,
		FieldName:    req.FieldName,
		OriginalText: req.Text,
		EnhancedText: enhancedText,
		Explanation:  explanation,
		SessionID:    req.SessionID,
		CampaignID:   req.CampaignID,
		CreatedAt:    time.Now().UTC(),
	}
	if err := a.audit.CreateAIInteraction(ctx, interaction); err != nil {
		return nil, err
	}

	resp := &Response{EnhancedText: enhancedText, Explanation: explanation, InteractionID: interaction.ID}
	a.cache.Set(ctx, req.UserID, req.FieldName, req.Text, scope, cachedDecision{
		EnhancedText: enhancedText, Explanation: explanation, InteractionID: interaction.ID,
	})
	return resp, nil
}

// RecordDecision handles the PATCH that approves or rejects a prior
// enhancement; a rejection demotes the cached entry (spec §4.4) so the
// next identical request re-invokes the LLM instead of replaying a
// rejected rewrite.
func (a *Agent) RecordDecision(ctx context.Context, interactionID string, decision models.InteractionDecision) error {
	if err := a.audit.UpdateAIInteractionDecision(ctx, interactionID, decision); err != nil {
		return err
	}
	if decision == models.DecisionRejected {
		a.cache.Invalidate(ctx, interactionID)
	}
	return nil
}

// buildPrompt assembles the enhancement prompt from the field's
// metadata, grounded on nodes.py's prompt-building step, which folds
// the fetched display name/expectations/guidelines plus the campaign
// name and a summary of prior enhancements in the same session into the
// instruction given to the model.
func buildPrompt(field *models.EnhanceableField, req Request, history []*models.AIInteraction) string {
	p := "Reescreva o campo \"" + field.DisplayName + "\" de forma mais clara e persuasiva.\n"
	p += "Expectativas: " + field.Expectations + "\n"
	if field.ImprovementGuidelines != "" {
		p += "Diretrizes: " + field.ImprovementGuidelines + "\n"
	}
	if req.CampaignName != "" {
		p += "Campanha: " + req.CampaignName + "\n"
	}
	if summary := previousFieldsSummary(history); summary != "" {
		p += "Campos já aprimorados nesta sessão:\n" + summary + "\n"
	}
	p += "Texto original: " + req.Text
	return p
}

// previousFieldsSummary builds the "- field_name: enhanced_text" block
// folded into the prompt, grounded on
// _build_previous_fields_summary's truncate-to-200-chars-and-join
// behavior.
func previousFieldsSummary(history []*models.AIInteraction) string {
	if len(history) == 0 {
		return ""
	}
	lines := make([]string, 0, len(history))
	for _, h := range history {
		text := h.EnhancedText
		if len(text) > maxPreviousEnhancementChars {
			text = text[:maxPreviousEnhancementChars] + "..."
		}
		lines = append(lines, "- "+h.FieldName+": "+text)
	}
	return strings.Join(lines, "\n")
}

func cacheScope(sessionID, campaignID string) string {
	if sessionID != "" {
		return sessionID
	}
	if campaignID != "" {
		return campaignID
	}
	return "global"
}

func newInteractionID() string {
	var buf [16]byte
	_, _ = rand.Read(buf[:])
	return hex.EncodeToString(buf[:])
}
