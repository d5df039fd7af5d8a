package validation

import (
	"context"
	"fmt"
	"regexp"

	"github.com/orqestra/campaign-platform/internal/models"
)

// dataURLImagePattern matches a base64 image data URL, grounded on
// content-validation-service's _is_data_url_image.
var dataURLImagePattern = regexp.MustCompile(`^data:image/(png|jpe?g|webp|gif);base64,[A-Za-z0-9+/=]+$`)

// channelGateResult is validate_channel's verdict (spec §4.3 step 1).
type channelGateResult struct {
	valid  bool
	reason string
}

// validateChannel is the DAG's gate node: a structural check only,
// required fields present and well-typed for the declared channel.
func validateChannel(sub Submission) channelGateResult {
	switch sub.Channel {
	case models.PieceSMS:
		if sub.Body == "" {
			return channelGateResult{false, "SMS requires a non-empty body"}
		}
	case models.PiecePush:
		if sub.Title == "" || sub.Body == "" {
			return channelGateResult{false, "Push requires both title and body"}
		}
	case models.PieceEmail, models.PieceApp:
		if sub.CampaignID == "" || sub.PieceID == "" {
			return channelGateResult{false, "EMAIL/App content is referenced by campaign_id and piece_id, both required"}
		}
	default:
		return channelGateResult{false, fmt.Sprintf("unknown channel %q", sub.Channel)}
	}
	return channelGateResult{valid: true}
}

// needsRetrieve reports whether the channel's content must be fetched
// from the content service before the parallel validators can run
// (spec §4.3 step 2: EMAIL/APP only).
func needsRetrieve(channel models.CreativePieceType) bool {
	return channel == models.PieceEmail || channel == models.PieceApp
}

// retrieveStageResult carries retrieve_content's outcome, including the
// bytes the content-hash step will consume (spec §4.3 step 5).
type retrieveStageResult struct {
	ok            bool
	html          string
	renderedImage []byte
	imageDataURL  string
	reason        string
}

func retrieveContent(ctx context.Context, tc *ToolClient, sub Submission) retrieveStageResult {
	rc, err := tc.RetrieveContent(ctx, sub.CampaignID, sub.PieceID, sub.CommercialSpace)
	if err != nil {
		return retrieveStageResult{ok: false, reason: err.Error()}
	}
	if sub.Channel == models.PieceApp && !dataURLImagePattern.MatchString(rc.ImageDataURL) {
		return retrieveStageResult{ok: false, reason: "retrieved content is not a valid image data URL"}
	}
	return retrieveStageResult{
		ok: true, html: rc.HTML, renderedImage: rc.RenderedImage, imageDataURL: rc.ImageDataURL,
	}
}

// aggregateVerdict is the pure combination step (spec §4.3 step 4): no
// further external call, just folding the three partial results (or the
// early-fail shortcuts) into one FinalVerdict.
func aggregateVerdict(channelOK bool, retrieveAttempted, retrieveOK bool, specs *SpecsResult, brand *BrandResult, legal *LegalResult) FinalVerdict {
	if !channelOK {
		return FinalVerdict{
			Decision: "REPROVADO", RequiresHuman: true, FailureStage: "validate_channel",
			Summary: "Estrutura da peça inválida para o canal declarado.",
		}
	}
	if retrieveAttempted && !retrieveOK {
		return FinalVerdict{
			Decision: "REPROVADO", RequiresHuman: true, FailureStage: "retrieve_content",
			Summary: "Não foi possível recuperar o conteúdo da peça.",
		}
	}

	stages := []string{"validate_channel"}
	if retrieveAttempted {
		stages = append(stages, "retrieve_content")
	}
	stages = append(stages, "validate_specs", "validate_brand", "validate_legal")

	var summaryLines []string
	requiresHuman := false
	decision := "APROVADO"

	if specs == nil || !specs.Valid {
		decision = "REPROVADO"
		summaryLines = append(summaryLines, "Especificações técnicas reprovadas.")
	}
	if brand == nil || !brand.Compliant {
		decision = "REPROVADO"
		summaryLines = append(summaryLines, "Conformidade de marca reprovada.")
	}
	if legal == nil || legal.Decision != "APROVADO" {
		decision = "REPROVADO"
		summaryLines = append(summaryLines, "Conformidade jurídica reprovada.")
	}
	if legal != nil && legal.RequiresHuman {
		requiresHuman = true
	}

	summary := "Todas as validações aprovadas."
	if len(summaryLines) > 0 {
		summary = summaryLines[0]
		for _, l := range summaryLines[1:] {
			summary += " " + l
		}
	}

	return FinalVerdict{
		Decision: decision, RequiresHuman: requiresHuman, Summary: summary, StagesCompleted: stages,
	}
}
