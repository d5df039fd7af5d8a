package validation

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/orqestra/campaign-platform/internal/apierr"
	"github.com/orqestra/campaign-platform/internal/config"
	"github.com/orqestra/campaign-platform/internal/models"
)

// BrandValidator is the narrow dependency validate_brand needs (spec
// §4.3 step 3b); internal/brand.Validator implements it.
type BrandValidator interface {
	Validate(ctx context.Context, channel models.CreativePieceType, html, imageDataURL string) (*BrandResult, error)
}

// LegalValidator is the narrow dependency validate_legal needs (spec
// §4.3 step 3c); internal/legal.Agent implements it.
type LegalValidator interface {
	Validate(ctx context.Context, task, channel, content string) (*LegalResult, error)
}

// Engine runs the five-node validation DAG, grounded on
// internal/workflow.Engine's concurrent-step/cancellable-run shape, cut
// down to this orchestrator's fixed topology: a gate, an optional
// retrieve, a three-way fan-out, and a pure aggregate+persist tail.
type Engine struct {
	tools *ToolClient
	brand BrandValidator
	legal LegalValidator
	cache *ResultCache
	log   zerolog.Logger

	// Timeout bounds the whole run; validate_legal's LLM round trip is
	// the long pole.
	Timeout time.Duration
}

func NewEngine(tools *ToolClient, brand BrandValidator, legal LegalValidator, cache *ResultCache, log zerolog.Logger) *Engine {
	return &Engine{
		tools: tools, brand: brand, legal: legal, cache: cache,
		log:     log.With().Str("component", "validation.engine").Logger(),
		Timeout: 60 * time.Second,
	}
}

// Run executes validate_channel → [retrieve_content] → fan-out{specs,
// brand, legal} → aggregate_verdict → persist, in that order (spec
// §4.3). It returns the full Result, already persisted to the cache.
func (e *Engine) Run(ctx context.Context, sub Submission) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, e.Timeout)
	defer cancel()

	gate := validateChannel(sub)
	if !gate.valid {
		e.log.Warn().Str("campaign_id", sub.CampaignID).Str("channel", string(sub.Channel)).Str("reason", gate.reason).Msg("validate_channel rejected submission")
		verdict := aggregateVerdict(false, false, false, nil, nil, nil)
		result := &Result{FinalVerdict: verdict}
		return result, nil
	}

	var retrieved retrieveStageResult
	attemptRetrieve := needsRetrieve(sub.Channel)
	if attemptRetrieve {
		retrieved = retrieveContent(ctx, e.tools, sub)
		if !retrieved.ok {
			e.log.Warn().Str("campaign_id", sub.CampaignID).Str("reason", retrieved.reason).Msg("retrieve_content failed")
			verdict := aggregateVerdict(true, true, false, nil, nil, nil)
			return &Result{FinalVerdict: verdict}, nil
		}
	}

	in := specsInput{
		Channel: sub.Channel, CommercialSpace: sub.CommercialSpace,
		Body: sub.Body, Title: sub.Title,
		HTML: retrieved.html, ImageDataURL: retrieved.imageDataURL,
	}

	var specsRes *SpecsResult
	var brandRes *BrandResult
	var legalRes *LegalResult

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rows, err := e.tools.FetchChannelSpecs(gctx, string(sub.Channel), sub.CommercialSpace)
		if err != nil {
			rows = config.LoadChannelSpecs()
			e.log.Warn().Err(err).Msg("fetch_channel_specs fell back to local defaults")
		}
		specsRes = validateSpecs(in, rows)
		return nil
	})

	g.Go(func() error {
		res, err := e.brand.Validate(gctx, sub.Channel, retrieved.html, in.ImageDataURL)
		if err != nil {
			e.log.Error().Err(err).Msg("validate_brand failed")
			brandRes = &BrandResult{Compliant: false}
			return nil
		}
		brandRes = res
		return nil
	})

	g.Go(func() error {
		content := sub.Body
		if sub.Channel == models.PiecePush {
			content = sub.Title + "\n" + sub.Body
		} else if retrieved.html != "" {
			content = retrieved.html
		}
		res, err := e.legal.Validate(gctx, "analyze_piece", string(sub.Channel), content)
		if err != nil {
			e.log.Error().Err(err).Msg("validate_legal failed")
			legalRes = &LegalResult{Decision: "REPROVADO", RequiresHuman: true, Summary: "Falha na validação jurídica."}
			return nil
		}
		legalRes = res
		return nil
	})

	// The three validators never return an error themselves (failures
	// are folded into their result), so g.Wait only surfaces context
	// cancellation/timeout.
	if err := g.Wait(); err != nil {
		return nil, apierr.New(apierr.UpstreamTimeout, "validation timed out: "+err.Error())
	}

	verdict := aggregateVerdict(true, attemptRetrieve, true, specsRes, brandRes, legalRes)

	hash := contentHash(sub.Channel, sub.Body, sub.Title, sub.CommercialSpace, []byte(retrieved.html+retrieved.imageDataURL))
	result := &Result{Specs: specsRes, Brand: brandRes, Legal: legalRes, FinalVerdict: verdict, ContentHash: hash}

	if err := e.cache.Persist(ctx, sub.CampaignID, sub.Channel, hash, result); err != nil {
		e.log.Error().Err(err).Msg("persist validation result failed")
		return nil, apierr.New(apierr.Internal, "failed to persist validation result")
	}

	e.log.Info().
		Str("campaign_id", sub.CampaignID).
		Str("channel", string(sub.Channel)).
		Str("decision", verdict.Decision).
		Bool("requires_human", verdict.RequiresHuman).
		Msg("validation run complete")

	return result, nil
}
