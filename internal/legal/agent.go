package legal

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/orqestra/campaign-platform/internal/validation"
)

// topK mirrors retriever.py's default k passed to hybrid_search.
const topK = 5

// Agent is the legal validator: cache check, hybrid retrieve, structured
// generate, cache write, grounded on LegalAgent.invoke in graph.py. It
// implements validation.LegalValidator.
type Agent struct {
	retriever Retriever
	llm       LLMClient
	cache     *Cache
	log       zerolog.Logger
}

func NewAgent(retriever Retriever, llm LLMClient, cache *Cache, log zerolog.Logger) *Agent {
	return &Agent{retriever: retriever, llm: llm, cache: cache, log: log.With().Str("component", "legal.agent").Logger()}
}

var _ validation.LegalValidator = (*Agent)(nil)

// Validate runs the two-node retrieve→generate graph, checking the
// verdict cache first and writing back on a miss (graph.py's invoke:
// cache check → graph.invoke → format result → cache write).
func (a *Agent) Validate(ctx context.Context, task, channel, content string) (*validation.LegalResult, error) {
	if cached, ok := a.cache.Get(ctx, task, channel, content); ok {
		a.log.Debug().Str("channel", channel).Msg("legal verdict cache hit")
		return toResult(cached), nil
	}

	chunks, err := a.retriever.Retrieve(ctx, channel, content, topK)
	if err != nil {
		a.log.Error().Err(err).Msg("legal retrieve step failed")
		return &validation.LegalResult{
			Decision:      "REPROVADO",
			Severity:      "BLOCKER",
			RequiresHuman: true,
			Summary:       "Falha ao consultar a base normativa; revisão humana necessária.",
		}, nil
	}

	verdict, err := a.llm.GenerateVerdict(ctx, systemPrompt(channel), userPrompt(content, chunks), chunks)
	if err != nil {
		a.log.Error().Err(err).Msg("legal generate step failed")
		return &validation.LegalResult{
			Decision:      "REPROVADO",
			Severity:      "BLOCKER",
			RequiresHuman: true,
			Summary:       "Falha ao gerar o parecer jurídico; revisão humana necessária.",
		}, nil
	}

	a.cache.Set(ctx, task, channel, content, verdict)
	return toResult(verdict), nil
}

func toResult(v *Verdict) *validation.LegalResult {
	severity := ""
	if v.Decision == "REPROVADO" {
		severity = "BLOCKER"
	}
	return &validation.LegalResult{
		Decision:      v.Decision,
		Severity:      severity,
		RequiresHuman: v.RequiresHumanReview,
		Summary:       v.Summary,
		Sources:       v.Sources,
	}
}
