package legal

import (
	"context"
	"strings"
)

// Verdict is the structured output the generate step must produce,
// mirroring ValidationOutput in legal-service/app/api/schemas.py
// (decision, requires_human_review, summary, sources).
type Verdict struct {
	Decision          string   `json:"decision"` // APROVADO | REPROVADO
	RequiresHumanReview bool   `json:"requires_human_review"`
	Summary           string   `json:"summary"`
	Sources           []string `json:"sources"`
}

// LLMClient produces a schema-constrained legal verdict from an
// assembled prompt and the retrieved context chunks. The provider
// behind this interface (a hosted model or a local one) is an external
// collaborator; this repository only depends on the contract.
type LLMClient interface {
	GenerateVerdict(ctx context.Context, systemPrompt, userPrompt string, context []Chunk) (*Verdict, error)
}

// HeuristicLLMClient is a deterministic stand-in for the structured-output
// LLM call, grounded on generate_node's fallback path in nodes.py: when
// no compliant grounding is found, or an explicit prohibited term is
// detected, it rejects with requires_human_review=true; otherwise it
// approves citing the retrieved sources. It is meant for tests and for
// environments with no LLM provider configured, not as a replacement for
// real legal judgment.
type HeuristicLLMClient struct {
	ProhibitedTerms []string
}

func NewHeuristicLLMClient() *HeuristicLLMClient {
	return &HeuristicLLMClient{
		ProhibitedTerms: []string{
			"garantido", "garantia de retorno", "sem risco", "100% seguro",
			"promessa de lucro", "juros zero garantido",
		},
	}
}

func (h *HeuristicLLMClient) GenerateVerdict(_ context.Context, _, userPrompt string, context []Chunk) (*Verdict, error) {
	lower := strings.ToLower(userPrompt)
	for _, term := range h.ProhibitedTerms {
		if strings.Contains(lower, term) {
			return &Verdict{
				Decision:            "REPROVADO",
				RequiresHumanReview: true,
				Summary:             "Conteúdo contém termo potencialmente enganoso ou promessa vedada: \"" + term + "\".",
				Sources:             sourcesOf(context),
			}, nil
		}
	}
	if len(context) == 0 {
		return &Verdict{
			Decision:            "REPROVADO",
			RequiresHumanReview: true,
			Summary:             "Nenhuma referência normativa aplicável foi encontrada para embasar a aprovação; revisão humana necessária.",
			Sources:             nil,
		}, nil
	}
	return &Verdict{
		Decision:            "APROVADO",
		RequiresHumanReview: false,
		Summary:             "Conteúdo em conformidade com as diretrizes jurídicas aplicáveis ao canal.",
		Sources:             sourcesOf(context),
	}, nil
}

func sourcesOf(chunks []Chunk) []string {
	seen := map[string]bool{}
	var out []string
	for _, c := range chunks {
		if c.SourceFile == "" || seen[c.SourceFile] {
			continue
		}
		seen[c.SourceFile] = true
		out = append(out, c.SourceFile)
	}
	return out
}
