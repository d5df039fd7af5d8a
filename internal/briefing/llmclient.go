package briefing

import "context"

// textGenerator is the narrow shape validation.ToolClient.GenerateText
// already satisfies; briefing depends on the method, not the concrete
// type, so this package never imports internal/validation.
type textGenerator interface {
	GenerateText(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// toolClientLLM adapts the shared external-LLM tool call (also used by
// validation's /api/ai/generate-text passthrough) onto the enhancer's
// LLMClient, splitting the single returned string into enhanced text and
// explanation on the separator the prompt instructs the model to use.
type toolClientLLM struct {
	gen textGenerator
}

func NewToolClientLLM(gen textGenerator) LLMClient {
	return &toolClientLLM{gen: gen}
}

const explanationSeparator = "\n---EXPLANATION---\n"

func (t *toolClientLLM) EnhanceText(ctx context.Context, prompt string) (string, string, error) {
	out, err := t.gen.GenerateText(ctx, prompt+"\nResponda no formato: <texto reescrito>"+explanationSeparator+"<explicação breve>.", 512)
	if err != nil {
		return "", "", err
	}
	return splitOnSeparator(out)
}

func splitOnSeparator(s string) (string, string, error) {
	for i := 0; i+len(explanationSeparator) <= len(s); i++ {
		if s[i:i+len(explanationSeparator)] == explanationSeparator {
			return s[:i], s[i+len(explanationSeparator):], nil
		}
	}
	return s, "", nil
}
