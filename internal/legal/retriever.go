// Package legal implements the legal compliance validator (spec §4.3
// step 3c), a retrieve-then-generate agent grounded on
// legal-service/app/agent/{graph,nodes,retriever}.py.
package legal

import (
	"context"
	"sort"
	"strings"
)

// Chunk is one retrieved passage of legal/compliance guidance, mirroring
// the dict shape HybridWeaviateRetriever.hybrid_search returns (text,
// source_file, section, score).
type Chunk struct {
	Text      string
	SourceFile string
	Section   string
	ChunkIndex int
	Score     float64
}

// Retriever performs hybrid (keyword + semantic) search over the legal
// corpus, scoped to a channel. A production implementation backed by a
// vector database and an embedding/reranking provider is an external
// collaborator; only this interface and a deterministic in-memory
// implementation for tests live in this repository.
type Retriever interface {
	Retrieve(ctx context.Context, channel, query string, topK int) ([]Chunk, error)
}

// InMemoryRetriever scores documents with a pure BM25-style term-overlap
// heuristic (no embeddings), standing in for the hybrid BM25+vector
// search the original does with Weaviate's alpha-weighted query. It
// exists so internal/legal is independently testable without a live
// vector store, matching the narrow-interface approach mandated for
// this component.
type InMemoryRetriever struct {
	docs []Chunk
}

// NewInMemoryRetriever indexes a fixed corpus. GENERAL-channel documents
// match every channel, mirroring the original's
// `channel == X OR channel == "GENERAL"` retrieval filter.
func NewInMemoryRetriever(docs []Chunk) *InMemoryRetriever {
	return &InMemoryRetriever{docs: docs}
}

// channelOf returns the chunk's channel tag from its Section prefix, or
// "GENERAL" when absent.
func channelOf(c Chunk) string {
	if idx := strings.IndexByte(c.Section, ':'); idx >= 0 {
		return c.Section[:idx]
	}
	return "GENERAL"
}

func (r *InMemoryRetriever) Retrieve(_ context.Context, channel, query string, topK int) ([]Chunk, error) {
	terms := tokenize(query)
	type scored struct {
		Chunk
	}
	var candidates []scored
	for _, d := range r.docs {
		ch := channelOf(d)
		if ch != "GENERAL" && !strings.EqualFold(ch, channel) {
			continue
		}
		score := overlapScore(terms, tokenize(d.Text))
		if score <= 0 {
			continue
		}
		d.Score = score
		candidates = append(candidates, scored{d})
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Score > candidates[j].Score })
	if topK <= 0 || topK > len(candidates) {
		topK = len(candidates)
	}
	out := make([]Chunk, 0, topK)
	for _, c := range candidates[:topK] {
		out = append(out, c.Chunk)
	}
	return out, nil
}

func tokenize(s string) map[string]int {
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	counts := make(map[string]int, len(words))
	for _, w := range words {
		if len(w) < 3 {
			continue
		}
		counts[w]++
	}
	return counts
}

func overlapScore(query, doc map[string]int) float64 {
	var score float64
	for term, qc := range query {
		if dc, ok := doc[term]; ok {
			score += float64(qc*dc) / (1 + float64(dc))
		}
	}
	return score
}
