package briefing

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/orqestra/campaign-platform/internal/models"
	"github.com/orqestra/campaign-platform/internal/store"
)

type stubLLM struct {
	calls int
}

func (s *stubLLM) EnhanceText(_ context.Context, prompt string) (string, string, error) {
	s.calls++
	return "texto reescrito", "explicação automática", nil
}

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewCache(client, zerolog.Nop())
}

func TestAgent_Enhance_WritesAuditAndCachesDecision(t *testing.T) {
	st := store.NewMemoryStore()
	llm := &stubLLM{}
	a := NewAgent(st, st, llm, newTestCache(t), zerolog.Nop())

	req := Request{UserID: "u1", FieldName: "business_objective", Text: "aumentar vendas"}
	resp, err := a.Enhance(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.EnhancedText == "" || resp.InteractionID == "" {
		t.Fatalf("expected populated response, got %+v", resp)
	}
	if llm.calls != 1 {
		t.Fatalf("expected 1 LLM call, got %d", llm.calls)
	}

	// Identical request should hit the decision cache, not call the LLM again.
	resp2, err := a.Enhance(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp2.InteractionID != resp.InteractionID {
		t.Fatalf("expected cache hit to replay the same interaction, got %+v vs %+v", resp, resp2)
	}
	if llm.calls != 1 {
		t.Fatalf("expected cache hit to avoid a second LLM call, got %d calls", llm.calls)
	}
}

func TestAgent_RecordDecision_RejectionInvalidatesCache(t *testing.T) {
	st := store.NewMemoryStore()
	llm := &stubLLM{}
	a := NewAgent(st, st, llm, newTestCache(t), zerolog.Nop())

	req := Request{UserID: "u1", FieldName: "target_audience", Text: "jovens urbanos"}
	resp, err := a.Enhance(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := a.RecordDecision(context.Background(), resp.InteractionID, models.DecisionRejected); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := a.Enhance(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if llm.calls != 2 {
		t.Fatalf("expected rejection to force a fresh LLM call, got %d calls", llm.calls)
	}
}

func TestAgent_Enhance_UnknownFieldIsNotFound(t *testing.T) {
	st := store.NewMemoryStore()
	a := NewAgent(st, st, &stubLLM{}, newTestCache(t), zerolog.Nop())

	_, err := a.Enhance(context.Background(), Request{UserID: "u1", FieldName: "nonexistent", Text: "x"})
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
}
