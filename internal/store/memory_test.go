package store

import (
	"context"
	"testing"
	"time"

	"github.com/orqestra/campaign-platform/internal/apierr"
	"github.com/orqestra/campaign-platform/internal/models"
)

func TestMemoryStore_UserDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	u := &models.User{ID: "u1", Email: "ana@example.com", Role: models.RoleBusinessAnalyst, IsActive: true}
	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	dup := &models.User{ID: "u2", Email: "ana@example.com"}
	err := s.CreateUser(ctx, dup)
	if err == nil {
		t.Fatal("expected duplicate email error")
	}
	if ae := apierr.As(err); ae.Kind != apierr.ValidationErr {
		t.Fatalf("expected ValidationError kind, got %s", ae.Kind)
	}
}

func TestMemoryStore_CampaignStatusEventOrdering(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	c := &models.Campaign{ID: "c1", Status: models.StatusDraft, CreatedAt: time.Now().UTC()}
	if err := s.CreateCampaign(ctx, c); err != nil {
		t.Fatal(err)
	}

	transitions := []models.CampaignStatus{
		models.StatusCreativeStage, models.StatusContentReview, models.StatusCampaignBuilding,
	}
	from := models.StatusDraft
	for _, to := range transitions {
		if err := s.AppendCampaignStatusEvent(ctx, &models.CampaignStatusEvent{
			CampaignID: "c1", FromStatus: from, ToStatus: to, ActorID: "u1", CreatedAt: time.Now().UTC(),
		}); err != nil {
			t.Fatal(err)
		}
		from = to
	}

	events, err := s.ListCampaignStatusEvents(ctx, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	for i, e := range events {
		if e.ID != int64(i+1) {
			t.Fatalf("expected monotonically increasing insertion ids, got %d at index %d", e.ID, i)
		}
	}
	if events[len(events)-1].ToStatus != models.StatusCampaignBuilding {
		t.Fatalf("last event should reflect final status")
	}
}

func TestMemoryStore_PieceReviewUniqueOnReviewableUnit(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	key := models.ReviewKey{CampaignID: "c1", Channel: models.PieceApp, PieceID: "p1", CommercialSpace: "home_banner"}
	r := &models.PieceReview{CampaignID: key.CampaignID, Channel: key.Channel, PieceID: key.PieceID,
		CommercialSpace: key.CommercialSpace, HumanVerdict: models.HumanVerdictPending}
	if err := s.UpsertPieceReview(ctx, r); err != nil {
		t.Fatal(err)
	}

	// Re-submitting the same unit overwrites, not duplicates.
	approved := models.IAVerdictApproved
	r2 := &models.PieceReview{CampaignID: key.CampaignID, Channel: key.Channel, PieceID: key.PieceID,
		CommercialSpace: key.CommercialSpace, IAVerdict: &approved, HumanVerdict: models.HumanVerdictPending}
	if err := s.UpsertPieceReview(ctx, r2); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetPieceReview(ctx, key)
	if err != nil {
		t.Fatal(err)
	}
	if got.IAVerdict == nil || *got.IAVerdict != models.IAVerdictApproved {
		t.Fatalf("expected overwritten ia_verdict=approved, got %+v", got.IAVerdict)
	}

	all, _ := s.ListPieceReviews(ctx, "c1")
	if len(all) != 1 {
		t.Fatalf("expected exactly one row for the reviewable unit, got %d", len(all))
	}
}

func TestMemoryStore_ValidationCacheIdempotentOnKey(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	write := func(response string) {
		if err := s.UpsertValidationCacheEntry(ctx, &models.ValidationCacheEntry{
			CampaignID: "c1", Channel: "PUSH", ContentHash: "abc123", Response: []byte(response),
		}); err != nil {
			t.Fatal(err)
		}
	}
	write(`{"decision":"REPROVADO"}`)
	write(`{"decision":"APROVADO"}`)

	got, err := s.GetValidationCacheEntry(ctx, "c1", "PUSH", "abc123")
	if err != nil {
		t.Fatal(err)
	}
	if string(got.Response) != `{"decision":"APROVADO"}` {
		t.Fatalf("expected later write to win, got %s", got.Response)
	}
}
