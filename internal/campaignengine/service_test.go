package campaignengine

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/orqestra/campaign-platform/internal/apierr"
	"github.com/orqestra/campaign-platform/internal/models"
	"github.com/orqestra/campaign-platform/internal/objectstore"
	"github.com/orqestra/campaign-platform/internal/store"
)

func newTestService() *Service {
	return NewService(store.NewMemoryStore(), objectstore.NewMemoryStore(), zerolog.Nop())
}

func approved(v models.IAVerdict) *models.IAVerdict { return &v }

// TestService_FullLifecycle walks a campaign through every transition
// (scenario S1 of spec §8): Draft -> CreativeStage -> ContentReview ->
// CampaignBuilding -> CampaignPublished, with the piece review gate.
func TestService_FullLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestService()

	c, err := s.CreateCampaign(ctx, CreateCampaignInput{Name: "Black Friday"}, "analyst-1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.Status != models.StatusDraft {
		t.Fatalf("expected new campaign to start in Draft, got %s", c.Status)
	}

	toCreative := models.StatusCreativeStage
	if _, err := s.UpdateCampaign(ctx, c.ID, UpdateCampaignInput{Status: &toCreative}, models.RoleBusinessAnalyst, "analyst-1"); err != nil {
		t.Fatalf("draft->creative: %v", err)
	}

	piece := &models.CreativePiece{PieceType: models.PieceSMS, Body: "50% off today"}
	if _, err := s.SubmitCreativePiece(ctx, c.ID, piece, models.RoleCreativeAnalyst); err != nil {
		t.Fatalf("submit piece: %v", err)
	}

	toReview := models.StatusContentReview
	if _, err := s.UpdateCampaign(ctx, c.ID, UpdateCampaignInput{Status: &toReview}, models.RoleCreativeAnalyst, "creative-1"); err != nil {
		t.Fatalf("creative->review: %v", err)
	}

	// Submitted without an IA verdict: an IA-approved unit with a pending
	// human verdict already counts as finally approved, so only a unit
	// with no IA verdict keeps the gate closed until the human review.
	key := models.ReviewKey{CampaignID: c.ID, Channel: models.PieceSMS, PieceID: piece.ID}
	if _, err := s.SubmitForReview(ctx, c.ID, []ReviewUnit{{Key: key}}, models.RoleCreativeAnalyst, "creative-1"); err != nil {
		t.Fatalf("submit for review: %v", err)
	}

	toBuilding := models.StatusCampaignBuilding
	if _, err := s.UpdateCampaign(ctx, c.ID, UpdateCampaignInput{Status: &toBuilding}, models.RoleMarketingManager, "mgr-1"); err == nil {
		t.Fatal("expected the gate to reject the transition before any human review")
	}

	if _, err := s.Review(ctx, key, ActionApprove, "", models.RoleMarketingManager, "mgr-1"); err != nil {
		t.Fatalf("review: %v", err)
	}

	c, err = s.UpdateCampaign(ctx, c.ID, UpdateCampaignInput{Status: &toBuilding}, models.RoleMarketingManager, "mgr-1")
	if err != nil {
		t.Fatalf("review->building: %v", err)
	}
	if c.Status != models.StatusCampaignBuilding {
		t.Fatalf("expected CampaignBuilding, got %s", c.Status)
	}

	toPublished := models.StatusCampaignPublished
	c, err = s.UpdateCampaign(ctx, c.ID, UpdateCampaignInput{Status: &toPublished}, models.RoleCampaignAnalyst, "campaign-1")
	if err != nil {
		t.Fatalf("building->published: %v", err)
	}
	if c.Status != models.StatusCampaignPublished {
		t.Fatalf("expected CampaignPublished, got %s", c.Status)
	}

	events, err := s.ListStatusEvents(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 5 {
		t.Fatalf("expected the initial Draft event plus 4 recorded transitions, got %d", len(events))
	}
}

// TestService_IllegalTransitionRejected covers scenario S2 of spec §8.
func TestService_IllegalTransitionRejected(t *testing.T) {
	ctx := context.Background()
	s := newTestService()
	c, err := s.CreateCampaign(ctx, CreateCampaignInput{Name: "Cyber Monday"}, "analyst-1")
	if err != nil {
		t.Fatal(err)
	}

	toPublished := models.StatusCampaignPublished
	_, err = s.UpdateCampaign(ctx, c.ID, UpdateCampaignInput{Status: &toPublished}, models.RoleBusinessAnalyst, "analyst-1")
	if err == nil {
		t.Fatal("expected Draft->CampaignPublished to be rejected")
	}
	if ae := apierr.As(err); ae.Kind != apierr.MachineStateConflict {
		t.Fatalf("expected MachineStateConflict, got %s", ae.Kind)
	}
}

// TestService_SubmitForReviewIsIdempotent covers the idempotent-resubmit
// property from spec §8: resubmitting overwrites ia_verdict and resets
// human_verdict to pending.
func TestService_SubmitForReviewIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestService()
	c, err := s.CreateCampaign(ctx, CreateCampaignInput{Name: "Loyalty Push"}, "analyst-1")
	if err != nil {
		t.Fatal(err)
	}
	toCreative := models.StatusCreativeStage
	s.UpdateCampaign(ctx, c.ID, UpdateCampaignInput{Status: &toCreative}, models.RoleBusinessAnalyst, "analyst-1")
	toReview := models.StatusContentReview
	s.UpdateCampaign(ctx, c.ID, UpdateCampaignInput{Status: &toReview}, models.RoleCreativeAnalyst, "creative-1")

	key := models.ReviewKey{CampaignID: c.ID, Channel: models.PiecePush, PieceID: "push-1"}
	_, err = s.SubmitForReview(ctx, c.ID, []ReviewUnit{{Key: key, IAVerdict: approved(models.IAVerdictRejected)}}, models.RoleCreativeAnalyst, "creative-1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Review(ctx, key, ActionReject, "", models.RoleMarketingManager, "mgr-1"); err != nil {
		t.Fatalf("reject: %v", err)
	}

	reviews, err := s.SubmitForReview(ctx, c.ID, []ReviewUnit{{Key: key, IAVerdict: approved(models.IAVerdictApproved)}}, models.RoleCreativeAnalyst, "creative-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(reviews) != 1 {
		t.Fatalf("expected one review row, got %d", len(reviews))
	}
	r := reviews[0]
	if r.HumanVerdict != models.HumanVerdictPending {
		t.Fatalf("expected resubmission to reset human_verdict to pending, got %s", r.HumanVerdict)
	}
	if r.IAVerdict == nil || *r.IAVerdict != models.IAVerdictApproved {
		t.Fatal("expected resubmission to overwrite the ia_verdict snapshot")
	}
}

func TestFinality(t *testing.T) {
	rejected := models.IAVerdictRejected
	approvedV := models.IAVerdictApproved

	cases := []struct {
		name             string
		review           models.PieceReview
		wantApproved     bool
		wantRejected     bool
	}{
		{"human approved overrides nothing", models.PieceReview{HumanVerdict: models.HumanVerdictApproved}, true, false},
		{"ia approved, human pending", models.PieceReview{IAVerdict: &approvedV, HumanVerdict: models.HumanVerdictPending}, true, false},
		{"ia approved, human manually rejected", models.PieceReview{IAVerdict: &approvedV, HumanVerdict: models.HumanVerdictManuallyRejected}, false, true},
		{"ia rejected, human pending", models.PieceReview{IAVerdict: &rejected, HumanVerdict: models.HumanVerdictPending}, false, true},
		{"ia rejected, human approved overrides", models.PieceReview{IAVerdict: &rejected, HumanVerdict: models.HumanVerdictApproved}, true, false},
		{"human rejected confirms", models.PieceReview{IAVerdict: &rejected, HumanVerdict: models.HumanVerdictRejected}, false, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := FinallyApproved(&tc.review); got != tc.wantApproved {
				t.Errorf("FinallyApproved = %v, want %v", got, tc.wantApproved)
			}
			if got := FinallyRejected(&tc.review); got != tc.wantRejected {
				t.Errorf("FinallyRejected = %v, want %v", got, tc.wantRejected)
			}
		})
	}
}
