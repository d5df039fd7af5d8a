package campaignengine

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/orqestra/campaign-platform/internal/apierr"
	"github.com/orqestra/campaign-platform/internal/models"
)

// Store is the narrow persistence surface this service depends on.
type Store interface {
	CreateCampaign(ctx context.Context, c *models.Campaign) error
	GetCampaign(ctx context.Context, id string) (*models.Campaign, error)
	ListCampaigns(ctx context.Context) ([]*models.Campaign, error)
	UpdateCampaign(ctx context.Context, c *models.Campaign) error
	DeleteCampaign(ctx context.Context, id string) error

	AddComment(ctx context.Context, c *models.Comment) error
	ListComments(ctx context.Context, campaignID string) ([]*models.Comment, error)

	AppendCampaignStatusEvent(ctx context.Context, e *models.CampaignStatusEvent) error
	ListCampaignStatusEvents(ctx context.Context, campaignID string) ([]*models.CampaignStatusEvent, error)

	UpsertCreativePiece(ctx context.Context, p *models.CreativePiece) error
	GetCreativePiece(ctx context.Context, campaignID string, pieceType models.CreativePieceType) (*models.CreativePiece, error)
	ListCreativePieces(ctx context.Context, campaignID string) ([]*models.CreativePiece, error)

	UpsertPieceReview(ctx context.Context, r *models.PieceReview) error
	GetPieceReview(ctx context.Context, key models.ReviewKey) (*models.PieceReview, error)
	ListPieceReviews(ctx context.Context, campaignID string) ([]*models.PieceReview, error)

	AppendPieceReviewEvent(ctx context.Context, e *models.PieceReviewEvent) error
	ListPieceReviewEvents(ctx context.Context, campaignID string) ([]*models.PieceReviewEvent, error)
}

// ObjectStore resolves a creative piece's HTML/image object keys to the
// bytes they name and stores newly uploaded content, mirroring
// internal/objectstore.Store (kept as a separate interface here so this
// package doesn't import internal/objectstore for anything but the
// composition root's wiring).
type ObjectStore interface {
	Get(ctx context.Context, key string) ([]byte, string, error)
	Put(ctx context.Context, key string, body []byte, contentType string) error
}

// Service is the composition root for the Campaign Workflow Engine.
type Service struct {
	store   Store
	objects ObjectStore
	log     zerolog.Logger
}

func NewService(store Store, objects ObjectStore, log zerolog.Logger) *Service {
	return &Service{store: store, objects: objects, log: log.With().Str("component", "campaignengine").Logger()}
}

// CreateCampaignInput carries the fields a BusinessAnalyst supplies when
// starting a new campaign (spec §3). New campaigns always start in Draft.
type CreateCampaignInput struct {
	Name                 string
	Category             models.CampaignCategory
	BusinessObjective    string
	ExpectedResult       string
	RequestingArea       models.RequestingArea
	StartDate            time.Time
	EndDate              time.Time
	Priority             models.CampaignPriority
	Channels             []models.CommunicationChannel
	CommercialSpaces     []models.CommercialSpace
	TargetAudience       string
	ExclusionCriteria    string
	EstimatedImpact      string
	Tone                 models.CommunicationTone
	ExecutionModel       models.ExecutionModel
	TriggerEvent         models.TriggerEvent
	RecencyDays          int
}

func (s *Service) CreateCampaign(ctx context.Context, in CreateCampaignInput, actorID string) (*models.Campaign, error) {
	if in.Name == "" {
		return nil, apierr.Field(apierr.ValidationErr, "name", "name is required")
	}
	c := &models.Campaign{
		ID:                uuid.NewString(),
		Name:              in.Name,
		Category:          in.Category,
		BusinessObjective: in.BusinessObjective,
		ExpectedResult:    in.ExpectedResult,
		RequestingArea:    in.RequestingArea,
		StartDate:         in.StartDate,
		EndDate:           in.EndDate,
		Priority:          in.Priority,
		Channels:          in.Channels,
		CommercialSpaces:  in.CommercialSpaces,
		TargetAudience:    in.TargetAudience,
		ExclusionCriteria: in.ExclusionCriteria,
		EstimatedImpact:   in.EstimatedImpact,
		Tone:              in.Tone,
		ExecutionModel:    in.ExecutionModel,
		TriggerEvent:      in.TriggerEvent,
		RecencyDays:       in.RecencyDays,
		Status:            models.StatusDraft,
		CreatedBy:         actorID,
		CreatedAt:         time.Now().UTC(),
	}
	if err := s.store.CreateCampaign(ctx, c); err != nil {
		return nil, err
	}
	if err := s.store.AppendCampaignStatusEvent(ctx, &models.CampaignStatusEvent{
		ID: 0, CampaignID: c.ID, FromStatus: "", ToStatus: models.StatusDraft,
		ActorID: actorID, CreatedAt: c.CreatedAt,
	}); err != nil {
		return nil, err
	}
	return c, nil
}

// ListCampaigns returns campaigns visible to role/actorID per the
// visibility matrix, plus the actor's own drafts when role is
// BusinessAnalyst (spec §4.2).
func (s *Service) ListCampaigns(ctx context.Context, role models.UserRole, actorID string) ([]*models.Campaign, error) {
	all, err := s.store.ListCampaigns(ctx)
	if err != nil {
		return nil, err
	}
	visible := make([]*models.Campaign, 0, len(all))
	for _, c := range all {
		if CanViewCampaign(role, actorID, c.Status, c.CreatedBy) {
			visible = append(visible, c)
		}
	}
	return visible, nil
}

func (s *Service) GetCampaign(ctx context.Context, id string, role models.UserRole, actorID string) (*models.Campaign, error) {
	c, err := s.store.GetCampaign(ctx, id)
	if err != nil {
		return nil, apierr.New(apierr.NotFound, "campaign not found")
	}
	if !CanViewCampaign(role, actorID, c.Status, c.CreatedBy) {
		return nil, apierr.New(apierr.AuthForbiddenRole, "you don't have permission to view this campaign")
	}
	return c, nil
}

// UpdateCampaignInput is a partial-update patch; nil fields are left
// unchanged. Status, when non-nil, is validated through the transition
// matrix rather than written directly.
type UpdateCampaignInput struct {
	Name               *string
	BusinessObjective  *string
	ExpectedResult     *string
	TargetAudience     *string
	ExclusionCriteria  *string
	EstimatedImpact    *string
	Status             *models.CampaignStatus
}

func (s *Service) UpdateCampaign(ctx context.Context, id string, in UpdateCampaignInput, role models.UserRole, actorID string) (*models.Campaign, error) {
	c, err := s.store.GetCampaign(ctx, id)
	if err != nil {
		return nil, apierr.New(apierr.NotFound, "campaign not found")
	}
	if !CanViewCampaign(role, actorID, c.Status, c.CreatedBy) {
		return nil, apierr.New(apierr.AuthForbiddenRole, "you don't have permission to update this campaign")
	}

	statusOnly := in.Status != nil && in.Name == nil && in.BusinessObjective == nil &&
		in.ExpectedResult == nil && in.TargetAudience == nil && in.ExclusionCriteria == nil && in.EstimatedImpact == nil

	if !statusOnly && c.Status == models.StatusDraft && c.CreatedBy != actorID {
		return nil, apierr.New(apierr.AuthForbiddenRole, "only the campaign creator can update draft campaigns")
	}

	if in.Status != nil {
		ok, reason := CanTransition(role, c.Status, *in.Status)
		if !ok {
			return nil, apierr.New(apierr.MachineStateConflict, reason)
		}
		if *in.Status == models.StatusCampaignBuilding && c.Status == models.StatusContentReview {
			reviews, err := s.store.ListPieceReviews(ctx, id)
			if err != nil {
				return nil, err
			}
			if !AllFinallyApproved(reviews) {
				return nil, apierr.New(apierr.MachineStateConflict, "every review must be finally approved before leaving ContentReview for CampaignBuilding")
			}
		}
		from := c.Status
		c.Status = *in.Status
		if err := s.store.AppendCampaignStatusEvent(ctx, &models.CampaignStatusEvent{
			ID: 0, CampaignID: id, FromStatus: from, ToStatus: *in.Status,
			ActorID: actorID, CreatedAt: time.Now().UTC(),
		}); err != nil {
			return nil, err
		}
	}

	if in.Name != nil {
		c.Name = *in.Name
	}
	if in.BusinessObjective != nil {
		c.BusinessObjective = *in.BusinessObjective
	}
	if in.ExpectedResult != nil {
		c.ExpectedResult = *in.ExpectedResult
	}
	if in.TargetAudience != nil {
		c.TargetAudience = *in.TargetAudience
	}
	if in.ExclusionCriteria != nil {
		c.ExclusionCriteria = *in.ExclusionCriteria
	}
	if in.EstimatedImpact != nil {
		c.EstimatedImpact = *in.EstimatedImpact
	}

	if err := s.store.UpdateCampaign(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteCampaign allows a BusinessAnalyst to delete only their own Draft
// campaigns (spec §4.2, mirroring the original's delete guard).
func (s *Service) DeleteCampaign(ctx context.Context, id string, role models.UserRole, actorID string) error {
	c, err := s.store.GetCampaign(ctx, id)
	if err != nil {
		return apierr.New(apierr.NotFound, "campaign not found")
	}
	if role != models.RoleBusinessAnalyst || c.CreatedBy != actorID || c.Status != models.StatusDraft {
		return apierr.New(apierr.AuthForbiddenRole, "you can only delete your own drafts")
	}
	return s.store.DeleteCampaign(ctx, id)
}

func (s *Service) ListStatusEvents(ctx context.Context, campaignID string) ([]*models.CampaignStatusEvent, error) {
	return s.store.ListCampaignStatusEvents(ctx, campaignID)
}

// AddComment appends a free-form comment; visibility inherits from the
// campaign (spec §4.2), so the same view check gates commenting.
func (s *Service) AddComment(ctx context.Context, campaignID, author string, role models.UserRole, text string, actorID string) (*models.Comment, error) {
	c, err := s.store.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, apierr.New(apierr.NotFound, "campaign not found")
	}
	if !CanViewCampaign(role, actorID, c.Status, c.CreatedBy) {
		return nil, apierr.New(apierr.AuthForbiddenRole, "you don't have permission to comment on this campaign")
	}
	comment := &models.Comment{
		ID: uuid.NewString(), CampaignID: campaignID, Author: author, Role: role,
		Text: text, Timestamp: time.Now().UTC(),
	}
	if err := s.store.AddComment(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *Service) ListComments(ctx context.Context, campaignID string) ([]*models.Comment, error) {
	return s.store.ListComments(ctx, campaignID)
}

// SubmitCreativePiece lets a CreativeAnalyst attach or replace the one
// CreativePiece per (campaign, piece_type), valid only while the
// campaign is in CreativeStage or ContentAdjustment (spec §4.2).
func (s *Service) SubmitCreativePiece(ctx context.Context, campaignID string, piece *models.CreativePiece, role models.UserRole) (*models.CreativePiece, error) {
	if role != models.RoleCreativeAnalyst {
		return nil, apierr.New(apierr.AuthForbiddenRole, "only creative analysts can submit creative pieces")
	}
	c, err := s.store.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, apierr.New(apierr.NotFound, "campaign not found")
	}
	if c.Status != models.StatusCreativeStage && c.Status != models.StatusContentAdjustment {
		return nil, apierr.New(apierr.MachineStateConflict, "creative pieces can only be submitted while the campaign is in CreativeStage or ContentAdjustment")
	}

	existing, err := s.store.GetCreativePiece(ctx, campaignID, piece.PieceType)
	now := time.Now().UTC()
	if err == nil && existing != nil {
		existing.Body = piece.Body
		existing.Title = piece.Title
		existing.HTMLObjectKey = piece.HTMLObjectKey
		existing.ImageObjectKeys = piece.ImageObjectKeys
		existing.UpdatedAt = now
		if err := s.store.UpsertCreativePiece(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	}

	piece.ID = uuid.NewString()
	piece.CampaignID = campaignID
	piece.CreatedAt = now
	piece.UpdatedAt = now
	if err := s.store.UpsertCreativePiece(ctx, piece); err != nil {
		return nil, err
	}
	return piece, nil
}

func (s *Service) ListCreativePieces(ctx context.Context, campaignID string) ([]*models.CreativePiece, error) {
	return s.store.ListCreativePieces(ctx, campaignID)
}

// objectKey builds the storage key layout from spec §6: "campaigns/
// {campaign_id}/{piece_type}/[{commercial_space}/]{uuid}.{ext}".
func objectKey(campaignID string, pieceType models.CreativePieceType, commercialSpace, ext string) string {
	k := "campaigns/" + campaignID + "/" + string(pieceType) + "/"
	if commercialSpace != "" {
		k += commercialSpace + "/"
	}
	return k + uuid.NewString() + "." + ext
}

// UploadCreativeContent stores an EMAIL piece's HTML or an APP piece's
// image bytes in object storage and records the resulting key on the
// CreativePiece row, creating the row if one doesn't exist yet.
func (s *Service) UploadCreativeContent(ctx context.Context, campaignID string, pieceType models.CreativePieceType, commercialSpace string, body []byte, contentType string, role models.UserRole) (*models.CreativePiece, error) {
	if role != models.RoleCreativeAnalyst {
		return nil, apierr.New(apierr.AuthForbiddenRole, "only creative analysts can upload creative content")
	}
	if pieceType != models.PieceEmail && pieceType != models.PieceApp {
		return nil, apierr.New(apierr.ValidationErr, "only EMAIL and APP pieces accept uploaded content")
	}

	ext := "html"
	if pieceType == models.PieceApp {
		ext = "bin"
	}
	key := objectKey(campaignID, pieceType, commercialSpace, ext)
	if err := s.objects.Put(ctx, key, body, contentType); err != nil {
		return nil, apierr.New(apierr.Internal, "failed to store creative content: "+err.Error())
	}

	piece, err := s.store.GetCreativePiece(ctx, campaignID, pieceType)
	now := time.Now().UTC()
	if err != nil || piece == nil {
		piece = &models.CreativePiece{ID: uuid.NewString(), CampaignID: campaignID, PieceType: pieceType, CreatedAt: now}
	}
	if pieceType == models.PieceEmail {
		piece.HTMLObjectKey = key
	} else {
		if piece.ImageObjectKeys == nil {
			piece.ImageObjectKeys = map[string]string{}
		}
		piece.ImageObjectKeys[commercialSpace] = key
	}
	piece.UpdatedAt = now
	if err := s.store.UpsertCreativePiece(ctx, piece); err != nil {
		return nil, err
	}
	return piece, nil
}

// PieceContent is the resolved content-download response (spec §6:
// "HTML text or base64 data URL").
type PieceContent struct {
	HTML    string // EMAIL
	DataURL string // APP
}

// GetCreativePieceContent resolves the EMAIL piece's HTML or the APP
// piece's image (for the given commercial_space) to its bytes.
func (s *Service) GetCreativePieceContent(ctx context.Context, campaignID string, pieceType models.CreativePieceType, commercialSpace string) (*PieceContent, error) {
	piece, err := s.store.GetCreativePiece(ctx, campaignID, pieceType)
	if err != nil {
		return nil, apierr.New(apierr.NotFound, "creative piece not found")
	}

	switch pieceType {
	case models.PieceEmail:
		if piece.HTMLObjectKey == "" {
			return nil, apierr.New(apierr.NotFound, "no content uploaded for this piece")
		}
		body, _, err := s.objects.Get(ctx, piece.HTMLObjectKey)
		if err != nil {
			return nil, apierr.New(apierr.Internal, "failed to fetch creative content: "+err.Error())
		}
		return &PieceContent{HTML: string(body)}, nil
	case models.PieceApp:
		key, ok := piece.ImageObjectKeys[commercialSpace]
		if !ok {
			return nil, apierr.New(apierr.NotFound, "no content uploaded for this commercial space")
		}
		body, contentType, err := s.objects.Get(ctx, key)
		if err != nil {
			return nil, apierr.New(apierr.Internal, "failed to fetch creative content: "+err.Error())
		}
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		return &PieceContent{DataURL: "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(body)}, nil
	default:
		return nil, apierr.New(apierr.ValidationErr, "piece type has no downloadable content")
	}
}

// ReviewUnit is one reviewable unit submitted for review, carrying the
// submitter's IA verdict snapshot (possibly nil when not AI-validated).
type ReviewUnit struct {
	Key       models.ReviewKey
	IAVerdict *models.IAVerdict
}

// SubmitForReview implements the creative analyst's submit-for-review
// action (spec §4.2): one PieceReview per unit, human_verdict reset to
// pending, idempotent on the unit key.
func (s *Service) SubmitForReview(ctx context.Context, campaignID string, units []ReviewUnit, role models.UserRole, actorID string) ([]*models.PieceReview, error) {
	if role != models.RoleCreativeAnalyst {
		return nil, apierr.New(apierr.AuthForbiddenRole, "only creative analysts can submit pieces for review")
	}
	c, err := s.store.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, apierr.New(apierr.NotFound, "campaign not found")
	}
	if c.Status != models.StatusContentReview {
		return nil, apierr.New(apierr.MachineStateConflict, "pieces can only be submitted for review while the campaign is in ContentReview")
	}

	out := make([]*models.PieceReview, 0, len(units))
	for _, u := range units {
		existing, err := s.store.GetPieceReview(ctx, u.Key)
		var r *models.PieceReview
		if err == nil && existing != nil {
			r = existing
		} else {
			r = &models.PieceReview{
				ID: uuid.NewString(), CampaignID: u.Key.CampaignID, Channel: u.Key.Channel,
				PieceID: u.Key.PieceID, CommercialSpace: u.Key.CommercialSpace,
			}
		}
		r.IAVerdict = u.IAVerdict
		r.HumanVerdict = models.HumanVerdictPending
		r.RejectionReason = ""
		r.ReviewedBy = ""
		r.ReviewedAt = nil
		if err := s.store.UpsertPieceReview(ctx, r); err != nil {
			return nil, err
		}
		if err := s.store.AppendPieceReviewEvent(ctx, &models.PieceReviewEvent{
			CampaignID: u.Key.CampaignID, Channel: u.Key.Channel, PieceID: u.Key.PieceID,
			CommercialSpace: u.Key.CommercialSpace, EventType: models.ReviewEventSubmitted,
			IAVerdict: u.IAVerdict, ActorID: actorID, CreatedAt: time.Now().UTC(),
		}); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// ReviewAction is a marketing manager's decision on one reviewable unit.
type ReviewAction string

const (
	ActionApprove        ReviewAction = "approve"
	ActionReject         ReviewAction = "reject"
	ActionManuallyReject ReviewAction = "manually_reject"
)

// Review implements the marketing manager's review action (spec §4.2),
// including the ia_verdict-gated legality of reject/manually_reject.
func (s *Service) Review(ctx context.Context, key models.ReviewKey, action ReviewAction, rejectionReason string, role models.UserRole, actorID string) (*models.PieceReview, error) {
	if role != models.RoleMarketingManager {
		return nil, apierr.New(apierr.AuthForbiddenRole, "only marketing managers can review pieces")
	}
	r, err := s.store.GetPieceReview(ctx, key)
	if err != nil {
		return nil, apierr.New(apierr.NotFound, "review not found")
	}

	var eventType models.PieceReviewEventType
	switch action {
	case ActionApprove:
		r.HumanVerdict = models.HumanVerdictApproved
		eventType = models.ReviewEventApproved
	case ActionReject:
		if r.IAVerdict == nil || *r.IAVerdict != models.IAVerdictRejected {
			return nil, apierr.New(apierr.ValidationErr, "reject is only valid when the IA verdict was rejected; use manually_reject to override")
		}
		r.HumanVerdict = models.HumanVerdictRejected
		eventType = models.ReviewEventRejected
	case ActionManuallyReject:
		if r.IAVerdict != nil && *r.IAVerdict == models.IAVerdictRejected {
			return nil, apierr.New(apierr.ValidationErr, "manually_reject is only valid when the IA verdict was approved or absent; use reject to confirm an IA rejection")
		}
		if rejectionReason == "" {
			return nil, apierr.Field(apierr.ValidationErr, "rejection_reason", "rejection_reason is required for manually_reject")
		}
		r.HumanVerdict = models.HumanVerdictManuallyRejected
		eventType = models.ReviewEventManuallyRejected
	default:
		return nil, apierr.New(apierr.ValidationErr, "unknown review action")
	}

	now := time.Now().UTC()
	r.RejectionReason = rejectionReason
	r.ReviewedBy = actorID
	r.ReviewedAt = &now
	if err := s.store.UpsertPieceReview(ctx, r); err != nil {
		return nil, err
	}
	if err := s.store.AppendPieceReviewEvent(ctx, &models.PieceReviewEvent{
		CampaignID: key.CampaignID, Channel: key.Channel, PieceID: key.PieceID,
		CommercialSpace: key.CommercialSpace, EventType: eventType,
		IAVerdict: r.IAVerdict, RejectionReason: rejectionReason, ActorID: actorID, CreatedAt: now,
	}); err != nil {
		return nil, err
	}
	return r, nil
}

// UpdateIAVerdict lets the validation orchestrator push a fresh IA
// verdict onto an existing review row without disturbing any
// already-recorded human verdict (the orchestrator runs independently
// of, and usually before, human review).
func (s *Service) UpdateIAVerdict(ctx context.Context, key models.ReviewKey, verdict models.IAVerdict) (*models.PieceReview, error) {
	r, err := s.store.GetPieceReview(ctx, key)
	if err != nil {
		r = &models.PieceReview{
			ID: uuid.NewString(), CampaignID: key.CampaignID, Channel: key.Channel,
			PieceID: key.PieceID, CommercialSpace: key.CommercialSpace,
			HumanVerdict: models.HumanVerdictPending,
		}
	}
	r.IAVerdict = &verdict
	if err := s.store.UpsertPieceReview(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Service) ListPieceReviews(ctx context.Context, campaignID string) ([]*models.PieceReview, error) {
	return s.store.ListPieceReviews(ctx, campaignID)
}

func (s *Service) ListPieceReviewEvents(ctx context.Context, campaignID string) ([]*models.PieceReviewEvent, error) {
	return s.store.ListPieceReviewEvents(ctx, campaignID)
}
