// Package store defines the persistence boundary used by every service.
// The database engine itself is an external collaborator (spec §1); only
// this interface and its in-memory/Postgres implementations are in scope.
package store

import (
	"context"

	"github.com/orqestra/campaign-platform/internal/models"
)

// UserStore manages User rows.
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// RefreshTokenStore manages RefreshToken rows.
type RefreshTokenStore interface {
	CreateRefreshToken(ctx context.Context, t *models.RefreshToken) error
	GetRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, token, userID string) error
}

// LoginAuditStore records login attempts.
type LoginAuditStore interface {
	CreateLoginAudit(ctx context.Context, a *models.LoginAudit) error
}

// CampaignStore manages Campaign rows and their associated comments.
type CampaignStore interface {
	CreateCampaign(ctx context.Context, c *models.Campaign) error
	GetCampaign(ctx context.Context, id string) (*models.Campaign, error)
	ListCampaigns(ctx context.Context) ([]*models.Campaign, error)
	UpdateCampaign(ctx context.Context, c *models.Campaign) error
	DeleteCampaign(ctx context.Context, id string) error

	AddComment(ctx context.Context, c *models.Comment) error
	ListComments(ctx context.Context, campaignID string) ([]*models.Comment, error)
}

// CampaignEventStore manages the append-only CampaignStatusEvent log.
type CampaignEventStore interface {
	AppendCampaignStatusEvent(ctx context.Context, e *models.CampaignStatusEvent) error
	ListCampaignStatusEvents(ctx context.Context, campaignID string) ([]*models.CampaignStatusEvent, error)
}

// CreativePieceStore manages CreativePiece rows.
type CreativePieceStore interface {
	UpsertCreativePiece(ctx context.Context, p *models.CreativePiece) error
	GetCreativePiece(ctx context.Context, campaignID string, pieceType models.CreativePieceType) (*models.CreativePiece, error)
	ListCreativePieces(ctx context.Context, campaignID string) ([]*models.CreativePiece, error)
}

// PieceReviewStore manages PieceReview rows, unique per reviewable unit.
type PieceReviewStore interface {
	UpsertPieceReview(ctx context.Context, r *models.PieceReview) error
	GetPieceReview(ctx context.Context, key models.ReviewKey) (*models.PieceReview, error)
	ListPieceReviews(ctx context.Context, campaignID string) ([]*models.PieceReview, error)
}

// PieceReviewEventStore manages the append-only PieceReviewEvent log.
type PieceReviewEventStore interface {
	AppendPieceReviewEvent(ctx context.Context, e *models.PieceReviewEvent) error
	ListPieceReviewEvents(ctx context.Context, campaignID string) ([]*models.PieceReviewEvent, error)
}

// ValidationCacheStoreDB manages the durable ValidationCacheEntry table
// (separate from the Redis fast-path cache in internal/validation).
type ValidationCacheStoreDB interface {
	UpsertValidationCacheEntry(ctx context.Context, e *models.ValidationCacheEntry) error
	GetValidationCacheEntry(ctx context.Context, campaignID, channel, contentHash string) (*models.ValidationCacheEntry, error)
}

// EnhanceableFieldStore manages the briefing enhancer's field metadata
// lookup table.
type EnhanceableFieldStore interface {
	GetEnhanceableField(ctx context.Context, fieldName string) (*models.EnhanceableField, error)
}

// AIInteractionStore manages the briefing enhancer's audit log.
type AIInteractionStore interface {
	CreateAIInteraction(ctx context.Context, i *models.AIInteraction) error
	UpdateAIInteractionDecision(ctx context.Context, id string, decision models.InteractionDecision) error
	ListAIInteractionsBySession(ctx context.Context, sessionID string) ([]*models.AIInteraction, error)
}

// Store is the full persistence surface composed of the narrow interfaces
// above, mirroring the teacher's composed Store interface in
// internal/store/store.go.
type Store interface {
	UserStore
	RefreshTokenStore
	LoginAuditStore
	CampaignStore
	CampaignEventStore
	CreativePieceStore
	PieceReviewStore
	PieceReviewEventStore
	ValidationCacheStoreDB
	EnhanceableFieldStore
	AIInteractionStore

	Ping(ctx context.Context) error
	Close() error
}
