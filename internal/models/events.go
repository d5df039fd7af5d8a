package models

import "time"

// CampaignStatusEvent is an append-only log row recording one accepted
// status transition. Never updated, never deleted.
type CampaignStatusEvent struct {
	ID         int64           `json:"id" db:"id"`
	CampaignID string          `json:"campaign_id" db:"campaign_id"`
	FromStatus CampaignStatus  `json:"from_status,omitempty" db:"from_status"`
	ToStatus   CampaignStatus  `json:"to_status" db:"to_status"`
	ActorID    string          `json:"actor_id" db:"actor_id"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}

type PieceReviewEventType string

const (
	ReviewEventSubmitted       PieceReviewEventType = "SUBMITTED"
	ReviewEventApproved        PieceReviewEventType = "APPROVED"
	ReviewEventRejected        PieceReviewEventType = "REJECTED"
	ReviewEventManuallyRejected PieceReviewEventType = "MANUALLY_REJECTED"
)

// PieceReviewEvent is an append-only log row for one piece-review lifecycle
// transition. Never updated, never deleted.
type PieceReviewEvent struct {
	ID              int64                `json:"id" db:"id"`
	CampaignID      string               `json:"campaign_id" db:"campaign_id"`
	Channel         CreativePieceType    `json:"channel" db:"channel"`
	PieceID         string               `json:"piece_id" db:"piece_id"`
	CommercialSpace string               `json:"commercial_space" db:"commercial_space"`
	EventType       PieceReviewEventType `json:"event_type" db:"event_type"`
	IAVerdict       *IAVerdict           `json:"ia_verdict,omitempty" db:"ia_verdict"`
	RejectionReason string               `json:"rejection_reason,omitempty" db:"rejection_reason"`
	ActorID         string               `json:"actor_id" db:"actor_id"`
	CreatedAt       time.Time            `json:"created_at" db:"created_at"`
}
