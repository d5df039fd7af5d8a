package models

import "time"

type IAVerdict string

const (
	IAVerdictApproved IAVerdict = "approved"
	IAVerdictRejected IAVerdict = "rejected"
	IAVerdictWarning  IAVerdict = "warning"
)

type HumanVerdict string

const (
	HumanVerdictPending          HumanVerdict = "pending"
	HumanVerdictApproved         HumanVerdict = "approved"
	HumanVerdictRejected         HumanVerdict = "rejected"
	HumanVerdictManuallyRejected HumanVerdict = "manually_rejected"
)

// ReviewKey identifies a reviewable unit (spec §3/GLOSSARY): for SMS, Push,
// Email it is (campaign_id, piece_id); for App it additionally carries
// commercial_space.
type ReviewKey struct {
	CampaignID      string
	Channel         CreativePieceType
	PieceID         string
	CommercialSpace string // "" for non-App channels
}

// PieceReview is one row per reviewable unit (spec §3/§4.2). Unique on
// (campaign_id, channel, piece_id, commercial_space).
type PieceReview struct {
	ID              string       `json:"id" db:"id"`
	CampaignID      string       `json:"campaign_id" db:"campaign_id"`
	Channel         CreativePieceType `json:"channel" db:"channel"`
	PieceID         string       `json:"piece_id" db:"piece_id"`
	CommercialSpace string       `json:"commercial_space" db:"commercial_space"`
	IAVerdict       *IAVerdict   `json:"ia_verdict" db:"ia_verdict"`
	HumanVerdict    HumanVerdict `json:"human_verdict" db:"human_verdict"`
	RejectionReason string       `json:"rejection_reason,omitempty" db:"rejection_reason"`
	ReviewedBy      string       `json:"reviewed_by,omitempty" db:"reviewed_by"`
	ReviewedAt      *time.Time   `json:"reviewed_at,omitempty" db:"reviewed_at"`
}

// Key returns this review's reviewable-unit key.
func (p *PieceReview) Key() ReviewKey {
	return ReviewKey{
		CampaignID:      p.CampaignID,
		Channel:         p.Channel,
		PieceID:         p.PieceID,
		CommercialSpace: p.CommercialSpace,
	}
}
