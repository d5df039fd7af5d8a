package models

import "time"

type CreativePieceType string

const (
	PieceSMS   CreativePieceType = "SMS"
	PiecePush  CreativePieceType = "Push"
	PieceEmail CreativePieceType = "Email"
	PieceApp   CreativePieceType = "App"
)

// CreativePiece is a single channel-specific creative artifact attached to
// a campaign (spec §3). Exactly one piece per (campaign_id, piece_type).
//
// The active fields depend on PieceType:
//   SMS:   Body
//   Push:  Title, Body
//   Email: HTMLObjectKey
//   App:   ImageObjectKeys (commercial_space -> object key)
type CreativePiece struct {
	ID              string            `json:"id" db:"id"`
	CampaignID      string            `json:"campaign_id" db:"campaign_id"`
	PieceType       CreativePieceType `json:"piece_type" db:"piece_type"`
	Body            string            `json:"body,omitempty" db:"body"`
	Title           string            `json:"title,omitempty" db:"title"`
	HTMLObjectKey   string            `json:"html_object_key,omitempty" db:"html_object_key"`
	ImageObjectKeys map[string]string `json:"image_object_keys,omitempty"`
	CreatedAt       time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at" db:"updated_at"`
}
