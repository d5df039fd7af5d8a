package models

import "time"

// EnhanceableField is the lookup row driving the briefing enhancer's first
// graph node (display name, expectations, guidelines per field).
type EnhanceableField struct {
	FieldName              string `json:"field_name" db:"field_name"`
	DisplayName            string `json:"display_name" db:"display_name"`
	Expectations           string `json:"expectations" db:"expectations"`
	ImprovementGuidelines  string `json:"improvement_guidelines,omitempty" db:"improvement_guidelines"`
}

type InteractionDecision string

const (
	DecisionApproved InteractionDecision = "approved"
	DecisionRejected InteractionDecision = "rejected"
)

// AIInteraction is the audit row written on every enhancer invocation.
type AIInteraction struct {
	ID           string               `json:"id" db:"id"`
	UserID       string               `json:"user_id" db:"user_id"`
	FieldName    string               `json:"field_name" db:"field_name"`
	OriginalText string               `json:"original_text" db:"original_text"`
	EnhancedText string               `json:"enhanced_text" db:"enhanced_text"`
	Explanation  string               `json:"explanation" db:"explanation"`
	SessionID    string               `json:"session_id,omitempty" db:"session_id"`
	CampaignID   string               `json:"campaign_id,omitempty" db:"campaign_id"`
	Decision     *InteractionDecision `json:"decision,omitempty" db:"decision"`
	CreatedAt    time.Time            `json:"created_at" db:"created_at"`
}
