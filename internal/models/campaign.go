package models

import "time"

// CampaignStatus is the state-machine status (spec §3/§4.2).
type CampaignStatus string

const (
	StatusDraft             CampaignStatus = "Draft"
	StatusCreativeStage     CampaignStatus = "CreativeStage"
	StatusContentReview     CampaignStatus = "ContentReview"
	StatusContentAdjustment CampaignStatus = "ContentAdjustment"
	StatusCampaignBuilding  CampaignStatus = "CampaignBuilding"
	StatusCampaignPublished CampaignStatus = "CampaignPublished"
)

// AllStatuses lists every valid CampaignStatus, used by the BusinessAnalyst
// visibility rule ("all six").
var AllStatuses = []CampaignStatus{
	StatusDraft, StatusCreativeStage, StatusContentReview,
	StatusContentAdjustment, StatusCampaignBuilding, StatusCampaignPublished,
}

type CampaignCategory string
type RequestingArea string
type CampaignPriority string

type CommunicationChannel string

const (
	ChannelSMS   CommunicationChannel = "SMS"
	ChannelPush  CommunicationChannel = "Push"
	ChannelEmail CommunicationChannel = "E-mail"
	ChannelApp   CommunicationChannel = "App"
)

type CommercialSpace string

type CommunicationTone string

type ExecutionModel string

const (
	ExecutionBatch        ExecutionModel = "Batch"
	ExecutionEventDriven  ExecutionModel = "Event-driven"
)

type TriggerEvent string

// Campaign is the marketing-campaign aggregate root (spec §3).
type Campaign struct {
	ID                  string                 `json:"id" db:"id"`
	Name                string                 `json:"name" db:"name"`
	Category            CampaignCategory       `json:"category" db:"category"`
	BusinessObjective    string                `json:"business_objective" db:"business_objective"`
	ExpectedResult      string                 `json:"expected_result" db:"expected_result"`
	RequestingArea      RequestingArea         `json:"requesting_area" db:"requesting_area"`
	StartDate           time.Time              `json:"start_date" db:"start_date"`
	EndDate             time.Time              `json:"end_date" db:"end_date"`
	Priority            CampaignPriority       `json:"priority" db:"priority"`
	Channels            []CommunicationChannel `json:"channels"`
	CommercialSpaces    []CommercialSpace      `json:"commercial_spaces,omitempty"`
	TargetAudience      string                 `json:"target_audience" db:"target_audience"`
	ExclusionCriteria   string                 `json:"exclusion_criteria,omitempty" db:"exclusion_criteria"`
	EstimatedImpact     string                 `json:"estimated_impact" db:"estimated_impact"` // fixed-point decimal, 2 fractional digits, serialized as string
	Tone                CommunicationTone      `json:"tone" db:"tone"`
	ExecutionModel      ExecutionModel         `json:"execution_model" db:"execution_model"`
	TriggerEvent        TriggerEvent           `json:"trigger_event,omitempty" db:"trigger_event"`
	RecencyDays         int                    `json:"recency_days" db:"recency_days"`
	Status              CampaignStatus         `json:"status" db:"status"`
	CreatedBy           string                 `json:"created_by" db:"created_by"`
	CreatedAt           time.Time              `json:"created_at" db:"created_at"`
}

// Comment is a free-form per-campaign comment (spec §4.2). Visibility
// inherits from the campaign.
type Comment struct {
	ID         string    `json:"id" db:"id"`
	CampaignID string    `json:"campaign_id" db:"campaign_id"`
	Author     string    `json:"author" db:"author"`
	Role       UserRole  `json:"role" db:"role"`
	Text       string    `json:"text" db:"text"`
	Timestamp  time.Time `json:"timestamp" db:"timestamp"`
}

// ChannelSpec is one (channel, commercial_space, field) spec row
// consulted by the validation orchestrator's specs validator.
type ChannelSpec struct {
	Channel         string  `json:"channel"`
	CommercialSpace string  `json:"commercial_space,omitempty"`
	FieldName       string  `json:"field_name"`
	MinChars        int     `json:"min_chars,omitempty"`
	MaxChars        int     `json:"max_chars,omitempty"`
	WarnChars       int     `json:"warn_chars,omitempty"`
	MaxWeightKB     float64 `json:"max_weight_kb,omitempty"`
	MinWidth        int     `json:"min_width,omitempty"`
	MinHeight       int     `json:"min_height,omitempty"`
	MaxWidth        int     `json:"max_width,omitempty"`
	MaxHeight       int     `json:"max_height,omitempty"`
	ExpectedWidth   int     `json:"expected_width,omitempty"`
	ExpectedHeight  int     `json:"expected_height,omitempty"`
	TolerancePct    float64 `json:"tolerance_pct,omitempty"`
	Active          bool    `json:"active"`
}
