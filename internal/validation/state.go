// Package validation implements the Validation Orchestrator (spec
// §4.3): a five-node DAG that judges one creative-piece submission
// against structural, brand, and legal rules, then persists the
// verdict.
package validation

import "github.com/orqestra/campaign-platform/internal/models"

// Submission is the orchestrator's single input, matching the shape a
// client posts to /api/ai/analyze-piece. Exactly the fields relevant to
// Channel are populated; the rest are zero.
type Submission struct {
	CampaignID      string                      `json:"campaign_id"`
	PieceID         string                       `json:"piece_id"`
	Channel         models.CreativePieceType     `json:"channel"`
	CommercialSpace string                       `json:"commercial_space,omitempty"`

	// Inline content (SMS/PUSH).
	Body  string `json:"body,omitempty"`
	Title string `json:"title,omitempty"`

	// Reference content (EMAIL/APP) — resolved via retrieveContent.
}

// SpecsResult is validate_specs' output (spec §4.3 step 3a).
type SpecsResult struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
	Details  map[string]any `json:"details,omitempty"`
}

// BrandViolation is one rule-group finding from validate_brand.
type BrandViolation struct {
	Rule     string `json:"rule"`
	Category string `json:"category"`
	Severity string `json:"severity"` // critical | warning | info
	Message  string `json:"message"`
	Value    string `json:"value,omitempty"`
}

// BrandResult is validate_brand's output (spec §4.3 step 3b).
type BrandResult struct {
	Compliant  bool             `json:"compliant"`
	Score      int              `json:"score"`
	Violations []BrandViolation `json:"violations,omitempty"`
	Summary    struct {
		Critical int `json:"critical"`
		Warning  int `json:"warning"`
		Info     int `json:"info"`
		Total    int `json:"total"`
	} `json:"summary"`
}

// LegalResult is validate_legal's output (spec §4.3 step 3c).
type LegalResult struct {
	Decision          string   `json:"decision"` // APROVADO | REPROVADO
	Severity          string   `json:"severity,omitempty"`
	RequiresHuman     bool     `json:"requires_human_review"`
	Summary           string   `json:"summary"`
	Sources           []string `json:"sources,omitempty"`
}

// FinalVerdict is aggregate_verdict's pure output (spec §4.3 step 4).
type FinalVerdict struct {
	Decision           string   `json:"decision"` // APROVADO | REPROVADO
	RequiresHuman      bool     `json:"requires_human_review"`
	Summary            string   `json:"summary"`
	FailureStage       string   `json:"failure_stage,omitempty"`
	StagesCompleted    []string `json:"stages_completed"`
}

// Result is the orchestrator's full output: every partial result plus
// the aggregated final verdict (spec §4.3 step 4 "echoes each partial
// result").
type Result struct {
	Specs        *SpecsResult  `json:"specs,omitempty"`
	Brand        *BrandResult  `json:"branding,omitempty"`
	Legal        *LegalResult  `json:"legal,omitempty"`
	FinalVerdict FinalVerdict  `json:"final_verdict"`
	ContentHash  string        `json:"content_hash,omitempty"`
}
