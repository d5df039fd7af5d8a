package campaignengine

import "github.com/orqestra/campaign-platform/internal/models"

// FinallyApproved implements the pure finality formula of spec §4.2:
// human approval is always final; otherwise an AI approval stands
// unless a human verdict has overridden it.
func FinallyApproved(r *models.PieceReview) bool {
	if r.HumanVerdict == models.HumanVerdictApproved {
		return true
	}
	if r.IAVerdict != nil && *r.IAVerdict == models.IAVerdictApproved {
		return r.HumanVerdict != models.HumanVerdictManuallyRejected && r.HumanVerdict != models.HumanVerdictRejected
	}
	return false
}

// FinallyRejected implements the pure finality formula of spec §4.2:
// any human rejection (confirming or overriding) is final; otherwise an
// AI rejection stands unless a human has approved it.
func FinallyRejected(r *models.PieceReview) bool {
	if r.HumanVerdict == models.HumanVerdictRejected || r.HumanVerdict == models.HumanVerdictManuallyRejected {
		return true
	}
	if r.IAVerdict != nil && *r.IAVerdict == models.IAVerdictRejected {
		return r.HumanVerdict != models.HumanVerdictApproved
	}
	return false
}

// AllFinallyApproved reports whether every review row is finally
// approved — the gate for ContentReview -> CampaignBuilding (spec §4.2).
func AllFinallyApproved(reviews []*models.PieceReview) bool {
	if len(reviews) == 0 {
		return false
	}
	for _, r := range reviews {
		if !FinallyApproved(r) {
			return false
		}
	}
	return true
}

// AnyFinallyRejected reports whether at least one review row is finally
// rejected — the case in which ContentReview -> ContentAdjustment is the
// way forward (spec §4.2). UpdateCampaign does not call it: that
// transition is checked against the role table only.
func AnyFinallyRejected(reviews []*models.PieceReview) bool {
	for _, r := range reviews {
		if FinallyRejected(r) {
			return true
		}
	}
	return false
}
