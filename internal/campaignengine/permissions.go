// Package campaignengine implements the Campaign Workflow Engine (spec
// §4.2): the visibility filter, the transition state machine, and the
// piece-review sub-machine within ContentReview.
package campaignengine

import "github.com/orqestra/campaign-platform/internal/models"

// roleVisibleStatuses lists which campaign statuses a role may see in
// listings, independent of ownership (spec §4.2 visibility matrix).
var roleVisibleStatuses = map[models.UserRole][]models.CampaignStatus{
	models.RoleBusinessAnalyst: models.AllStatuses,
	models.RoleCreativeAnalyst: {
		models.StatusCreativeStage, models.StatusContentReview, models.StatusContentAdjustment,
	},
	models.RoleCampaignAnalyst: {
		models.StatusCampaignBuilding, models.StatusCampaignPublished,
	},
	models.RoleMarketingManager: {
		models.StatusContentReview, models.StatusContentAdjustment,
	},
}

// transitionKey is a (role, from-status) pair; validTransitions maps it
// to the statuses that role may move the campaign to from there (spec
// §4.2 transition matrix — BusinessAnalyst and MarketingManager each have
// two legal targets from ContentReview).
type transitionKey struct {
	role models.UserRole
	from models.CampaignStatus
}

var validTransitions = map[transitionKey][]models.CampaignStatus{
	{models.RoleBusinessAnalyst, models.StatusDraft}:         {models.StatusCreativeStage},
	{models.RoleBusinessAnalyst, models.StatusContentReview}: {models.StatusCampaignBuilding, models.StatusContentAdjustment},

	{models.RoleCreativeAnalyst, models.StatusCreativeStage}:     {models.StatusContentReview},
	{models.RoleCreativeAnalyst, models.StatusContentAdjustment}: {models.StatusContentReview},

	{models.RoleMarketingManager, models.StatusContentReview}: {models.StatusCampaignBuilding, models.StatusContentAdjustment},

	{models.RoleCampaignAnalyst, models.StatusCampaignBuilding}: {models.StatusCampaignPublished},
}

// VisibleStatuses returns the set of statuses role, a plain listing
// query (no ownership check), is allowed to see. A nil/empty result
// means the role sees nothing.
func VisibleStatuses(role models.UserRole) []models.CampaignStatus {
	return roleVisibleStatuses[role]
}

// CanViewCampaign reports whether role may view a campaign in the given
// status, created by createdBy, when the viewer's user id is viewerID.
// BusinessAnalyst can always view their own Draft campaigns regardless
// of the general visibility rule (spec §4.2).
func CanViewCampaign(role models.UserRole, viewerID string, status models.CampaignStatus, createdBy string) bool {
	if role == models.RoleBusinessAnalyst && status == models.StatusDraft && createdBy == viewerID {
		return true
	}
	for _, s := range VisibleStatuses(role) {
		if s == status {
			return true
		}
	}
	return false
}

// CanTransition reports whether role may move a campaign from "from" to
// "to", and if not, the reason to surface in the 403 body.
func CanTransition(role models.UserRole, from, to models.CampaignStatus) (bool, string) {
	allowed := validTransitions[transitionKey{role, from}]
	for _, s := range allowed {
		if s == to {
			return true, ""
		}
	}
	return false, "role " + string(role) + " cannot transition a campaign from " + string(from) + " to " + string(to)
}
