package models

import "time"

// ValidationCacheEntry is keyed on (campaign_id, channel, content_hash);
// an upsert on this key replaces the prior row (spec §3/§4.3 step 5).
type ValidationCacheEntry struct {
	ID          string    `json:"id" db:"id"`
	CampaignID  string    `json:"campaign_id" db:"campaign_id"`
	Channel     string    `json:"channel" db:"channel"`
	ContentHash string    `json:"content_hash" db:"content_hash"`
	Response    []byte    `json:"response_json" db:"response_json"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
