package validation

import (
	"context"
	"crypto/sha256"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/orqestra/campaign-platform/internal/models"
)

// contentHash implements spec §4.3 step 5's per-channel hashing rules.
func contentHash(channel models.CreativePieceType, body, title, commercialSpace string, retrieved []byte) string {
	var sum [32]byte
	switch channel {
	case models.PieceSMS:
		sum = sha256.Sum256([]byte(body))
	case models.PiecePush:
		sum = sha256.Sum256([]byte(title + "\x00" + body))
	case models.PieceEmail:
		sum = sha256.Sum256(retrieved)
	case models.PieceApp:
		buf := append(append([]byte{}, retrieved...), []byte(commercialSpace)...)
		sum = sha256.Sum256(buf)
	}
	return hexEncode(sum[:])
}

func hexEncode(b []byte) string {
	const hexDigits = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, c := range b {
		out[i*2] = hexDigits[c>>4]
		out[i*2+1] = hexDigits[c&0x0f]
	}
	return string(out)
}

// Store is the durable persistence surface for validation results.
type Store interface {
	UpsertValidationCacheEntry(ctx context.Context, e *models.ValidationCacheEntry) error
	GetValidationCacheEntry(ctx context.Context, campaignID, channel, contentHash string) (*models.ValidationCacheEntry, error)
}

// ResultCache fronts Store with an optional Redis fast path; Redis
// failures degrade silently to the durable store, matching the legal
// agent's cache semantics (spec §4.3 step 3c) extended to the
// orchestrator's own persist step.
type ResultCache struct {
	store Store
	redis *redis.Client
	log   zerolog.Logger
}

func NewResultCache(store Store, redisClient *redis.Client, log zerolog.Logger) *ResultCache {
	return &ResultCache{store: store, redis: redisClient, log: log.With().Str("component", "validation.cache").Logger()}
}

// Persist upserts the durable ValidationCacheEntry keyed on
// (campaign_id, channel, content_hash); the prior row is replaced.
func (c *ResultCache) Persist(ctx context.Context, campaignID string, channel models.CreativePieceType, hash string, result *Result) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return err
	}
	entry := &models.ValidationCacheEntry{
		CampaignID: campaignID, Channel: string(channel), ContentHash: hash, Response: payload,
	}
	if err := c.store.UpsertValidationCacheEntry(ctx, entry); err != nil {
		return err
	}
	if c.redis != nil {
		if err := c.redis.Set(ctx, redisKey(campaignID, string(channel), hash), payload, 0).Err(); err != nil {
			c.log.Warn().Err(err).Msg("redis validation-cache write failed, durable store already has it")
		}
	}
	return nil
}

// Get looks up a previously-persisted verdict, preferring Redis and
// falling back to the durable store on a miss or Redis failure.
func (c *ResultCache) Get(ctx context.Context, campaignID string, channel models.CreativePieceType, hash string) (*Result, bool) {
	if c.redis != nil {
		if raw, err := c.redis.Get(ctx, redisKey(campaignID, string(channel), hash)).Bytes(); err == nil {
			var r Result
			if json.Unmarshal(raw, &r) == nil {
				return &r, true
			}
		}
	}
	entry, err := c.store.GetValidationCacheEntry(ctx, campaignID, string(channel), hash)
	if err != nil || entry == nil {
		return nil, false
	}
	var r Result
	if json.Unmarshal(entry.Response, &r) != nil {
		return nil, false
	}
	return &r, true
}

func redisKey(campaignID, channel, hash string) string {
	return "validation:" + campaignID + ":" + channel + ":" + hash
}
