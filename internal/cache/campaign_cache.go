package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/axellelanca/afltracker/internal/metrics"
	"github.com/axellelanca/afltracker/internal/models"
)

const campaignKeyPrefix = "campaign:"

// CampaignStore is the durable source behind the cache.
type CampaignStore interface {
	GetActiveCampaign(ctx context.Context, id string) (*models.Campaign, error)
}

// CampaignCache is a read-through cache of active campaigns.
// Only found campaigns are cached; a miss always goes back to the store so a
// reactivated campaign shows up on the next request.
type CampaignCache struct {
	client redis.Cmdable
	store  CampaignStore
	ttl    time.Duration
	logger *logrus.Logger
}

// NewCampaignCache creates a cache in front of store with the given TTL.
func NewCampaignCache(client redis.Cmdable, store CampaignStore, ttl time.Duration, logger *logrus.Logger) *CampaignCache {
	return &CampaignCache{client: client, store: store, ttl: ttl, logger: logger}
}

func campaignKey(id string) string {
	return campaignKeyPrefix + id
}

// Get returns the active campaign id, from Redis when possible.
// Store errors (including not found) are returned unchanged.
func (c *CampaignCache) Get(ctx context.Context, id string) (*models.Campaign, error) {
	raw, err := c.client.Get(ctx, campaignKey(id)).Bytes()
	switch {
	case err == nil:
		var campaign models.Campaign
		if jsonErr := json.Unmarshal(raw, &campaign); jsonErr == nil {
			metrics.CampaignCacheLookups.WithLabelValues("hit").Inc()
			return &campaign, nil
		}
		c.logger.WithField("campaign_id", id).Warn("Corrupt campaign cache entry, reloading from store")
	case errors.Is(err, redis.Nil):
		metrics.CampaignCacheLookups.WithLabelValues("miss").Inc()
	default:
		// Redis is down: serve from the store rather than failing the click.
		metrics.CampaignCacheLookups.WithLabelValues("error").Inc()
		c.logger.WithError(err).WithField("campaign_id", id).Warn("Campaign cache read failed")
	}

	campaign, err := c.store.GetActiveCampaign(ctx, id)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(campaign)
	if err != nil {
		return campaign, nil
	}
	if err := c.client.Set(ctx, campaignKey(id), payload, c.ttl).Err(); err != nil {
		c.logger.WithError(err).WithField("campaign_id", id).Warn("Campaign cache write failed")
	}
	return campaign, nil
}

// Invalidate drops the cached entry of a campaign. Writers call it before
// acknowledging a campaign change.
func (c *CampaignCache) Invalidate(ctx context.Context, id string) error {
	if err := c.client.Del(ctx, campaignKey(id)).Err(); err != nil {
		return fmt.Errorf("invalidate campaign %s: %w", id, err)
	}
	return nil
}
