package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const dedupKeyPrefix = "dedup:"

// DedupGate detects repeated clicks of one fingerprint on one campaign.
type DedupGate struct {
	client redis.Cmdable
	window time.Duration
}

// NewDedupGate creates a gate remembering each (campaign, fingerprint) pair for window.
func NewDedupGate(client redis.Cmdable, window time.Duration) *DedupGate {
	return &DedupGate{client: client, window: window}
}

// IsDuplicate marks the pair as seen and reports whether it was already seen.
// SET NX makes the check and the mark one atomic step, so two concurrent
// identical clicks can't both be counted as unique.
func (g *DedupGate) IsDuplicate(ctx context.Context, campaignID, fingerprint string) (bool, error) {
	key := dedupKeyPrefix + campaignID + ":" + fingerprint
	created, err := g.client.SetNX(ctx, key, "1", g.window).Result()
	if err != nil {
		return false, fmt.Errorf("dedup check %s: %w", key, err)
	}
	return !created, nil
}
