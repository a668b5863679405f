package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	customerrors "github.com/axellelanca/afltracker/internal/errors"
	"github.com/axellelanca/afltracker/internal/logger"
	"github.com/axellelanca/afltracker/internal/models"
)

type countingStore struct {
	campaigns map[string]*models.Campaign
	calls     int
}

func (s *countingStore) GetActiveCampaign(ctx context.Context, id string) (*models.Campaign, error) {
	s.calls++
	c, ok := s.campaigns[id]
	if !ok || !c.IsActive() {
		return nil, customerrors.ErrCampaignNotFound
	}
	cp := *c
	return &cp, nil
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestCampaignCacheReadThrough(t *testing.T) {
	mr, client := newRedis(t)
	store := &countingStore{campaigns: map[string]*models.Campaign{
		"camp_1": {ID: "camp_1", Status: models.CampaignActive, CostValue: 0.5},
	}}
	c := NewCampaignCache(client, store, 5*time.Minute, logger.Discard())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		got, err := c.Get(ctx, "camp_1")
		if err != nil || got.CostValue != 0.5 {
			t.Fatalf("Get #%d: %+v %v", i, got, err)
		}
	}
	if store.calls != 1 {
		t.Fatalf("store calls = %d, want 1", store.calls)
	}
	if ttl := mr.TTL("campaign:camp_1"); ttl != 5*time.Minute {
		t.Fatalf("ttl = %v, want 5m", ttl)
	}

	mr.FastForward(6 * time.Minute)
	if _, err := c.Get(ctx, "camp_1"); err != nil {
		t.Fatalf("Get after expiry: %v", err)
	}
	if store.calls != 2 {
		t.Fatalf("expired entry should reload, store calls = %d", store.calls)
	}
}

func TestCampaignCacheDoesNotCacheMisses(t *testing.T) {
	mr, client := newRedis(t)
	store := &countingStore{campaigns: map[string]*models.Campaign{
		"camp_1": {ID: "camp_1", Status: models.CampaignPaused},
	}}
	c := NewCampaignCache(client, store, 5*time.Minute, logger.Discard())
	ctx := context.Background()

	if _, err := c.Get(ctx, "camp_1"); !errors.Is(err, customerrors.ErrCampaignNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
	if mr.Exists("campaign:camp_1") {
		t.Fatal("a miss must not be cached")
	}

	store.campaigns["camp_1"].Status = models.CampaignActive
	if _, err := c.Get(ctx, "camp_1"); err != nil {
		t.Fatalf("reactivated campaign should be visible at once: %v", err)
	}
}

func TestCampaignCacheInvalidate(t *testing.T) {
	mr, client := newRedis(t)
	store := &countingStore{campaigns: map[string]*models.Campaign{
		"camp_1": {ID: "camp_1", Status: models.CampaignActive, OfferURL: "https://a.example"},
	}}
	c := NewCampaignCache(client, store, 5*time.Minute, logger.Discard())
	ctx := context.Background()

	if _, err := c.Get(ctx, "camp_1"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	store.campaigns["camp_1"].OfferURL = "https://b.example"
	if err := c.Invalidate(ctx, "camp_1"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if mr.Exists("campaign:camp_1") {
		t.Fatal("entry still cached after Invalidate")
	}
	got, err := c.Get(ctx, "camp_1")
	if err != nil || got.OfferURL != "https://b.example" {
		t.Fatalf("stale campaign after invalidation: %+v %v", got, err)
	}
}

func TestCampaignCacheFallsBackWhenRedisIsDown(t *testing.T) {
	mr, client := newRedis(t)
	store := &countingStore{campaigns: map[string]*models.Campaign{
		"camp_1": {ID: "camp_1", Status: models.CampaignActive},
	}}
	c := NewCampaignCache(client, store, 5*time.Minute, logger.Discard())
	mr.Close()

	if _, err := c.Get(context.Background(), "camp_1"); err != nil {
		t.Fatalf("Get should be served by the store: %v", err)
	}
}

func TestDedupGate(t *testing.T) {
	mr, client := newRedis(t)
	gate := NewDedupGate(client, 24*time.Hour)
	ctx := context.Background()

	dup, err := gate.IsDuplicate(ctx, "camp_1", "abc")
	if err != nil || dup {
		t.Fatalf("first sighting: dup=%v err=%v", dup, err)
	}
	dup, _ = gate.IsDuplicate(ctx, "camp_1", "abc")
	if !dup {
		t.Fatal("second sighting should be a duplicate")
	}
	dup, _ = gate.IsDuplicate(ctx, "camp_2", "abc")
	if dup {
		t.Fatal("the gate is scoped per campaign")
	}

	mr.FastForward(25 * time.Hour)
	dup, _ = gate.IsDuplicate(ctx, "camp_1", "abc")
	if dup {
		t.Fatal("the window should have expired")
	}
}
