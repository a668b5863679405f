package services

import (
	"context"
	"sync"
	"time"

	customerrors "github.com/axellelanca/afltracker/internal/errors"
	"github.com/axellelanca/afltracker/internal/models"
)

// memStore is an in-memory stand-in for the repositories and the campaign cache.
type memStore struct {
	mu        sync.Mutex
	campaigns map[string]*models.Campaign
	offers    map[uint]*models.Offer
	landers   map[uint]*models.LandingPage
	clicks    map[string]*models.Click
	seen      map[string]bool

	invalidated []string
	invalidErr  error
	lookupErr   error
	dedupErr    error
	publishErr  error
}

func newMemStore() *memStore {
	return &memStore{
		campaigns: map[string]*models.Campaign{},
		offers:    map[uint]*models.Offer{},
		landers:   map[uint]*models.LandingPage{},
		clicks:    map[string]*models.Click{},
		seen:      map[string]bool{},
	}
}

// CampaignLoader
func (m *memStore) Get(ctx context.Context, id string) (*models.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok || !c.IsActive() {
		return nil, customerrors.ErrCampaignNotFound
	}
	cp := *c
	return &cp, nil
}

// CampaignLookup / CampaignStore
func (m *memStore) GetCampaign(ctx context.Context, id string) (*models.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	c, ok := m.campaigns[id]
	if !ok {
		return nil, customerrors.ErrCampaignNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memStore) CreateCampaign(ctx context.Context, c *models.Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.campaigns[c.ID] = &cp
	return nil
}

func (m *memStore) UpdateCampaign(ctx context.Context, c *models.Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.campaigns[c.ID]; !ok {
		return customerrors.ErrCampaignNotFound
	}
	cp := *c
	m.campaigns[c.ID] = &cp
	return nil
}

func (m *memStore) SetCampaignStatus(ctx context.Context, id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok {
		return customerrors.ErrCampaignNotFound
	}
	c.Status = status
	return nil
}

// CacheInvalidator
func (m *memStore) Invalidate(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.invalidErr != nil {
		return m.invalidErr
	}
	m.invalidated = append(m.invalidated, id)
	return nil
}

// StatsReader
func (m *memStore) GetCampaignStats(ctx context.Context, campaignID string) (*models.CampaignStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &models.CampaignStats{CampaignID: campaignID}
	for _, c := range m.clicks {
		if c.CampaignID == campaignID {
			stats.Clicks++
		}
	}
	return stats, nil
}

// DuplicateChecker
func (m *memStore) IsDuplicate(ctx context.Context, campaignID, fingerprint string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dedupErr != nil {
		return false, m.dedupErr
	}
	key := campaignID + ":" + fingerprint
	if m.seen[key] {
		return true, nil
	}
	m.seen[key] = true
	return false, nil
}

// DestinationStore
func (m *memStore) GetActiveOffers(ctx context.Context, campaignID string) ([]models.Offer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Offer
	for id := uint(1); id <= uint(len(m.offers)); id++ {
		o, ok := m.offers[id]
		if ok && o.CampaignID == campaignID && o.Status == models.OfferActive {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *memStore) GetActiveLandingPage(ctx context.Context, id uint) (*models.LandingPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.landers[id]
	if !ok || l.Status != models.LanderActive {
		return nil, customerrors.ErrLandingPageNotFound
	}
	cp := *l
	return &cp, nil
}

// OfferGetter
func (m *memStore) GetOffer(ctx context.Context, id uint) (*models.Offer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.offers[id]
	if !ok {
		return nil, customerrors.ErrOfferNotFound
	}
	cp := *o
	return &cp, nil
}

// ClickPublisher: records synchronously so tests can inspect the row.
func (m *memStore) Publish(ctx context.Context, c *models.Click) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.publishErr != nil {
		return m.publishErr
	}
	cp := *c
	m.clicks[c.ClickID] = &cp
	return nil
}

// LandingClickStore
func (m *memStore) GetClickByClickID(ctx context.Context, clickID string) (*models.Click, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.clicks[clickID]
	if !ok {
		return nil, customerrors.ErrClickNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memStore) MarkLandingClicked(ctx context.Context, clickID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.clicks[clickID]
	if !ok {
		return customerrors.ErrClickNotFound
	}
	c.LandingClicked = true
	return nil
}

// ConversionStore
func (m *memStore) MarkConverted(ctx context.Context, clickID string, payout float64, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.clicks[clickID]
	if !ok || c.IsConverted {
		return false, nil
	}
	c.IsConverted = true
	c.Payout = payout
	c.ConversionTime = &at
	return true, nil
}

func (m *memStore) ClickExists(ctx context.Context, clickID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.clicks[clickID]
	return ok, nil
}

func (m *memStore) click(id string) *models.Click {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clicks[id]
}

func (m *memStore) clickCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.clicks)
}
