// Package services contains the business logic layer of the click tracker
package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/sirupsen/logrus"

	customerrors "github.com/axellelanca/afltracker/internal/errors"
	"github.com/axellelanca/afltracker/internal/fraud"
	"github.com/axellelanca/afltracker/internal/metrics"
	"github.com/axellelanca/afltracker/internal/models"
	"github.com/axellelanca/afltracker/internal/tracking"
)

// CampaignLoader returns active campaigns, normally through the configuration cache.
type CampaignLoader interface {
	Get(ctx context.Context, id string) (*models.Campaign, error)
}

// CampaignLookup reads a campaign whatever its status.
type CampaignLookup interface {
	GetCampaign(ctx context.Context, id string) (*models.Campaign, error)
}

// DuplicateChecker is the dedup gate.
type DuplicateChecker interface {
	IsDuplicate(ctx context.Context, campaignID, fingerprint string) (bool, error)
}

// ClickPublisher hands a click record to persistence.
type ClickPublisher interface {
	Publish(ctx context.Context, click *models.Click) error
}

// ClickDeps are the collaborators of ClickService.
type ClickDeps struct {
	Campaigns     CampaignLoader
	CampaignStore CampaignLookup
	Dedup         DuplicateChecker
	Destinations  DestinationStore
	Publisher     ClickPublisher
	ClickIDPrefix string
	Logger        *logrus.Logger
	Rand          *rand.Rand
	Now           func() time.Time
}

// ClickService runs the redirect pipeline of a click.
type ClickService struct {
	campaigns CampaignLoader
	lookup    CampaignLookup
	dedup     DuplicateChecker
	resolver  *Resolver
	publisher ClickPublisher
	prefix    string
	logger    *logrus.Logger
	now       func() time.Time
}

// NewClickService creates and returns a new instance of ClickService.
func NewClickService(deps ClickDeps) *ClickService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &ClickService{
		campaigns: deps.Campaigns,
		lookup:    deps.CampaignStore,
		dedup:     deps.Dedup,
		resolver:  NewResolver(deps.Destinations, deps.Rand),
		publisher: deps.Publisher,
		prefix:    deps.ClickIDPrefix,
		logger:    deps.Logger,
		now:       now,
	}
}

// TrackResult is what the HTTP layer needs to answer a tracked click.
type TrackResult struct {
	ClickID     string
	RedirectURL string
	Fingerprint string
	Click       *models.Click
}

// TrackClick resolves where a click goes and queues its record. It stops at
// the first failing step; no record is created for a failed click.
//
// Returned errors: ErrMissingCampaignID, ErrCampaignNotFound,
// ErrCampaignInactive, ErrBotBlocked, ErrNoDestination, or an infrastructure error.
func (s *ClickService) TrackClick(ctx context.Context, campaignID string, req *ClickRequest) (*TrackResult, error) {
	if campaignID == "" {
		return nil, customerrors.ErrMissingCampaignID
	}

	campaign, err := s.loadCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	log := s.logger.WithFields(logrus.Fields{"campaign_id": campaignID, "ip": req.IP})

	// The heuristic always runs so bot traffic is flagged even when blocking is off.
	verdict := fraud.Classify(req.UserAgent)
	if verdict.IsBot {
		metrics.BotClicks.Inc()
		if campaign.EnableFraudDetection && verdict.Action == fraud.ActionBlock {
			log.WithField("bot_score", verdict.Score).Warn("Blocked bot")
			return nil, customerrors.ErrBotBlocked
		}
	}

	isDuplicate, err := s.dedup.IsDuplicate(ctx, campaign.ID, req.Fingerprint)
	if err != nil {
		// Gate unavailable: count the click as unique.
		log.WithError(err).Warn("Dedup check failed, treating click as unique")
		isDuplicate = false
	}
	if isDuplicate {
		metrics.DuplicateClicks.Inc()
	}

	clickID, err := tracking.NewClickID(s.prefix)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", customerrors.ErrClickIDGenerationFailed, err)
	}

	dest, err := s.resolver.Resolve(ctx, campaign)
	if err != nil {
		if errors.Is(err, customerrors.ErrNoDestination) {
			log.Warn("No destination available")
		}
		return nil, err
	}

	target := dest.URL
	if dest.OfferID != nil {
		target = tracking.ExpandOfferURL(target, clickID)
	}
	params := tracking.ExtractTrackingParams(req.Query)
	redirectURL := tracking.AppendClickID(target, clickID, params.ExternalID)

	click := BuildClick(ClickInput{
		ClickID:     clickID,
		Campaign:    campaign,
		Destination: dest,
		Request:     req,
		Verdict:     verdict,
		IsDuplicate: isDuplicate,
		Now:         s.now(),
	})

	// Persistence problems never cost the visitor the redirect.
	if err := s.publisher.Publish(ctx, click); err != nil {
		log.WithError(err).WithField("click_id", clickID).Error("Click could not be persisted")
	}

	log.WithFields(logrus.Fields{"click_id": clickID, "duplicate": isDuplicate}).Info("Click tracked")

	return &TrackResult{
		ClickID:     clickID,
		RedirectURL: redirectURL,
		Fingerprint: req.Fingerprint,
		Click:       click,
	}, nil
}

// loadCampaign reads the campaign through the cache. The cache only knows
// active campaigns, so a miss is checked against the store to tell an
// inactive campaign (403) from an unknown one (404).
func (s *ClickService) loadCampaign(ctx context.Context, campaignID string) (*models.Campaign, error) {
	campaign, err := s.campaigns.Get(ctx, campaignID)
	if err == nil {
		if !campaign.IsActive() {
			return nil, customerrors.ErrCampaignInactive
		}
		return campaign, nil
	}
	if !errors.Is(err, customerrors.ErrCampaignNotFound) {
		return nil, fmt.Errorf("failed to load campaign %s: %w", campaignID, err)
	}

	if s.lookup != nil {
		stored, lookupErr := s.lookup.GetCampaign(ctx, campaignID)
		switch {
		case lookupErr == nil && !stored.IsActive():
			s.logger.WithField("campaign_id", campaignID).Warn("Campaign inactive")
			return nil, customerrors.ErrCampaignInactive
		case lookupErr != nil && !errors.Is(lookupErr, customerrors.ErrCampaignNotFound):
			// Answered as not found, but the store did not actually say so.
			s.logger.WithError(lookupErr).WithField("campaign_id", campaignID).Warn("Campaign status lookup failed")
		}
	}
	s.logger.WithField("campaign_id", campaignID).Warn("Campaign not found")
	return nil, customerrors.ErrCampaignNotFound
}
