package services

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	customerrors "github.com/axellelanca/afltracker/internal/errors"
	"github.com/axellelanca/afltracker/internal/models"
	"github.com/axellelanca/afltracker/internal/tracking"
)

// LandingClickStore reads and updates recorded clicks.
type LandingClickStore interface {
	GetClickByClickID(ctx context.Context, clickID string) (*models.Click, error)
	MarkLandingClicked(ctx context.Context, clickID string) error
}

// OfferGetter loads an offer by id.
type OfferGetter interface {
	GetOffer(ctx context.Context, id uint) (*models.Offer, error)
}

// LandingService handles the second hop of the lander flow: landing page to offer.
type LandingService struct {
	clicks    LandingClickStore
	offers    OfferGetter
	campaigns CampaignLookup
	logger    *logrus.Logger
}

// NewLandingService creates and returns a new instance of LandingService.
func NewLandingService(clicks LandingClickStore, offers OfferGetter, campaigns CampaignLookup, logger *logrus.Logger) *LandingService {
	return &LandingService{clicks: clicks, offers: offers, campaigns: campaigns, logger: logger}
}

// LandingClick marks the click as having left the landing page and returns
// the offer URL carrying the same click id. Fraud, dedup and offer selection
// are not run again: they were settled on the first hop.
func (s *LandingService) LandingClick(ctx context.Context, clickID string) (string, error) {
	if clickID == "" {
		return "", customerrors.ErrMissingClickID
	}

	click, err := s.clicks.GetClickByClickID(ctx, clickID)
	if err != nil {
		if errors.Is(err, customerrors.ErrClickNotFound) {
			s.logger.WithField("click_id", clickID).Warn("Click not found")
		}
		return "", err
	}

	if err := s.clicks.MarkLandingClicked(ctx, clickID); err != nil {
		return "", err
	}

	target, err := s.offerURL(ctx, click)
	if err != nil {
		return "", err
	}

	s.logger.WithFields(logrus.Fields{"click_id": clickID, "campaign_id": click.CampaignID}).Info("Landing click")
	return tracking.AppendClickID(tracking.ExpandOfferURL(target, clickID), clickID, ""), nil
}

// offerURL returns the URL of the click's offer. A lander click carries no
// offer reference, so it falls back to the campaign's configured offer URL.
func (s *LandingService) offerURL(ctx context.Context, click *models.Click) (string, error) {
	if click.OfferID != nil {
		offer, err := s.offers.GetOffer(ctx, *click.OfferID)
		if err != nil {
			if errors.Is(err, customerrors.ErrOfferNotFound) {
				s.logger.WithField("offer_id", *click.OfferID).Warn("Offer not found")
			}
			return "", err
		}
		return offer.URL, nil
	}

	if s.campaigns != nil {
		campaign, err := s.campaigns.GetCampaign(ctx, click.CampaignID)
		if err == nil && campaign.OfferURL != "" {
			return campaign.OfferURL, nil
		}
		if err != nil && !errors.Is(err, customerrors.ErrCampaignNotFound) {
			return "", err
		}
	}
	s.logger.WithField("click_id", click.ClickID).Warn("Offer not found")
	return "", customerrors.ErrOfferNotFound
}
