package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	customerrors "github.com/axellelanca/afltracker/internal/errors"
	"github.com/axellelanca/afltracker/internal/models"
	"github.com/axellelanca/afltracker/internal/tracking"
)

// CampaignStore persists campaigns.
type CampaignStore interface {
	CreateCampaign(ctx context.Context, campaign *models.Campaign) error
	UpdateCampaign(ctx context.Context, campaign *models.Campaign) error
	SetCampaignStatus(ctx context.Context, id, status string) error
	GetCampaign(ctx context.Context, id string) (*models.Campaign, error)
}

// CacheInvalidator drops cached campaign configuration.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, id string) error
}

// StatsReader aggregates the clicks of a campaign.
type StatsReader interface {
	GetCampaignStats(ctx context.Context, campaignID string) (*models.CampaignStats, error)
}

// CampaignInput is the writable part of a campaign.
type CampaignInput struct {
	Name                 string  `json:"name"`
	Status               string  `json:"status"`
	FlowType             string  `json:"flow_type"`
	OfferURL             string  `json:"offer_url"`
	LandingPageID        *uint   `json:"landing_page_id"`
	CostModel            string  `json:"cost_model"`
	CostValue            float64 `json:"cost_value"`
	EnableFraudDetection bool    `json:"enable_fraud_detection"`
}

// CampaignService writes campaigns and keeps the configuration cache coherent:
// every write invalidates the cached entry before returning.
type CampaignService struct {
	store  CampaignStore
	cache  CacheInvalidator
	stats  StatsReader
	logger *logrus.Logger
}

// NewCampaignService creates and returns a new instance of CampaignService.
func NewCampaignService(store CampaignStore, cache CacheInvalidator, stats StatsReader, logger *logrus.Logger) *CampaignService {
	return &CampaignService{store: store, cache: cache, stats: stats, logger: logger}
}

// CreateCampaign validates in and stores a new campaign with a camp_ id.
func (s *CampaignService) CreateCampaign(ctx context.Context, in CampaignInput) (*models.Campaign, error) {
	campaign := &models.Campaign{}
	if err := applyInput(campaign, in); err != nil {
		return nil, err
	}

	code, err := tracking.RandomCode(10)
	if err != nil {
		return nil, fmt.Errorf("failed to generate campaign id: %w", err)
	}
	campaign.ID = "camp_" + code

	if err := s.store.CreateCampaign(ctx, campaign); err != nil {
		return nil, err
	}
	if err := s.invalidate(ctx, campaign.ID); err != nil {
		return nil, err
	}
	s.logger.WithField("campaign_id", campaign.ID).Info("Campaign created")
	return campaign, nil
}

// UpdateCampaign replaces the writable fields of campaign id.
func (s *CampaignService) UpdateCampaign(ctx context.Context, id string, in CampaignInput) (*models.Campaign, error) {
	campaign, err := s.store.GetCampaign(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyInput(campaign, in); err != nil {
		return nil, err
	}
	if err := s.store.UpdateCampaign(ctx, campaign); err != nil {
		return nil, err
	}
	if err := s.invalidate(ctx, id); err != nil {
		return nil, err
	}
	s.logger.WithField("campaign_id", id).Info("Campaign updated")
	return campaign, nil
}

// SetStatus pauses or activates a campaign.
func (s *CampaignService) SetStatus(ctx context.Context, id, status string) error {
	if status != models.CampaignActive && status != models.CampaignPaused {
		return fmt.Errorf("%w: unknown status %q", customerrors.ErrInvalidCampaign, status)
	}
	if err := s.store.SetCampaignStatus(ctx, id, status); err != nil {
		return err
	}
	if err := s.invalidate(ctx, id); err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{"campaign_id": id, "status": status}).Info("Campaign status changed")
	return nil
}

// GetCampaign returns a campaign whatever its status.
func (s *CampaignService) GetCampaign(ctx context.Context, id string) (*models.Campaign, error) {
	return s.store.GetCampaign(ctx, id)
}

// GetCampaignStats returns the click statistics of an existing campaign.
func (s *CampaignService) GetCampaignStats(ctx context.Context, id string) (*models.CampaignStats, error) {
	if _, err := s.store.GetCampaign(ctx, id); err != nil {
		return nil, err
	}
	return s.stats.GetCampaignStats(ctx, id)
}

func (s *CampaignService) invalidate(ctx context.Context, id string) error {
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.logger.WithError(err).WithField("campaign_id", id).Error("Campaign cache invalidation failed")
		return fmt.Errorf("campaign %s saved but cache not invalidated: %w", id, err)
	}
	return nil
}

func applyInput(c *models.Campaign, in CampaignInput) error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return fmt.Errorf("%w: name is required", customerrors.ErrInvalidCampaign)
	}

	in.Status = strings.ToLower(in.Status)
	if in.Status == "" {
		in.Status = models.CampaignActive
	}
	if in.Status != models.CampaignActive && in.Status != models.CampaignPaused {
		return fmt.Errorf("%w: unknown status %q", customerrors.ErrInvalidCampaign, in.Status)
	}

	in.FlowType = strings.ToLower(in.FlowType)
	if in.FlowType == "" {
		in.FlowType = models.FlowDirect
	}
	switch in.FlowType {
	case models.FlowDirect, models.FlowRotation:
	case models.FlowLander:
		if in.LandingPageID == nil {
			return fmt.Errorf("%w: lander flow needs landing_page_id", customerrors.ErrInvalidCampaign)
		}
	default:
		return fmt.Errorf("%w: unknown flow type %q", customerrors.ErrInvalidCampaign, in.FlowType)
	}

	if in.OfferURL != "" {
		if _, err := url.ParseRequestURI(in.OfferURL); err != nil {
			return fmt.Errorf("%w: invalid offer_url: %v", customerrors.ErrInvalidCampaign, err)
		}
	}

	in.CostModel = strings.ToLower(in.CostModel)
	if in.CostModel == "" {
		in.CostModel = models.CostCPC
	}
	switch in.CostModel {
	case models.CostCPC, models.CostCPM, models.CostCPA:
	default:
		return fmt.Errorf("%w: unknown cost model %q", customerrors.ErrInvalidCampaign, in.CostModel)
	}
	if in.CostValue < 0 {
		return fmt.Errorf("%w: cost_value must not be negative", customerrors.ErrInvalidCampaign)
	}

	c.Name = in.Name
	c.Status = in.Status
	c.FlowType = in.FlowType
	c.OfferURL = in.OfferURL
	c.LandingPageID = in.LandingPageID
	c.CostModel = in.CostModel
	c.CostValue = in.CostValue
	c.EnableFraudDetection = in.EnableFraudDetection
	return nil
}

// IsValidationError reports whether err comes from campaign input validation.
func IsValidationError(err error) bool {
	return errors.Is(err, customerrors.ErrInvalidCampaign)
}
