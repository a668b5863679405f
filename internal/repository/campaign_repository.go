package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	customerrors "github.com/axellelanca/afltracker/internal/errors"
	"github.com/axellelanca/afltracker/internal/models"
)

// CampaignRepository est une interface qui définit les méthodes d'accès aux campagnes
type CampaignRepository interface {
	CreateCampaign(ctx context.Context, campaign *models.Campaign) error
	UpdateCampaign(ctx context.Context, campaign *models.Campaign) error
	SetCampaignStatus(ctx context.Context, id, status string) error
	GetCampaign(ctx context.Context, id string) (*models.Campaign, error)
	GetActiveCampaign(ctx context.Context, id string) (*models.Campaign, error)
	GetIdleCampaigns(ctx context.Context, since time.Time) ([]models.Campaign, error)
}

// GormCampaignRepository est l'implémentation de CampaignRepository utilisant GORM.
type GormCampaignRepository struct {
	db *gorm.DB
}

// NewCampaignRepository crée et retourne une nouvelle instance de GormCampaignRepository.
func NewCampaignRepository(db *gorm.DB) *GormCampaignRepository {
	return &GormCampaignRepository{db: db}
}

// CreateCampaign insère une nouvelle campagne.
func (r *GormCampaignRepository) CreateCampaign(ctx context.Context, campaign *models.Campaign) error {
	if err := r.db.WithContext(ctx).Create(campaign).Error; err != nil {
		return fmt.Errorf("failed to create campaign: %w", err)
	}
	return nil
}

// UpdateCampaign écrit tous les champs d'une campagne existante.
func (r *GormCampaignRepository) UpdateCampaign(ctx context.Context, campaign *models.Campaign) error {
	res := r.db.WithContext(ctx).Model(&models.Campaign{}).Where("id = ?", campaign.ID).Select("*").Omit("id", "created_at").Updates(campaign)
	if res.Error != nil {
		return fmt.Errorf("failed to update campaign %s: %w", campaign.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return customerrors.ErrCampaignNotFound
	}
	return nil
}

// SetCampaignStatus change uniquement le statut d'une campagne.
func (r *GormCampaignRepository) SetCampaignStatus(ctx context.Context, id, status string) error {
	res := r.db.WithContext(ctx).Model(&models.Campaign{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return fmt.Errorf("failed to set status of campaign %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return customerrors.ErrCampaignNotFound
	}
	return nil
}

// GetCampaign récupère une campagne quel que soit son statut.
func (r *GormCampaignRepository) GetCampaign(ctx context.Context, id string) (*models.Campaign, error) {
	var campaign models.Campaign
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&campaign).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, customerrors.ErrCampaignNotFound
		}
		return nil, fmt.Errorf("failed to get campaign %s: %w", id, err)
	}
	return &campaign, nil
}

// GetActiveCampaign récupère une campagne uniquement si elle est active.
func (r *GormCampaignRepository) GetActiveCampaign(ctx context.Context, id string) (*models.Campaign, error) {
	var campaign models.Campaign
	err := r.db.WithContext(ctx).Where("id = ? AND status = ?", id, models.CampaignActive).First(&campaign).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, customerrors.ErrCampaignNotFound
		}
		return nil, fmt.Errorf("failed to get active campaign %s: %w", id, err)
	}
	return &campaign, nil
}

// GetIdleCampaigns liste les campagnes actives sans aucun clic depuis since.
func (r *GormCampaignRepository) GetIdleCampaigns(ctx context.Context, since time.Time) ([]models.Campaign, error) {
	var campaigns []models.Campaign
	err := r.db.WithContext(ctx).
		Where("status = ?", models.CampaignActive).
		Where("NOT EXISTS (SELECT 1 FROM clicks WHERE clicks.campaign_id = campaigns.id AND clicks.timestamp >= ?)", since.UTC()).
		Order("id").
		Find(&campaigns).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list idle campaigns: %w", err)
	}
	return campaigns, nil
}
