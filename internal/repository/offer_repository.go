package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	customerrors "github.com/axellelanca/afltracker/internal/errors"
	"github.com/axellelanca/afltracker/internal/models"
)

// OfferRepository gives access to offers and landing pages, the two kinds of destination.
type OfferRepository interface {
	CreateOffer(ctx context.Context, offer *models.Offer) error
	GetOffer(ctx context.Context, id uint) (*models.Offer, error)
	GetActiveOffers(ctx context.Context, campaignID string) ([]models.Offer, error)
	GetAllActiveOffers(ctx context.Context) ([]models.Offer, error)
	CreateLandingPage(ctx context.Context, lander *models.LandingPage) error
	GetActiveLandingPage(ctx context.Context, id uint) (*models.LandingPage, error)
	GetAllActiveLandingPages(ctx context.Context) ([]models.LandingPage, error)
}

// GormOfferRepository est l'implémentation de OfferRepository utilisant GORM.
type GormOfferRepository struct {
	db *gorm.DB
}

// NewOfferRepository crée et retourne une nouvelle instance de GormOfferRepository.
func NewOfferRepository(db *gorm.DB) *GormOfferRepository {
	return &GormOfferRepository{db: db}
}

func (r *GormOfferRepository) CreateOffer(ctx context.Context, offer *models.Offer) error {
	if err := r.db.WithContext(ctx).Create(offer).Error; err != nil {
		return fmt.Errorf("failed to create offer: %w", err)
	}
	return nil
}

// GetOffer récupère une offre par son ID, quel que soit son statut.
func (r *GormOfferRepository) GetOffer(ctx context.Context, id uint) (*models.Offer, error) {
	var offer models.Offer
	if err := r.db.WithContext(ctx).First(&offer, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, customerrors.ErrOfferNotFound
		}
		return nil, fmt.Errorf("failed to get offer %d: %w", id, err)
	}
	return &offer, nil
}

// GetActiveOffers liste les offres actives d'une campagne, les plus lourdes d'abord.
func (r *GormOfferRepository) GetActiveOffers(ctx context.Context, campaignID string) ([]models.Offer, error) {
	var offers []models.Offer
	err := r.db.WithContext(ctx).
		Where("campaign_id = ? AND status = ?", campaignID, models.OfferActive).
		Order("weight DESC").Order("id").
		Find(&offers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list offers of campaign %s: %w", campaignID, err)
	}
	return offers, nil
}

func (r *GormOfferRepository) GetAllActiveOffers(ctx context.Context) ([]models.Offer, error) {
	var offers []models.Offer
	if err := r.db.WithContext(ctx).Where("status = ?", models.OfferActive).Order("id").Find(&offers).Error; err != nil {
		return nil, fmt.Errorf("failed to list active offers: %w", err)
	}
	return offers, nil
}

func (r *GormOfferRepository) CreateLandingPage(ctx context.Context, lander *models.LandingPage) error {
	if err := r.db.WithContext(ctx).Create(lander).Error; err != nil {
		return fmt.Errorf("failed to create landing page: %w", err)
	}
	return nil
}

// GetActiveLandingPage récupère une landing page active.
func (r *GormOfferRepository) GetActiveLandingPage(ctx context.Context, id uint) (*models.LandingPage, error) {
	var lander models.LandingPage
	err := r.db.WithContext(ctx).Where("id = ? AND status = ?", id, models.LanderActive).First(&lander).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, customerrors.ErrLandingPageNotFound
		}
		return nil, fmt.Errorf("failed to get landing page %d: %w", id, err)
	}
	return &lander, nil
}

func (r *GormOfferRepository) GetAllActiveLandingPages(ctx context.Context) ([]models.LandingPage, error) {
	var landers []models.LandingPage
	if err := r.db.WithContext(ctx).Where("status = ?", models.LanderActive).Order("id").Find(&landers).Error; err != nil {
		return nil, fmt.Errorf("failed to list active landing pages: %w", err)
	}
	return landers, nil
}
