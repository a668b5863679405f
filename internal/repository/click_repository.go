package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	customerrors "github.com/axellelanca/afltracker/internal/errors"
	"github.com/axellelanca/afltracker/internal/models"
)

// ClickRepository est une interface qui définit les méthodes d'accès aux clics
type ClickRepository interface {
	CreateClick(ctx context.Context, click *models.Click) error
	GetClickByClickID(ctx context.Context, clickID string) (*models.Click, error)
	MarkLandingClicked(ctx context.Context, clickID string) error
	MarkConverted(ctx context.Context, clickID string, payout float64, at time.Time) (bool, error)
	ClickExists(ctx context.Context, clickID string) (bool, error)
	GetCampaignStats(ctx context.Context, campaignID string) (*models.CampaignStats, error)
}

// GormClickRepository est l'implémentation de l'interface ClickRepository utilisant GORM.
type GormClickRepository struct {
	db *gorm.DB
}

// NewClickRepository crée et retourne une nouvelle instance de GormClickRepository.
func NewClickRepository(db *gorm.DB) *GormClickRepository {
	return &GormClickRepository{db: db}
}

// CreateClick insère un nouvel enregistrement de clic dans la base de données.
// click_id is unique, so inserting a row that already exists is a no-op and
// queue retries after a partial success cannot duplicate a click.
func (r *GormClickRepository) CreateClick(ctx context.Context, click *models.Click) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "click_id"}}, DoNothing: true}).
		Create(click).Error
	if err != nil {
		return fmt.Errorf("failed to create click %s: %w", click.ClickID, err)
	}
	return nil
}

// GetClickByClickID récupère un clic par son identifiant public.
func (r *GormClickRepository) GetClickByClickID(ctx context.Context, clickID string) (*models.Click, error) {
	var click models.Click
	if err := r.db.WithContext(ctx).Where("click_id = ?", clickID).First(&click).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, customerrors.ErrClickNotFound
		}
		return nil, fmt.Errorf("failed to get click %s: %w", clickID, err)
	}
	return &click, nil
}

// MarkLandingClicked flags that the visitor left the landing page for the offer.
func (r *GormClickRepository) MarkLandingClicked(ctx context.Context, clickID string) error {
	res := r.db.WithContext(ctx).Model(&models.Click{}).
		Where("click_id = ?", clickID).
		Update("landing_clicked", true)
	if res.Error != nil {
		return fmt.Errorf("failed to mark landing click %s: %w", clickID, res.Error)
	}
	if res.RowsAffected == 0 {
		return customerrors.ErrClickNotFound
	}
	return nil
}

// MarkConverted records a conversion in a single conditional update.
// It returns false when no unconverted click matched, which is either an
// unknown click or one that already converted.
func (r *GormClickRepository) MarkConverted(ctx context.Context, clickID string, payout float64, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Click{}).
		Where("click_id = ? AND is_converted = ?", clickID, false).
		Updates(map[string]interface{}{
			"is_converted":    true,
			"payout":          payout,
			"conversion_time": at.UTC(),
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to mark click %s converted: %w", clickID, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *GormClickRepository) ClickExists(ctx context.Context, clickID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Click{}).Where("click_id = ?", clickID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to look up click %s: %w", clickID, err)
	}
	return count > 0, nil
}

// GetCampaignStats compte les clics d'une campagne et calcule CR, EPC et ROI.
func (r *GormClickRepository) GetCampaignStats(ctx context.Context, campaignID string) (*models.CampaignStats, error) {
	var row struct {
		Clicks       int64
		UniqueClicks int64
		BotClicks    int64
		Conversions  int64
		Cost         float64
		Revenue      float64
	}
	err := r.db.WithContext(ctx).Model(&models.Click{}).
		Select(`COUNT(*) AS clicks,
			COALESCE(SUM(CASE WHEN is_unique THEN 1 ELSE 0 END), 0) AS unique_clicks,
			COALESCE(SUM(CASE WHEN is_bot THEN 1 ELSE 0 END), 0) AS bot_clicks,
			COALESCE(SUM(CASE WHEN is_converted THEN 1 ELSE 0 END), 0) AS conversions,
			COALESCE(SUM(cost), 0) AS cost,
			COALESCE(SUM(payout), 0) AS revenue`).
		Where("campaign_id = ?", campaignID).
		Scan(&row).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute stats for campaign %s: %w", campaignID, err)
	}

	return &models.CampaignStats{
		CampaignID:   campaignID,
		Clicks:       row.Clicks,
		UniqueClicks: row.UniqueClicks,
		BotClicks:    row.BotClicks,
		Conversions:  row.Conversions,
		Cost:         row.Cost,
		Revenue:      row.Revenue,
		CR:           conversionRate(row.Conversions, row.Clicks),
		EPC:          earningsPerClick(row.Revenue, row.Clicks),
		ROI:          returnOnInvestment(row.Revenue, row.Cost),
	}, nil
}

func conversionRate(conversions, clicks int64) float64 {
	if clicks == 0 {
		return 0
	}
	return round(float64(conversions)/float64(clicks)*100, 2)
}

func earningsPerClick(revenue float64, clicks int64) float64 {
	if clicks == 0 {
		return 0
	}
	return round(revenue/float64(clicks), 4)
}

func returnOnInvestment(revenue, cost float64) float64 {
	if cost == 0 {
		return 0
	}
	return round((revenue-cost)/cost*100, 2)
}
