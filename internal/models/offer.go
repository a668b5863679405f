package models

import "time"

// Offer and landing page statuses
const (
	OfferActive  = "active"
	OfferPaused  = "paused"
	LanderActive = "active"
	LanderPaused = "paused"
)

// Offer is a monetizable destination of a campaign in rotation mode.
// Weights are relative and don't need to sum to 100.
type Offer struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CampaignID string    `gorm:"size:32;index;not null" json:"campaign_id"`
	Name       string    `gorm:"size:255" json:"name"`
	URL        string    `gorm:"size:2048;not null" json:"url"`
	Payout     float64   `json:"payout"`
	Weight     int       `json:"weight"`
	Status     string    `gorm:"size:16;not null;index" json:"status"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// LandingPage is an interstitial page shown before the offer.
type LandingPage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255" json:"name"`
	URL       string    `gorm:"size:2048;not null" json:"url"`
	Status    string    `gorm:"size:16;not null;index" json:"status"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
