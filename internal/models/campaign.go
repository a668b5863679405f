package models

import "time"

// Campaign lifecycle statuses
const (
	CampaignActive = "active"
	CampaignPaused = "paused"
)

// Campaign routing modes. Any other value routes through offer rotation.
const (
	FlowDirect   = "direct"
	FlowLander   = "lander"
	FlowRotation = "rotation"
)

// Cost models
const (
	CostCPC = "cpc"
	CostCPM = "cpm"
	CostCPA = "cpa"
)

// Campaign is a tracking configuration that routes incoming clicks to a destination.
type Campaign struct {
	ID                   string    `gorm:"primaryKey;size:32" json:"id"`
	Name                 string    `gorm:"size:255;not null" json:"name"`
	Status               string    `gorm:"size:16;not null;index" json:"status"`
	FlowType             string    `gorm:"size:16;not null" json:"flow_type"`
	OfferURL             string    `gorm:"size:2048" json:"offer_url"`
	LandingPageID        *uint     `json:"landing_page_id"`
	CostModel            string    `gorm:"size:8" json:"cost_model"`
	CostValue            float64   `json:"cost_value"`
	EnableFraudDetection bool      `json:"enable_fraud_detection"`
	CreatedAt            time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsActive reports whether the campaign accepts clicks.
func (c *Campaign) IsActive() bool {
	return c.Status == CampaignActive
}
