package models

import "time"

// Click is one attribution event. It is both the database row and the
// payload carried by the click queue, so producer and consumer only share this shape.
type Click struct {
	ID            uint   `gorm:"primaryKey" json:"-"`
	ClickID       string `gorm:"size:64;uniqueIndex;not null" json:"click_id"`
	CampaignID    string `gorm:"size:32;index;not null" json:"campaign_id"`
	OfferID       *uint  `gorm:"index" json:"offer_id"`
	LandingPageID *uint  `json:"landing_page_id"`

	// Visitor
	IP        string `gorm:"size:64" json:"ip"`
	Country   string `gorm:"size:8" json:"country"`
	City      string `gorm:"size:128" json:"city"`
	Device    string `gorm:"size:32" json:"device"`
	OS        string `gorm:"size:64" json:"os"`
	Browser   string `gorm:"size:64" json:"browser"`
	UserAgent string `gorm:"size:512" json:"user_agent"`
	Referrer  string `gorm:"size:1024" json:"referrer"`

	LandingClicked bool `json:"landing_clicked"`

	// Financial
	Cost           float64    `json:"cost"`
	Payout         float64    `json:"payout"`
	IsConverted    bool       `gorm:"index" json:"is_converted"`
	Timestamp      time.Time  `gorm:"index" json:"timestamp"`
	ConversionTime *time.Time `json:"conversion_time"`

	// Fraud
	IsBot           bool   `json:"is_bot"`
	BotScore        int    `json:"bot_score"`
	FraudFlags      string `gorm:"size:255" json:"fraud_flags"`
	IPQualityScore  int    `gorm:"column:ip_quality_score" json:"ip_quality_score"`
	IsUnique        bool   `json:"is_unique"`
	UserFingerprint string `gorm:"size:32;index" json:"user_fingerprint"`

	TrackingParams

	CustomVar1 string `gorm:"size:255" json:"custom_var1"`
	CustomVar2 string `gorm:"size:255" json:"custom_var2"`
	CustomVar3 string `gorm:"size:255" json:"custom_var3"`
	CustomVar4 string `gorm:"size:255" json:"custom_var4"`
	CustomVar5 string `gorm:"size:255" json:"custom_var5"`
	CustomData string `gorm:"type:text" json:"custom_data"`
}

// TrackingParams holds the ad-network click identifiers and UTM fields read
// from the click URL. Absent values are empty strings, never null.
type TrackingParams struct {
	// Google
	Gclid         string `gorm:"size:255" json:"gclid"`
	GadSource     string `gorm:"size:64" json:"gad_source"`
	GadCampaignID string `gorm:"column:gad_campaignid;size:64" json:"gad_campaignid"`
	Gbraid        string `gorm:"size:255" json:"gbraid"`
	Wbraid        string `gorm:"size:255" json:"wbraid"`

	// Facebook
	Fbclid       string `gorm:"size:255" json:"fbclid"`
	FbAdID       string `gorm:"column:fbadid;size:64" json:"fbadid"`
	FbCampaignID string `gorm:"column:fbcampaignid;size:64" json:"fbcampaignid"`

	// Microsoft, TikTok
	Msclkid string `gorm:"size:255" json:"msclkid"`
	Ttclid  string `gorm:"size:255" json:"ttclid"`

	UTMSource   string `gorm:"column:utm_source;size:255" json:"utm_source"`
	UTMMedium   string `gorm:"column:utm_medium;size:255" json:"utm_medium"`
	UTMCampaign string `gorm:"column:utm_campaign;size:255" json:"utm_campaign"`
	UTMTerm     string `gorm:"column:utm_term;size:255" json:"utm_term"`
	UTMContent  string `gorm:"column:utm_content;size:255" json:"utm_content"`

	ExternalID string `gorm:"size:255;index" json:"external_id"`
}

// CampaignStats aggregates the clicks of one campaign.
type CampaignStats struct {
	CampaignID   string  `json:"campaign_id"`
	Clicks       int64   `json:"clicks"`
	UniqueClicks int64   `json:"unique_clicks"`
	BotClicks    int64   `json:"bot_clicks"`
	Conversions  int64   `json:"conversions"`
	Cost         float64 `json:"cost"`
	Revenue      float64 `json:"revenue"`
	CR           float64 `json:"cr"`  // conversion rate, percent
	EPC          float64 `json:"epc"` // earnings per click
	ROI          float64 `json:"roi"` // percent
}
