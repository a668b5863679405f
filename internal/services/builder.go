package services

import (
	"time"

	"github.com/axellelanca/afltracker/internal/fraud"
	"github.com/axellelanca/afltracker/internal/models"
	"github.com/axellelanca/afltracker/internal/tracking"
)

// BotFlag is written to fraud_flags for clicks matched by the bot heuristic.
const BotFlag = "bot_user_agent"

// ClickInput gathers everything the record builder assembles into a Click.
type ClickInput struct {
	ClickID     string
	Campaign    *models.Campaign
	Destination *Destination
	Request     *ClickRequest
	Verdict     fraud.Verdict
	IsDuplicate bool
	Now         time.Time
}

// BuildClick assembles the attribution record of one click. Duplicates cost
// nothing; payout and conversion stay empty until a postback arrives.
func BuildClick(in ClickInput) *models.Click {
	req := in.Request
	vars := tracking.CustomVars(req.Query)

	cost := in.Campaign.CostValue
	if in.IsDuplicate {
		cost = 0
	}

	fraudFlags := ""
	if in.Verdict.IsBot {
		fraudFlags = BotFlag
	}

	return &models.Click{
		ClickID:       in.ClickID,
		CampaignID:    in.Campaign.ID,
		OfferID:       in.Destination.OfferID,
		LandingPageID: in.Destination.LandingPageID,

		IP:        req.IP,
		Country:   req.Country,
		City:      req.City,
		Device:    req.Device.Device,
		OS:        req.Device.OS,
		Browser:   req.Device.Browser,
		UserAgent: req.UserAgent,
		Referrer:  req.Referrer,

		LandingClicked: in.Destination.LandingClicked,

		Cost:           cost,
		Payout:         0,
		IsConverted:    false,
		Timestamp:      in.Now.UTC(),
		ConversionTime: nil,

		IsBot:           in.Verdict.IsBot,
		BotScore:        in.Verdict.Score,
		FraudFlags:      fraudFlags,
		IPQualityScore:  0,
		IsUnique:        !in.IsDuplicate,
		UserFingerprint: req.Fingerprint,

		TrackingParams: tracking.ExtractTrackingParams(req.Query),

		CustomVar1: vars[0],
		CustomVar2: vars[1],
		CustomVar3: vars[2],
		CustomVar4: vars[3],
		CustomVar5: vars[4],
		CustomData: tracking.RawQueryJSON(req.Query),
	}
}
