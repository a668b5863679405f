package errors

import (
	"errors"
	"fmt"
)

// Custom error types for the click tracker

// ErrMissingCampaignID is returned when a click request carries no campaign identifier
var ErrMissingCampaignID = errors.New("missing campaign_id")

// ErrMissingClickID is returned when a landing click or postback carries no click identifier
var ErrMissingClickID = errors.New("missing click_id")

// ErrCampaignNotFound is returned when no campaign exists for the requested identifier
var ErrCampaignNotFound = errors.New("campaign not found")

// ErrCampaignInactive is returned when the campaign exists but is not active
var ErrCampaignInactive = errors.New("campaign inactive")

// ErrInvalidCampaign is returned when a campaign write carries invalid fields
var ErrInvalidCampaign = errors.New("invalid campaign")

// ErrBotBlocked is returned when the fraud heuristic blocks a request
var ErrBotBlocked = errors.New("access denied")

// ErrNoDestination is returned when no redirect URL can be resolved for a campaign
var ErrNoDestination = errors.New("no destination available")

// ErrClickNotFound is returned when a click identifier doesn't exist in the database
var ErrClickNotFound = errors.New("click not found")

// ErrOfferNotFound is returned when the offer referenced by a click doesn't exist
var ErrOfferNotFound = errors.New("offer not found")

// ErrQueueUnavailable is returned when the click queue cannot accept a job
var ErrQueueUnavailable = errors.New("click queue unavailable")

// ErrClickIDGenerationFailed is returned when we can't generate a click identifier
var ErrClickIDGenerationFailed = errors.New("failed to generate click id")

// ErrClickRecordingFailed is returned when click persistence fails
type ErrClickRecordingFailed struct {
	ClickID string
	Reason  string
}

func (e ErrClickRecordingFailed) Error() string {
	return fmt.Sprintf("failed to record click %s: %s", e.ClickID, e.Reason)
}

// ErrURLCheckFailed is returned when a destination URL health check fails
type ErrURLCheckFailed struct {
	URL    string
	Reason string
}

func (e ErrURLCheckFailed) Error() string {
	return fmt.Sprintf("failed to check URL %s: %s", e.URL, e.Reason)
}

// ErrConfigLoad is returned when configuration loading fails
type ErrConfigLoad struct {
	Path   string
	Reason string
}

func (e ErrConfigLoad) Error() string {
	return fmt.Sprintf("failed to load config from %s: %s", e.Path, e.Reason)
}

// ErrLandingPageNotFound is returned when the landing page doesn't exist or is not active
var ErrLandingPageNotFound = errors.New("landing page not found")

// ErrInvalidPayout is returned when a postback payout is not a number
var ErrInvalidPayout = errors.New("invalid payout")
