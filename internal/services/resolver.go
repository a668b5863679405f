package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	customerrors "github.com/axellelanca/afltracker/internal/errors"
	"github.com/axellelanca/afltracker/internal/models"
	"github.com/axellelanca/afltracker/internal/tracking"
)

// DestinationStore loads the destinations a campaign can route to.
type DestinationStore interface {
	GetActiveOffers(ctx context.Context, campaignID string) ([]models.Offer, error)
	GetActiveLandingPage(ctx context.Context, id uint) (*models.LandingPage, error)
}

// Destination is where a click is sent on its first hop.
type Destination struct {
	URL           string
	OfferID       *uint
	LandingPageID *uint
	// LandingClicked is false while an interstitial landing page is still pending.
	LandingClicked bool
}

// Resolver picks the destination of a campaign according to its flow type.
type Resolver struct {
	store DestinationStore
	rnd   *rand.Rand
}

// NewResolver creates a resolver. rnd may be nil to use the global random source.
func NewResolver(store DestinationStore, rnd *rand.Rand) *Resolver {
	return &Resolver{store: store, rnd: rnd}
}

// Resolve returns the destination of campaign, or ErrNoDestination when there is none.
//
//   - lander with a landing page: the active landing page, offer not reached yet
//   - direct with an offer URL: the offer URL verbatim
//   - anything else: weighted random pick among the active offers
func (r *Resolver) Resolve(ctx context.Context, campaign *models.Campaign) (*Destination, error) {
	switch {
	case campaign.FlowType == models.FlowLander && campaign.LandingPageID != nil:
		lander, err := r.store.GetActiveLandingPage(ctx, *campaign.LandingPageID)
		if err != nil {
			if errors.Is(err, customerrors.ErrLandingPageNotFound) {
				return nil, customerrors.ErrNoDestination
			}
			return nil, err
		}
		id := lander.ID
		return &Destination{URL: lander.URL, LandingPageID: &id, LandingClicked: false}, nil

	case campaign.FlowType == models.FlowDirect && campaign.OfferURL != "":
		return &Destination{URL: campaign.OfferURL, LandingClicked: true}, nil
	}

	offers, err := r.store.GetActiveOffers(ctx, campaign.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load offers: %w", err)
	}
	if len(offers) == 0 {
		return nil, customerrors.ErrNoDestination
	}

	weights := make([]int, len(offers))
	for i, o := range offers {
		weights[i] = o.Weight
	}
	offer := offers[tracking.PickWeighted(weights, r.rnd)]
	if offer.URL == "" {
		return nil, customerrors.ErrNoDestination
	}
	id := offer.ID
	return &Destination{URL: offer.URL, OfferID: &id, LandingClicked: true}, nil
}
