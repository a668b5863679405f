package services

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	customerrors "github.com/axellelanca/afltracker/internal/errors"
)

// ConversionStore records conversions with an atomic conditional update.
type ConversionStore interface {
	MarkConverted(ctx context.Context, clickID string, payout float64, at time.Time) (bool, error)
	ClickExists(ctx context.Context, clickID string) (bool, error)
}

// PostbackResult describes the outcome of a postback.
type PostbackResult struct {
	ClickID          string
	Payout           string
	AlreadyConverted bool
}

// PostbackService reconciles conversion postbacks with recorded clicks.
type PostbackService struct {
	store  ConversionStore
	logger *logrus.Logger
	now    func() time.Time
}

// NewPostbackService creates and returns a new instance of PostbackService.
func NewPostbackService(store ConversionStore, logger *logrus.Logger) *PostbackService {
	return &PostbackService{store: store, logger: logger, now: time.Now}
}

// RecordConversion credits payout to clickID exactly once. A second postback
// for the same click reports AlreadyConverted and changes nothing.
// Every status is treated as an approval; it is only logged.
func (s *PostbackService) RecordConversion(ctx context.Context, clickID, payoutRaw, status string) (*PostbackResult, error) {
	if clickID == "" {
		return nil, customerrors.ErrMissingClickID
	}

	payoutRaw = strings.TrimSpace(payoutRaw)
	if payoutRaw == "" {
		payoutRaw = "0"
	}
	payout, err := strconv.ParseFloat(payoutRaw, 64)
	if err != nil || math.IsNaN(payout) || math.IsInf(payout, 0) {
		return nil, customerrors.ErrInvalidPayout
	}

	log := s.logger.WithFields(logrus.Fields{"click_id": clickID, "payout": payoutRaw, "status": status})

	updated, err := s.store.MarkConverted(ctx, clickID, payout, s.now())
	if err != nil {
		return nil, err
	}
	if updated {
		log.Info("Conversion recorded")
		return &PostbackResult{ClickID: clickID, Payout: payoutRaw}, nil
	}

	exists, err := s.store.ClickExists(ctx, clickID)
	if err != nil {
		return nil, err
	}
	if !exists {
		log.Warn("Postback: click not found")
		return nil, customerrors.ErrClickNotFound
	}
	log.Warn("Postback: already converted")
	return &PostbackResult{ClickID: clickID, AlreadyConverted: true}, nil
}
