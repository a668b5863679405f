// Package monitor periodically checks the health of the tracker's campaigns.
package monitor

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	customerrors "github.com/axellelanca/afltracker/internal/errors"
	"github.com/axellelanca/afltracker/internal/metrics"
	"github.com/axellelanca/afltracker/internal/models"
)

// CampaignSource lists campaigns without recent clicks.
type CampaignSource interface {
	GetIdleCampaigns(ctx context.Context, since time.Time) ([]models.Campaign, error)
}

// DestinationSource lists the URLs clicks can be sent to.
type DestinationSource interface {
	GetAllActiveOffers(ctx context.Context) ([]models.Offer, error)
	GetAllActiveLandingPages(ctx context.Context) ([]models.LandingPage, error)
}

// Pinger checks that the database answers.
type Pinger func(ctx context.Context) error

// Options configure a CampaignMonitor.
type Options struct {
	Interval       time.Duration
	InactiveWindow time.Duration
	URLChecks      bool
}

// Report is the outcome of one monitoring run.
type Report struct {
	DatabaseOK    bool
	IdleCampaigns []models.Campaign
	Destinations  int
	Unreachable   int
	CheckedAt     time.Time
}

// destination is one URL watched by the monitor.
type destination struct {
	kind string // "offer" or "lander"
	id   uint
	url  string
}

func (d destination) key() string {
	return fmt.Sprintf("%s:%d", d.kind, d.id)
}

// CampaignMonitor pings the database, reports active campaigns that went idle
// and checks that offer and landing page URLs still answer. URL state changes
// are logged when they happen.
type CampaignMonitor struct {
	ping         Pinger
	campaigns    CampaignSource
	destinations DestinationSource
	opts         Options
	logger       *logrus.Logger
	httpClient   *http.Client
	now          func() time.Time

	mu          sync.Mutex
	knownStates map[string]bool
}

// NewCampaignMonitor creates and returns a new instance of CampaignMonitor.
func NewCampaignMonitor(ping Pinger, campaigns CampaignSource, destinations DestinationSource, opts Options, logger *logrus.Logger) *CampaignMonitor {
	return &CampaignMonitor{
		ping:         ping,
		campaigns:    campaigns,
		destinations: destinations,
		opts:         opts,
		logger:       logger,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		now:          time.Now,
		knownStates:  make(map[string]bool),
	}
}

// Start runs a check immediately and then every interval until ctx is done.
func (m *CampaignMonitor) Start(ctx context.Context) {
	m.logger.WithField("interval", m.opts.Interval.String()).Info("Starting campaign monitor")
	ticker := time.NewTicker(m.opts.Interval)
	defer ticker.Stop()

	m.Run(ctx)
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("Campaign monitor stopped")
			return
		case <-ticker.C:
			m.Run(ctx)
		}
	}
}

// Run performs one monitoring pass.
func (m *CampaignMonitor) Run(ctx context.Context) Report {
	report := Report{CheckedAt: m.now().UTC()}
	m.logger.Info("Running monitoring checks")

	if err := m.ping(ctx); err != nil {
		m.logger.WithError(err).Error("Database check failed, system may be unhealthy")
		// Nothing below can work without the database.
		return report
	}
	report.DatabaseOK = true

	idle, err := m.campaigns.GetIdleCampaigns(ctx, m.now().Add(-m.opts.InactiveWindow))
	if err != nil {
		m.logger.WithError(err).Error("Check idle campaigns failed")
	} else {
		report.IdleCampaigns = idle
		metrics.IdleCampaigns.Set(float64(len(idle)))
		for _, c := range idle {
			m.logger.WithFields(logrus.Fields{"campaign_id": c.ID, "name": c.Name}).Warn("Active campaign without clicks")
		}
		if len(idle) > 0 {
			m.logger.WithField("count", len(idle)).Warn("Found idle campaigns")
		}
	}

	if m.opts.URLChecks {
		report.Destinations, report.Unreachable = m.checkDestinations(ctx)
	}

	m.logger.Info("Monitoring checks completed")
	return report
}

func (m *CampaignMonitor) checkDestinations(ctx context.Context) (checked, unreachable int) {
	var dests []destination

	offers, err := m.destinations.GetAllActiveOffers(ctx)
	if err != nil {
		m.logger.WithError(err).Error("Error retrieving offers for monitoring")
	}
	for _, o := range offers {
		dests = append(dests, destination{kind: "offer", id: o.ID, url: o.URL})
	}

	landers, err := m.destinations.GetAllActiveLandingPages(ctx)
	if err != nil {
		m.logger.WithError(err).Error("Error retrieving landing pages for monitoring")
	}
	for _, l := range landers {
		dests = append(dests, destination{kind: "lander", id: l.ID, url: l.URL})
	}

	for _, d := range dests {
		current := m.isURLAccessible(ctx, d.url)
		checked++
		if !current {
			unreachable++
		}
		up := 0.0
		if current {
			up = 1
		}
		metrics.DestinationUp.WithLabelValues(d.kind, fmt.Sprint(d.id)).Set(up)

		m.mu.Lock()
		previous, exists := m.knownStates[d.key()]
		m.knownStates[d.key()] = current
		m.mu.Unlock()

		log := m.logger.WithFields(logrus.Fields{"kind": d.kind, "id": d.id, "url": d.url})
		if !exists {
			log.WithField("state", formatState(current)).Info("Initial destination state")
			continue
		}
		if current != previous {
			log.WithFields(logrus.Fields{
				"from": formatState(previous),
				"to":   formatState(current),
			}).Warn("Destination state changed")
		}
	}
	return checked, unreachable
}

// isURLAccessible sends a HEAD request and accepts 2xx and 3xx answers.
// Offer URLs may hold click id placeholders; they are checked as written.
func (m *CampaignMonitor) isURLAccessible(ctx context.Context, url string) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		m.logger.WithError(customerrors.ErrURLCheckFailed{URL: url, Reason: err.Error()}).Debug("Destination check failed")
		return false
	}
	resp, err := m.httpClient.Do(req)
	if err != nil {
		m.logger.WithError(customerrors.ErrURLCheckFailed{URL: url, Reason: err.Error()}).Debug("Destination check failed")
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode < 400
}

func formatState(accessible bool) string {
	if accessible {
		return "ACCESSIBLE"
	}
	return "INACCESSIBLE"
}

// StateOf returns the last known state of a destination, for tests and diagnostics.
func (m *CampaignMonitor) StateOf(kind string, id uint) (accessible, known bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	accessible, known = m.knownStates[destination{kind: kind, id: id}.key()]
	return accessible, known
}
