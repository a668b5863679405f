// Package metrics declares the Prometheus collectors of the tracker.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Redirect pipeline
	RedirectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_redirects_total",
			Help: "Click requests by terminal outcome",
		},
		[]string{"outcome"}, // "redirected", "bad_request", "not_found", "inactive", "blocked", "no_destination", "error"
	)

	RedirectDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tracker_redirect_duration_seconds",
			Help:    "Time spent handling a click request before the redirect is sent",
			Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	LandingClicksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_landing_clicks_total",
			Help: "Landing-to-offer requests by outcome",
		},
		[]string{"outcome"},
	)

	CampaignCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_campaign_cache_lookups_total",
			Help: "Campaign configuration cache lookups",
		},
		[]string{"result"}, // "hit", "miss", "error"
	)

	DuplicateClicks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tracker_duplicate_clicks_total",
			Help: "Clicks classified as duplicates by the dedup gate",
		},
	)

	BotClicks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tracker_bot_clicks_total",
			Help: "Clicks classified as bots by the fraud heuristic",
		},
	)

	// Persistence
	ClicksPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_clicks_published_total",
			Help: "Click records handed to persistence, by path",
		},
		[]string{"path"}, // "queue", "fallback", "lost"
	)

	QueueJobs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_queue_jobs_total",
			Help: "Click queue jobs handled by workers",
		},
		[]string{"result"}, // "processed", "retried", "failed"
	)

	QueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tracker_queue_depth",
			Help: "Jobs in the click queue by state",
		},
		[]string{"state"},
	)

	// Conversions
	PostbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_postbacks_total",
			Help: "Conversion postbacks by outcome",
		},
		[]string{"outcome"}, // "converted", "already_converted", "not_found", "bad_request", "error"
	)

	// Monitor
	IdleCampaigns = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tracker_idle_campaigns",
			Help: "Active campaigns without clicks in the monitor window",
		},
	)

	DestinationUp = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tracker_destination_up",
			Help: "1 when the destination URL answered with 2xx/3xx on the last check",
		},
		[]string{"kind", "id"},
	)
)
