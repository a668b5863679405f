package api

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/axellelanca/afltracker/internal/models"
	"github.com/axellelanca/afltracker/internal/services"
)

// ClickTracker runs the first hop of a click.
type ClickTracker interface {
	TrackClick(ctx context.Context, campaignID string, req *services.ClickRequest) (*services.TrackResult, error)
}

// LandingClicker runs the landing page to offer hop.
type LandingClicker interface {
	LandingClick(ctx context.Context, clickID string) (string, error)
}

// ConversionRecorder handles postbacks.
type ConversionRecorder interface {
	RecordConversion(ctx context.Context, clickID, payout, status string) (*services.PostbackResult, error)
}

// CampaignManager is the campaign write and reporting API.
type CampaignManager interface {
	CreateCampaign(ctx context.Context, in services.CampaignInput) (*models.Campaign, error)
	UpdateCampaign(ctx context.Context, id string, in services.CampaignInput) (*models.Campaign, error)
	GetCampaignStats(ctx context.Context, id string) (*models.CampaignStats, error)
}

// HealthCheck reports whether one dependency answers.
type HealthCheck func(ctx context.Context) error

// Deps are the services exposed over HTTP.
type Deps struct {
	Clicks    ClickTracker
	Landing   LandingClicker
	Postbacks ConversionRecorder
	Campaigns CampaignManager
	Checks    map[string]HealthCheck
	Logger    *logrus.Logger

	// CookieMaxAge is the fingerprint cookie lifetime in seconds.
	CookieMaxAge int
	// RateLimitPerMinute and RateLimitBurst bound tracker requests per client IP; 0 disables the limit.
	RateLimitPerMinute int
	RateLimitBurst     int
}

// NewRouter creates the gin engine with panic recovery. Only the listed proxies
// may set the client IP through X-Forwarded-For; with none, the socket peer
// address is the client IP.
func NewRouter(trustedProxies []string) (*gin.Engine, error) {
	router := gin.New()
	router.Use(gin.Recovery())
	if err := router.SetTrustedProxies(trustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}
	return router, nil
}

// SetupRoutes configure toutes les routes du tracker et injecte les dépendances.
func SetupRoutes(router *gin.Engine, deps Deps) {
	router.Use(RequestLogger(deps.Logger))

	router.GET("/", RootHandler)
	router.GET("/health", HealthCheckHandler)
	router.GET("/ready", ReadinessHandler(deps.Checks))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Redirect surface, rate limited per client IP
	tracker := router.Group("/")
	if deps.RateLimitPerMinute > 0 {
		tracker.Use(RateLimit(NewIPRateLimiter(deps.RateLimitPerMinute, deps.RateLimitBurst)))
	}
	{
		redirect := RedirectHandler(deps.Clicks, deps.CookieMaxAge)
		tracker.GET("/c/:campaignId", redirect)
		tracker.GET("/t/:campaignId", redirect)
		tracker.GET("/click", redirect)
		tracker.GET("/lp-click", LandingClickHandler(deps.Landing))
	}

	api := router.Group("/api")
	{
		api.GET("/postback", PostbackHandler(deps.Postbacks))
		api.POST("/postback", PostbackHandler(deps.Postbacks))

		api.POST("/campaigns", CreateCampaignHandler(deps.Campaigns))
		api.PUT("/campaigns/:id", UpdateCampaignHandler(deps.Campaigns))
		api.GET("/campaigns/:id/stats", GetCampaignStatsHandler(deps.Campaigns, deps.Logger))
	}
}
