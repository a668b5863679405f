// Package api exposes the tracker over HTTP with gin.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	customerrors "github.com/axellelanca/afltracker/internal/errors"
	"github.com/axellelanca/afltracker/internal/metrics"
	"github.com/axellelanca/afltracker/internal/services"
)

// FingerprintCookie carries the visitor fingerprint back to the browser.
const FingerprintCookie = "afl_fp"

// RootHandler renvoie la bannière du service.
func RootHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":   "AFL Tracker",
		"endpoints": []string{"/c/:campaignId", "/t/:campaignId", "/click", "/lp-click", "/api/postback"},
	})
}

// HealthCheckHandler handles the /health liveness route.
func HealthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"service":   "tracker",
		"timestamp": time.Now().UnixMilli(),
	})
}

// ReadinessHandler runs every dependency check and answers 503 if one fails.
func ReadinessHandler(checks map[string]HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		results := gin.H{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				results[name] = err.Error()
				continue
			}
			results[name] = "ok"
		}
		c.JSON(status, gin.H{"ready": status == http.StatusOK, "checks": results})
	}
}

// RedirectHandler handles a tracked click: the campaign id comes from the
// path (/c/:campaignId, /t/:campaignId) or from cid / campaign_id in the query.
// Failures answer with a bare status code.
func RedirectHandler(clicks ClickTracker, cookieMaxAge int) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		defer func() { metrics.RedirectDuration.Observe(time.Since(start).Seconds()) }()

		campaignID := c.Param("campaignId")
		if campaignID == "" {
			campaignID = firstQuery(c, "cid", "campaign_id")
		}

		req := services.NewClickRequest(c.ClientIP(), c.Request.Header, c.Request.URL.Query())
		res, err := clicks.TrackClick(c.Request.Context(), campaignID, req)
		if err != nil {
			status, outcome := redirectStatus(err)
			metrics.RedirectsTotal.WithLabelValues(outcome).Inc()
			c.Status(status)
			return
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(FingerprintCookie, res.Fingerprint, cookieMaxAge, "/", "", false, true)
		c.Header("X-Click-ID", res.ClickID)
		c.Header("X-Processing-Time", strconv.FormatInt(time.Since(start).Milliseconds(), 10)+"ms")

		metrics.RedirectsTotal.WithLabelValues("redirected").Inc()
		c.Redirect(http.StatusFound, res.RedirectURL)
	}
}

func redirectStatus(err error) (int, string) {
	switch {
	case errors.Is(err, customerrors.ErrMissingCampaignID):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, customerrors.ErrCampaignNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, customerrors.ErrCampaignInactive):
		return http.StatusForbidden, "inactive"
	case errors.Is(err, customerrors.ErrBotBlocked):
		return http.StatusForbidden, "blocked"
	case errors.Is(err, customerrors.ErrNoDestination):
		return http.StatusServiceUnavailable, "no_destination"
	default:
		return http.StatusInternalServerError, "error"
	}
}

// LandingClickHandler handles /lp-click?click_id= (or afl_click_id=).
func LandingClickHandler(landing LandingClicker) gin.HandlerFunc {
	return func(c *gin.Context) {
		clickID := firstQuery(c, "click_id", "afl_click_id")

		target, err := landing.LandingClick(c.Request.Context(), clickID)
		if err != nil {
			status := http.StatusInternalServerError
			outcome := "error"
			switch {
			case errors.Is(err, customerrors.ErrMissingClickID):
				status, outcome = http.StatusBadRequest, "bad_request"
			case errors.Is(err, customerrors.ErrClickNotFound), errors.Is(err, customerrors.ErrOfferNotFound):
				status, outcome = http.StatusNotFound, "not_found"
			}
			metrics.LandingClicksTotal.WithLabelValues(outcome).Inc()
			c.Status(status)
			return
		}

		metrics.LandingClicksTotal.WithLabelValues("redirected").Inc()
		c.Redirect(http.StatusFound, target)
	}
}

// PostbackHandler records a conversion from an affiliate network callback.
// Parameters are read from the query string, or from a form body on POST.
func PostbackHandler(postbacks ConversionRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		clickID := firstParam(c, "click_id", "afl_click_id")
		payout := firstParam(c, "payout")
		status := firstParam(c, "status")
		if status == "" {
			status = "approved"
		}

		res, err := postbacks.RecordConversion(c.Request.Context(), clickID, payout, status)
		if err != nil {
			switch {
			case errors.Is(err, customerrors.ErrMissingClickID):
				metrics.PostbacksTotal.WithLabelValues("bad_request").Inc()
				c.JSON(http.StatusBadRequest, gin.H{"error": "Missing click_id"})
			case errors.Is(err, customerrors.ErrInvalidPayout):
				metrics.PostbacksTotal.WithLabelValues("bad_request").Inc()
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payout"})
			case errors.Is(err, customerrors.ErrClickNotFound):
				metrics.PostbacksTotal.WithLabelValues("not_found").Inc()
				c.JSON(http.StatusNotFound, gin.H{"error": "Click not found"})
			default:
				metrics.PostbacksTotal.WithLabelValues("error").Inc()
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			}
			return
		}

		if res.AlreadyConverted {
			metrics.PostbacksTotal.WithLabelValues("already_converted").Inc()
			c.JSON(http.StatusOK, gin.H{
				"success":  true,
				"message":  "Already converted",
				"click_id": res.ClickID,
			})
			return
		}

		metrics.PostbacksTotal.WithLabelValues("converted").Inc()
		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"message":  "Conversion recorded",
			"click_id": res.ClickID,
			"payout":   res.Payout,
		})
	}
}

func firstQuery(c *gin.Context, names ...string) string {
	for _, name := range names {
		if v := c.Query(name); v != "" {
			return v
		}
	}
	return ""
}

func firstParam(c *gin.Context, names ...string) string {
	if v := firstQuery(c, names...); v != "" {
		return v
	}
	if c.Request.Method != http.MethodPost {
		return ""
	}
	for _, name := range names {
		if v := c.PostForm(name); v != "" {
			return v
		}
	}
	return ""
}
