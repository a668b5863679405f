package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	customerrors "github.com/axellelanca/afltracker/internal/errors"
	"github.com/axellelanca/afltracker/internal/services"
)

// CreateCampaignHandler crée une campagne depuis un corps JSON.
func CreateCampaignHandler(campaigns CampaignManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in services.CampaignInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
			return
		}

		campaign, err := campaigns.CreateCampaign(c.Request.Context(), in)
		if err != nil {
			writeCampaignError(c, err)
			return
		}
		c.JSON(http.StatusCreated, campaign)
	}
}

// UpdateCampaignHandler remplace les champs modifiables d'une campagne.
func UpdateCampaignHandler(campaigns CampaignManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in services.CampaignInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
			return
		}

		campaign, err := campaigns.UpdateCampaign(c.Request.Context(), c.Param("id"), in)
		if err != nil {
			writeCampaignError(c, err)
			return
		}
		c.JSON(http.StatusOK, campaign)
	}
}

// GetCampaignStatsHandler returns clicks, conversions, cost, revenue, CR, EPC and ROI.
func GetCampaignStatsHandler(campaigns CampaignManager, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		stats, err := campaigns.GetCampaignStats(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, customerrors.ErrCampaignNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Campaign not found"})
				return
			}
			logger.WithError(err).WithField("campaign_id", id).Error("Error retrieving campaign stats")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

func writeCampaignError(c *gin.Context, err error) {
	switch {
	case services.IsValidationError(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, customerrors.ErrCampaignNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Campaign not found"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save campaign"})
	}
}
