package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/axellelanca/afltracker/cmd"
	"github.com/axellelanca/afltracker/internal/cache"
	"github.com/axellelanca/afltracker/internal/database"
	"github.com/axellelanca/afltracker/internal/models"
	"github.com/axellelanca/afltracker/internal/repository"
	"github.com/axellelanca/afltracker/internal/services"
)

var campaignInput services.CampaignInput
var campaignLandingPageID uint

// CampaignCmd groups the campaign management commands.
var CampaignCmd = &cobra.Command{
	Use:   "campaign",
	Short: "Gère les campagnes (create, pause, activate).",
}

var campaignCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Crée une campagne et affiche son lien de tracking.",
	Long: `Exemple:
  afltracker campaign create --name="Spring" --flow=direct --offer-url="https://example.com/offer" --cost=0.50`,
	Run: func(command *cobra.Command, args []string) {
		if campaignLandingPageID > 0 {
			id := campaignLandingPageID
			campaignInput.LandingPageID = &id
		}

		svc, closeFn := newCampaignService()
		defer closeFn()

		campaign, err := svc.CreateCampaign(context.Background(), campaignInput)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Campagne créée avec succès:\n")
		fmt.Printf("ID: %s\n", campaign.ID)
		fmt.Printf("Lien de tracking: %s/c/%s\n", cmd.Cfg.Server.BaseURL, campaign.ID)
	},
}

func statusCommand(use, short, status string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [campaign-id]",
		Short: short,
		Args:  cobra.ExactArgs(1),
		Run: func(command *cobra.Command, args []string) {
			svc, closeFn := newCampaignService()
			defer closeFn()

			if err := svc.SetStatus(context.Background(), args[0], status); err != nil {
				fmt.Printf("Error: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("Campagne %s: %s\n", args[0], status)
		},
	}
}

// newCampaignService wires the campaign service with its cache so CLI writes
// invalidate the tracker's cached configuration too.
func newCampaignService() (*services.CampaignService, func()) {
	ctx := context.Background()
	db := cmd.OpenDatabase(ctx)
	rdb := cmd.ConnectRedis(ctx)

	campaignRepo := repository.NewCampaignRepository(db)
	campaignCache := cache.NewCampaignCache(rdb, campaignRepo, cmd.Cfg.Tracker.CampaignCacheTTL, cmd.Logger)
	svc := services.NewCampaignService(campaignRepo, campaignCache, repository.NewClickRepository(db), cmd.Logger)

	return svc, func() {
		_ = rdb.Close()
		_ = database.Close(db)
	}
}

func init() {
	f := campaignCreateCmd.Flags()
	f.StringVar(&campaignInput.Name, "name", "", "Campaign name")
	f.StringVar(&campaignInput.Status, "status", models.CampaignActive, "active or paused")
	f.StringVar(&campaignInput.FlowType, "flow", models.FlowDirect, "direct, lander or rotation")
	f.StringVar(&campaignInput.OfferURL, "offer-url", "", "Offer URL for direct campaigns")
	f.UintVar(&campaignLandingPageID, "landing-page", 0, "Landing page id for lander campaigns")
	f.StringVar(&campaignInput.CostModel, "cost-model", models.CostCPC, "cpc, cpm or cpa")
	f.Float64Var(&campaignInput.CostValue, "cost", 0, "Cost per click")
	f.BoolVar(&campaignInput.EnableFraudDetection, "fraud-detection", false, "Block bot user agents")
	_ = campaignCreateCmd.MarkFlagRequired("name")

	CampaignCmd.AddCommand(campaignCreateCmd)
	CampaignCmd.AddCommand(statusCommand("pause", "Met une campagne en pause.", models.CampaignPaused))
	CampaignCmd.AddCommand(statusCommand("activate", "Réactive une campagne.", models.CampaignActive))
	cmd.RootCmd.AddCommand(CampaignCmd)
}
