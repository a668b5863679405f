package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/axellelanca/afltracker/cmd"
	"github.com/axellelanca/afltracker/internal/database"
	customerrors "github.com/axellelanca/afltracker/internal/errors"
	"github.com/axellelanca/afltracker/internal/repository"
)

// StatsCmd représente la commande 'stats'
var StatsCmd = &cobra.Command{
	Use:   "stats [campaign-id]",
	Short: "Affiche les statistiques d'une campagne",
	Long:  `Affiche clics, clics uniques, bots, conversions, coût, revenu, CR, EPC et ROI d'une campagne.`,
	Args:  cobra.ExactArgs(1),
	Run:   runStats,
}

func init() {
	cmd.RootCmd.AddCommand(StatsCmd)
}

// runStats exécute la logique pour la commande stats
func runStats(command *cobra.Command, args []string) {
	campaignID := args[0]
	ctx := context.Background()

	db := cmd.OpenDatabase(ctx)
	defer database.Close(db)

	campaign, err := repository.NewCampaignRepository(db).GetCampaign(ctx, campaignID)
	if err != nil {
		if errors.Is(err, customerrors.ErrCampaignNotFound) {
			fmt.Printf("Error: campaign '%s' not found\n", campaignID)
		} else {
			fmt.Printf("Error retrieving campaign: %v\n", err)
		}
		os.Exit(1)
	}

	stats, err := repository.NewClickRepository(db).GetCampaignStats(ctx, campaignID)
	if err != nil {
		fmt.Printf("Error retrieving statistics: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Statistiques pour la campagne: %s (%s)\n", campaign.ID, campaign.Name)
	fmt.Printf("Statut: %s, flux: %s, coût: %s %.4f\n", campaign.Status, campaign.FlowType, campaign.CostModel, campaign.CostValue)
	fmt.Printf("Clics: %d (uniques: %d, bots: %d)\n", stats.Clicks, stats.UniqueClicks, stats.BotClicks)
	fmt.Printf("Conversions: %d\n", stats.Conversions)
	fmt.Printf("Coût: %.2f  Revenu: %.2f\n", stats.Cost, stats.Revenue)
	fmt.Printf("CR: %.2f%%  EPC: %.4f  ROI: %.2f%%\n", stats.CR, stats.EPC, stats.ROI)
}
