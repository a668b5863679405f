package cli

import (
	"context"
	"fmt"
	"net/url"
	"os"

	"github.com/spf13/cobra"

	"github.com/axellelanca/afltracker/cmd"
	"github.com/axellelanca/afltracker/internal/database"
	"github.com/axellelanca/afltracker/internal/models"
	"github.com/axellelanca/afltracker/internal/repository"
)

var (
	offerCampaignID string
	offerName       string
	offerURL        string
	offerPayout     float64
	offerWeight     int
	offerStatus     string

	landerName   string
	landerURL    string
	landerStatus string
)

// OfferCmd groups the offer commands.
var OfferCmd = &cobra.Command{
	Use:   "offer",
	Short: "Gère les offres des campagnes en rotation.",
}

var offerCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Ajoute une offre à une campagne.",
	Long: `L'URL peut contenir {click_id}, remplacé par l'identifiant du clic à la redirection.

Exemple:
  afltracker offer create --campaign=camp_x --url="https://network.example/o?sub={click_id}" --weight=70`,
	Run: func(command *cobra.Command, args []string) {
		mustValidURL(offerURL)
		mustValidStatus(offerStatus, models.OfferActive, models.OfferPaused)
		if offerWeight < 0 {
			fmt.Println("Error: --weight must not be negative")
			os.Exit(1)
		}

		ctx := context.Background()
		db := cmd.OpenDatabase(ctx)
		defer database.Close(db)

		if _, err := repository.NewCampaignRepository(db).GetCampaign(ctx, offerCampaignID); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		offer := &models.Offer{
			CampaignID: offerCampaignID,
			Name:       offerName,
			URL:        offerURL,
			Payout:     offerPayout,
			Weight:     offerWeight,
			Status:     offerStatus,
		}
		if err := repository.NewOfferRepository(db).CreateOffer(ctx, offer); err != nil {
			cmd.Logger.WithError(err).Fatal("Failed to create offer")
		}
		fmt.Printf("Offre %d créée pour la campagne %s (poids %d)\n", offer.ID, offer.CampaignID, offer.Weight)
	},
}

// LanderCmd groups the landing page commands.
var LanderCmd = &cobra.Command{
	Use:   "lander",
	Short: "Gère les landing pages.",
}

var landerCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Enregistre une landing page.",
	Run: func(command *cobra.Command, args []string) {
		mustValidURL(landerURL)
		mustValidStatus(landerStatus, models.LanderActive, models.LanderPaused)

		ctx := context.Background()
		db := cmd.OpenDatabase(ctx)
		defer database.Close(db)

		lander := &models.LandingPage{Name: landerName, URL: landerURL, Status: landerStatus}
		if err := repository.NewOfferRepository(db).CreateLandingPage(ctx, lander); err != nil {
			cmd.Logger.WithError(err).Fatal("Failed to create landing page")
		}
		fmt.Printf("Landing page %d créée\n", lander.ID)
		fmt.Printf("Lien de sortie à placer sur la page: %s/lp-click?click_id={afl_click_id}\n", cmd.Cfg.Server.BaseURL)
	},
}

func mustValidURL(raw string) {
	if _, err := url.ParseRequestURI(raw); err != nil {
		fmt.Printf("Error: Invalid URL format: %v\n", err)
		os.Exit(1)
	}
}

// checkStatus reports an error unless status is one of allowed.
func checkStatus(status string, allowed ...string) error {
	for _, a := range allowed {
		if status == a {
			return nil
		}
	}
	return fmt.Errorf("invalid status %q, expected one of %v", status, allowed)
}

func mustValidStatus(status string, allowed ...string) {
	if err := checkStatus(status, allowed...); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	f := offerCreateCmd.Flags()
	f.StringVar(&offerCampaignID, "campaign", "", "Campaign id")
	f.StringVar(&offerName, "name", "", "Offer name")
	f.StringVar(&offerURL, "url", "", "Offer URL")
	f.Float64Var(&offerPayout, "payout", 0, "Expected payout")
	f.IntVar(&offerWeight, "weight", 100, "Relative rotation weight")
	f.StringVar(&offerStatus, "status", models.OfferActive, "Offer status (active or paused)")
	_ = offerCreateCmd.MarkFlagRequired("campaign")
	_ = offerCreateCmd.MarkFlagRequired("url")
	OfferCmd.AddCommand(offerCreateCmd)

	lf := landerCreateCmd.Flags()
	lf.StringVar(&landerName, "name", "", "Landing page name")
	lf.StringVar(&landerURL, "url", "", "Landing page URL")
	lf.StringVar(&landerStatus, "status", models.LanderActive, "Landing page status (active or paused)")
	_ = landerCreateCmd.MarkFlagRequired("url")
	LanderCmd.AddCommand(landerCreateCmd)

	cmd.RootCmd.AddCommand(OfferCmd)
	cmd.RootCmd.AddCommand(LanderCmd)
}
