package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/axellelanca/afltracker/cmd"
	"github.com/axellelanca/afltracker/internal/database"
)

// MigrateCmd represents the 'migrate' command.
var MigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Executes database migrations to create or update tables.",
	Long: `This command connects to the configured database (SQLite or Postgres)
and runs GORM automatic migrations for the campaigns, offers, landing_pages
and clicks tables.`,
	Run: func(command *cobra.Command, args []string) {
		db := cmd.OpenDatabase(context.Background())
		defer database.Close(db)

		if err := database.Migrate(db); err != nil {
			cmd.Logger.WithError(err).Fatal("Failed to migrate database")
		}
		fmt.Println("Database migrations executed successfully.")
	},
}

func init() {
	cmd.RootCmd.AddCommand(MigrateCmd)
}
