package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/axellelanca/afltracker/cmd"
)

var failedLimit int64

// QueueCmd groups the click queue commands.
var QueueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Inspects the click queue.",
}

var queueStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Prints job counts per state and the latest failed jobs.",
	Run: func(command *cobra.Command, args []string) {
		ctx := context.Background()
		rdb := cmd.ConnectRedis(ctx)
		defer rdb.Close()

		q := cmd.NewClickQueue(rdb)
		stats, err := q.Stats(ctx)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Queue: %s\n", q.Name())
		fmt.Printf("Pending: %d  Processing: %d  Delayed: %d  Failed: %d\n",
			stats.Pending, stats.Processing, stats.Delayed, stats.Failed)

		if stats.Failed == 0 || failedLimit <= 0 {
			return
		}
		jobs, err := q.FailedJobs(ctx, failedLimit)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Failed jobs:")
		for _, j := range jobs {
			fmt.Printf("  %s click=%s campaign=%s attempts=%d error=%q\n",
				j.EnqueuedAt.Format("2006-01-02 15:04:05"), j.Click.ClickID, j.Click.CampaignID, j.Attempts, j.LastError)
		}
	},
}

func init() {
	queueStatsCmd.Flags().Int64Var(&failedLimit, "failed", 10, "Number of failed jobs to print")
	QueueCmd.AddCommand(queueStatsCmd)
	cmd.RootCmd.AddCommand(QueueCmd)
}
