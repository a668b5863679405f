package worker

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/axellelanca/afltracker/cmd"
	"github.com/axellelanca/afltracker/internal/database"
	"github.com/axellelanca/afltracker/internal/repository"
	"github.com/axellelanca/afltracker/internal/workers"
)

var requeueInFlight bool

// RunWorkerCmd consumes the click queue in its own process.
var RunWorkerCmd = &cobra.Command{
	Use:   "run-worker",
	Short: "Runs the click queue consumers.",
	Long: `Connects to Redis and the database, puts back jobs left in flight by a
previous worker and inserts queued clicks with queue.concurrency goroutines.

The processing list is shared by every worker process. When several workers run,
start the extra ones with --requeue-in-flight=false: requeueing at startup would
also move jobs a live peer is holding, and those clicks would be delivered twice
(the insert ignores the second copy).`,
	Run: func(command *cobra.Command, args []string) {
		cfg, log := cmd.Cfg, cmd.Logger

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		db := cmd.OpenDatabase(ctx)
		defer database.Close(db)
		if err := database.Migrate(db); err != nil {
			log.WithError(err).Fatal("Failed to migrate database")
		}

		rdb := cmd.ConnectRedis(ctx)
		defer rdb.Close()

		clickQueue := cmd.NewClickQueue(rdb)
		if requeueInFlight {
			if n, err := clickQueue.RequeueInFlight(ctx); err != nil {
				log.WithError(err).Warn("Could not requeue in-flight jobs")
			} else if n > 0 {
				log.WithField("jobs", n).Info("Requeued in-flight jobs")
			}
		}

		clickRepo := repository.NewClickRepository(db)
		wg := workers.StartClickWorkers(ctx, cfg.Queue.Concurrency, clickQueue, clickRepo, log)
		log.WithField("queue", clickQueue.Name()).Info("Worker ready")

		<-ctx.Done()
		log.Info("Shutdown signal received, waiting for workers")
		wg.Wait()
		log.Info("Worker stopped")
	},
}

func init() {
	RunWorkerCmd.Flags().BoolVar(&requeueInFlight, "requeue-in-flight", true, "Move jobs left in the processing list back to pending at startup")
	cmd.RootCmd.AddCommand(RunWorkerCmd)
}
