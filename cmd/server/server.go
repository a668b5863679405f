package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/axellelanca/afltracker/cmd"
	"github.com/axellelanca/afltracker/internal/api"
	"github.com/axellelanca/afltracker/internal/cache"
	"github.com/axellelanca/afltracker/internal/database"
	"github.com/axellelanca/afltracker/internal/monitor"
	"github.com/axellelanca/afltracker/internal/queue"
	"github.com/axellelanca/afltracker/internal/repository"
	"github.com/axellelanca/afltracker/internal/services"
	"github.com/axellelanca/afltracker/internal/workers"
)

// RunServerCmd représente la commande 'run-server'.
var RunServerCmd = &cobra.Command{
	Use:   "run-server",
	Short: "Lance le tracker HTTP et les processus de fond.",
	Long: `Cette commande se connecte à la base de données et à Redis, configure les routes
du tracker (redirections, landing, postback, API campagnes), démarre le moniteur de
campagnes et, si queue.embedded_workers est activé, les workers de clics.`,
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

		// Repositories
		campaignRepo := repository.NewCampaignRepository(db)
		offerRepo := repository.NewOfferRepository(db)
		clickRepo := repository.NewClickRepository(db)
		log.Info("Repositories initialised")

		campaignCache := cache.NewCampaignCache(rdb, campaignRepo, cfg.Tracker.CampaignCacheTTL, log)
		clickQueue := cmd.NewClickQueue(rdb)
		publisher := queue.NewPublisher(clickQueue, clickRepo, queue.PublisherConfig{
			EnqueueTimeout:  cfg.Tracker.EnqueueTimeout,
			BreakerFailures: cfg.Queue.BreakerFailures,
			BreakerTimeout:  cfg.Queue.BreakerTimeout,
		}, log)

		clickService := services.NewClickService(services.ClickDeps{
			Campaigns:     campaignCache,
			CampaignStore: campaignRepo,
			Dedup:         cache.NewDedupGate(rdb, cfg.Tracker.DedupWindow),
			Destinations:  offerRepo,
			Publisher:     publisher,
			ClickIDPrefix: cfg.Tracker.ClickIDPrefix,
			Logger:        log,
		})
		landingService := services.NewLandingService(clickRepo, offerRepo, campaignRepo, log)
		postbackService := services.NewPostbackService(clickRepo, log)
		campaignService := services.NewCampaignService(campaignRepo, campaignCache, clickRepo, log)
		log.Info("Services initialised")

		var background sync.WaitGroup
		if cfg.Queue.EmbeddedWorkers {
			wg := workers.StartClickWorkers(ctx, cfg.Queue.Concurrency, clickQueue, clickRepo, log)
			background.Add(1)
			go func() {
				defer background.Done()
				wg.Wait()
			}()
		}

		pingDB := func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}

		campaignMonitor := monitor.NewCampaignMonitor(pingDB, campaignRepo, offerRepo, monitor.Options{
			Interval:       time.Duration(cfg.Monitor.IntervalMinutes) * time.Minute,
			InactiveWindow: time.Duration(cfg.Monitor.InactiveWindowHours) * time.Hour,
			URLChecks:      cfg.Monitor.URLChecks,
		}, log)
		background.Add(1)
		go func() {
			defer background.Done()
			campaignMonitor.Start(ctx)
		}()

		router, err := api.NewRouter(cfg.Server.TrustedProxies)
		if err != nil {
			log.WithError(err).Fatal("Failed to configure router")
		}
		api.SetupRoutes(router, api.Deps{
			Clicks:    clickService,
			Landing:   landingService,
			Postbacks: postbackService,
			Campaigns: campaignService,
			Checks: map[string]api.HealthCheck{
				"database": pingDB,
				"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
			},
			Logger:             log,
			CookieMaxAge:       int(cfg.Tracker.CookieMaxAge.Seconds()),
			RateLimitPerMinute: cfg.Tracker.RateLimitPerMinute,
			RateLimitBurst:     cfg.Tracker.RateLimitBurst,
		})
		log.Info("Routes configured")

		serverAddr := fmt.Sprintf(":%d", cfg.Server.Port)
		srv := &http.Server{
			Addr:              serverAddr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			log.WithField("addr", serverAddr).Info("Tracker listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Fatal("Failed to start server")
			}
		}()

		<-ctx.Done()
		log.Info("Shutdown signal received, stopping server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("Server shutdown failed")
		}

		// Let workers finish the job they hold.
		background.Wait()
		log.Info("Server stopped")
	},
}

func init() {
	cmd.RootCmd.AddCommand(RunServerCmd)
}
