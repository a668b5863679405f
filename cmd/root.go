package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/axellelanca/afltracker/internal/cache"
	"github.com/axellelanca/afltracker/internal/config"
	"github.com/axellelanca/afltracker/internal/database"
	"github.com/axellelanca/afltracker/internal/logger"
	"github.com/axellelanca/afltracker/internal/queue"
)

// Cfg is the configuration loaded before any command runs.
var Cfg *config.Config

// Logger is the process-wide logger built from Cfg.
var Logger *logrus.Logger

// RootCmd is the base command; run-server, run-worker and the operator
// commands register themselves from their own init().
var RootCmd = &cobra.Command{
	Use:   "afltracker",
	Short: "Affiliate click tracker",
	Long: `AFL tracker redirects ad clicks to offers, records click attribution
asynchronously through a Redis queue and reconciles conversion postbacks.`,
}

// Execute is called from main.go.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

// initConfig loads the configuration and builds the logger before any command.
func initConfig() {
	var err error
	Cfg, err = config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	Logger = logger.New(Cfg)
}

// OpenDatabase opens the configured database, exiting on failure.
func OpenDatabase(ctx context.Context) *gorm.DB {
	db, err := database.Open(ctx, Cfg)
	if err != nil {
		Logger.WithError(err).Fatal("Failed to connect to database")
	}
	return db
}

// ConnectRedis connects to the configured Redis, exiting on failure.
func ConnectRedis(ctx context.Context) *redis.Client {
	client, err := cache.Connect(ctx, Cfg.Redis.URL)
	if err != nil {
		Logger.WithError(err).Fatal("Failed to connect to Redis")
	}
	return client
}

// NewClickQueue builds the click queue from the queue section of Cfg.
func NewClickQueue(client *redis.Client) *queue.RedisQueue {
	return queue.NewRedisQueue(client, queue.Options{
		Name:        Cfg.Queue.Name,
		MaxAttempts: Cfg.Queue.MaxAttempts,
		BackoffBase: Cfg.Queue.BackoffBase,
		PollTimeout: Cfg.Queue.PollTimeout,
	})
}
