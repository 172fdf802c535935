// Command media-sweeper retries object deletions recorded as cleanup intents by the
// listing service, so media left behind by partial failures is eventually removed.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Abdurahmanit/rental-listing-service/internal/adapter/repository/mongodb"
	"github.com/Abdurahmanit/rental-listing-service/internal/adapter/storage/s3"
	"github.com/Abdurahmanit/rental-listing-service/internal/config"
	"github.com/Abdurahmanit/rental-listing-service/internal/platform/logger"
	"github.com/Abdurahmanit/rental-listing-service/internal/platform/metrics"
	"github.com/Abdurahmanit/rental-listing-service/internal/sweeper"
	"go.uber.org/zap"
)

func main() {
	once := flag.Bool("once", false, "run a single sweep and exit")
	flag.Parse()

	appLogger := logger.NewLogger(nil)
	defer func() { _ = appLogger.Sync() }()

	cfg, err := config.LoadConfig(appLogger)
	if err != nil {
		appLogger.Fatal("Failed to load configuration", zap.Error(err))
	}
	_ = appLogger.Sync()
	appLogger = logger.NewLogger(cfg.Logging()).Named("media-sweeper")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, appLogger, *once); err != nil {
		appLogger.Error("Media sweeper stopped with error", zap.Error(err))
		stop()
		_ = appLogger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, appLogger *logger.Logger, once bool) error {
	mongoClient, err := mongodb.Connect(ctx, cfg.MongoURI, cfg.MongoConnectTimeout)
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongoClient.Disconnect(disconnectCtx); err != nil {
			appLogger.Error("Error disconnecting from MongoDB", zap.Error(err))
		}
	}()
	db := mongoClient.Database(cfg.MongoDatabase)

	storage, err := s3.NewS3Storage(s3.Options{
		Endpoint:        cfg.StorageEndpoint,
		AccessKeyID:     cfg.StorageAccessKeyID,
		SecretAccessKey: cfg.StorageSecretAccessKey,
		Bucket:          cfg.StorageBucket,
		Region:          cfg.StorageRegion,
		UseSSL:          cfg.StorageUseSSL,
		PublicEndpoint:  cfg.StoragePublicEndpoint,
	}, appLogger)
	if err != nil {
		return fmt.Errorf("failed to initialize object storage: %w", err)
	}

	m := metrics.NewMetricsManager(cfg.ServiceName + "_sweeper")

	sw, err := sweeper.New(sweeper.Config{
		Repo:        mongodb.NewCleanupIntentRepository(db),
		Storage:     storage,
		Interval:    cfg.SweepInterval,
		BatchSize:   cfg.SweepBatchSize,
		WorkerCount: cfg.SweepWorkers,
		MaxAttempts: cfg.SweepMaxAttempts,
		CallTimeout: cfg.OperationTimeout,
		Metrics:     m,
		Logger:      appLogger,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize media sweeper: %w", err)
	}
	defer sw.Close()

	if once {
		stats, err := sw.SweepOnce(ctx)
		if err != nil {
			return err
		}
		appLogger.Info("Sweep finished", zap.Int("resolved", stats.Resolved), zap.Int("failed", stats.Failed))
		return nil
	}

	go func() {
		if err := metrics.StartMetricsServer(ctx, cfg.SweepMetricsPort, appLogger, m.Registry); err != nil {
			appLogger.Error("Prometheus metrics server failed", zap.Error(err))
		}
	}()

	return sw.Run(ctx)
}
