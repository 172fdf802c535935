package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	natsadapter "github.com/Abdurahmanit/rental-listing-service/internal/adapter/messaging/nats"
	"github.com/Abdurahmanit/rental-listing-service/internal/adapter/repository/cache"
	"github.com/Abdurahmanit/rental-listing-service/internal/adapter/repository/mongodb"
	"github.com/Abdurahmanit/rental-listing-service/internal/adapter/rest"
	"github.com/Abdurahmanit/rental-listing-service/internal/adapter/storage/s3"
	"github.com/Abdurahmanit/rental-listing-service/internal/auth"
	"github.com/Abdurahmanit/rental-listing-service/internal/config"
	"github.com/Abdurahmanit/rental-listing-service/internal/listing/domain"
	"github.com/Abdurahmanit/rental-listing-service/internal/listing/usecase"
	"github.com/Abdurahmanit/rental-listing-service/internal/mailer"
	"github.com/Abdurahmanit/rental-listing-service/internal/platform/logger"
	"github.com/Abdurahmanit/rental-listing-service/internal/platform/metrics"
	"github.com/Abdurahmanit/rental-listing-service/internal/platform/tracer"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

// App owns the listing service's connections and its HTTP server.
type App struct {
	cfg *config.Config
	log *logger.Logger

	server  *http.Server
	usecase *usecase.ListingUsecase
	metrics *metrics.MetricsManager

	mongoClient    *mongo.Client
	redisClient    *redis.Client
	publisher      *natsadapter.Publisher
	tracerProvider *sdktrace.TracerProvider
}

// New connects to every backing service and assembles the HTTP server.
// MongoDB and the object store are required; Redis, NATS and SMTP are optional and
// the service runs without them when they are unavailable or unconfigured.
func New(ctx context.Context, cfg *config.Config, appLogger *logger.Logger) (*App, error) {
	a := &App{cfg: cfg, log: appLogger}

	tp, err := tracer.InitTracer(ctx, cfg.ServiceName, cfg.OTExporterOTLPEndpoint, appLogger)
	if err != nil {
		appLogger.Warn("Tracing disabled", zap.Error(err))
	}
	a.tracerProvider = tp

	a.metrics = metrics.NewMetricsManager(cfg.ServiceName)

	appLogger.Info("Connecting to MongoDB...", zap.String("database", cfg.MongoDatabase))
	a.mongoClient, err = mongodb.Connect(ctx, cfg.MongoURI, cfg.MongoConnectTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	db := a.mongoClient.Database(cfg.MongoDatabase)
	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		a.close(ctx)
		return nil, fmt.Errorf("failed to ensure MongoDB indexes: %w", err)
	}
	appLogger.Info("MongoDB connected")

	storage, err := s3.NewS3Storage(storageOptions(cfg), appLogger)
	if err != nil {
		a.close(ctx)
		return nil, fmt.Errorf("failed to initialize object storage: %w", err)
	}
	if cfg.StorageCreateBucket {
		if err := storage.EnsureBucket(ctx); err != nil {
			a.close(ctx)
			return nil, fmt.Errorf("failed to ensure storage bucket: %w", err)
		}
	}

	listings := mongodb.NewListingRepository(db, appLogger)
	users := mongodb.NewUserRepository(db, appLogger)
	var blacklist domain.TokenBlacklist = mongodb.NewBlacklistRepository(db)

	ucCfg := usecase.Config{
		Listings:         listings,
		Users:            users,
		Cleanup:          mongodb.NewCleanupIntentRepository(db),
		Storage:          storage,
		Metrics:          a.metrics,
		DeleteWorkers:    cfg.MediaDeleteWorkers,
		OperationTimeout: cfg.OperationTimeout,
		UploadTimeout:    cfg.UploadTimeout,
		Logger:           appLogger,
	}

	if cfg.RedisAddress != "" {
		a.redisClient, err = cache.NewRedisClient(ctx, cache.RedisOptions{
			Address:  cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			appLogger.Warn("Redis unavailable, running without caches", zap.String("address", cfg.RedisAddress), zap.Error(err))
			a.redisClient = nil
		} else {
			ucCfg.Cache = cache.NewListingCache(a.redisClient, cfg.ListingCacheTTL)
			blacklist = cache.NewRevocationCache(a.redisClient, blacklist, cfg.RevocationCacheTTL, appLogger)
			appLogger.Info("Redis connected", zap.String("address", cfg.RedisAddress))
		}
	}

	if cfg.NATSURL != "" {
		a.publisher, err = natsadapter.NewPublisher(cfg.NATSURL, appLogger, cfg.ServiceName)
		if err != nil {
			appLogger.Warn("NATS unavailable, listing events will not be published", zap.String("url", cfg.NATSURL), zap.Error(err))
			a.publisher = nil
		} else {
			ucCfg.Events = a.publisher
		}
	}

	if cfg.SMTPHost != "" && cfg.SMTPEmail != "" {
		ucCfg.Notifier = mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPEmail, cfg.SMTPPassword)
	} else {
		appLogger.Info("SMTP not configured, listing notifications disabled")
	}

	a.usecase, err = usecase.NewListingUsecase(ucCfg)
	if err != nil {
		a.close(ctx)
		return nil, fmt.Errorf("failed to initialize listing usecase: %w", err)
	}

	gate := auth.NewGate(cfg.JWTSecret, users, blacklist, appLogger)
	handler := rest.NewListingHandler(a.usecase, rest.FormLimits{
		MaxFiles:     cfg.MediaMaxFiles,
		MaxFileSize:  cfg.MediaMaxFileSize,
		MaxTotalSize: cfg.MediaMaxRequestSize,
	}, a.metrics, appLogger)

	a.server = &http.Server{
		Addr: ":" + cfg.HTTPPort,
		Handler: rest.NewRouter(rest.RouterConfig{
			Handler:        handler,
			Auth:           gate,
			CookieName:     cfg.AuthCookieName,
			AllowedOrigins: cfg.CORSAllowedOrigins,
			ServiceName:    cfg.ServiceName,
			Metrics:        a.metrics,
			Logger:         appLogger,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

// Run serves HTTP and metrics until ctx is cancelled, then shuts everything down.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.log.Info("HTTP server starting", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	go func() {
		if err := metrics.StartMetricsServer(ctx, a.cfg.PrometheusMetricsPort, a.log, a.metrics.Registry); err != nil {
			a.log.Error("Prometheus metrics server failed", zap.Error(err))
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info("Shutdown signal received, shutting down")
	case err := <-errCh:
		a.log.Error("HTTP server failed", zap.Error(err))
		runErr = fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.log.Error("Error during HTTP server graceful shutdown", zap.Error(err))
	} else {
		a.log.Info("HTTP server stopped")
	}
	a.close(shutdownCtx)

	a.log.Info("Application shut down successfully")
	return runErr
}

func (a *App) close(ctx context.Context) {
	if a.usecase != nil {
		a.usecase.Close()
	}
	if a.publisher != nil {
		a.publisher.Close()
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.log.Error("Error closing Redis client", zap.Error(err))
		}
	}
	if a.mongoClient != nil {
		if err := a.mongoClient.Disconnect(ctx); err != nil {
			a.log.Error("Error disconnecting from MongoDB", zap.Error(err))
		}
	}
	if a.tracerProvider != nil {
		if err := a.tracerProvider.Shutdown(ctx); err != nil {
			a.log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}
}

func storageOptions(cfg *config.Config) s3.Options {
	return s3.Options{
		Endpoint:        cfg.StorageEndpoint,
		AccessKeyID:     cfg.StorageAccessKeyID,
		SecretAccessKey: cfg.StorageSecretAccessKey,
		Bucket:          cfg.StorageBucket,
		Region:          cfg.StorageRegion,
		UseSSL:          cfg.StorageUseSSL,
		PublicEndpoint:  cfg.StoragePublicEndpoint,
	}
}
