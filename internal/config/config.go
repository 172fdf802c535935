package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/Abdurahmanit/rental-listing-service/internal/platform/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const insecureJWTSecret = "change-me-listing-service-secret"

// Config holds all configuration for the listing service and the media sweeper.
type Config struct {
	ServiceName string `mapstructure:"SERVICE_NAME"`
	HTTPPort    string `mapstructure:"HTTP_PORT"`

	MongoURI            string        `mapstructure:"MONGO_URI"`
	MongoDatabase       string        `mapstructure:"MONGO_DATABASE"`
	MongoConnectTimeout time.Duration `mapstructure:"MONGO_CONNECT_TIMEOUT"`

	RedisAddress       string        `mapstructure:"REDIS_ADDRESS"`
	RedisPassword      string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB            int           `mapstructure:"REDIS_DB"`
	ListingCacheTTL    time.Duration `mapstructure:"LISTING_CACHE_TTL"`
	RevocationCacheTTL time.Duration `mapstructure:"REVOCATION_CACHE_TTL"`

	NATSURL string `mapstructure:"NATS_URL"`

	JWTSecret      string `mapstructure:"JWT_SECRET"`
	AuthCookieName string `mapstructure:"AUTH_COOKIE_NAME"`

	StorageEndpoint        string `mapstructure:"STORAGE_ENDPOINT"`
	StorageAccessKeyID     string `mapstructure:"STORAGE_ACCESS_KEY_ID"`
	StorageSecretAccessKey string `mapstructure:"STORAGE_SECRET_ACCESS_KEY"`
	StorageBucket          string `mapstructure:"STORAGE_BUCKET"`
	StorageRegion          string `mapstructure:"STORAGE_REGION"`
	StorageUseSSL          bool   `mapstructure:"STORAGE_USE_SSL"`
	StoragePublicEndpoint  string `mapstructure:"STORAGE_PUBLIC_ENDPOINT"`
	StorageCreateBucket    bool   `mapstructure:"STORAGE_CREATE_BUCKET"`

	OperationTimeout time.Duration `mapstructure:"OPERATION_TIMEOUT"`
	UploadTimeout    time.Duration `mapstructure:"UPLOAD_TIMEOUT"`

	MediaMaxFiles    int   `mapstructure:"MEDIA_MAX_FILES"`
	MediaMaxFileSize int64 `mapstructure:"MEDIA_MAX_FILE_SIZE"`
	// upper bound on media one request buffers in memory
	MediaMaxRequestSize int64 `mapstructure:"MEDIA_MAX_REQUEST_SIZE"`
	MediaDeleteWorkers  int   `mapstructure:"MEDIA_DELETE_WORKERS"`

	CORSAllowedOrigins []string `mapstructure:"CORS_ALLOWED_ORIGINS"`

	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPEmail    string `mapstructure:"SMTP_EMAIL"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`

	PrometheusMetricsPort  string `mapstructure:"PROMETHEUS_METRICS_PORT"`
	LogLevel               string `mapstructure:"LOG_LEVEL"`
	LogFormat              string `mapstructure:"LOG_FORMAT"`
	LogOutputFile          string `mapstructure:"LOG_OUTPUT_FILE"`
	OTExporterOTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	SweepInterval    time.Duration `mapstructure:"SWEEP_INTERVAL"`
	SweepBatchSize   int           `mapstructure:"SWEEP_BATCH_SIZE"`
	SweepMaxAttempts int           `mapstructure:"SWEEP_MAX_ATTEMPTS"`
	SweepWorkers     int           `mapstructure:"SWEEP_WORKERS"`
	SweepMetricsPort string        `mapstructure:"SWEEP_METRICS_PORT"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVICE_NAME", "listing-service")
	v.SetDefault("HTTP_PORT", "8080")

	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DATABASE", "rental_listings")
	v.SetDefault("MONGO_CONNECT_TIMEOUT", 10*time.Second)

	v.SetDefault("REDIS_ADDRESS", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("LISTING_CACHE_TTL", 5*time.Minute)
	v.SetDefault("REVOCATION_CACHE_TTL", 10*time.Minute)

	v.SetDefault("NATS_URL", "nats://localhost:4222")

	v.SetDefault("JWT_SECRET", insecureJWTSecret)
	v.SetDefault("AUTH_COOKIE_NAME", "token")

	v.SetDefault("STORAGE_ENDPOINT", "localhost:9000")
	v.SetDefault("STORAGE_ACCESS_KEY_ID", "")
	v.SetDefault("STORAGE_SECRET_ACCESS_KEY", "")
	v.SetDefault("STORAGE_BUCKET", "listings")
	v.SetDefault("STORAGE_REGION", "auto")
	v.SetDefault("STORAGE_USE_SSL", false)
	v.SetDefault("STORAGE_PUBLIC_ENDPOINT", "")
	v.SetDefault("STORAGE_CREATE_BUCKET", false)

	v.SetDefault("OPERATION_TIMEOUT", 30*time.Second)
	v.SetDefault("UPLOAD_TIMEOUT", 5*time.Minute)

	v.SetDefault("MEDIA_MAX_FILES", 20)
	v.SetDefault("MEDIA_MAX_FILE_SIZE", int64(500<<20))
	v.SetDefault("MEDIA_MAX_REQUEST_SIZE", int64(1<<30))
	v.SetDefault("MEDIA_DELETE_WORKERS", 8)

	v.SetDefault("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"})

	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_EMAIL", "")
	v.SetDefault("SMTP_PASSWORD", "")

	v.SetDefault("PROMETHEUS_METRICS_PORT", "9094")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("LOG_OUTPUT_FILE", "stdout")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	v.SetDefault("SWEEP_INTERVAL", time.Minute)
	v.SetDefault("SWEEP_BATCH_SIZE", 100)
	v.SetDefault("SWEEP_MAX_ATTEMPTS", 10)
	v.SetDefault("SWEEP_WORKERS", 4)
	v.SetDefault("SWEEP_METRICS_PORT", "9095")
}

// LoadConfig reads configuration from the environment, after loading a .env file if one exists.
func LoadConfig(appLogger *logger.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		appLogger.Warn("Error loading .env file", zap.Error(err))
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.JWTSecret == insecureJWTSecret {
		appLogger.Warn("JWT_SECRET is set to its default insecure value. Please set a strong secret in your environment.")
	}

	appLogger.Debug("Configuration loaded",
		zap.String("service_name", cfg.ServiceName),
		zap.String("http_port", cfg.HTTPPort),
		zap.Bool("mongo_uri_present", cfg.MongoURI != ""),
		zap.String("mongo_database", cfg.MongoDatabase),
		zap.String("redis_address", cfg.RedisAddress),
		zap.String("nats_url", cfg.NATSURL),
		zap.String("storage_endpoint", cfg.StorageEndpoint),
		zap.String("storage_bucket", cfg.StorageBucket),
		zap.Duration("operation_timeout", cfg.OperationTimeout),
		zap.String("prometheus_port", cfg.PrometheusMetricsPort),
		zap.String("log_level", cfg.LogLevel),
		zap.String("otel_endpoint", cfg.OTExporterOTLPEndpoint),
	)

	return &cfg, nil
}

// Logging returns the logger settings loaded with the rest of the configuration.
func (c *Config) Logging() *logger.LoggerConfig {
	return &logger.LoggerConfig{Level: c.LogLevel, Format: c.LogFormat, OutputFile: c.LogOutputFile}
}

// Validate checks the values the service cannot start without.
func (c *Config) Validate() error {
	switch {
	case c.JWTSecret == "":
		return errors.New("JWT_SECRET is not set")
	case c.MongoURI == "":
		return errors.New("MONGO_URI is not set")
	case c.MongoDatabase == "":
		return errors.New("MONGO_DATABASE is not set")
	case c.StorageBucket == "":
		return errors.New("STORAGE_BUCKET is not set")
	case c.OperationTimeout <= 0 || c.UploadTimeout <= 0:
		return errors.New("OPERATION_TIMEOUT and UPLOAD_TIMEOUT must be positive")
	case c.MediaMaxFiles <= 0 || c.MediaMaxFileSize <= 0:
		return errors.New("MEDIA_MAX_FILES and MEDIA_MAX_FILE_SIZE must be positive")
	case c.MediaMaxRequestSize < 0:
		return errors.New("MEDIA_MAX_REQUEST_SIZE must not be negative")
	}
	return nil
}
