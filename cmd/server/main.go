package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Abdurahmanit/rental-listing-service/internal/app"
	"github.com/Abdurahmanit/rental-listing-service/internal/config"
	"github.com/Abdurahmanit/rental-listing-service/internal/platform/logger"
	"go.uber.org/zap"
)

func main() {
	appLogger := logger.NewLogger(nil)
	defer func() { _ = appLogger.Sync() }()

	cfg, err := config.LoadConfig(appLogger)
	if err != nil {
		appLogger.Fatal("Failed to load configuration", zap.Error(err))
	}
	_ = appLogger.Sync()
	appLogger = logger.NewLogger(cfg.Logging()).Named(cfg.ServiceName)
	appLogger.Info("Application starting...", zap.String("http_port", cfg.HTTPPort))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize application", zap.Error(err))
	}

	if err := application.Run(ctx); err != nil {
		appLogger.Error("Application stopped with error", zap.Error(err))
		stop()
		_ = appLogger.Sync()
		os.Exit(1)
	}
}
