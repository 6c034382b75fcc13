package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/liormulay/order-processing-system/internal/app"
	"github.com/liormulay/order-processing-system/internal/version"
)

func setupLogger() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.InfoLevel)
}

func main() {
	setupLogger()
	_ = godotenv.Load()

	cfg, err := app.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(log.Fields{
		"group":        cfg.NotificationGroupID,
		"topic":        cfg.InventoryResultsTopic,
		"metrics_addr": cfg.MetricsAddr,
		"version":      version.String(),
	}).Info("starting notification service")

	if err := app.RunNotificationService(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("notification service exited with error")
	}

	log.Info("notification service stopped")
}
