// Command reconcile runs one reconciliation pass: texts claimed by
// assignment attempts that never linked them are released, and completion
// notifications that were never delivered are sent again.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/kkkkikiki/textclaim/internal/config"
	"github.com/kkkkikiki/textclaim/internal/database"
	"github.com/kkkkikiki/textclaim/internal/logging"
	"github.com/kkkkikiki/textclaim/internal/notification"
	"github.com/kkkkikiki/textclaim/internal/repository"
	"github.com/kkkkikiki/textclaim/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.App, "textclaim-reconcile")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	db, err := database.NewDB(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	store := repository.NewStore(db.Postgres)
	emailClient := notification.NewEmailClient(&http.Client{Timeout: cfg.Email.RequestTimeout()}, cfg.Email.APIURL)
	dispatcher := notification.NewDispatcher(store, emailClient, cfg.Email, logger.Named("notification"))

	reconciler := service.NewReconciler(store, dispatcher,
		cfg.Reconcile.GracePeriod(), cfg.Reconcile.ResendNotifications, logger)

	report, err := reconciler.Run(ctx)
	if err != nil {
		logger.Error("reconciliation failed", zap.Error(err))
		db.Close()
		os.Exit(1)
	}

	logger.Info("reconciliation report",
		zap.Int64("released_texts", report.ReleasedTexts),
		zap.Int("notifications_sent", report.NotificationsSent),
		zap.Int("notifications_failed", report.NotificationsFailed),
		zap.Bool("notifications_skipped", report.NotificationsSkipped))
}
