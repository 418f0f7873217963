package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kkkkikiki/textclaim/internal/config"
	"github.com/kkkkikiki/textclaim/internal/database"
	"github.com/kkkkikiki/textclaim/internal/logging"
	"github.com/kkkkikiki/textclaim/internal/notification"
	"github.com/kkkkikiki/textclaim/internal/repository"
	"github.com/kkkkikiki/textclaim/internal/service"
	"github.com/kkkkikiki/textclaim/internal/transport"
)

func main() {
	ctx := context.Background()

	// Load configuration from environment variables
	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.App, "textclaim")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting textclaim service", zap.String("environment", cfg.App.Environment))

	db, err := database.NewDB(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("error closing database connections", zap.Error(err))
		}
	}()

	store := repository.NewStore(db.Postgres)

	if cfg.Email.APIKey == "" {
		logger.Warn("RESEND_API_KEY not set, completion notifications will stay unsent")
	}
	emailClient := notification.NewEmailClient(&http.Client{Timeout: cfg.Email.RequestTimeout()}, cfg.Email.APIURL)
	dispatcher := notification.NewDispatcher(store, emailClient, cfg.Email, logger.Named("notification"))

	assignmentService := service.NewAssignmentService(store, dispatcher, logger)
	campaignService := service.NewCampaignService(store, logger)

	interceptors := connect.WithInterceptors(transport.NewLoggingInterceptor(logger.Named("rpc")))

	mux := http.NewServeMux()
	mux.Handle(transport.NewAssignmentServiceHandler(transport.NewAssignmentServer(assignmentService), interceptors))
	mux.Handle(transport.NewCampaignServiceHandler(transport.NewCampaignServer(campaignService), interceptors))
	mux.Handle(notification.TriggerPath, notification.NewHandler(dispatcher, logger.Named("trigger")))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		hostname, _ := os.Hostname()
		w.WriteHeader(http.StatusOK)
		response := fmt.Sprintf(`{"status":"ok","service":"textclaim","hostname":"%s"}`, hostname)
		w.Write([]byte(response))
	})

	mux.HandleFunc("/health/db", func(w http.ResponseWriter, r *http.Request) {
		if err := store.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"error","message":"postgres unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","postgres":"connected"}`))
	})

	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:           cfg.Server.GetServerAddr(),
		ReadTimeout:    time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
		// h2c serves HTTP/2 without TLS
		Handler: h2c.NewHandler(mux, &http2.Server{
			MaxConcurrentStreams: 1000,
		}),
	}

	go func() {
		logger.Info("listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
		return
	}

	logger.Info("server exited gracefully")
}
