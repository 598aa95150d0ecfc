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

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/segyhp/civic-billing/internal/bootstrap"
	"github.com/segyhp/civic-billing/internal/config"
	"github.com/segyhp/civic-billing/internal/gateway"
	"github.com/segyhp/civic-billing/internal/handler"
	"github.com/segyhp/civic-billing/internal/rate"
	"github.com/segyhp/civic-billing/internal/service"
	"github.com/segyhp/civic-billing/pkg/logger"
	"github.com/segyhp/civic-billing/pkg/response"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	rates, err := cfg.RateTable()
	if err != nil {
		log.Fatal("Invalid rate table", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storage, err := bootstrap.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer storage.Close()

	billingService := service.NewBillingService(
		storage.Citizens,
		storage.Bills,
		storage.Payments,
		storage.Sequences,
		gateway.NewMockGateway(storage.Sequences),
		rate.NewEngine(rates),
		log,
		service.WithSectionWorkers(cfg.Billing.SectionWorkers),
	)
	billingHandler := handler.NewBillingHandler(billingService, log)
	healthHandler := handler.NewHealthHandler(storage.DB, storage.Redis, cfg.GetHealthTimeout())

	router := setupRoutes(billingHandler, healthHandler, log)

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.GetReadTimeout(),
		WriteTimeout: cfg.GetWriteTimeout(),
	}

	// Start server in a goroutine
	go func() {
		log.Info("Server starting",
			zap.String("addr", server.Addr),
			zap.String("storage", cfg.Storage.Driver),
			zap.Int("configured_rates", len(rates)),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	log.Info("Server exited")
}

func setupRoutes(billingHandler *handler.BillingHandler, healthHandler *handler.HealthHandler, log *zap.Logger) *mux.Router {
	router := mux.NewRouter()
	router.Use(response.LoggingMiddleware(log))
	router.Use(response.CORSMiddleware)

	// Health check
	router.HandleFunc("/health", healthHandler.Health).Methods(http.MethodGet)
	router.HandleFunc("/health/ready", healthHandler.Ready).Methods(http.MethodGet)

	// API routes
	billingHandler.RegisterRoutes(router.PathPrefix("/api/v1").Subrouter())

	return router
}
