package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/sirupsen/logrus"

	"github.com/segyhp/property-engine/internal/config"
	"github.com/segyhp/property-engine/internal/handler"
	"github.com/segyhp/property-engine/internal/repository"
	"github.com/segyhp/property-engine/internal/service"
	"github.com/segyhp/property-engine/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	log, closer := logger.New(cfg.Logging)
	defer closer.Close()

	ctx := context.Background()
	stores, err := repository.Open(ctx, cfg, log)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer stores.Close()

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      newHTTPHandler(cfg, stores, log),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in a goroutine
	go func() {
		log.WithFields(logrus.Fields{
			"addr":   server.Addr,
			"driver": cfg.Database.Driver,
			"cache":  stores.CacheEnabled,
		}).Info("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server forced to shutdown")
		return
	}

	log.Info("server exited")
}

// newHTTPHandler wires services and handlers over stores and wraps the
// router with panic recovery and CORS.
func newHTTPHandler(cfg *config.Config, stores *repository.Stores, log *logrus.Logger) http.Handler {
	bookingService := service.NewBookingService(stores.Bookings, stores.Cache, cfg.Cache, log)
	reviewService := service.NewReviewService(stores.Reviews, stores.Bookings, log)
	calculatorService := service.NewCalculatorService(stores.Cache, cfg.Cache, log)

	checks := map[string]handler.Pinger{"store": stores.Bookings}
	if stores.CacheEnabled {
		checks["redis"] = stores.Cache
	}

	router := handler.NewRouter(handler.Handlers{
		Auth:       handler.NewAuthenticator(cfg.Auth, log),
		Booking:    handler.NewBookingHandler(bookingService, log),
		Review:     handler.NewReviewHandler(reviewService, log),
		Calculator: handler.NewCalculatorHandler(calculatorService, log),
		Admin:      handler.NewAdminHandler(bookingService, reviewService, log),
		Health:     handler.NewHealthHandler(checks, cfg.Health.Timeout, log),
	}, log)

	headersOk := gorillaHandlers.AllowedHeaders([]string{"X-Requested-With", "Authorization", "Content-Type"})
	originsOk := gorillaHandlers.AllowedOrigins(cfg.CORS.AllowedOrigins)
	methodsOk := gorillaHandlers.AllowedMethods([]string{"GET", "HEAD", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	exposedOk := gorillaHandlers.ExposedHeaders([]string{"Content-Disposition"})

	recovery := gorillaHandlers.RecoveryHandler(
		gorillaHandlers.RecoveryLogger(log),
		gorillaHandlers.PrintRecoveryStack(!cfg.IsProduction()),
	)

	return recovery(gorillaHandlers.CORS(originsOk, headersOk, methodsOk, exposedOk)(router))
}
