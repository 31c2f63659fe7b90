// Command mock-backend serves the shop API from memory, for local runs of
// the storefront client.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjod/go_cart/storefront/internal/api"
	"github.com/fjod/go_cart/storefront/internal/backend"
	"github.com/fjod/go_cart/storefront/internal/config"
	"github.com/fjod/go_cart/storefront/pkg/logger"
)

const (
	demoEmail       = "demo@example.com"
	demoPassword    = "demo123"
	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Service: "mock-backend",
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  "json",
	})

	fee := cfg.Client.ShippingFee
	srv := backend.NewServer(backend.Config{
		JWTSecret:   cfg.Backend.JWTSecret,
		AccessTTL:   cfg.Backend.AccessTTL,
		ShippingFee: &fee,
		Logger:      log,
	})
	if _, err := srv.SeedUser(demoEmail, demoPassword, api.ProfileResponse{
		FirstName:     "Demo",
		LastName:      "Shopper",
		Address:       "221B Baker Street, London",
		ContactNumber: "+44 20 7946 0000",
	}); err != nil {
		log.Error("failed to seed demo user", slog.Any("error", err))
		os.Exit(1)
	}

	httpSrv := &http.Server{
		Addr:         ":" + cfg.Backend.Port,
		Handler:      srv.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("mock backend starting",
			slog.String("addr", httpSrv.Addr),
			slog.String("demo_user", demoEmail))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpSrv.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", slog.Any("error", err))
		os.Exit(1)
	}
	log.Info("server exited")
}
