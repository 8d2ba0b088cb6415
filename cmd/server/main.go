// Package main runs the teamshop server: the HTTP API, the websocket event
// stream, and whichever list store the configuration selects.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/teamshop/teamshop/internal/app"
	"github.com/teamshop/teamshop/internal/app/httpapi"
	"github.com/teamshop/teamshop/internal/app/storage"
	"github.com/teamshop/teamshop/internal/app/storage/postgres"
	"github.com/teamshop/teamshop/internal/config"
	"github.com/teamshop/teamshop/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// Optional; a missing .env is not an error.
	_ = godotenv.Load()

	cfg := config.LoadOrDefault(*configPath)

	log := logger.New("server", logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	store, cleanup, err := openStore(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to open store")
	}
	defer cleanup()

	application := app.New(store, log)
	handler := httpapi.NewHandler(application, httpapi.Options{
		MutationRateLimit: cfg.MutationRateLimit,
		MutationBurst:     cfg.MutationBurst,
	})

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}

	go func() {
		log.WithField("addr", cfg.Addr).Info("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server error")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("shutdown error")
	}
	log.Info("stopped")
}

// openStore picks the PostgreSQL store when DATABASE_URL is configured and
// falls back to the in-memory store otherwise.
func openStore(cfg config.Config, log *logger.Logger) (storage.ListStore, func(), error) {
	if cfg.DatabaseURL == "" {
		log.Info("no database configured, using in-memory store")
		return storage.NewMemory(), func() {}, nil
	}

	pg, err := postgres.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	log.Info("connected to postgres")
	return pg, func() {
		if err := pg.Close(); err != nil {
			log.WithError(err).Warn("closing store")
		}
	}, nil
}
