// main is the entry point of the users API.
//
// STARTUP SEQUENCE:
//  1. Load configuration (YAML file, .env, environment)
//  2. Initialise the logger
//  3. Connect to the configured database and create the users table
//  4. Build the password hasher and token issuer
//  5. Register all HTTP routes
//  6. Serve until SIGINT/SIGTERM, then shut down gracefully
//
// RUNNING THE SERVER:
//
//	go run ./cmd/users-api --config=config/local.yaml
//
// or:
//
//	CONFIG_PATH=config/local.yaml go run ./cmd/users-api
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

	"github.com/andrestovio/module10-is601/internal/config"
	"github.com/andrestovio/module10-is601/internal/http/router"
	"github.com/andrestovio/module10-is601/internal/logger"
	"github.com/andrestovio/module10-is601/internal/security"
	"github.com/andrestovio/module10-is601/internal/storage/backend"
)

const version = "1.0.0"

func main() {
	cfg := config.MustLoad()
	log := logger.New(cfg.Env)
	slog.SetDefault(log)

	if err := cfg.ValidateServer(); err != nil {
		log.Error("invalid server configuration", logger.Err(err))
		os.Exit(1)
	}

	log.Info("starting users-api",
		slog.String("env", cfg.Env),
		slog.String("version", version),
		slog.String("db_driver", cfg.Database.Driver),
		slog.String("salt", config.MaskSecret(cfg.Salt)),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	store, err := backend.Open(ctx, cfg.Database)
	cancel()
	if err != nil {
		log.Error("failed to initialise storage", logger.Err(err))
		os.Exit(1)
	}
	defer store.Close()
	log.Info("storage initialised", slog.String("driver", cfg.Database.Driver))

	hasher, err := security.NewHasher(cfg.Salt)
	if err != nil {
		log.Error("failed to initialise password hasher", logger.Err(err))
		os.Exit(1)
	}
	tokens, err := security.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	if err != nil {
		log.Error("failed to initialise token issuer", logger.Err(err))
		os.Exit(1)
	}

	server := &http.Server{
		Addr: cfg.HTTPServer.Addr,
		Handler: router.New(router.Deps{
			Store:          store,
			Credentials:    hasher,
			Tokens:         tokens,
			Log:            log,
			LoginRateLimit: cfg.Auth.LoginRateLimit,
			LoginWindow:    time.Minute,
		}),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// ListenAndServe blocks, so it runs in its own goroutine and main waits
	// for a signal below.
	serverErr := make(chan error, 1)
	go func() {
		log.Info("server started", slog.String("address", cfg.HTTPServer.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	select {
	case <-done:
		log.Info("shutdown signal received, stopping server...")
	case err := <-serverErr:
		log.Error("server encountered an error", logger.Err(err))
		store.Close()
		os.Exit(1)
	}

	// Give in-flight requests up to 5 seconds to finish.
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shutdown server gracefully", logger.Err(err))
		store.Close()
		os.Exit(1)
	}

	log.Info("server stopped gracefully")
}
