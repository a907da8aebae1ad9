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

	"github.com/joho/godotenv"

	"consentflow/internal/mockapi"
	"consentflow/internal/platform/config"
	"consentflow/internal/platform/httpserver"
	"consentflow/internal/platform/logger"
	"consentflow/internal/retry"
)

// main serves the downstream stand-in used for local runs and demos.
func main() {
	_ = godotenv.Load()

	cfg, err := config.MockAPIFromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.WithComponent(logger.New(cfg.Log), "mockapi")

	if err := run(cfg, log); err != nil {
		log.Error("mock api stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.MockAPI, log *slog.Logger) error {
	policy := retry.DefaultPolicy()
	if cfg.RetryPolicyFile != "" {
		p, err := retry.LoadPolicy(cfg.RetryPolicyFile)
		if err != nil {
			return err
		}
		policy = p
	}

	users, err := mockapi.DefaultUsers()
	if cfg.UsersFile != "" {
		users, err = mockapi.LoadUsers(cfg.UsersFile)
	}
	if err != nil {
		return err
	}

	server, err := mockapi.New(users, policy,
		mockapi.WithLogger(log),
		mockapi.WithPollCountdown(cfg.PollCountdown),
		mockapi.WithMinimumAge(cfg.MinimumAge),
	)
	if err != nil {
		return err
	}

	srv := httpserver.New(cfg.Addr, server.Handler(), 30*time.Second)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting mock api", "addr", cfg.Addr, "users", len(users))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
