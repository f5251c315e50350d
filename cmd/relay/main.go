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

	"golang.org/x/sync/errgroup"

	"github.com/shiva/wayfarer/config"
	"github.com/shiva/wayfarer/internal/gateway"
	"github.com/shiva/wayfarer/internal/relay"
	"github.com/shiva/wayfarer/internal/report"
)

const version = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("relay exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.LoadRelay()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	if err := report.SetupSentry(cfg.SentryDSN, cfg.Env, version); err != nil {
		logger.Warn("sentry disabled", "error", err)
	}
	report.ConfigureScope(cfg.Env, version)
	defer report.FlushSentry()

	if !gateway.UsableAPIKey(cfg.MapsAPIKey) {
		logger.Warn("MAPS_API_KEY missing or placeholder; /directions will answer 503")
	}
	if !gateway.UsableAPIKey(cfg.GenAIAPIKey) {
		logger.Warn("GENAI_API_KEY missing or placeholder; /generate will answer 503")
	}

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      relay.NewServer(cfg, gateway.NewPooledClient(cfg.Timeout), logger).Routes(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: cfg.Timeout + 5*time.Second,
		IdleTimeout:  time.Minute,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("relay listening", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
