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
	"googlemaps.github.io/maps"

	"github.com/shiva/wayfarer/config"
	"github.com/shiva/wayfarer/internal/catalog"
	"github.com/shiva/wayfarer/internal/gateway"
	"github.com/shiva/wayfarer/internal/handler"
	"github.com/shiva/wayfarer/internal/middleware"
	"github.com/shiva/wayfarer/internal/report"
	"github.com/shiva/wayfarer/internal/repository"
	"github.com/shiva/wayfarer/internal/service"
	"github.com/shiva/wayfarer/pkg/cache"
	"github.com/shiva/wayfarer/pkg/db"
)

const version = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ── Load configuration ──────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Telemetry.LogLevel}))
	slog.SetDefault(logger)

	if err := report.SetupSentry(cfg.Telemetry.SentryDSN, cfg.Telemetry.Env, version); err != nil {
		logger.Warn("sentry disabled", "error", err)
	}
	report.ConfigureScope(cfg.Telemetry.Env, version)
	defer report.FlushSentry()

	// ── Connect to PostgreSQL ───────────────────────────
	pgPool, err := db.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	defer pgPool.Close()
	if err := db.Migrate(ctx, pgPool); err != nil {
		return err
	}
	logger.Info("postgres connected", "host", cfg.Postgres.Host)

	// ── Connect to Redis ────────────────────────────────
	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer redisClient.Close()
	logger.Info("redis connected", "addr", cfg.Redis.Addr())

	// ── Upstreams ───────────────────────────────────────
	httpClient := gateway.NewPooledClient(cfg.Providers.Timeout)

	var (
		relayDirections service.RelayDirections
		relayGenerator  service.Generator
		mapsDirections  service.ModeDirections
		genaiGenerator  service.TextGenerator
	)
	if cfg.Providers.RelayBaseURL != "" {
		relay := gateway.NewRelayClient(cfg.Providers.RelayBaseURL, httpClient)
		relayDirections, relayGenerator = relay, relay
		logger.Info("relay enabled", "url", cfg.Providers.RelayBaseURL)
	}
	if m, err := gateway.NewMapsDirections(cfg.Providers.MapsAPIKey, maps.WithHTTPClient(httpClient)); err == nil {
		mapsDirections = m
	} else {
		logger.Info("direct directions provider disabled", "reason", err)
	}
	if g, err := gateway.NewGenAIClient(ctx, cfg.Providers.GenAIBaseURL, cfg.Providers.GenAIModel, cfg.Providers.GenAIAPIKey, httpClient); err == nil {
		genaiGenerator = g
	} else {
		logger.Info("direct generative provider disabled", "reason", err)
	}

	// ── Initialize layers ───────────────────────────────
	planRepo := repository.NewPlanRepository(pgPool)
	sessionRepo := repository.NewSessionRepository(redisClient)
	directionsCache := repository.NewDirectionsCache(redisClient, logger)

	directionsSvc := service.NewDirectionsService(relayDirections, mapsDirections, logger,
		service.WithDirectionsCache(directionsCache),
		service.WithProviderTimeout(cfg.Providers.Timeout),
	)
	itinerarySvc := service.NewItineraryService(relayGenerator, genaiGenerator, cfg.Providers.Timeout, logger)
	planSvc := service.NewPlanService(planRepo, logger)
	planningSvc := service.NewPlanningService(sessionRepo, planSvc, itinerarySvc, catalog.Lookup, logger)
	routeSvc := service.NewRouteService(planSvc, directionsSvc, catalog.Place, logger)

	router := handler.NewRouter(handler.Handlers{
		Directions:  handler.NewDirectionsHandler(directionsSvc),
		Itineraries: handler.NewItineraryHandler(itinerarySvc, logger),
		Planning:    handler.NewPlanningHandler(planningSvc, logger),
		Plans:       handler.NewPlanHandler(planSvc, routeSvc, logger),
		Health: handler.HealthHandler(map[string]handler.HealthCheck{
			"postgres": func(ctx context.Context) error { return db.HealthCheck(ctx, pgPool) },
			"redis":    func(ctx context.Context) error { return cache.HealthCheck(ctx, redisClient) },
		}),
	})

	// ── Start HTTP server ───────────────────────────────
	srv := &http.Server{
		Addr: cfg.Server.ServerAddr(),
		Handler: middleware.Chain(router,
			middleware.Sentry,
			middleware.Recoverer(logger),
			middleware.RequestLogger(logger),
			middleware.CORS(cfg.Server.AllowOrigin),
		),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", "addr", srv.Addr, "env", cfg.Telemetry.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// ── Graceful shutdown ───────────────────────────────
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
