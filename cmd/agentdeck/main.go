package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	adhttp "github.com/agentdeck/agentdeck/internal/adapter/http"
	admcp "github.com/agentdeck/agentdeck/internal/adapter/mcp"
	adnats "github.com/agentdeck/agentdeck/internal/adapter/nats"
	"github.com/agentdeck/agentdeck/internal/adapter/natskv"
	adotel "github.com/agentdeck/agentdeck/internal/adapter/otel"
	"github.com/agentdeck/agentdeck/internal/adapter/postgres"
	"github.com/agentdeck/agentdeck/internal/adapter/ristretto"
	"github.com/agentdeck/agentdeck/internal/adapter/tiered"
	"github.com/agentdeck/agentdeck/internal/adapter/ws"
	"github.com/agentdeck/agentdeck/internal/config"
	"github.com/agentdeck/agentdeck/internal/logger"
	"github.com/agentdeck/agentdeck/internal/middleware"
	"github.com/agentdeck/agentdeck/internal/port/a2a"
	"github.com/agentdeck/agentdeck/internal/resilience"
	"github.com/agentdeck/agentdeck/internal/service"
)

// version is stamped at release time via -ldflags "-X main.version=...".
var version = "0.1.0"

// anomalySweepInterval is how often flagged days are re-detected and
// broadcast between KPI reads.
const anomalySweepInterval = 10 * time.Minute

func main() {
	// Admin subcommands manage keys, pricing and buckets against the store
	// directly, without binding any ports.
	if len(os.Args) > 1 && os.Args[1] == "admin" {
		if err := runAdmin(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(os.Args[1:]); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags, err := config.ParseFlags(args)
	if err != nil {
		return err
	}
	cfg, yamlPath, err := config.LoadWithCLI(flags)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	holder := config.NewHolder(cfg, yamlPath)

	log, logCloser := logger.New(cfg.Logging)
	slog.SetDefault(log)
	defer logCloser.Close()

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"pg_max_conns", cfg.Postgres.MaxConns,
	)

	ctx := context.Background()

	// --- Infrastructure ---

	// Telemetry
	shutdownOtel, err := adotel.Setup(ctx, cfg.Telemetry, cfg.Logging.Service, version)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOtel(flushCtx); err != nil {
			slog.Error("telemetry shutdown failed", "error", err)
		}
	}()

	metrics, err := adotel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("migrations applied")

	// NATS
	queue, err := adnats.Connect(ctx, cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("nats: %w", err)
	}
	defer func() { _ = queue.Drain() }()

	idemKV, err := queue.KeyValue(ctx, cfg.Idempotency.Bucket, cfg.Idempotency.TTL)
	if err != nil {
		return fmt.Errorf("idempotency bucket: %w", err)
	}
	cacheKV, err := queue.KeyValue(ctx, cfg.Cache.L2Bucket, cfg.Cache.L2TTL)
	if err != nil {
		return fmt.Errorf("cache bucket: %w", err)
	}

	// Two-level cache: in-process ristretto in front of the shared KV
	// bucket. Backfill entries use the tightest service TTL so a snapshot
	// pulled from L2 never outlives its freshness window.
	l1, err := ristretto.New(cfg.Cache.L1MaxSizeMB << 20)
	if err != nil {
		return fmt.Errorf("l1 cache: %w", err)
	}
	defer l1.Close()
	cache := tiered.New(l1, natskv.New(cacheKV), cfg.Cache.KPITTL)

	// --- Services ---

	hub := ws.NewHub()
	store := postgres.NewStore(pool)
	breaker := resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout)

	pricingSvc := service.NewPricingService(store, cache, hub, cfg.Cache.PricingTTL)
	aggSvc := service.NewAggregatorService(store, pricingSvc, &cfg.Analytics)
	budgetSvc := service.NewBudgetService(store, hub, cfg.Budget)
	forecastSvc := service.NewForecastService(store, aggSvc, budgetSvc, &cfg.Analytics)
	anomalySvc := service.NewAnomalyService(aggSvc, hub, metrics, &cfg.Analytics)
	activitySvc := service.NewActivityService(store, queue, hub, pricingSvc, breaker, metrics, &cfg.Analytics)
	kpiSvc := service.NewKPIService(aggSvc, forecastSvc, budgetSvc, anomalySvc, cache, metrics, &cfg.Analytics, cfg.Cache.KPITTL)
	tallySvc := service.NewTallyService(store, queue, hub, metrics)
	ticketSvc := service.NewTicketService(store, aggSvc, hub, metrics)
	agentSvc := service.NewAgentService(store, hub)
	settingsSvc := service.NewSettingsService(store)
	knowledgeSvc := service.NewKnowledgeService(cfg.Knowledge.Dir)
	authSvc := service.NewAuthService(store, &cfg.Auth)

	if n, err := pricingSvc.Seed(ctx); err != nil {
		return fmt.Errorf("seed pricing: %w", err)
	} else if n > 0 {
		slog.Info("pricing seeded", "entries", n)
	}

	// Tally consumers fold recorded activity into the daily buckets.
	cancels, err := tallySvc.StartSubscribers(ctx)
	if err != nil {
		return fmt.Errorf("tally subscribers: %w", err)
	}
	defer func() {
		for _, cancel := range cancels {
			cancel()
		}
	}()

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	anomalySvc.StartSweep(sweepCtx, anomalySweepInterval)

	limiter := middleware.NewRateLimiter(cfg.Rate.RequestsPerSecond, cfg.Rate.Burst)
	defer limiter.StartCleanup(cfg.Rate.CleanupInterval, cfg.Rate.MaxIdleTime)()

	// --- HTTP ---

	handlers := &adhttp.Handlers{
		Activities: activitySvc,
		Aggregator: aggSvc,
		KPIs:       kpiSvc,
		Forecasts:  forecastSvc,
		Anomalies:  anomalySvc,
		Tally:      tallySvc,
		Tickets:    ticketSvc,
		Agents:     agentSvc,
		Pricing:    pricingSvc,
		Budgets:    budgetSvc,
		Settings:   settingsSvc,
		Knowledge:  knowledgeSvc,
		Auth:       authSvc,
		Hub:        hub,
		DB:         pool,
		Queue:      queue,
		Limits:     cfg.Limits,
		Version:    version,
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(adotel.HTTPMiddleware(cfg.Logging.Service))
	r.Use(adhttp.Logger)
	r.Use(adhttp.SecurityHeaders)
	r.Use(adhttp.CORS(cfg.Server.CORSOrigin))
	r.Use(middleware.Auth(authSvc, cfg.Auth.Enabled))
	r.Use(limiter.Handler)
	r.Use(middleware.Idempotency(idemKV))

	adhttp.MountRoutes(r, handlers)

	// A2A surface: agent card plus synchronous cost-question tasks.
	a2aHandler := a2a.NewHandler(
		&costAnswerer{kpis: kpiSvc, agg: aggSvc, anomalies: anomalySvc},
		cfg.Server.BaseURL, version,
	)
	a2aHandler.MountRoutes(r)

	// MCP sidecar
	if cfg.MCP.Enabled {
		mcpSrv := admcp.NewServer(admcp.ServerConfig{
			Addr:    cfg.MCP.Addr,
			Name:    "agentdeck",
			Version: version,
			APIKey:  cfg.MCP.APIKey,
		}, admcp.ServerDeps{
			KPIs:      kpiSvc,
			Costs:     aggSvc,
			Tickets:   ticketSvc,
			Anomalies: anomalySvc,
			Prices:    pricingSvc,
		})
		if err := mcpSrv.Start(); err != nil {
			return fmt.Errorf("mcp: %w", err)
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := mcpSrv.Stop(stopCtx); err != nil {
				slog.Error("mcp shutdown failed", "error", err)
			}
		}()
	}

	// SIGHUP re-reads the config file; only the log level applies to a
	// running process, everything else needs a restart.
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	go func() {
		for range hup {
			if err := holder.Reload(); err != nil {
				slog.Error("config reload failed", "error", err)
				continue
			}
			logger.SetLevel(holder.Get().Logging.Level)
			slog.Info("config reloaded", "log_level", holder.Get().Logging.Level)
		}
	}()

	addr := ":" + cfg.Server.Port

	// No global write timeout: /ws connections are long-lived and a write
	// deadline would sever the event stream.
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
		}
	}()

	<-done
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
