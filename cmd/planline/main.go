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

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/planline-io/planline/internal/auth"
	"github.com/planline-io/planline/internal/availability"
	"github.com/planline-io/planline/internal/capacity"
	"github.com/planline-io/planline/internal/changelog"
	"github.com/planline-io/planline/internal/config"
	"github.com/planline-io/planline/internal/model"
	"github.com/planline-io/planline/internal/ratelimit"
	"github.com/planline-io/planline/internal/server"
	"github.com/planline-io/planline/internal/storage"
	"github.com/planline-io/planline/internal/telemetry"
	"github.com/planline-io/planline/migrations"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run0())
}

func run0() int {
	level := slog.LevelInfo
	if os.Getenv("PLANLINE_LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, logger); err != nil {
		slog.Error("fatal error", "error", err)
		return 1
	}
	return 0
}

func run(ctx context.Context, logger *slog.Logger) error {
	// Load .env file if present (non-fatal; production won't have one).
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	slog.Info("planline starting", "version", version, "port", cfg.Port)

	// Initialize OpenTelemetry.
	otelShutdown, err := telemetry.Init(ctx, cfg.OTELEndpoint, cfg.ServiceName, version, cfg.OTELInsecure)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() { _ = otelShutdown(context.Background()) }()

	// Connect to database.
	db, err := storage.New(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer db.Close()

	// Run embedded migrations. RunMigrations tracks applied files in
	// schema_migrations and skips duplicates, so errors here indicate real
	// failures (not "already exists").
	if err := db.RunMigrations(ctx, migrations.FS); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	// Create JWT manager.
	jwtMgr, err := auth.NewJWTManager(cfg.JWTPrivateKeyPath, cfg.JWTPublicKeyPath, cfg.JWTExpiration)
	if err != nil {
		return fmt.Errorf("auth: %w", err)
	}

	// Seed the bootstrap admin so a fresh database is usable.
	if err := seedAdmin(ctx, db, cfg.AdminAPIKey); err != nil {
		slog.Warn("admin seed failed", "error", err)
	}

	// Change feed: bounded in-memory tracker fanning out to SSE subscribers.
	tracker := changelog.NewTracker(cfg.ChangeFeedCapacity)
	broker := server.NewBroker(logger)
	tracker.SetNotify(broker.Publish)

	checker := capacity.NewChecker(db, db, logger)
	resolver := availability.NewResolver(db)

	// Rate limiter: in-process token bucket keyed per operator.
	var limiter ratelimit.Limiter
	if cfg.RateLimitPerMinute > 0 {
		limiter = ratelimit.NewMemoryLimiter(float64(cfg.RateLimitPerMinute)/60.0, cfg.RateLimitBurst)
		logger.Info("rate limiting: memory (in-process token bucket)",
			"per_minute", cfg.RateLimitPerMinute, "burst", cfg.RateLimitBurst)
	} else {
		limiter = ratelimit.NoopLimiter{}
		logger.Info("rate limiting: disabled")
	}
	defer func() { _ = limiter.Close() }()

	handlers := server.NewHandlers(server.HandlersDeps{
		Store:               db,
		JWTMgr:              jwtMgr,
		Checker:             checker,
		Resolver:            resolver,
		Tracker:             tracker,
		Broker:              broker,
		Logger:              logger,
		Version:             version,
		MaxRequestBodyBytes: cfg.MaxRequestBodyBytes,
	})

	srv := server.New(server.Config{
		Port:         cfg.Port,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}, handlers, jwtMgr, limiter, logger)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Drop change records older than a week, hourly. The feed is a working
	// set, not an archive.
	g.Go(func() error {
		cleanupLoop(gctx, tracker, logger)
		return nil
	})

	// Shut the server down on signal or on the first group error.
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("planline shutting down")

		httpCtx, httpCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer httpCancel()
		if err := srv.Shutdown(httpCtx); err != nil {
			slog.Error("http shutdown error", "error", err)
		}
		return nil
	})

	return g.Wait()
}

// seedAdmin creates the bootstrap admin operator on an empty operators table.
// A no-op when operators already exist or no admin key is configured.
func seedAdmin(ctx context.Context, db *storage.DB, adminAPIKey string) error {
	if adminAPIKey == "" {
		return nil
	}
	count, err := db.CountOperators(ctx)
	if err != nil {
		return fmt.Errorf("count operators: %w", err)
	}
	if count > 0 {
		return nil
	}

	hash, err := auth.HashAPIKey(adminAPIKey)
	if err != nil {
		return fmt.Errorf("hash admin key: %w", err)
	}
	op, err := db.CreateOperator(ctx, model.Operator{
		OperatorID: "admin",
		Name:       "Bootstrap Admin",
		Role:       model.RoleAdmin,
		APIKeyHash: &hash,
	})
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	slog.Info("seeded bootstrap admin", "operator_id", op.OperatorID)
	return nil
}

// cleanupLoop periodically evicts change records older than the retention
// window so a quiet feed does not pin stale entries forever.
func cleanupLoop(ctx context.Context, tracker *changelog.Tracker, logger *slog.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := tracker.Cleanup(7 * 24 * time.Hour); n > 0 {
				logger.Info("change feed cleanup", "removed", n)
			}
		}
	}
}
