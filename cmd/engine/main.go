package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/flood-decision-engine/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/flood-decision-engine/internal/adapter/kafka"
	"github.com/couchcryptid/flood-decision-engine/internal/adapter/postgres"
	redisadapter "github.com/couchcryptid/flood-decision-engine/internal/adapter/redis"
	"github.com/couchcryptid/flood-decision-engine/internal/adapter/zonefile"
	"github.com/couchcryptid/flood-decision-engine/internal/config"
	"github.com/couchcryptid/flood-decision-engine/internal/domain"
	"github.com/couchcryptid/flood-decision-engine/internal/observability"
	"github.com/couchcryptid/flood-decision-engine/internal/pipeline"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := postgres.EnsureSchema(ctx, db); err != nil {
		logger.Error("failed to prepare database", "error", err)
		os.Exit(1)
	}

	zones, err := loadZones(ctx, cfg, db)
	if err != nil {
		logger.Error("failed to load zones", "source", cfg.ZoneSource, "error", err)
		os.Exit(1)
	}
	logger.Info("zone table loaded", "source", cfg.ZoneSource, "zones", zones.Len())

	var thresholds domain.ThresholdProvider = postgres.NewThresholdRepository(db)
	if cfg.CacheEnabled() {
		client := redisadapter.NewClient(cfg)
		defer client.Close()
		thresholds = redisadapter.NewCachedThresholdProvider(thresholds, client, cfg.ThresholdCacheTTL, logger, metrics)
		logger.Info("threshold cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.ThresholdCacheTTL)
	} else {
		logger.Info("threshold cache disabled")
	}

	assessor := domain.NewAssessor(
		zones,
		postgres.NewReadingRepository(db),
		thresholds,
		clockwork.NewRealClock(),
		logger,
		domain.WithReadingWindow(cfg.ReadingWindow),
		domain.WithDefaultHorizon(cfg.DefaultHorizonHours),
	)

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	transformer := pipeline.NewTransformer(assessor, logger, metrics)

	p := pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize,
		pipeline.WithConcurrency(cfg.AssessConcurrency))

	ready := httpadapter.AllReady(postgres.NewReadiness(db), p)
	srv := httpadapter.NewServer(cfg.HTTPAddr, ready, assessor, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start assessment pipeline.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}

func loadZones(ctx context.Context, cfg *config.Config, db *sql.DB) (*domain.ZoneTable, error) {
	if cfg.ZoneSource == config.ZoneSourceFile {
		return zonefile.Load(cfg.ZoneFile)
	}
	return postgres.NewZoneRepository(db).LoadZoneTable(ctx)
}
