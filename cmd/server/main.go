package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/actuallystonmai/venue-recommender/internal/config"
	"github.com/actuallystonmai/venue-recommender/internal/handler"
	"github.com/actuallystonmai/venue-recommender/internal/logging"
	"github.com/actuallystonmai/venue-recommender/internal/orchestrator"
	"github.com/actuallystonmai/venue-recommender/internal/ranking"
	"github.com/actuallystonmai/venue-recommender/internal/repository"
	"github.com/actuallystonmai/venue-recommender/internal/router"
	"github.com/actuallystonmai/venue-recommender/internal/search"
	"github.com/actuallystonmai/venue-recommender/internal/session"
	"github.com/actuallystonmai/venue-recommender/internal/store"
	"github.com/actuallystonmai/venue-recommender/seeds"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logging.Info().Msg("no .env file found, using environment variables")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load config")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	logging.Debug().
		Str("record_backend", cfg.RecordBackend).
		Dur("refresh_delay", cfg.RefreshDelay).
		Dur("debounce_window", cfg.DebounceWindow).
		Msg("configuration loaded")

	rankingOpts := ranking.Options{
		TasteWeight:    cfg.TasteWeight,
		DistanceWeight: cfg.DistanceWeight,
		MaxDistanceKm:  cfg.MaxDistanceKm,
	}
	if err := rankingOpts.Validate(); err != nil {
		logging.Fatal().Err(err).Msg("invalid ranking options")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ------------ PostgreSQL ---------------
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to parse database config")
	}
	poolConfig.MaxConns = int32(cfg.DBPoolSize)
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	if err := waitForDB(ctx, pool); err != nil {
		logging.Fatal().Err(err).Msg("database not ready")
	}
	logging.Info().Msg("connected to PostgreSQL")

	// ------------ Run Migrations ---------------
	// for migrate-down using CLI command
	if len(os.Args) > 1 && os.Args[1] == "migrate-down" {
		if err := runMigration(ctx, pool, "migrations/create_tables.down.sql"); err != nil {
			logging.Fatal().Err(err).Msg("failed to migrate down")
		}
		logging.Info().Msg("migrations dropped")
		return
	}

	if err := runMigration(ctx, pool, "migrations/create_tables.up.sql"); err != nil {
		logging.Fatal().Err(err).Msg("failed to migrate up")
	}

	// ------------ Setup Seed Data ---------------
	repo := repository.NewRepository(pool)
	if err := checkSeed(ctx, pool, repo); err != nil {
		logging.Fatal().Err(err).Msg("failed to check seed")
	}

	// ------------ Session Records ---------------
	records, closeRecords, err := openRecordBackend(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Str("backend", cfg.RecordBackend).Msg("failed to open record backend")
	}
	defer closeRecords()
	logging.Info().Str("backend", cfg.RecordBackend).Msg("record backend ready")

	// ------------ Search ---------------
	var searchBackend search.Backend
	healthChecks := []router.HealthCheck{
		{Name: "postgres", Check: pool.Ping},
		{Name: "records", Check: records.Ping},
	}
	if cfg.ElasticsearchURL != "" {
		es, err := openSearch(ctx, cfg, repo)
		if err != nil {
			logging.Fatal().Err(err).Msg("failed to create search client")
		}
		searchBackend = es
		healthChecks = append(healthChecks, router.HealthCheck{
			Name: "search",
			Check: func(context.Context) error {
				if state := es.BreakerState(); state == "open" {
					return fmt.Errorf("circuit breaker %s", state)
				}
				return nil
			},
		})
	} else {
		logging.Warn().Msg("ELASTICSEARCH_URL not set, search returns no results")
	}

	// ------------ Sessions ---------------
	sessions := session.NewManager(records, repo, searchBackend, session.Config{
		Orchestrator: orchestrator.Config{
			Ranking:       rankingOpts,
			Limit:         cfg.ResultLimit,
			RefreshDelay:  cfg.RefreshDelay,
			PoolSize:      orchestrator.DefaultPoolSize,
			DefaultReason: cfg.DefaultReason,
		},
		SearchLimit:         cfg.SearchLimit,
		DebounceWindow:      cfg.DebounceWindow,
		AutoRefreshInterval: cfg.AutoRefreshInterval,
	})
	defer sessions.Close()

	sweeper := cron.New()
	if _, err := sweeper.AddFunc("@every 1m", func() {
		sessions.Sweep(cfg.SessionIdleTimeout)
	}); err != nil {
		logging.Fatal().Err(err).Msg("failed to schedule session sweep")
	}
	sweeper.Start()
	defer sweeper.Stop()

	// ---------------- Server --------------------
	h := handler.NewHandler(sessions, repo)
	srv := &http.Server{
		Addr: cfg.Addr(),
		Handler: router.Setup(h, router.Options{
			SearchRatePerMinute: cfg.RateLimitPerMinute,
			HealthChecks:        healthChecks,
		}),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      35 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logging.Info().Str("addr", srv.Addr).Msg("server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	logging.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func waitForDB(ctx context.Context, pool *pgxpool.Pool) error {
	for i := 0; i < 30; i++ {
		if err := pool.Ping(ctx); err == nil {
			return nil
		}
		logging.Info().Int("attempt", i+1).Msg("waiting for database")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
		}
	}
	return fmt.Errorf("database connection timeout after 30s")
}

func runMigration(ctx context.Context, pool *pgxpool.Pool, path string) error {
	sql, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read migration file: %w", err)
	}
	if _, err := pool.Exec(ctx, string(sql)); err != nil {
		return fmt.Errorf("execute migration %s: %w", path, err)
	}
	logging.Info().Str("file", path).Msg("migration applied")
	return nil
}

func checkSeed(ctx context.Context, pool *pgxpool.Pool, repo *repository.Repository) error {
	count, err := repo.CountCandidates(ctx)
	if err != nil {
		return fmt.Errorf("check venues count: %w", err)
	}
	if count > 0 {
		logging.Info().Int("venues", count).Msg("database already seeded, skipping")
		return nil
	}
	return seeds.Setup(ctx, pool)
}

func openRecordBackend(ctx context.Context, cfg *config.Config) (store.Backend, func(), error) {
	switch cfg.RecordBackend {
	case config.BackendRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("parse redis url: %w", err)
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("ping redis: %w", err)
		}
		return store.NewRedisBackend(client, cfg.RecordTTL), func() { client.Close() }, nil
	case config.BackendSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create sqlite dir: %w", err)
		}
		db, err := store.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return db, func() { db.Close() }, nil
	default:
		return store.NewMemoryBackend(), func() {}, nil
	}
}

// openSearch builds the search backend and makes sure the index holds the
// current venues. Indexing failures are logged; search then degrades to
// empty results through the circuit breaker.
func openSearch(ctx context.Context, cfg *config.Config, repo *repository.Repository) (*search.ElasticBackend, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.ElasticsearchURL},
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}
	es := search.NewElasticBackend(client, cfg.SearchIndex, search.DefaultBreakerConfig())

	venues, err := repo.ListCandidates(ctx, 0)
	if err != nil {
		logging.Warn().Err(err).Msg("list venues for indexing")
		return es, nil
	}
	if err := es.EnsureIndex(ctx); err != nil {
		logging.Warn().Err(err).Msg("create search index")
		return es, nil
	}
	if err := es.IndexCandidates(ctx, venues); err != nil {
		logging.Warn().Err(err).Msg("index venues")
		return es, nil
	}
	logging.Info().Int("venues", len(venues)).Str("index", cfg.SearchIndex).Msg("search index ready")
	return es, nil
}
