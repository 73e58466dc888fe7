// Package app opens the shared dependencies of the server and worker
// binaries and wires the insights service over them.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"

	"github.com/ignite/campaign-intelligence/internal/cache"
	"github.com/ignite/campaign-intelligence/internal/config"
	"github.com/ignite/campaign-intelligence/internal/metrics"
	"github.com/ignite/campaign-intelligence/internal/pkg/logger"
	"github.com/ignite/campaign-intelligence/internal/repository/postgres"
	"github.com/ignite/campaign-intelligence/internal/service/insights"
	"github.com/ignite/campaign-intelligence/internal/snowflake"
	"github.com/ignite/campaign-intelligence/internal/storage"
)

// App holds the opened dependencies. Redis and Snowflake are nil when not
// configured.
type App struct {
	Config    *config.Config
	DB        *sql.DB
	Redis     *redis.Client
	Snowflake *snowflake.Client
	Archive   storage.Archive
	Metrics   *metrics.Metrics
	Service   *insights.Service
}

// New connects to every configured backend. The database is required.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if lvl, ok := logger.ParseLevel(cfg.LogLevel); ok {
		logger.SetLevel(lvl)
	}

	a := &App{Config: cfg, Metrics: metrics.New()}

	db, err := OpenDatabase(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	a.DB = db
	logger.Info("connected to database", "host", extractHost(cfg.Database.URL))

	if cfg.Redis.Enabled() {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		a.Redis = redis.NewClient(opts)
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err = a.Redis.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			// The cache is optional; locks fall back to PostgreSQL.
			logger.Warn("redis unavailable, continuing without cache", "error", err)
			a.Redis.Close()
			a.Redis = nil
		} else {
			logger.Info("connected to redis")
		}
	}

	var metricReader insights.MetricReader = postgres.NewMetricRepo(db)
	if cfg.Snowflake.Enabled {
		sf, err := snowflake.NewClient(snowflake.Config(cfg.Snowflake))
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("snowflake: %w", err)
		}
		a.Snowflake = sf
		metricReader = sf
		logger.Info("reading metrics from snowflake", "account", cfg.Snowflake.Account)
	}

	archive, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("report archive: %w", err)
	}
	a.Archive = archive

	deps := insights.Deps{
		Campaigns: postgres.NewCampaignRepo(db),
		Metrics:   metricReader,
		Content:   postgres.NewContentRepo(db),
		Recorder:  a.Metrics,
	}
	if a.Redis != nil {
		deps.Cache = cache.NewReportCache(a.Redis)
	}
	a.Service = insights.NewService(deps, insights.Config{
		LookbackDays:  cfg.Analytics.LookbackDays,
		WindowDays:    cfg.Analytics.WindowDays,
		ForecastDays:  cfg.Analytics.ForecastDays,
		StableEpsilon: cfg.Analytics.StableEpsilon,
		MaxParallel:   cfg.Analytics.MaxParallel,
		PatternsTTL:   cfg.Cache.PatternsTTL(),
		PostingTTL:    cfg.Cache.PostingTTL(),
	})
	return a, nil
}

// OpenDatabase opens and pings the PostgreSQL pool.
func OpenDatabase(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	if cfg.URL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime())

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// Close releases every opened connection.
func (a *App) Close() {
	if a.Snowflake != nil {
		a.Snowflake.Close()
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
	if a.DB != nil {
		a.DB.Close()
	}
}

// extractHost returns the host part of a DSN so it can be logged without
// credentials.
func extractHost(dsn string) string {
	at := strings.Index(dsn, "@")
	if at < 0 {
		return "(unknown)"
	}
	rest := dsn[at+1:]
	if slash := strings.Index(rest, "/"); slash >= 0 {
		rest = rest[:slash]
	}
	return rest
}
