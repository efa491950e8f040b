package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/statforge/statengine/internal/compute"
	"github.com/statforge/statengine/internal/config"
	"github.com/statforge/statengine/internal/domain/game"
	"github.com/statforge/statengine/internal/domain/stats"
	cacherepo "github.com/statforge/statengine/internal/infrastructure/repository/cache"
	"github.com/statforge/statengine/internal/infrastructure/repository/memory"
	"github.com/statforge/statengine/internal/infrastructure/repository/postgres"
	"github.com/statforge/statengine/internal/interfaces/httpapi"
	"github.com/statforge/statengine/internal/normalize"
	"github.com/statforge/statengine/internal/notifier"
	"github.com/statforge/statengine/internal/platform/cache"
	"github.com/statforge/statengine/internal/platform/logging"
	"github.com/statforge/statengine/internal/platform/metrics"
	"github.com/statforge/statengine/internal/platform/resilience"
	"github.com/statforge/statengine/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

// App owns the wired service graph: repositories, pipeline, scheduler,
// notifier hub and the HTTP server.
type App struct {
	Server    *http.Server
	Hub       *notifier.Hub
	Scheduler *usecase.SchedulerService
	Metrics   *metrics.Metrics

	db     *sqlx.DB
	logger *logging.Logger
}

func New(cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	m := metrics.New()

	store := cache.NewStore(cache.Config{
		LiveTTL:     cfg.CacheLiveTTL,
		StandardTTL: cfg.CacheStandardTTL,
	})
	store.Instrument(m.CacheHits.Inc, m.CacheMisses.Inc)

	var (
		db       *sqlx.DB
		statRepo stats.Repository
		gameRepo game.Repository
	)
	if cfg.DBURL == "" {
		logger.Info("DB_URL empty, using in-memory repositories")
		statRepo = memory.NewStatRecordRepository()
		gameRepo = memory.NewGameRepository()
	} else {
		opened, err := openDB(cfg.DBURL)
		if err != nil {
			return nil, err
		}
		db = opened
		statRepo = postgres.NewStatRecordRepository(db)
		gameRepo = postgres.NewGameRepository(db)
		logger.Info("postgres connected", "database", dbNameFromURL(cfg.DBURL))
	}

	cachedStats := cacherepo.NewStatRecordRepository(statRepo, gameRepo, store, cfg.SchedulerRecentWindow)

	hub := notifier.NewHub(m, logger, cfg.NotifierMaxConnections)

	resolver := normalize.NewResolver()
	registry := compute.NewRegistry(nil)

	pipeline := usecase.NewPipelineService(
		resolver,
		registry,
		cachedStats,
		gameRepo,
		hub,
		m,
		resilience.RetryPolicy{
			MaxAttempts: cfg.RetryMaxAttempts,
			BaseDelay:   cfg.RetryBaseDelay,
		},
		logger,
	)
	refreshSvc := usecase.NewRefreshService(pipeline, cachedStats, logger)
	querySvc := usecase.NewQueryService(cachedStats, gameRepo, registry, store)

	var scheduler *usecase.SchedulerService
	if cfg.SchedulerEnabled {
		scheduler = usecase.NewSchedulerService(gameRepo, pipeline, m, logger, usecase.SchedulerConfig{
			LiveInterval:     cfg.SchedulerLiveInterval,
			StandardInterval: cfg.SchedulerStandardInterval,
			RecentInterval:   cfg.SchedulerRecentInterval,
			TickTimeout:      cfg.SchedulerTickTimeout,
			BatchSize:        cfg.SchedulerBatchSize,
			Workers:          cfg.SchedulerWorkers,
			RecentWindow:     cfg.SchedulerRecentWindow,
			ArchiveAfter:     cfg.SchedulerArchiveAfter,
		})
	}

	handler := httpapi.NewHandler(querySvc, refreshSvc, pipeline, hub, logger)
	router := httpapi.NewRouter(handler, m.Handler(), logger, cfg.CORSAllowedOrigins)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	if server.Addr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return &App{
		Server:    server,
		Hub:       hub,
		Scheduler: scheduler,
		Metrics:   m,
		db:        db,
		logger:    logger,
	}, nil
}

// Run starts the hub, the scheduler when enabled, and the HTTP listener,
// then blocks until ctx is cancelled or the listener fails.
func (a *App) Run(ctx context.Context) error {
	go a.Hub.Run(ctx)
	if a.Scheduler != nil {
		go a.Scheduler.Run(ctx)
	}

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("http server starting", "addr", a.Server.Addr)
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	a.logger.Info("http server stopped")

	return nil
}

// Close releases resources held outside the request path.
func (a *App) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}
