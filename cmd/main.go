package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	_ "modernc.org/sqlite"

	"github.com/codrutul/roster/internal/adapters/broadcast"
	"github.com/codrutul/roster/internal/adapters/http/api"
	"github.com/codrutul/roster/internal/adapters/http/site"
	"github.com/codrutul/roster/internal/adapters/http/swagger"
	"github.com/codrutul/roster/internal/adapters/http/ws"
	"github.com/codrutul/roster/internal/adapters/repository"
	service "github.com/codrutul/roster/internal/app"
	"github.com/codrutul/roster/internal/config"
	"github.com/codrutul/roster/pkg/logger"
	"github.com/codrutul/roster/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	redisPingTimeout          = 5 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Initialize logging with defaults until the configured format is known
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Get().Warn(ctx, "ignoring unreadable .env file", logger.Error(err))
	}

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load()
	if err != nil {
		logger.Get().Error(ctx, "failed to load config", logger.Error(err))
		os.Exit(1)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	loggerInstance := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := run(ctx, cfg, loggerInstance); err != nil {
		loggerInstance.Error(ctx, "roster service failed", logger.Error(err))
		stop()
		os.Exit(1)
	}
}

// run serves until ctx is cancelled, then shuts down gracefully.
func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	backend, err := openBackend(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.StoreBackend, err)
	}

	svc := newService(cfg, backend, log)
	if err := svc.Start(ctx); err != nil {
		_ = backend.Close()
		return fmt.Errorf("start service: %w", err)
	}
	defer svc.Stop()

	handler, sockets := newHandler(ctx, cfg, svc, log)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info(gctx, "starting HTTP server", logger.String("addr", cfg.Addr), logger.String("backend", backend.Name()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info(context.Background(), "shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		// Upgraded sockets are hijacked and not covered by Shutdown.
		sockets.Close()
		if err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		startSystemMetricsUpdater(gctx)
		return nil
	})
	g.Go(func() error {
		startServiceMetricsUpdater(gctx, svc)
		return nil
	})

	err = g.Wait()
	log.Info(context.Background(), "server stopped")
	return err
}

// openBackend builds the configured character store.
func openBackend(ctx context.Context, cfg *config.Config) (repository.Backend, error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		return repository.NewMemoryStore(), nil
	case config.BackendRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		client := redis.NewClient(opts)
		pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		return repository.NewRedisStore(client, repository.WithKeyPrefix(cfg.RedisKeyPrefix)), nil
	case config.BackendSQLite:
		db, err := sql.Open("sqlite", cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		store, err := repository.NewSQLiteStore(ctx, db)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("%w: unknown store_backend %q", config.ErrInvalidConfig, cfg.StoreBackend)
	}
}

func newService(cfg *config.Config, backend repository.Backend, log logger.Logger) *service.Service {
	return service.New(
		service.WithLogger(log.Named("service")),
		service.WithStore(backend),
		service.WithHub(broadcast.NewHub(
			broadcast.WithQueueCapacity(cfg.SubscriberBuffer),
			broadcast.WithLogger(log.Named("broadcast")),
		)),
		service.WithAutoGenerateInterval(cfg.AutogenInterval()),
		service.WithGridSize(cfg.GridSize),
		service.WithSeedRoster(cfg.SeedRoster),
	)
}

// newHandler registers every route on one router. The socket handler is
// returned so shutdown can close live connections.
func newHandler(ctx context.Context, cfg *config.Config, svc *service.Service, log logger.Logger) (http.Handler, *ws.Handler) {
	r := api.NewRouter(cfg.AllowedOrigins)

	api.NewServer(svc, svc, api.WithLogger(log.Named("api"))).Register(ctx, r)

	sockets := ws.NewHandler(svc,
		ws.WithAllowedOrigins(cfg.AllowedOrigins),
		ws.WithLogger(log.Named("ws")),
	)
	r.Handle("/ws", sockets)

	swagger.Register(ctx, r)
	site.Register(ctx, r)
	return r, sockets
}

// startSystemMetricsUpdater updates system metrics until ctx is done.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater updates service metrics until ctx is done.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)

	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

// updateServiceMetrics refreshes gauges that only change on connect or
// disconnect. GetStats itself refreshes the roster size.
func updateServiceMetrics(svc *service.Service) {
	stats := svc.GetStats()

	if subscribers, ok := stats["subscribers"].(int); ok {
		metrics.UpdateSubscribers(subscribers)
	}
}
