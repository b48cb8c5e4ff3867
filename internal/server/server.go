// Package server assembles the Parallax API: model, prompt store,
// persistence, rate limiting, change notifications, health and metrics.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/lewisedginton/parallax/internal/config"
	"github.com/lewisedginton/parallax/internal/extraction"
	"github.com/lewisedginton/parallax/internal/monitoring"
	"github.com/lewisedginton/parallax/internal/persistence"
	"github.com/lewisedginton/parallax/internal/prompt"
	"github.com/lewisedginton/parallax/internal/ratelimit"
	"github.com/lewisedginton/parallax/internal/realtime"
	"github.com/lewisedginton/parallax/internal/storage"
	"github.com/lewisedginton/parallax/pkg/logger"
	"github.com/lewisedginton/parallax/pkg/metrics"
	"github.com/lewisedginton/parallax/pkg/utils"
)

// PromptNamespace is the storage namespace holding template overrides.
const PromptNamespace = "prompts"

// Server owns every long-lived component of the API process.
type Server struct {
	cfg        *appconfig.AppConfig
	log        logger.Logger
	pool       *pgxpool.Pool
	redis      *redis.Client
	notifier   realtime.Notifier
	metrics    *metrics.Metrics
	health     *monitoring.HealthMonitor
	httpServer *http.Server
}

// New creates a Server with all components initialized. Resources opened
// before a failure are released.
func New(ctx context.Context, cfg *appconfig.AppConfig, log logger.Logger) (_ *Server, err error) {
	s := &Server{
		cfg:     cfg,
		log:     log,
		metrics: metrics.NewMetrics(log),
	}
	defer func() {
		if err != nil {
			s.close()
		}
	}()

	model, err := NewModel(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM model: %w", err)
	}

	builder, err := s.loadPrompts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load prompts: %w", err)
	}

	store, err := s.createStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}

	counter, err := s.createRedis(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis client: %w", err)
	}

	service, err := extraction.NewService(extraction.Config{
		Model:     model,
		Builder:   builder,
		Store:     store,
		Notifier:  s.notifier,
		Metrics:   s.metrics,
		Logger:    log,
		MaxTokens: cfg.Extraction.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create extraction service: %w", err)
	}

	s.health = s.createHealthMonitor()

	router := NewRouter(RouterConfig{
		Service:        service,
		ExtractLimiter: ratelimit.NewLimiter(counter, cfg.RateLimit.ExtractLimit, cfg.RateLimit.Window, log),
		MediateLimiter: ratelimit.NewLimiter(counter, cfg.RateLimit.MediateLimit, cfg.RateLimit.Window, log),
		Health:         s.health,
		Metrics:        s.metrics,
		Logger:         log,
		StripPrefix:    cfg.HTTP.StripPrefix,
		CORSOrigins:    cfg.HTTP.CORSOrigins,
		RequestTimeout: cfg.HTTP.RequestTimeout,
		MaxBodyBytes:   cfg.HTTP.MaxBodyBytes,

		TrustProxyHeaders: cfg.HTTP.TrustProxyHeaders,
	})

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           router,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}
	return s, nil
}

// Handler exposes the API router.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run serves the API (and metrics, when enabled) until ctx is cancelled or
// a listener fails, then shuts everything down.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	chans := []chan error{s.listen(ctx)}
	if s.cfg.Metrics.Enabled {
		chans = append(chans, s.metrics.Listen(ctx, s.cfg.Metrics.Port))
	}

	var result *multierror.Error
	for err := range utils.MergeErrorChans(chans...) {
		s.log.Error("Listener failed", logger.ErrorField(err))
		result = multierror.Append(result, err)
		cancel()
	}

	s.close()
	s.log.Info("Server stopped")
	return result.ErrorOrNil()
}

func (s *Server) listen(ctx context.Context) chan error {
	errChan := make(chan error, 1)
	go func() {
		defer close(errChan)
		s.log.Info("Starting HTTP server", logger.StringField("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http listener: %w", err)
		}
	}()
	go func() {
		<-ctx.Done()
		s.health.MarkShuttingDown()
		s.log.Info("Gracefully closing HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.log.Error("Error during graceful shutdown, forcing close", logger.ErrorField(err))
			_ = s.httpServer.Close()
		}
	}()
	return errChan
}

func (s *Server) close() {
	if s.notifier != nil {
		if err := s.notifier.Close(); err != nil {
			s.log.Warn("Failed to close notifier", logger.ErrorField(err))
		}
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.log.Warn("Failed to close redis client", logger.ErrorField(err))
		}
	}
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Server) loadPrompts(ctx context.Context) (*prompt.Builder, error) {
	manager, err := storage.New(ctx, s.cfg.PromptStorage.StorageConfig())
	if err != nil {
		return nil, err
	}
	s.log.Info("Prompt storage ready", logger.StringField("backend", string(manager.Backend())))
	return prompt.NewManager(manager.Namespace(PromptNamespace), s.log).Load(ctx)
}

// createStore connects to Postgres when configured and otherwise keeps
// memory in process.
func (s *Server) createStore(ctx context.Context) (persistence.Store, error) {
	if !s.cfg.Database.Enabled() {
		s.log.Warn("No database configured, memory is kept in process only")
		return persistence.NewMemoryStore(), nil
	}

	pool, err := connectDatabase(ctx, s.cfg)
	if err != nil {
		return nil, err
	}
	s.pool = pool

	if s.cfg.Database.AutoMigrate {
		if err := migrate(pool, s.log); err != nil {
			return nil, err
		}
	}
	return persistence.NewPostgresStore(pool, s.log), nil
}

// createRedis connects the shared Redis client and returns the rate-limit
// counter backed by it, or an in-process counter without Redis.
func (s *Server) createRedis(ctx context.Context) (ratelimit.Counter, error) {
	if !s.cfg.Redis.Enabled() {
		s.log.Info("No redis configured, using in-process rate limiting and no change notifications")
		s.notifier = realtime.NopNotifier{}
		return ratelimit.NewMemoryCounter(), nil
	}

	opts, err := s.cfg.Redis.Options()
	if err != nil {
		return nil, err
	}
	s.redis = redis.NewClient(opts)
	if err := s.redis.Ping(ctx).Err(); err != nil {
		s.log.Warn("Redis ping failed, continuing; rate limiting fails open", logger.ErrorField(err))
	}

	s.notifier = realtime.NewRedisNotifier(s.redis, s.cfg.Redis.Channel, s.log)
	return ratelimit.NewRedisCounter(s.redis, ratelimit.DefaultKeyPrefix), nil
}

func (s *Server) createHealthMonitor() *monitoring.HealthMonitor {
	cfg := monitoring.Config{
		Logger:           s.log,
		ModelAPIURL:      s.cfg.Health.ModelAPIURL,
		Version:          s.cfg.Version,
		Timeout:          s.cfg.Health.Timeout,
		FailureThreshold: s.cfg.Health.FailureThreshold,
	}
	if s.pool != nil {
		cfg.Postgres = s.pool
	}
	if s.redis != nil {
		cfg.Redis = s.redis
	}
	return monitoring.NewHealthMonitor(cfg)
}

func connectDatabase(ctx context.Context, cfg *appconfig.AppConfig) (*pgxpool.Pool, error) {
	connString, err := cfg.Database.GetConnectionConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Database.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Database.ConnectTimeout)
		defer cancel()
	}
	return persistence.Connect(ctx, connString)
}

func migrate(pool *pgxpool.Pool, log logger.Logger) error {
	mm := persistence.NewMigrationManager(pool, log)
	defer func() {
		_ = mm.Close()
	}()
	return mm.RunMigrations()
}

// Migrate applies the schema migrations for cfg's database.
func Migrate(ctx context.Context, cfg *appconfig.AppConfig, log logger.Logger) error {
	if !cfg.Database.Enabled() {
		return errors.New("no database configured")
	}
	pool, err := connectDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()
	return migrate(pool, log)
}
