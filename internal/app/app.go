package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/relai/server/internal/domain/job"
	"github.com/relai/server/internal/domain/media"
	"github.com/relai/server/internal/domain/suggestion"
	"github.com/relai/server/internal/infra/cache"
	"github.com/relai/server/internal/infra/config"
	"github.com/relai/server/internal/utils/logger"
	"github.com/relai/server/internal/utils/metrics"
)

// App represents the application.
type App struct {
	config    *config.Config
	redis     redis.UniversalClient
	router    *gin.Engine
	server    *http.Server
	logger    *logger.Logger
	zapLogger *zap.Logger

	registry *prometheus.Registry
	metrics  *metrics.Metrics

	adapters *adapters

	// Domains
	mediaDomain      *media.Domain
	orchestrator     *job.Orchestrator
	suggestionDomain *suggestion.Domain
}

// New creates a new application instance.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logCfg := &logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	}
	zapLog, err := logger.NewZapLogger(logCfg)
	if err != nil {
		return nil, fmt.Errorf("init zap logger: %w", err)
	}

	app := &App{
		config:    cfg,
		logger:    logger.New(logCfg),
		zapLogger: zapLog,
		registry:  prometheus.NewRegistry(),
	}

	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	app.metrics = metrics.New(cfg.Metrics.Namespace, app.registry)

	if err := app.initInfrastructure(ctx); err != nil {
		return nil, err
	}

	app.adapters, err = newAdapters(ctx, cfg, app.redis, app.metrics, app.zapLogger)
	if err != nil {
		app.closeInfrastructure()
		return nil, fmt.Errorf("init adapters: %w", err)
	}

	app.initDomains()
	app.router = app.setupRouter()
	app.registerRoutes()

	app.server = &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      app.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return app, nil
}

// initInfrastructure opens the optional Redis connection.
func (a *App) initInfrastructure(ctx context.Context) error {
	if !a.config.Redis.Enabled() {
		a.zapLogger.Info("Redis not configured, using in-memory guards")
		return nil
	}

	client, err := cache.NewRedisClient(ctx, a.config.Redis)
	if err != nil {
		a.zapLogger.Warn("Redis connection failed, continuing with in-memory guards", zap.Error(err))
		return nil
	}
	a.redis = client
	return nil
}

// initDomains wires the domains onto their adapters.
func (a *App) initDomains() {
	a.mediaDomain = media.NewDomain(a.adapters.blobs, a.metrics, a.zapLogger)

	a.orchestrator = job.NewOrchestrator(
		a.adapters.jobs,
		a.mediaDomain,
		a.adapters.video,
		a.adapters.voice,
		a.adapters.music,
		jobConfig(a.config),
		a.metrics,
		a.zapLogger,
	)

	suggestionCfg := suggestion.DefaultConfig()
	suggestionCfg.CacheTTL = a.config.Suggestions.CacheTTL
	a.suggestionDomain = suggestion.NewDomain(
		a.adapters.text,
		a.adapters.suggestionCache,
		suggestionCfg,
		a.metrics,
		a.zapLogger,
	)
}

// jobConfig maps application configuration onto the orchestrator's.
func jobConfig(cfg *config.Config) *job.Config {
	jc := job.DefaultConfig()
	jc.MaxConcurrent = cfg.Jobs.MaxConcurrent
	jc.Retention = cfg.Jobs.Retention
	jc.CleanupInterval = cfg.Jobs.CleanupInterval
	jc.DefaultDuration = cfg.Jobs.DefaultDuration
	jc.MinDuration = cfg.Jobs.MinDuration
	jc.MaxDuration = cfg.Jobs.MaxDuration
	jc.VideoResolution = cfg.Providers.Video.Resolution
	jc.VideoFPS = cfg.Providers.Video.FPS

	voice := cfg.Providers.Voice
	jc.VoiceSettings.Stability = voice.Stability
	jc.VoiceSettings.SimilarityBoost = voice.SimilarityBoost
	jc.VoiceSettings.Style = voice.Style
	jc.VoiceSettings.SpeakerBoost = voice.SpeakerBoost
	return jc
}

// Router returns the HTTP router.
func (a *App) Router() *gin.Engine {
	return a.router
}

// Run starts background work and serves HTTP until the server is shut down.
func (a *App) Run() error {
	a.orchestrator.Start()

	a.zapLogger.Info("Starting server", zap.String("address", a.server.Addr))
	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve http: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests, fails in-flight jobs and releases
// resources.
func (a *App) Shutdown(ctx context.Context) error {
	err := a.server.Shutdown(ctx)

	a.orchestrator.Stop()
	a.closeInfrastructure()
	_ = a.zapLogger.Sync()

	if err != nil {
		return fmt.Errorf("shutdown http: %w", err)
	}
	return nil
}

func (a *App) closeInfrastructure() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
}
