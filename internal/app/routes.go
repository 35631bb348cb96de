package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	mediahttp "github.com/relai/server/internal/adapter/inbound/http/media"
	suggestionhttp "github.com/relai/server/internal/adapter/inbound/http/suggestion"
	videohttp "github.com/relai/server/internal/adapter/inbound/http/video"
	"github.com/relai/server/internal/utils/middleware"
)

const rootMessage = "RELAI API - Relax and create AI videos!"

// setupRouter creates and configures the Gin router.
func (a *App) setupRouter() *gin.Engine {
	if a.config.Log.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	metricsPath := a.config.Metrics.Path
	if metricsPath == "" {
		metricsPath = "/metrics"
	}

	corsCfg := middleware.DefaultCORSConfig()
	if len(a.config.Server.AllowedOrigins) > 0 {
		corsCfg.AllowOrigins = a.config.Server.AllowedOrigins
	}

	r.Use(middleware.Recovery(a.logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(a.logger, "/health", metricsPath))
	r.Use(middleware.Metrics(a.metrics))
	r.Use(middleware.CORS(corsCfg))

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": rootMessage})
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":       "ok",
			"running_jobs": a.orchestrator.Running(),
			"stored_jobs":  a.adapters.jobs.Len(),
		})
	})

	if a.config.Metrics.Enabled {
		r.GET(metricsPath, gin.WrapH(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))
	}

	return r
}

// registerRoutes registers the API routes.
func (a *App) registerRoutes() {
	api := a.router.Group("/api")

	mediahttp.NewHandler(a.mediaDomain, a.config.Server.MaxUploadBytes).RegisterRoutes(api)
	videohttp.NewHandler(a.orchestrator, a.orchestrator).RegisterRoutes(api, a.generateGuards()...)
	suggestionhttp.NewHandler(a.suggestionDomain).RegisterRoutes(api)
}

// generateGuards returns the middleware wrapping video submission.
func (a *App) generateGuards() []gin.HandlerFunc {
	var guards []gin.HandlerFunc
	rl := a.config.RateLimit
	if rl.Enabled {
		guards = append(guards, middleware.RateLimitByEndpoint(a.adapters.rateLimiter, rl.GenerateLimit, rl.GenerateWindow))
	}
	guards = append(guards, middleware.Idempotency(a.adapters.idempotency, rl.IdempotencyTTL))
	return guards
}
