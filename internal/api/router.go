package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/gopiorder/internal/api/handlers"
	"github.com/jafarshop/gopiorder/internal/api/middleware"
	"github.com/jafarshop/gopiorder/internal/config"
	"github.com/jafarshop/gopiorder/internal/metrics"
	"github.com/jafarshop/gopiorder/internal/session"
)

// Deps are the services the routes are served from. Events is nil when no
// database is configured.
type Deps struct {
	Sessions *session.Manager
	Events   handlers.EventStore
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
}

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, deps Deps) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	logger := deps.Logger

	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(logger, deps.Metrics))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "sessions": deps.Sessions.Len()})
	})
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	// API v1 routes
	v1 := router.Group("/v1")
	{
		sessions := v1.Group("/sessions")
		{
			sessions.POST("", handlers.HandleMountSession(deps.Sessions, logger))
			sessions.GET("/:id", handlers.HandleGetSession(deps.Sessions))
			sessions.DELETE("/:id", handlers.HandleCloseSession(deps.Sessions))
			sessions.POST("/:id/quantity", handlers.HandleQuantity(deps.Sessions))
			sessions.POST("/:id/fields", handlers.HandleField(deps.Sessions))
			sessions.POST("/:id/submit", handlers.HandleSubmit(deps.Sessions))
			sessions.POST("/:id/retry", handlers.HandleRetry(deps.Sessions))
			sessions.GET("/:id/events", handlers.HandleSessionEvents(deps.Sessions))
		}

		if deps.Events != nil && cfg.AdminToken != "" {
			admin := v1.Group("/admin")
			admin.Use(middleware.AdminAuth(cfg.AdminToken, logger))
			{
				admin.GET("/events", handlers.HandleListEvents(deps.Events, logger))
			}
		}
	}

	return router
}

// loggingMiddleware logs HTTP requests and, when m is set, records them
func loggingMiddleware(logger *zap.Logger, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		status := c.Writer.Status()
		elapsed := time.Since(start)
		logger.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("latency", elapsed),
		)

		if m != nil {
			route := c.FullPath()
			if route == "" {
				route = "unmatched"
			}
			m.ObserveRequest(route, status, elapsed)
		}
	}
}
