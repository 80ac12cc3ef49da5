package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/minddump/auditd/internal/app"
	"github.com/minddump/auditd/internal/handlers"
	"github.com/minddump/auditd/internal/middleware"
	"github.com/minddump/auditd/internal/services"
)

// NewRouter builds the Gin engine, wires middleware and registers the audit
// API routes.
func NewRouter(db *gorm.DB, cfg *app.Config, rateStore middleware.RateStore, svcOpts ...services.Option) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	if cfg.RateLimit.Enabled {
		r.Use(middleware.RateLimit(rateStore, cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}

	// Health endpoint (public)
	if cfg.Monitoring.Health.Enabled {
		r.GET("/health", handlers.Health(db))
	}

	auditHandler, err := handlers.NewAuditHandler(db, svcOpts...)
	if err != nil {
		return nil, err
	}

	api := r.Group("/api")
	{
		api.POST("/audit-logs", auditHandler.Create)
		api.GET("/audit-logs", auditHandler.Get)
		api.DELETE("/audit-logs", auditHandler.Delete)
		api.GET("/audit-logs/stats", auditHandler.Stats)
		api.GET("/audit-logs/:id", auditHandler.GetByID)
		api.DELETE("/audit-logs/:id", auditHandler.DeleteByID)
	}

	// Metrics endpoint
	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := cfg.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	// NotFound fallback
	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
