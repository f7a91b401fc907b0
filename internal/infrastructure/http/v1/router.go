// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"catercost/internal/core/tenant"
	"catercost/internal/domain/reports"
	"catercost/internal/infrastructure/http/v1/handlers"
	"catercost/internal/infrastructure/http/v1/middleware"
	"catercost/internal/infrastructure/storage/postgres"
	"catercost/pkg/logger"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Registry resolves the company named by X-Tenant-ID
	Registry tenant.Registry

	// TxManager is injected into every API request context
	TxManager *postgres.TxManager

	// DB answers the readiness probe
	DB handlers.Pinger

	// Stats feeds /health/info (pool and cache counters)
	Stats func() any

	// Logger for request logging
	Logger *logger.Logger

	// Reports serves the dish costing and consumption reports
	Reports *reports.Service

	// Debug switches gin to debug mode
	Debug bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware (order matters!)
	// Recovery sits inside ErrorHandler so a recovered panic is still rendered as JSON.
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.Recovery())

	// Health endpoints (no tenant required)
	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Stats)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	// API v1
	v1 := router.Group("/api/v1")
	{
		protected := v1.Group("")
		protected.Use(middleware.TenantDB(cfg.Registry, cfg.TxManager)) // 1. Resolve company, inject TxManager
		protected.Use(middleware.UserContext())                          // 2. Caller language and timezone

		registerReportRoutes(protected, cfg)
	}

	return router
}

// registerReportRoutes registers report endpoints.
func registerReportRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	if cfg.Reports == nil {
		return
	}

	baseHandler := handlers.NewBaseHandler()
	reportHandler := handlers.NewReportsHandler(baseHandler, cfg.Reports)
	RegisterReportRoutes(rg.Group("/reports"), reportHandler)
}
