package http

import (
	"github.com/dealscout/backend/config"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RequestIDMiddleware())
	router.Use(RecoveryMiddleware(logger))
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))
	router.Use(GzipMiddleware())

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		v1.POST("/product", handler.GetProduct)
		v1.POST("/compare-price", handler.ComparePrice)
		v1.POST("/similar-products", handler.FindSimilar)
		v1.POST("/extract-price", handler.ExtractPrice)
	}

	// Unversioned paths used by the existing frontend
	legacy := router.Group("/api")
	{
		legacy.POST("/product", handler.GetProduct)
		legacy.POST("/similar-products", handler.FindSimilar)
	}

	return router
}
