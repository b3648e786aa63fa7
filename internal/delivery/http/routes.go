package http

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/zakupnik/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, log zerolog.Logger) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware(log))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint, deliberately outside the rate limit
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP, cfg.RateLimit.Burst))
	{
		v1.POST("/search", handler.SearchBestPrice)

		cart := v1.Group("/cart")
		{
			cart.POST("/items", handler.AddCartLine)
			cart.GET("", handler.GetCart)
			cart.GET("/checkout", handler.Checkout)
			cart.DELETE("", handler.ClearCart)
		}

		admin := v1.Group("/admin")
		{
			admin.POST("/rules/reload", handler.ReloadRules)
		}
	}

	return router
}
