package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/media-grab-go/api/handlers"
	"github.com/yourusername/media-grab-go/api/middleware"
)

// SetupRouter sets up the HTTP router
func SetupRouter(mediaHandler *handlers.MediaHandler, healthHandler *handlers.HealthHandler, log *zap.Logger) *gin.Engine {
	// Set Gin mode
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Middleware
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))

	// Health endpoints
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		media := v1.Group("/media")
		{
			media.POST("", mediaHandler.DownloadMedia)
			media.GET("/history", mediaHandler.GetHistory)
			media.GET("/stats", mediaHandler.GetStats)
		}
	}

	return router
}
