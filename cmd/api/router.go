package api

import (
	"net/http"

	"meetsync-backend/internal/auth/delivery"
	authUsecase "meetsync-backend/internal/auth/usecase"
	meetingDelivery "meetsync-backend/internal/meeting/delivery"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, authUsecase authUsecase.AuthUsecase, authHandler *delivery.AuthHandler, meetingHandler *meetingDelivery.MeetingHandler) {
	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/register", authHandler.Register)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/google/url", delivery.AuthMiddleware(authUsecase), authHandler.GoogleAuthURL)
			auth.POST("/google/callback", delivery.AuthMiddleware(authUsecase), authHandler.GoogleCallback)
			auth.POST("/imap", delivery.AuthMiddleware(authUsecase), authHandler.ConnectIMAP)
		}

		// Device token routes (protected)
		devices := api.Group("/devices")
		devices.Use(delivery.AuthMiddleware(authUsecase))
		{
			devices.POST("", authHandler.RegisterDevice)
			devices.DELETE("", authHandler.UnregisterDevice)
		}

		// Meeting pipeline routes (protected)
		meetings := api.Group("/meetings")
		meetings.Use(delivery.AuthMiddleware(authUsecase))
		{
			meetings.POST("/process", meetingHandler.ProcessBatch)
			meetings.GET("/preview", meetingHandler.PreviewThreads)
			meetings.GET("/runs", meetingHandler.GetRuns)
			meetings.GET("/runs/:id", meetingHandler.GetRunByID)
		}

		// Settings routes (public) - Runtime configuration
		settings := api.Group("/settings")
		{
			settings.GET("/ollama", GetOllamaSettings)
			settings.PUT("/ollama", UpdateOllamaSettings)
			settings.POST("/ollama/test", TestOllamaConnection)
		}
	}
}
