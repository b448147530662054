package api

import (
	authDelivery "meetsync-backend/internal/auth/delivery"
	authUsecasePkg "meetsync-backend/internal/auth/usecase"
	meetingDelivery "meetsync-backend/internal/meeting/delivery"
	meetingUsecasePkg "meetsync-backend/internal/meeting/usecase"
	"meetsync-backend/pkg/config"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	authUsecase    authUsecasePkg.AuthUsecase
	meetingUsecase meetingUsecasePkg.MeetingUsecase
	config         *config.Config
	authHandler    *authDelivery.AuthHandler
	meetingHandler *meetingDelivery.MeetingHandler
}

func NewHandler(authUc authUsecasePkg.AuthUsecase, meetingUc meetingUsecasePkg.MeetingUsecase, cfg *config.Config) *Handler {
	return &Handler{
		authUsecase:    authUc,
		meetingUsecase: meetingUc,
		config:         cfg,
		authHandler:    authDelivery.NewAuthHandler(authUc),
		meetingHandler: meetingDelivery.NewMeetingHandler(meetingUc),
	}
}

func (h *Handler) Start(addr string) error {
	r := gin.Default()
	gin.SetMode(gin.ReleaseMode)

	// CORS middleware
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	SetupRoutes(r, h.authUsecase, h.authHandler, h.meetingHandler)

	return r.Run(addr)
}
