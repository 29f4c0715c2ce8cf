package server

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/healthbridge/healthbridge-backend/internal/handlers"
	"github.com/healthbridge/healthbridge-backend/internal/middleware"
	"github.com/healthbridge/healthbridge-backend/internal/pkg/envutil"
	"github.com/healthbridge/healthbridge-backend/internal/pkg/logger"
	"github.com/healthbridge/healthbridge-backend/internal/services"
)

type RouterConfig struct {
	Log                 *logger.Logger
	JWTSecret           string
	RateLimiter         services.RateLimitService
	HealthHandler       *handlers.HealthHandler
	AnalyzeHandler      *handlers.AnalyzeHandler
	NotificationHandler *handlers.NotificationHandler
	ConversationHandler *handlers.ConversationHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	// Cors
	origins := strings.Split(envutil.Str("CORS_ALLOW_ORIGINS", "http://localhost:3000,http://localhost:5173"), ",")
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", cfg.HealthHandler.Check)

	// ===============
	// || API       ||
	// ===============
	api := router.Group("/api")
	api.Use(middleware.Auth(cfg.Log, cfg.JWTSecret))
	{
		api.POST("/analyze", middleware.RateLimit(cfg.Log, cfg.RateLimiter), cfg.AnalyzeHandler.Analyze)

		// Worker queue
		api.GET("/worker-notifications/stats/:workerId", cfg.NotificationHandler.Stats)
		api.GET("/worker-notifications/:workerId", cfg.NotificationHandler.List)
		api.PUT("/worker-notifications/:notificationId/acknowledge", cfg.NotificationHandler.Acknowledge)
		api.PUT("/worker-notifications/:notificationId/respond", cfg.NotificationHandler.Respond)
		api.PUT("/worker-notifications/:notificationId/complete", cfg.NotificationHandler.Complete)
		api.PUT("/worker-notifications/:notificationId/cancel", cfg.NotificationHandler.Cancel)

		// Citizen history
		api.GET("/conversations/:userId", cfg.ConversationHandler.List)
		api.GET("/conversations/:userId/:conversationId/messages", cfg.ConversationHandler.Messages)
		api.PUT("/conversations/:userId/:conversationId/archive", cfg.ConversationHandler.Archive)
		api.GET("/routing-decisions/:userId", cfg.ConversationHandler.Decisions)
		api.GET("/routing-decisions/:userId/:decisionId", cfg.ConversationHandler.Decision)
	}

	return router
}
