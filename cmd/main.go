package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/healthbridge/healthbridge-backend/internal/clients/llm"
	"github.com/healthbridge/healthbridge-backend/internal/clients/redisclient"
	"github.com/healthbridge/healthbridge-backend/internal/clients/twilio"
	"github.com/healthbridge/healthbridge-backend/internal/db"
	"github.com/healthbridge/healthbridge-backend/internal/handlers"
	"github.com/healthbridge/healthbridge-backend/internal/pkg/envutil"
	"github.com/healthbridge/healthbridge-backend/internal/pkg/logger"
	"github.com/healthbridge/healthbridge-backend/internal/repos"
	"github.com/healthbridge/healthbridge-backend/internal/server"
	"github.com/healthbridge/healthbridge-backend/internal/services"
)

func main() {
	_ = godotenv.Load()

	// Logger
	logMode := envutil.Str("LOG_MODE", "development")
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	log.Info("Loading environment variables from main...")
	jwtSecretKey := envutil.Str("JWT_SECRET_KEY", "")
	listenAddr := envutil.Str("LISTEN_ADDR", ":8080")

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Fatal("Postgres init failed", "error", err)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Fatal("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	convRepo := repos.NewConversationRepo(thePG, log)
	msgRepo := repos.NewMessageRepo(thePG, log)
	decisionRepo := repos.NewRoutingDecisionRepo(thePG, log)
	facilityRepo := repos.NewFacilityRepo(thePG, log)
	workerRepo := repos.NewWorkerRepo(thePG, log)
	notifRepo := repos.NewWorkerNotificationRepo(thePG, log)

	// Clients
	log.Info("Setting up Clients from main...")
	llmClient, err := llm.NewClient(log)
	if err != nil {
		log.Warn("LLM client unavailable, running on fallback scoring only", "error", err)
		llmClient = nil
	}
	smsClient, err := twilio.NewFromEnv(log)
	if err != nil {
		log.Warn("Twilio client unavailable, SMS/voice channels disabled", "error", err)
		smsClient = nil
	}
	var rateLimiter services.RateLimitService
	if rdb, err := redisclient.New(log); err != nil {
		log.Warn("Redis unavailable, rate limiting disabled", "error", err)
	} else {
		rateLimiter = services.NewRateLimitService(log, rdb)
	}

	// Services
	log.Info("Setting up Services from main...")
	convService := services.NewConversationService(thePG, log, convRepo, msgRepo)
	classifier := services.NewClassifierService(log, llmClient)
	routingService := services.NewRoutingService(thePG, log, decisionRepo, facilityRepo)
	dispatchService := services.NewDispatchService(thePG, log, workerRepo, notifRepo, decisionRepo, smsClient)
	queryService := services.NewNotificationQueryService(thePG, log, notifRepo, decisionRepo)
	triageService := services.NewTriageService(log, convService, classifier, routingService, dispatchService, llmClient)

	if envutil.Bool("SEED_DIRECTORY", true) {
		seedService := services.NewSeedService(thePG, log, facilityRepo, workerRepo)
		if err := seedService.SeedDirectory(context.Background()); err != nil {
			log.Warn("Directory seeding failed", "error", err)
		}
	}

	// Handlers
	log.Info("Setting up Handlers from main...")
	healthHandler := handlers.NewHealthHandler(log, thePG)
	analyzeHandler := handlers.NewAnalyzeHandler(log, triageService)
	notificationHandler := handlers.NewNotificationHandler(log, dispatchService, queryService)
	conversationHandler := handlers.NewConversationHandler(log, convService, routingService)

	// Router
	router := server.NewRouter(server.RouterConfig{
		Log:                 log,
		JWTSecret:           jwtSecretKey,
		RateLimiter:         rateLimiter,
		HealthHandler:       healthHandler,
		AnalyzeHandler:      analyzeHandler,
		NotificationHandler: notificationHandler,
		ConversationHandler: conversationHandler,
	})

	log.Info("Starting server", "addr", listenAddr)
	if err := router.Run(listenAddr); err != nil {
		log.Fatal("Server exited", "error", err)
	}
}
