package main

import (
	"context"
	"log"
	"strings"

	api "meetsync-backend/cmd/api"
	authdomain "meetsync-backend/internal/auth/domain"
	authRepo "meetsync-backend/internal/auth/repository"
	authUsecase "meetsync-backend/internal/auth/usecase"
	meetingdomain "meetsync-backend/internal/meeting/domain"
	meetingRepo "meetsync-backend/internal/meeting/repository"
	"meetsync-backend/internal/meeting/scheduler"
	meetingUsecase "meetsync-backend/internal/meeting/usecase"
	"meetsync-backend/internal/notification"
	"meetsync-backend/pkg/ai"
	"meetsync-backend/pkg/config"
	"meetsync-backend/pkg/database"
	"meetsync-backend/pkg/fcm"
	"meetsync-backend/pkg/gcal"
	"meetsync-backend/pkg/gmail"
	"meetsync-backend/pkg/imap"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate database schemas
	if err := db.AutoMigrate(
		&authdomain.User{},
		&authdomain.RefreshToken{},
		&authdomain.DeviceToken{},
		&meetingdomain.CreatedEventRecord{},
		&meetingdomain.BatchRun{},
	); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize repositories (dependency injection)
	userRepo := authRepo.NewUserRepository(db)
	deviceTokenRepo := authRepo.NewDeviceTokenRepository(db)
	createdEventRepo := meetingRepo.NewCreatedEventRepository(db)
	batchRunRepo := meetingRepo.NewBatchRunRepository(db)

	// Initialize source and sink adapters
	gmailService := gmail.NewService(cfg.GoogleClientID, cfg.GoogleClientSecret)
	imapService := imap.NewService()
	calendarService := gcal.NewService(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.CalendarID)

	// Initialize the extraction oracle with runtime-updatable Ollama config
	api.InitRuntimeConfig(cfg.OllamaBaseURL, cfg.OllamaModel)
	parser, err := ai.NewMeetingParserWithDynamicConfig(ai.DynamicConfig{
		Provider:         ai.ProviderType(cfg.AIProvider),
		GeminiAPIKey:     cfg.GeminiAPIKey,
		GetOllamaBaseURL: api.GetRuntimeOllamaBaseURL,
		GetOllamaModel:   api.GetRuntimeOllamaModel,
	})
	if err != nil {
		log.Fatal("Failed to initialize extraction service:", err)
	}
	log.Printf("Extraction service initialized with provider: %s", cfg.AIProvider)

	// Initialize use cases (dependency injection)
	authUsecaseInstance := authUsecase.NewAuthUsecase(userRepo, deviceTokenRepo, cfg)
	authUsecaseInstance.SetGmailWatcher(gmailService)
	authUsecaseInstance.SetMailboxVerifier(imapService)

	meetingUsecaseInstance := meetingUsecase.NewMeetingUsecase(
		userRepo, createdEventRepo, batchRunRepo,
		gmailService, imapService, calendarService,
		parser, cfg,
	)

	// Initialize FCM Client (optional, everything works without it)
	var fcmClient *fcm.Client
	if cfg.FirebaseCredentials != "" {
		fcmClient, err = fcm.NewClient(cfg.FirebaseCredentials)
		if err != nil {
			log.Printf("[WARN] Failed to initialize FCM client (push notifications disabled): %v", err)
			fcmClient = nil
		}
	}

	// Initialize Notification Service (Pub/Sub), only if a project is configured
	if cfg.GoogleProjectID != "" {
		// Extract short topic name from full resource name if necessary
		topicName := cfg.GmailPubSubTopic
		if parts := strings.Split(topicName, "/"); len(parts) > 1 {
			topicName = parts[len(parts)-1]
		}
		if topicName == "" {
			topicName = "gmail-updates"
		}

		notifService, err := notification.NewService(cfg.GoogleProjectID, topicName, cfg.FirebaseCredentials, userRepo, deviceTokenRepo, fcmClient, meetingUsecaseInstance)
		if err != nil {
			log.Printf("[ERROR] Failed to initialize notification service: %v", err)
		} else {
			go notifService.Start(context.Background())
		}
	} else {
		log.Printf("[WARN] GOOGLE_PROJECT_ID not configured, push-triggered processing disabled")
	}

	// Start the interval scheduler
	batchScheduler := scheduler.NewBatchScheduler(meetingUsecaseInstance, userRepo, deviceTokenRepo, fcmClient, cfg.ProcessInterval)
	batchScheduler.Start()
	defer batchScheduler.Stop()

	// Initialize HTTP handler
	handler := api.NewHandler(authUsecaseInstance, meetingUsecaseInstance, cfg)

	// Start server
	log.Printf("Server starting on port %s", cfg.Port)
	if err := handler.Start(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
