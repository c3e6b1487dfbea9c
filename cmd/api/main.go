package main

import (
	"context"
	"log"
	"time"

	"support-chat/config"
	"support-chat/internal/handler"
	"support-chat/internal/push"
	"support-chat/internal/redis"
	"support-chat/internal/repository"
	"support-chat/internal/server"
	"support-chat/internal/services"
	"support-chat/internal/storage"
	"support-chat/internal/whatsapp"
	"support-chat/pkg/database"
	"support-chat/pkg/logger"
)

func main() {
	cfg := config.LoadConfig()

	logMode := logger.DevelopmentMode
	if cfg.AppMode == server.ReleaseMode {
		logMode = logger.ProductionMode
	}
	l := logger.New(logMode)
	logger.SetGlobalLogger(l)

	database.Connect(cfg)
	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}
	if err := database.Seed(cfg); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}

	redis.Initialize(redis.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
	})
	redisClient := redis.GetClient()

	convRepo := repository.NewConversationRepository(database.DB)
	msgRepo := repository.NewMessageRepository(database.DB)
	agentRepo := repository.NewAgentRepository(database.DB)
	settingsRepo := repository.NewSettingsRepository(database.DB)

	authService := services.NewAuthService(agentRepo, cfg)
	agentService := services.NewAgentService(agentRepo)
	presenceService := services.NewPresenceService(agentRepo, convRepo)
	availabilityService := services.NewAvailabilityService(settingsRepo, presenceService)
	conversationService := services.NewConversationService(convRepo, msgRepo, l)
	messageService := services.NewMessageService(msgRepo, convRepo, l)

	waClient := whatsapp.NewClient(cfg.WhatsAppAPIURL, cfg.WhatsAppToken)
	whatsappService := services.NewWhatsAppService(convRepo, msgRepo, messageService, waClient, l)

	pushSender := push.NewSender(cfg.VapidPublicKey, cfg.VapidPrivateKey, cfg.VapidSubject)
	notificationService := services.NewNotificationService(agentRepo, convRepo, pushSender, whatsappService, l)
	messageService.SetNotifier(notificationService)

	s3Client, err := storage.NewClient(context.Background(), storage.S3Config{
		Region:     cfg.S3Region,
		Bucket:     cfg.S3Bucket,
		AccessKey:  cfg.S3AccessKey,
		SecretKey:  cfg.S3SecretKey,
		Endpoint:   cfg.S3Endpoint,
		PublicBase: cfg.S3PublicBase,
	})
	if err != nil {
		log.Fatalf("Failed to initialize object storage: %v", err)
	}
	uploadService := services.NewUploadService(s3Client, cfg.MaxUploadBytes)

	typingStore := redis.NewTypingStore(redisClient, 10*time.Second)
	limiter := redis.NewRateLimiter(redisClient, redis.DefaultRateLimitConfig())

	handlers := &server.Handlers{
		Widget:    handler.NewWidgetHandler(conversationService, messageService, presenceService, availabilityService, typingStore, l),
		Dashboard: handler.NewDashboardHandler(conversationService, messageService, whatsappService, typingStore, l),
		Agent:     handler.NewAgentHandler(authService, agentService, presenceService),
		Upload:    handler.NewUploadHandler(uploadService),
		Admin:     handler.NewAdminHandler(conversationService, time.Duration(cfg.ArchiveAfterDays)*24*time.Hour),
		Webhook:   handler.NewWebhookHandler(whatsappService, cfg.WebhookToken, l),
	}

	srv := server.New(cfg, l)
	srv.SetupRoutes(handlers, authService, limiter)

	if err := srv.Start(); err != nil {
		log.Fatalf("Server exited with error: %v", err)
	}
}
