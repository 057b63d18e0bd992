package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	config "github.com/threadlinehq/accounts-service/configs"
	"github.com/threadlinehq/accounts-service/internal/application/services"
	"github.com/threadlinehq/accounts-service/internal/core/ports"
	"github.com/threadlinehq/accounts-service/internal/infrastructure/db"
	"github.com/threadlinehq/accounts-service/internal/infrastructure/email"
	"github.com/threadlinehq/accounts-service/internal/infrastructure/health"
	"github.com/threadlinehq/accounts-service/internal/infrastructure/httpserver"
	"github.com/threadlinehq/accounts-service/internal/infrastructure/redis"
	"github.com/threadlinehq/accounts-service/internal/infrastructure/repositories"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Setup logger
	logger := logrus.New()
	if cfg.Log.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(level)
	}

	logger.Info("Starting accounts service...")

	// Initialize database (apply pool settings from config)
	database, err := db.NewDatabaseWithConfig(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database:", err)
	}
	defer database.Close()

	logger.Info("Connected to database successfully")

	// Initialize Redis client
	redisClient, err := redis.NewRedisClient(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis:", err)
	}
	defer redisClient.Close()

	logger.Info("Connected to Redis successfully")

	// Run migrations
	if err := database.Migrate("./migrations"); err != nil {
		logger.Warn("Failed to run migrations:", err)
	}

	// Initialize Redis repository implementations
	tokenRepo := repositories.NewTokenRedisRepository(redisClient, logger)
	scheduledEmailRepo := repositories.NewScheduledEmailRedisRepository(redisClient, logger)
	rateLimitRepo := repositories.NewRateLimitRedisRepository(redisClient)

	// Initialize generic Redis cache for read-heavy entities
	redisCache := redis.NewRedisCache(redisClient, "appcache")

	// Initialize all db repository implementations
	baseUserRepo := repositories.NewUserRepository(database, logger)
	baseRealmRepo := repositories.NewRealmRepository(database, logger)
	confirmationRepo := repositories.NewConfirmationRepository(database, logger)
	emailChangeRepo := repositories.NewEmailChangeRepository(database, logger)
	auditRepo := repositories.NewAuditRepository(database, logger)

	// Decorate with caching (choose TTLs)
	realmRepo := repositories.NewCachingRealmRepository(baseRealmRepo, redisCache, 10*time.Minute)
	userRepo := repositories.NewCachingUserRepository(baseUserRepo, redisCache, 3*time.Minute)

	// Initialize outbound email delivery
	emailConfig := &email.EmailConfig{
		SendGridAPIKey: cfg.Email.SendGridAPIKey,
		FromEmail:      cfg.Email.FromEmail,
		FromName:       cfg.Email.FromName,
		ProductName:    cfg.Email.ProductName,
		BaseURL:        cfg.Email.BaseURL,
	}
	emailService, err := email.NewEmailService(emailConfig, logger)
	if err != nil {
		logger.Fatal("Failed to initialize email service:", err)
	}

	// Wire all services with their repository dependencies
	userService := services.NewUserService(userRepo, tokenRepo, logger)
	authService := services.NewAuthService(userRepo, realmRepo, tokenRepo, &cfg.JWT, logger)
	realmService := services.NewRealmService(realmRepo, logger)
	auditService := services.NewAuditService(auditRepo, logger)
	confirmationService := services.NewConfirmationService(confirmationRepo, logger)
	emailChangeService := services.NewEmailChangeService(
		userRepo,
		realmRepo,
		emailChangeRepo,
		confirmationService,
		emailService,
		scheduledEmailRepo,
		auditService,
		cfg.Confirmation.EmailChangeTTL,
		logger,
	)

	rateLimiterConfig := &services.RateLimiterConfig{
		DefaultRequestsPerMinute: cfg.RateLimit.DefaultRequestsPerMinute,
		BurstMultiplier:          cfg.RateLimit.BurstMultiplier,
		Window:                   cfg.RateLimit.Window,
		KeyPrefix:                cfg.RateLimit.KeyPrefix,
	}
	rateLimiterService := services.NewRateLimiterService(rateLimitRepo, realmRepo, rateLimiterConfig, logger)

	hcSlice := []ports.HealthChecker{health.NewDBHealthChecker(database), health.NewRedisHealthChecker(redisClient)}

	// Create server configuration
	serverConfig := &httpserver.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		TLSCertFile:  cfg.Server.TLSCertFile,
		TLSKeyFile:   cfg.Server.TLSKeyFile,
		BaseDomain:   cfg.Server.BaseDomain,
	}

	// Initialize HTTP server using ServerDeps for clearer wiring
	deps := httpserver.ServerDeps{
		UserService:        userService,
		AuthService:        authService,
		RealmService:       realmService,
		EmailChangeService: emailChangeService,
		AuditService:       auditService,
		RateLimiterService: rateLimiterService,
		HealthCheckers:     hcSlice,
	}

	server := httpserver.NewServer(serverConfig, logger, deps)

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("Failed to start server:", err)
		}
	}()

	logger.Infof("Server started on %s:%s", cfg.Server.Host, cfg.Server.Port)

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown:", err)
	}

	logger.Info("Server exited")
}
