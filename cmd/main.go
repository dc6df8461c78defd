package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	configs "github.com/contactdesk/backend/config"
	"github.com/contactdesk/backend/internal/handler"
	"github.com/contactdesk/backend/internal/middleware"
	"github.com/contactdesk/backend/internal/repository"
	"github.com/contactdesk/backend/internal/router"
	"github.com/contactdesk/backend/internal/service"
	"github.com/contactdesk/backend/pkg/database"
	"github.com/contactdesk/backend/pkg/logger"
	"github.com/contactdesk/backend/pkg/mailer"
	"github.com/contactdesk/backend/pkg/redis"
	"github.com/contactdesk/backend/pkg/storage"
	"github.com/contactdesk/backend/pkg/validation"
	"go.uber.org/zap"
)

func main() {
	config, err := configs.LoadConfig()
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}

	// Initialize Zap logger
	if err := logger.InitLogger(config); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	logger.GetLogger().Info("Application starting",
		zap.String("app_name", config.App.Name),
		zap.String("environment", config.App.Environment),
	)

	db, err := database.NewPostgresDB(config)
	if err != nil {
		logger.GetLogger().Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.CloseDB(db)

	// Run auto migrations
	if err := database.AutoMigrate(db); err != nil {
		logger.GetLogger().Fatal("Failed to run database migrations", zap.Error(err))
	}
	logger.GetLogger().Info("Database migrated successfully")

	if err := validation.RegisterCustomValidators(); err != nil {
		logger.GetLogger().Fatal("Failed to register validators", zap.Error(err))
	}

	redisClient, err := redis.NewClient(config)
	if err != nil {
		logger.GetLogger().Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()

	// Verification mail goes through a bounded worker pool so SMTP
	// latency never blocks signup requests
	mail, err := mailer.NewMailer(config)
	if err != nil {
		logger.GetLogger().Fatal("Failed to initialize mailer", zap.Error(err))
	}
	dispatcher := mailer.NewDispatcher(mail, config.Email.Workers, config.Email.QueueSize)
	defer dispatcher.Close()

	// Avatar storage is optional; without it avatar uploads answer 503
	var avatarStore *storage.Storage
	if config.Storage.Enabled {
		minioClient, err := storage.NewMinioClient(config.Storage)
		if err != nil {
			logger.GetLogger().Fatal("Failed to initialize object storage", zap.Error(err))
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := minioClient.EnsureBucket(ctx); err != nil {
			cancel()
			logger.GetLogger().Fatal("Failed to ensure storage bucket", zap.Error(err))
		}
		cancel()

		avatarStore = storage.NewStorage(minioClient, config.Storage.BaseURL)
		logger.GetLogger().Info("Object storage initialized",
			zap.String("bucket", config.Storage.Bucket),
		)
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	contactRepo := repository.NewContactRepository(db)

	// Services
	tokenService, err := service.NewTokenService(config.JWT)
	if err != nil {
		logger.GetLogger().Fatal("Failed to initialize token service", zap.Error(err))
	}

	var avatars service.AvatarStore
	if avatarStore != nil {
		avatars = avatarStore
	}
	authService := service.NewAuthService(userRepo, tokenService, dispatcher, avatars, config)
	contactService := service.NewContactService(contactRepo, redisClient)

	// Handlers
	authHandler := handler.NewAuthHandler(authService)
	contactHandler := handler.NewContactHandler(contactService)
	healthHandler := handler.NewHealthHandler(db, redisClient)

	jwtMiddleware := middleware.NewJWTMiddleware(authService)

	r := router.NewRouter(
		authHandler,
		contactHandler,
		healthHandler,
		jwtMiddleware,
		redisClient,
		config,
	).SetupRoutes()

	srv := &http.Server{
		Addr:         ":" + config.App.Port,
		Handler:      r,
		ReadTimeout:  config.App.Timeout,
		WriteTimeout: config.App.Timeout,
	}

	go func() {
		logger.GetLogger().Info("Server starting",
			zap.String("port", config.App.Port),
			zap.String("host", "0.0.0.0"),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.GetLogger().Fatal("Failed to start server",
				zap.Error(err),
				zap.String("port", config.App.Port),
			)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.GetLogger().Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.GetLogger().Error("Server forced to shutdown", zap.Error(err))
	}
}
