package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jtaylor/mealcart-backend/config"
	"github.com/jtaylor/mealcart-backend/internal/app/controller"
	"github.com/jtaylor/mealcart-backend/internal/app/repository"
	"github.com/jtaylor/mealcart-backend/internal/app/service"
	"github.com/jtaylor/mealcart-backend/internal/app/session"
	"github.com/jtaylor/mealcart-backend/internal/db"
	"github.com/jtaylor/mealcart-backend/internal/middleware"
	"github.com/jtaylor/mealcart-backend/internal/router"
	"github.com/jtaylor/mealcart-backend/internal/scheduler"
	"github.com/jtaylor/mealcart-backend/internal/storage"
	"github.com/jtaylor/mealcart-backend/pkg/logger"
	"github.com/jtaylor/mealcart-backend/pkg/redis"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      "console", // Use "json" for production
		EnableColor: true,
	})

	logger.Info("Starting MealCart Backend Server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	// Run migrations
	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Initialize redis (active-cart pointers)
	if err := redis.Init(&cfg.Redis); err != nil {
		logger.Fatal("Failed to initialize redis", err)
	}
	defer redis.Close()

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.GetDB())
	catalogRepo := repository.NewCatalogRepository(db.GetDB())
	cartRepo := repository.NewCartRepository(db.GetDB())

	// Initialize services
	authService := service.NewAuthService(
		userRepo,
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	catalogService := service.NewCatalogService(catalogRepo)
	activeCarts := session.NewRedisStore(redis.GetClient())
	cartService := service.NewCartService(cartRepo, catalogService, activeCarts, db.GetDB())
	exportStorage := storage.NewS3Storage(
		cfg.S3.Region,
		cfg.S3.Bucket,
		cfg.S3.AccessKeyID,
		cfg.S3.SecretAccessKey,
	)
	exportService := service.NewExportService(exportStorage)

	// Start the conversion cache scheduler
	conversionScheduler := scheduler.NewConversionScheduler(catalogService)
	if err := conversionScheduler.Start(); err != nil {
		logger.Fatal("Failed to start conversion cache scheduler", err)
	}
	defer conversionScheduler.Stop()

	// Initialize controllers
	authController := controller.NewAuthController(authService)
	recipeController := controller.NewRecipeController(catalogService)
	cartController := controller.NewCartController(cartService, exportService)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)

	// Setup router
	r := router.NewRouter(
		authController,
		recipeController,
		cartController,
		authMiddleware,
		cfg,
	)
	engine := r.Setup()

	// Start server in a goroutine
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server started successfully", map[string]interface{}{
			"address": addr,
			"pid":     os.Getpid(),
		})
		if err := engine.Run(addr); err != nil {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")
	logger.Info("Server stopped successfully")
}
