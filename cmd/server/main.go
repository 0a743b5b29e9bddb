package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"greencycle/internal/config"
	handlers "greencycle/internal/handlers/shared"
	"greencycle/internal/middleware"
	"greencycle/internal/repositories/mongodb"
	"greencycle/internal/services"
	"greencycle/pkg/cache"
	"greencycle/pkg/database"
	"greencycle/pkg/logger"
	"greencycle/routes"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Logger
	appLogger, err := logger.NewLogger(&logger.Config{
		Level:  logger.LogLevel(cfg.App.LogLevel),
		Format: cfg.App.LogFormat,
		Output: "stdout",
		Colors: cfg.App.Debug,
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	// MongoDB
	db, err := database.NewMongoDB(&database.DatabaseConfig{
		URI:            cfg.Database.URI,
		Database:       cfg.Database.Database,
		MaxPoolSize:    cfg.Database.MaxPoolSize,
		MinPoolSize:    cfg.Database.MinPoolSize,
		ConnectTimeout: cfg.Database.ConnectTimeout,
		SocketTimeout:  cfg.Database.SocketTimeout,
	})
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	defer db.Close()

	// Indexes, including the uniqueness guards the ledger relies on
	if err := database.NewMigrator(db.Database).Up(); err != nil {
		appLogger.WithError(err).Fatal("Failed to run migrations")
	}

	// Redis cache; catalog and balance reads degrade to Mongo without it
	var cacheService mongodb.CacheService
	redisCache, err := cache.NewRedisCache(&cache.RedisConfig{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		appLogger.WithError(err).Warn("Redis unavailable, running without cache")
	} else {
		cacheService = redisCache
		defer redisCache.Close()
	}

	// Repositories
	userRepo := mongodb.NewUserRepository(db.Database, cacheService)
	promoRepo := mongodb.NewPromoCodeRepository(db.Database, cacheService)
	redemptionRepo := mongodb.NewRedemptionRepository(db.Database)
	auditRepo := mongodb.NewAuditLogRepository(db.Database)

	// Services
	promoService := services.NewPromoService(promoRepo, redemptionRepo, userRepo, appLogger)
	redemptionService := services.NewRedemptionService(db, redemptionRepo, promoRepo, userRepo, appLogger)
	pointsService := services.NewPointsService(userRepo, appLogger)
	auditRecorder := services.NewAuditService(auditRepo, appLogger)

	// Handlers
	promoHandler := handlers.NewPromoHandler(promoService, auditRecorder)
	redemptionHandler := handlers.NewRedemptionHandler(redemptionService, auditRecorder)
	userHandler := handlers.NewUserHandler(pointsService, auditRecorder)

	// Router
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.RequestLoggerMiddleware(appLogger))

	// API routes
	v1 := router.Group("/api/v1")
	{
		routes.SetupPromoRoutes(v1, promoHandler, cfg.Security.JWTSecret)
		routes.SetupRedemptionRoutes(v1, redemptionHandler, cfg.Security.JWTSecret)
		routes.SetupUserRoutes(v1, userHandler, cfg.Security.JWTSecret)
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		status := "healthy"
		code := http.StatusOK
		if err := db.Ping(); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":  status,
			"version": cfg.App.Version,
		})
	})

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.App.Port),
		Handler: router,
	}

	go func() {
		appLogger.WithField("port", cfg.App.Port).Info("Starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.WithError(err).Fatal("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		appLogger.WithError(err).Error("Forced shutdown")
	}
}
