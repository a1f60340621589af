package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/izygear/service-reservation/internal/application"
	"github.com/izygear/service-reservation/internal/config"
	"github.com/izygear/service-reservation/internal/consumer"
	"github.com/izygear/service-reservation/internal/database"
	"github.com/izygear/service-reservation/internal/handler"
	"github.com/izygear/service-reservation/internal/health"
	"github.com/izygear/service-reservation/internal/kafka"
	"github.com/izygear/service-reservation/internal/logger"
	"github.com/izygear/service-reservation/internal/middleware"
	"github.com/izygear/service-reservation/internal/repository"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, "service-reservation")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting service-reservation",
		zap.String("port", cfg.Port),
	)

	// Connect to database
	db, err := database.Connect(cfg.DBConfig, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations
	if err := db.AutoMigrate(&repository.ReservationModel{}, &repository.UserModel{}); err != nil {
		log.Fatal("failed to run auto-migration", zap.Error(err))
	}
	if err := repository.MigrateListingTables(db); err != nil {
		log.Fatal("failed to migrate listing tables", zap.Error(err))
	}
	log.Info("database migration completed")

	// Initialize Kafka producer
	kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
	defer func() { _ = kafkaProducer.Close() }()

	// Initialize repositories
	reservationRepo := repository.NewGormReservationRepository(db)
	userRepo := repository.NewGormUserRepository(db)
	listingStores := repository.NewListingStoreRegistry(db)

	// Initialize application services
	reservationService := application.NewReservationService(
		reservationRepo,
		listingStores,
		userRepo,
		kafkaProducer,
		log,
	)
	reviewService := application.NewReviewService(
		reservationRepo,
		listingStores,
		userRepo,
		kafkaProducer,
		log,
	)
	listingService := application.NewListingService(listingStores, log)

	// Initialize and start settlement event consumer in a goroutine
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	groupID := cfg.KafkaConfig.GroupPrefix + "reservation-service"
	settlementConsumer := consumer.NewSettlementEventConsumer(
		cfg.KafkaConfig.Brokers,
		groupID,
		reservationService,
		log,
	)
	defer func() { _ = settlementConsumer.Close() }()

	go func() {
		log.Info("starting settlement event consumer")
		if err := settlementConsumer.Start(ctx); err != nil && err != context.Canceled {
			log.Error("settlement event consumer error", zap.Error(err))
		}
	}()

	// Initialize HTTP handlers
	reservationHandler := handler.NewReservationHandler(reservationService)
	reviewHandler := handler.NewReviewHandler(reviewService)
	listingHandler := handler.NewListingHandler(listingService)
	adminHandler := handler.NewAdminReservationHandler(reservationService)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	// Register health check routes
	healthHandler := health.NewHandler(db, "service-reservation")
	healthHandler.RegisterRoutes(router)

	// Register routes
	reservationHandler.RegisterRoutes(&router.RouterGroup)
	reviewHandler.RegisterRoutes(&router.RouterGroup)
	listingHandler.RegisterRoutes(&router.RouterGroup)
	adminHandler.RegisterRoutes(&router.RouterGroup)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down service-reservation...")

	// Cancel the consumer context
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info("service-reservation stopped")
}
