package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	geohttp "theia-geo/internal/geostore/adapter/http"
	"theia-geo/internal/geostore/adapter/persistence/memory"
	"theia-geo/internal/geostore/adapter/persistence/mongodb"
	"theia-geo/internal/geostore/config"
	"theia-geo/internal/geostore/domain/repository"
	"theia-geo/internal/geostore/usecase"
	"theia-geo/internal/geostore/validation"
	"theia-geo/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	// .env is a local development convenience; production sets real env vars
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger := logger.NewLoggerWithConfig(cfg.LogLevel, cfg.LogFormat)
	appLogger.Infof("Starting theia-geo with %s storage", cfg.StorageDriver)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var repo repository.GeoRepository
	var mongoClient *mongo.Client

	switch cfg.StorageDriver {
	case config.DriverMongoDB:
		mongoClient, err = mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			log.Fatalf("Failed to connect to MongoDB: %v", err)
		}
		defer func() {
			if err := mongoClient.Disconnect(context.Background()); err != nil {
				appLogger.Errorf("Failed to disconnect MongoDB: %v", err)
			}
		}()

		if err := mongoClient.Ping(ctx, nil); err != nil {
			log.Fatalf("Failed to ping MongoDB: %v", err)
		}
		appLogger.Info("MongoDB connection established")

		repo, err = mongodb.NewMongoGeoRepository(ctx, mongoClient.Database(cfg.DatabaseName))
		if err != nil {
			log.Fatalf("Failed to initialize MongoDB repository: %v", err)
		}
	case config.DriverMemory:
		repo = memory.NewGeoRepository()
		appLogger.Warn("Using in-memory storage, data will not survive a restart")
	}

	geoUC := usecase.NewGeoUsecase(repo, validation.New(), appLogger)
	handler := geohttp.NewGeoHTTPHandler(geoUC, appLogger)

	app := fiber.New(fiber.Config{
		AppName:      "theia-geo",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))
	app.Use(geohttp.RequestIDMiddleware())

	app.Get("/health", func(c *fiber.Ctx) error {
		if mongoClient != nil {
			healthCtx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
			defer cancel()
			if err := mongoClient.Ping(healthCtx, nil); err != nil {
				appLogger.Errorf("Health check failed: %v", err)
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"status": "UNHEALTHY",
					"error":  err.Error(),
				})
			}
		}
		return c.JSON(fiber.Map{
			"status":    "HEALTHY",
			"storage":   cfg.StorageDriver,
			"timestamp": time.Now().UTC(),
		})
	})

	handler.RegisterRoutes(app)

	appLogger.Infof("HTTP server listening on %s", cfg.Addr())

	serverShutdown := make(chan error, 1)
	go func() {
		serverShutdown <- app.Listen(cfg.Addr())
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverShutdown:
		if err != nil {
			log.Fatalf("Server startup failed: %v", err)
		}
	case sig := <-quit:
		appLogger.Infof("Received shutdown signal: %v", sig)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			appLogger.Errorf("Server forced to shutdown: %v", err)
		}
		appLogger.Info("HTTP server stopped")
	}
}
