package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"barstock-pos/internal/adapters/cache"
	"barstock-pos/internal/adapters/http/handlers"
	"barstock-pos/internal/adapters/http/middleware"
	"barstock-pos/internal/adapters/http/routes"
	"barstock-pos/internal/adapters/llm"
	"barstock-pos/internal/adapters/persistence/models"
	"barstock-pos/internal/adapters/stripe"
	"barstock-pos/internal/config"

	"github.com/gofiber/fiber/v2"

	_ "barstock-pos/docs" // Swagger docs
)

// @title Barstock POS API
// @version 1.0
// @description Bar and restaurant point of sale: inventory, tabs, card-present payments and analytics.

// @contact.name API Support

// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer config.CloseDatabase()

	if err := models.AutoMigrate(db); err != nil {
		log.Fatalf("❌ Failed to auto migrate: %v", err)
	}
	log.Println("✅ Database migration completed")

	if err := config.NewSeeder(db).Run(); err != nil {
		log.Printf("⚠️ Warning: seeding failed: %v", err)
	}

	// Vendor clients
	ext := routes.Externals{Payments: stripe.NewProvider(cfg.Payments)}
	var modelHealth handlers.BreakerState
	if cfg.Analytics.OpenAIKey != "" {
		client := llm.NewClient(cfg.Analytics.OpenAIKey, llm.Options{Model: cfg.Analytics.Model})
		ext.Model = client
		modelHealth = client
		log.Printf("✅ Analytics model enabled [%s]", cfg.Analytics.Model)
	}
	if cfg.Analytics.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		client, err := cache.Dial(ctx, cfg.Analytics.RedisURL)
		cancel()
		if err != nil {
			log.Printf("⚠️ Analytics cache disabled: %v", err)
		} else {
			defer client.Close()
			ext.Cache = cache.NewRedisCache(client)
			log.Println("✅ Analytics cache connected")
		}
	}

	svc := routes.NewServices(db, cfg, ext)

	// Scheduled jobs: stock scan, reminders, token cleanup, checkout sweep
	if err := svc.Cron.Start(); err != nil {
		log.Fatalf("❌ Failed to start scheduler: %v", err)
	}
	defer svc.Cron.Stop()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Barstock POS API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
		BodyLimit:    8 * 1024 * 1024,
	})

	// Setup middlewares
	middleware.Setup(app, cfg)

	// Setup routes
	routes.Setup(app, svc, cfg, handlers.NewHealthHandler(config.HealthCheck, modelHealth))

	// Graceful shutdown
	go gracefulShutdown(app)

	// Start server
	log.Printf("🚀 Server starting on port %s [MODE: %s]", cfg.Port, cfg.AppMode)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("❌ Error during shutdown: %v", err)
	}
	log.Println("✅ Server stopped gracefully")
}
