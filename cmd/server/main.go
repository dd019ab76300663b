// Package main is the entry point for the card catalog and wallet
// service. It loads configuration, connects the configured store
// backend, and starts the HTTP server.
package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"

	"cardman/internal/config"
	"cardman/internal/handlers"
	"cardman/internal/router"
	"cardman/internal/services/catalog"
	"cardman/internal/services/wallet"
	"cardman/internal/store/backend"
)

func main() {
	config.LoadEnv()

	st, err := backend.Open()
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Printf("⚠️ Failed to close store: %v", err)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := st.Ping(ctx); err != nil {
		log.Fatalf("Failed to ping store: %v", err)
	}
	log.Printf("✅ Connected to %s store", config.StoreDriver())

	catalogService := catalog.NewService(st)
	walletService := wallet.NewService(st, catalogService)
	rt := router.New(catalogService, walletService)

	app := fiber.New()

	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	app.Use("/api", limiter.New(limiter.Config{
		Max:        config.GetIntEnv("RATE_LIMIT_PER_MINUTE", 120),
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests. Please try again later.",
			})
		},
	}))

	handlers.SetupRoutes(app, rt, st)

	log.Fatal(app.Listen(":" + config.GetEnv("PORT", "3000")))
}
