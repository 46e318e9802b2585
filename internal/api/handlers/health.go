package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Pinger reports whether a backing store is reachable
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Health handles GET /api/v1/health. db is nil when running on in-memory storage.
func Health(db Pinger, summarizerConfigured bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		storage := "memory"
		status := "healthy"
		code := fiber.StatusOK

		if db != nil {
			storage = "postgres"
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				status = "degraded"
				code = fiber.StatusServiceUnavailable
			}
		}

		return c.Status(code).JSON(fiber.Map{
			"status":     status,
			"service":    "notes-backend",
			"storage":    storage,
			"summarizer": summarizerConfigured,
		})
	}
}
