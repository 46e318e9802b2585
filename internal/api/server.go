package api

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
)

const defaultCORSOrigin = "http://localhost:3000"

// ServerConfig is the HTTP-level configuration of the app
type ServerConfig struct {
	CORSOrigins string
	// AccessLog enables fiber's request logger
	AccessLog bool
}

// NewApp builds the fiber app with its middleware stack and all routes
func NewApp(cfg ServerConfig, deps Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "Notes Backend",
		ErrorHandler:          customErrorHandler(deps.Logger),
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	if cfg.AccessLog {
		app.Use(logger.New(logger.Config{
			Output: deps.Logger.Writer(),
		}))
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     normalizeOrigins(cfg.CORSOrigins),
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, DELETE, OPTIONS",
		AllowCredentials: true,
	}))

	SetupRoutes(app, deps)

	return app
}

func customErrorHandler(log *logrus.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal server error"

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			code = fiberErr.Code
			message = fiberErr.Message
		} else {
			log.WithError(err).WithFields(logrus.Fields{
				"method": c.Method(),
				"path":   c.Path(),
			}).Error("unhandled error")
		}

		return c.Status(code).JSON(fiber.Map{
			"error": message,
			"code":  code,
		})
	}
}

func normalizeOrigins(origins string) string {
	parts := strings.Split(origins, ",")
	cleaned := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			cleaned = append(cleaned, p)
		}
	}
	if len(cleaned) == 0 {
		// credentials are never allowed with a wildcard origin
		return defaultCORSOrigin
	}
	return strings.Join(cleaned, ",")
}
