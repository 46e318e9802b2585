package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/notesai/notes-backend/internal/auth"
	"github.com/notesai/notes-backend/internal/models"
)

// AccessTokenCookie carries the access token for browser clients
const AccessTokenCookie = "access_token"

// AuthConfig holds the auth middleware configuration
type AuthConfig struct {
	AuthService *auth.Service
	Logger      *logrus.Logger
	Optional    bool   // If true, auth is optional (doesn't fail if no token)
	RequireRole string // If set, requires specific role
}

// AuthRequired creates a middleware that requires authentication
func AuthRequired(authService *auth.Service, logger *logrus.Logger) fiber.Handler {
	return AuthMiddleware(AuthConfig{
		AuthService: authService,
		Logger:      logger,
	})
}

// OptionalAuth resolves the caller when a valid token is present and lets the
// request through either way
func OptionalAuth(authService *auth.Service, logger *logrus.Logger) fiber.Handler {
	return AuthMiddleware(AuthConfig{
		AuthService: authService,
		Logger:      logger,
		Optional:    true,
	})
}

// RequireRole creates a middleware that requires a specific role
func RequireRole(authService *auth.Service, logger *logrus.Logger, role string) fiber.Handler {
	return AuthMiddleware(AuthConfig{
		AuthService: authService,
		Logger:      logger,
		RequireRole: role,
	})
}

// AuthMiddleware is the main authentication middleware
func AuthMiddleware(config AuthConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := auth.ExtractTokenFromBearer(c.Get(fiber.HeaderAuthorization))

		// Also check for token in cookie (for web clients)
		if token == "" {
			token = c.Cookies(AccessTokenCookie)
		}

		if token == "" {
			if config.Optional {
				return c.Next()
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authentication required",
			})
		}

		user, claims, err := config.AuthService.ValidateAccessToken(c.UserContext(), token)
		if err != nil {
			config.Logger.WithError(err).WithField("path", c.Path()).Debug("token rejected")
			if config.Optional {
				return c.Next()
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		if config.RequireRole != "" && user.Role != config.RequireRole {
			config.Logger.WithFields(logrus.Fields{
				"user_id":  user.ID,
				"required": config.RequireRole,
				"role":     user.Role,
			}).Warn("role check failed")
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Insufficient permissions",
			})
		}

		storeUserContext(c, user, claims.SessionID)
		return c.Next()
	}
}

// storeUserContext stores user information in the fiber context
func storeUserContext(c *fiber.Ctx, user *models.User, sessionID string) {
	c.Locals("user_id", user.ID.String())
	c.Locals("user_role", user.Role)
	c.Locals("session_id", sessionID)
	c.Locals("user_context", &models.UserContext{
		UserID:    user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Role:      user.Role,
		SessionID: sessionID,
	})
}

// GetUserContext retrieves the user context from the fiber context
func GetUserContext(c *fiber.Ctx) *models.UserContext {
	if ctx := c.Locals("user_context"); ctx != nil {
		if userContext, ok := ctx.(*models.UserContext); ok {
			return userContext
		}
	}
	return nil
}

// GetUserID retrieves the user ID from the fiber context
func GetUserID(c *fiber.Ctx) (uuid.UUID, error) {
	if userID := c.Locals("user_id"); userID != nil {
		if id, ok := userID.(string); ok {
			return uuid.Parse(id)
		}
	}
	return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "User not authenticated")
}
