package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/notesai/notes-backend/internal/api/middleware"
	"github.com/notesai/notes-backend/internal/audit"
	"github.com/notesai/notes-backend/internal/auth"
	"github.com/notesai/notes-backend/internal/models"
)

const refreshTokenCookie = "refresh_token"

// CookieSettings controls the session cookies handed to browser clients
type CookieSettings struct {
	Secure bool
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	DeviceName string `json:"device_name"`
}

// LoginResponse represents a login response
type LoginResponse struct {
	User         *UserResponse `json:"user"`
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresIn    int           `json:"expires_in"`
}

// SignupRequest represents a signup request
type SignupRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

// RefreshRequest represents a token refresh request
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// RefreshResponse represents a token refresh response
type RefreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// UserResponse represents a user in API responses
type UserResponse struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Username    string     `json:"username"`
	FullName    string     `json:"full_name"`
	Role        string     `json:"role"`
	CreatedAt   time.Time  `json:"created_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

func newUserResponse(user *models.User) *UserResponse {
	return &UserResponse{
		ID:          user.ID.String(),
		Email:       user.Email,
		Username:    user.Username,
		FullName:    user.FullName,
		Role:        user.Role,
		CreatedAt:   user.CreatedAt,
		LastLoginAt: user.LastLoginAt,
	}
}

// Login handles user login
func Login(authService *auth.Service, cookies CookieSettings, logger *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req LoginRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body",
			})
		}

		if req.Email == "" || req.Password == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Email and password are required",
			})
		}

		deviceName := req.DeviceName
		if deviceName == "" {
			deviceName = "Unknown Device"
		}

		user, accessToken, refreshToken, err := authService.Login(
			c.UserContext(),
			strings.TrimSpace(req.Email),
			req.Password,
			c.IP(),
			c.Get(fiber.HeaderUserAgent),
			deviceName,
		)
		if err != nil {
			// Don't reveal specific error to prevent user enumeration
			if errors.Is(err, auth.ErrInvalidCredentials) || errors.Is(err, auth.ErrUserNotFound) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "Invalid email or password",
				})
			}
			if errors.Is(err, auth.ErrUserInactive) {
				return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
					"error": "Account is inactive",
				})
			}
			logger.WithError(err).Error("login failed")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Login failed",
			})
		}

		// attributes the audit entry
		c.Locals("user_id", user.ID.String())
		setSessionCookies(c, cookies, accessToken, refreshToken)

		return c.JSON(LoginResponse{
			User:         newUserResponse(user),
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			ExpiresIn:    int(auth.AccessTokenTTL.Seconds()),
		})
	}
}

// Signup handles user registration and signs the new user in
func Signup(authService *auth.Service, cookies CookieSettings, logger *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req SignupRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body",
			})
		}

		email := strings.TrimSpace(req.Email)
		if email == "" || !strings.Contains(email, "@") {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "A valid email is required",
			})
		}

		if err := auth.ValidatePassword(req.Password); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		// Default the username to the local part of the email
		username := strings.TrimSpace(req.Username)
		explicitUsername := username != ""
		if !explicitUsername {
			username = email[:strings.Index(email, "@")]
		}

		user, err := authService.SignUp(c.UserContext(), email, username, req.Password, req.FullName)
		if errors.Is(err, auth.ErrUsernameAlreadyExists) && !explicitUsername {
			// derived usernames get a random suffix instead of failing
			username = username + "_" + uuid.NewString()[:4]
			user, err = authService.SignUp(c.UserContext(), email, username, req.Password, req.FullName)
		}
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrEmailAlreadyExists):
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{
					"error": "Email already registered",
				})
			case errors.Is(err, auth.ErrUsernameAlreadyExists):
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{
					"error": "Username already taken",
				})
			}
			logger.WithError(err).Error("signup failed")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Registration failed",
			})
		}

		c.Locals("user_id", user.ID.String())

		// Auto-login after signup
		_, accessToken, refreshToken, err := authService.Login(
			c.UserContext(),
			email,
			req.Password,
			c.IP(),
			c.Get(fiber.HeaderUserAgent),
			"New Registration",
		)
		if err != nil {
			logger.WithError(err).WithField("user_id", user.ID).Warn("login after signup failed")
			return c.Status(fiber.StatusCreated).JSON(fiber.Map{
				"user":    newUserResponse(user),
				"message": "Registration successful. Please login.",
			})
		}

		setSessionCookies(c, cookies, accessToken, refreshToken)

		return c.Status(fiber.StatusCreated).JSON(LoginResponse{
			User:         newUserResponse(user),
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			ExpiresIn:    int(auth.AccessTokenTTL.Seconds()),
		})
	}
}

// RefreshToken handles token refresh
func RefreshToken(authService *auth.Service, cookies CookieSettings, logger *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// body, then Authorization header, then cookie
		var req RefreshRequest
		_ = c.BodyParser(&req)

		refreshToken := req.RefreshToken
		if refreshToken == "" {
			refreshToken = auth.ExtractTokenFromBearer(c.Get(fiber.HeaderAuthorization))
		}
		if refreshToken == "" {
			refreshToken = c.Cookies(refreshTokenCookie)
		}

		if refreshToken == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Refresh token required",
			})
		}

		newAccessToken, newRefreshToken, err := authService.RefreshToken(c.UserContext(), refreshToken)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrInvalidToken),
				errors.Is(err, auth.ErrExpiredToken),
				errors.Is(err, auth.ErrSessionExpired),
				errors.Is(err, auth.ErrSessionNotFound),
				errors.Is(err, auth.ErrUserInactive):
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "Invalid or expired refresh token",
				})
			}
			logger.WithError(err).Error("token refresh failed")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Token refresh failed",
			})
		}

		setSessionCookies(c, cookies, newAccessToken, newRefreshToken)

		return c.JSON(RefreshResponse{
			AccessToken:  newAccessToken,
			RefreshToken: newRefreshToken,
			ExpiresIn:    int(auth.AccessTokenTTL.Seconds()),
		})
	}
}

// Logout revokes the current session and clears the cookies
func Logout(authService *auth.Service, cookies CookieSettings, logger *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if userContext := middleware.GetUserContext(c); userContext != nil {
			// Log error but don't fail logout
			if err := authService.Logout(c.UserContext(), userContext.SessionID); err != nil {
				logger.WithError(err).WithField("session_id", userContext.SessionID).Warn("failed to revoke session")
			}
		}

		clearSessionCookies(c, cookies)

		return c.JSON(fiber.Map{
			"message": "Logged out successfully",
		})
	}
}

// GetCurrentUser returns the current authenticated user
func GetCurrentUser(authService *auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userContext := middleware.GetUserContext(c)
		if userContext == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Not authenticated",
			})
		}

		user, err := authService.GetUser(c.UserContext(), userContext.UserID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to get user data",
			})
		}

		return c.JSON(newUserResponse(user))
	}
}

// ChangePassword changes the current user's password. Every session of the
// user, including the current one, is signed out.
func ChangePassword(authService *auth.Service, cookies CookieSettings, logger *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userContext := middleware.GetUserContext(c)
		if userContext == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Not authenticated",
			})
		}

		var req struct {
			CurrentPassword string `json:"current_password"`
			NewPassword     string `json:"new_password"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body",
			})
		}

		err := authService.ChangePassword(c.UserContext(), userContext.UserID, req.CurrentPassword, req.NewPassword)
		switch {
		case err == nil:
		case errors.Is(err, auth.ErrInvalidCredentials):
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Current password is incorrect",
			})
		case errors.Is(err, auth.ErrPasswordTooShort), errors.Is(err, auth.ErrPasswordTooWeak):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		default:
			logger.WithError(err).WithField("user_id", userContext.UserID).Error("password change failed")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to change password",
			})
		}

		clearSessionCookies(c, cookies)

		return c.JSON(fiber.Map{
			"message": "Password changed successfully",
		})
	}
}

// GetActivity lists the current user's recent audit events
func GetActivity(auditService *audit.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userContext := middleware.GetUserContext(c)
		if userContext == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Not authenticated",
			})
		}

		events, err := auditService.GetUserEvents(c.UserContext(), userContext.UserID, activityLimit(c))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to load activity",
			})
		}
		if events == nil {
			events = []*audit.Event{}
		}

		return c.JSON(fiber.Map{
			"events": events,
		})
	}
}

// GetUserActivity lets an admin read another user's audit trail
func GetUserActivity(auditService *audit.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "User not found",
			})
		}

		events, err := auditService.GetUserEvents(c.UserContext(), userID, activityLimit(c))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to load activity",
			})
		}
		if events == nil {
			events = []*audit.Event{}
		}

		return c.JSON(fiber.Map{
			"user_id": userID,
			"events":  events,
		})
	}
}

func activityLimit(c *fiber.Ctx) int {
	limit := c.QueryInt("limit", 50)
	if limit <= 0 || limit > 200 {
		return 50
	}
	return limit
}

func setSessionCookies(c *fiber.Ctx, cookies CookieSettings, accessToken, refreshToken string) {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    accessToken,
		Expires:  time.Now().Add(auth.AccessTokenTTL),
		HTTPOnly: true,
		Secure:   cookies.Secure,
		SameSite: fiber.CookieSameSiteStrictMode,
	})

	c.Cookie(&fiber.Cookie{
		Name:     refreshTokenCookie,
		Value:    refreshToken,
		Expires:  time.Now().Add(auth.RefreshTokenTTL),
		HTTPOnly: true,
		Secure:   cookies.Secure,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

func clearSessionCookies(c *fiber.Ctx, cookies CookieSettings) {
	for _, name := range []string{middleware.AccessTokenCookie, refreshTokenCookie} {
		c.Cookie(&fiber.Cookie{
			Name:     name,
			Value:    "",
			Expires:  time.Now().Add(-time.Hour),
			HTTPOnly: true,
			Secure:   cookies.Secure,
			SameSite: fiber.CookieSameSiteStrictMode,
		})
	}
}
