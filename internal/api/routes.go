package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/notesai/notes-backend/internal/api/handlers"
	"github.com/notesai/notes-backend/internal/api/middleware"
	"github.com/notesai/notes-backend/internal/audit"
	"github.com/notesai/notes-backend/internal/auth"
	"github.com/notesai/notes-backend/internal/models"
	"github.com/notesai/notes-backend/internal/services"
)

// Dependencies are the collaborators the HTTP layer needs
type Dependencies struct {
	Services     *services.Services
	AuthService  *auth.Service
	AuditService *audit.Service
	Logger       *logrus.Logger
	// DB is nil on in-memory storage
	DB           handlers.Pinger
	SecureCookie bool
}

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, deps Dependencies) {
	cookies := handlers.CookieSettings{Secure: deps.SecureCookie}
	authRequired := middleware.AuthRequired(deps.AuthService, deps.Logger)
	optionalAuth := middleware.OptionalAuth(deps.AuthService, deps.Logger)

	app.Use(middleware.AuditMiddleware(middleware.AuditConfig{
		Service:   deps.AuditService,
		SkipPaths: []string{"/api/v1/health"},
	}))

	summaryHandler := handlers.NewSummaryHandler(deps.Services.Summary, deps.Logger)
	noteHandler := handlers.NewNoteHandler(deps.Services.Notes, deps.Logger)

	// Summarization keeps its original unversioned path
	app.Post("/api/summarize", optionalAuth, middleware.SummarizeRateLimit(), summaryHandler.Summarize)

	api := app.Group("/api/v1")

	// ========================================
	// Public routes (no authentication needed)
	// ========================================

	api.Get("/health", handlers.Health(deps.DB, deps.Services.Summary.Configured()))

	authGroup := api.Group("/auth")
	authGroup.Post("/login", middleware.AuthRateLimit(), handlers.Login(deps.AuthService, cookies, deps.Logger))
	authGroup.Post("/signup", middleware.SignupRateLimit(), handlers.Signup(deps.AuthService, cookies, deps.Logger))
	authGroup.Post("/refresh", middleware.AuthRateLimit(), handlers.RefreshToken(deps.AuthService, cookies, deps.Logger))
	authGroup.Post("/logout", authRequired, handlers.Logout(deps.AuthService, cookies, deps.Logger))
	authGroup.Get("/me", authRequired, handlers.GetCurrentUser(deps.AuthService))
	authGroup.Put("/password", authRequired, handlers.ChangePassword(deps.AuthService, cookies, deps.Logger))
	authGroup.Get("/activity", authRequired, handlers.GetActivity(deps.AuditService))

	api.Post("/summarize", optionalAuth, middleware.SummarizeRateLimit(), summaryHandler.Summarize)

	// ========================================
	// Protected routes (authentication required)
	// ========================================

	notes := api.Group("/notes", authRequired, middleware.DefaultRateLimit())
	notes.Get("/", noteHandler.ListNotes)
	notes.Post("/", noteHandler.CreateNote)
	notes.Get("/:id", noteHandler.GetNote)
	notes.Put("/:id", noteHandler.UpdateNote)
	notes.Delete("/:id", noteHandler.DeleteNote)
	notes.Post("/:id/summary", middleware.SummarizeRateLimit(), noteHandler.GenerateSummary)

	admin := api.Group("/admin", middleware.RequireRole(deps.AuthService, deps.Logger, models.RoleAdmin))
	admin.Get("/users/:id/activity", handlers.GetUserActivity(deps.AuditService))
}
