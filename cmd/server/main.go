package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/notesai/notes-backend/internal/api"
	"github.com/notesai/notes-backend/internal/api/handlers"
	"github.com/notesai/notes-backend/internal/audit"
	"github.com/notesai/notes-backend/internal/auth"
	"github.com/notesai/notes-backend/internal/config"
	"github.com/notesai/notes-backend/internal/database"
	"github.com/notesai/notes-backend/internal/logging"
	"github.com/notesai/notes-backend/internal/providers"
	"github.com/notesai/notes-backend/internal/providers/openai"
	"github.com/notesai/notes-backend/internal/repository"
	"github.com/notesai/notes-backend/internal/repository/memory"
	"github.com/notesai/notes-backend/internal/repository/postgres"
	"github.com/notesai/notes-backend/internal/scheduler"
	"github.com/notesai/notes-backend/internal/services"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}

	log := logging.New(cfg.Log)

	if cfg.Auth.JWTSecret == config.DefaultJWTSecret {
		log.Warn("using default JWT secret, set NOTES_JWT_SECRET in production")
	}

	var (
		userRepo     auth.UserRepository
		sessionRepo  auth.SessionRepository
		noteRepo     repository.NoteRepository
		auditRepo    audit.Repository
		dbPinger     handlers.Pinger
		closeStorage = func() {}
	)

	if cfg.Database.UseInMemory {
		log.Warn("running on in-memory storage, data is lost on restart")
		userRepo = memory.NewUserStore()
		sessionRepo = memory.NewSessionStore()
		noteRepo = memory.NewNoteStore()
		auditRepo = audit.NewLogRepository(log)
	} else {
		db, err := database.NewConnection(cfg.Database)
		if err != nil {
			log.WithError(err).Fatal("failed to connect to database")
		}
		closeStorage = func() {
			if err := db.Close(); err != nil {
				log.WithError(err).Warn("failed to close database")
			}
		}

		if err := database.RunMigrations(cfg.Database); err != nil {
			closeStorage()
			log.WithError(err).Fatal("failed to run migrations")
		}

		userRepo = postgres.NewUserRepository(db.DB)
		sessionRepo = postgres.NewUserSessionRepository(db.DB)
		noteRepo = postgres.NewNoteRepository(db.DB)
		auditRepo = postgres.NewAuditLogRepository(db.DB)
		dbPinger = db
	}
	defer closeStorage()

	// a nil provider leaves summarization unconfigured
	var provider providers.Provider
	if cfg.Summarizer.APIKey != "" {
		p, err := openai.NewProvider(cfg.Summarizer)
		if err != nil {
			log.WithError(err).Fatal("failed to create summarization provider")
		}
		provider = p
		log.WithFields(logrus.Fields{
			"provider": p.Name(),
			"model":    cfg.Summarizer.Model,
			"timeout":  cfg.Summarizer.Timeout,
		}).Info("summarization provider configured")
	} else {
		log.Warn("no summarizer API key configured, summarization requests will fail")
	}

	auditService := audit.NewService(auditRepo, log)
	authService := auth.NewService(userRepo, sessionRepo, cfg.Auth.JWTSecret, cfg.Auth.Issuer, log)
	svc := services.NewServices(noteRepo, provider, cfg.Summarizer, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	jobs := scheduler.New(ctx, authService, cfg.Jobs.SessionCleanupSpec, log)
	if err := jobs.Start(); err != nil {
		log.WithError(err).Fatal("failed to start scheduler")
	}

	app := api.NewApp(api.ServerConfig{
		CORSOrigins: cfg.Server.CORSOrigins,
		AccessLog:   true,
	}, api.Dependencies{
		Services:     svc,
		AuthService:  authService,
		AuditService: auditService,
		Logger:       log,
		DB:           dbPinger,
		SecureCookie: cfg.Auth.SecureCookie,
	})

	serverErr := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.Server.Addr()).Info("notes backend starting")
		serverErr <- app.Listen(cfg.Server.Addr())
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			log.WithError(err).Error("server stopped")
		}
	case <-ctx.Done():
		log.Info("shutting down")
	}

	jobs.Stop()
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		log.WithError(err).Warn("graceful shutdown failed")
	}
}
