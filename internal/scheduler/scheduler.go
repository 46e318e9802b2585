package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultSessionCleanupSpec runs the session janitor once an hour
	DefaultSessionCleanupSpec = "@every 1h"
	sessionCleanupTimeout     = 5 * time.Minute
)

// SessionCleaner removes expired and revoked sessions
type SessionCleaner interface {
	CleanupExpiredSessions(ctx context.Context) (int64, error)
}

type Scheduler struct {
	ctx      context.Context
	cron     *cron.Cron
	sessions SessionCleaner
	spec     string
	log      *logrus.Logger
}

func New(ctx context.Context, sessions SessionCleaner, spec string, log *logrus.Logger) *Scheduler {
	if spec == "" {
		spec = DefaultSessionCleanupSpec
	}

	return &Scheduler{
		ctx:      ctx,
		cron:     cron.New(cron.WithLocation(time.UTC)),
		sessions: sessions,
		spec:     spec,
		log:      log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.cleanupSessions); err != nil {
		return fmt.Errorf("invalid session cleanup schedule %q: %w", s.spec, err)
	}

	s.cron.Start()
	s.log.WithField("spec", s.spec).Info("session cleanup scheduled")

	return nil
}

// Stop stops the scheduler and waits for a running job to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) cleanupSessions() {
	ctx, cancel := context.WithTimeout(s.ctx, sessionCleanupTimeout)
	defer cancel()

	if ctx.Err() != nil {
		s.log.WithError(ctx.Err()).Info("scheduler context is done")
		return
	}

	start := time.Now()
	removed, err := s.sessions.CleanupExpiredSessions(ctx)
	if err != nil {
		s.log.WithError(err).Error("failed to clean up expired sessions")
		return
	}

	s.log.WithFields(logrus.Fields{
		"removed":  removed,
		"duration": time.Since(start),
	}).Info("expired sessions cleaned up")
}
