package memory

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/notesai/notes-backend/internal/models"
)

// SessionStore implements auth.SessionRepository in memory
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]models.UserSession
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[uuid.UUID]models.UserSession)}
}

func (s *SessionStore) Create(ctx context.Context, session *models.UserSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[session.ID] = *session
	return nil
}

func (s *SessionStore) GetByID(ctx context.Context, id uuid.UUID) (*models.UserSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &session, nil
}

func (s *SessionStore) Update(ctx context.Context, session *models.UserSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[session.ID]; !ok {
		return sql.ErrNoRows
	}
	s.sessions[session.ID] = *session
	return nil
}

func (s *SessionStore) DeleteExpired(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	var deleted int64
	for id, session := range s.sessions {
		if session.RefreshExpiresAt.Before(now) || session.RevokedAt != nil {
			delete(s.sessions, id)
			deleted++
		}
	}
	return deleted, nil
}

func (s *SessionStore) DeleteUserSessions(ctx context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, session := range s.sessions {
		if session.UserID == userID {
			delete(s.sessions, id)
		}
	}
	return nil
}
