package memory

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/notesai/notes-backend/internal/models"
)

// UserStore implements auth.UserRepository in memory
type UserStore struct {
	mu    sync.RWMutex
	users map[uuid.UUID]models.User
}

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[uuid.UUID]models.User)}
}

func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users[user.ID] = *user
	return nil
}

func (s *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &user, nil
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.find(func(u models.User) bool { return u.Email == email })
}

func (s *UserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.find(func(u models.User) bool { return u.Username == username })
}

func (s *UserStore) Update(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[user.ID]
	if !ok {
		return sql.ErrNoRows
	}
	user.PasswordHash = existing.PasswordHash
	user.UpdatedAt = time.Now()
	s.users[user.ID] = *user
	return nil
}

func (s *UserStore) UpdateLastLogin(ctx context.Context, userID uuid.UUID) error {
	return s.modify(userID, func(u *models.User) {
		now := time.Now()
		u.LastLoginAt = &now
	})
}

func (s *UserStore) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	return s.modify(userID, func(u *models.User) {
		u.PasswordHash = passwordHash
		u.UpdatedAt = time.Now()
	})
}

func (s *UserStore) find(match func(models.User) bool) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if match(user) {
			u := user
			return &u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *UserStore) modify(id uuid.UUID, fn func(*models.User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	fn(&user)
	s.users[id] = user
	return nil
}
