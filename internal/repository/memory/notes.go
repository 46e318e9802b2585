package memory

import (
	"context"
	"database/sql"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/notesai/notes-backend/internal/models"
)

// NoteStore keeps notes in process memory. Values are copied on the way in
// and out so callers never share a *models.Note with the store.
type NoteStore struct {
	mu    sync.RWMutex
	notes map[uuid.UUID]models.Note
}

func NewNoteStore() *NoteStore {
	return &NoteStore{notes: make(map[uuid.UUID]models.Note)}
}

func (s *NoteStore) Create(ctx context.Context, note *models.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notes[note.ID] = *note
	return nil
}

func (s *NoteStore) GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	note, ok := s.notes[id]
	if !ok || note.UserID != userID {
		return nil, sql.ErrNoRows
	}
	return &note, nil
}

func (s *NoteStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	notes := []*models.Note{}
	for _, note := range s.notes {
		if note.UserID == userID {
			n := note
			notes = append(notes, &n)
		}
	}

	sort.Slice(notes, func(i, j int) bool {
		return notes[i].UpdatedAt.After(notes[j].UpdatedAt)
	})
	return notes, nil
}

func (s *NoteStore) Update(ctx context.Context, note *models.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.notes[note.ID]
	if !ok || existing.UserID != note.UserID {
		return sql.ErrNoRows
	}
	s.notes[note.ID] = *note
	return nil
}

func (s *NoteStore) Delete(ctx context.Context, userID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.notes[id]
	if !ok || existing.UserID != userID {
		return sql.ErrNoRows
	}
	delete(s.notes, id)
	return nil
}
