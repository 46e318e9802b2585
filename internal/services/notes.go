package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/notesai/notes-backend/internal/models"
	"github.com/notesai/notes-backend/internal/repository"
)

var (
	// ErrNoteNotFound is returned for missing notes and notes owned by someone else
	ErrNoteNotFound = errors.New("note not found")
	// ErrInvalidNote is returned when a note fails validation
	ErrInvalidNote = errors.New("invalid note")
)

// NoteInput is the payload of a create
type NoteInput struct {
	Title   string
	Content string
}

// NotePatch is a partial update; nil fields are left untouched
type NotePatch struct {
	Title   *string
	Content *string
	Summary *string
}

// NoteService manages a user's notes
type NoteService struct {
	repo    repository.NoteRepository
	summary *SummaryService
	logger  *logrus.Logger
	now     func() time.Time
}

func NewNoteService(repo repository.NoteRepository, summary *SummaryService, logger *logrus.Logger) *NoteService {
	return &NoteService{
		repo:    repo,
		summary: summary,
		logger:  logger,
		now:     time.Now,
	}
}

// Create stores a new note for owner
func (s *NoteService) Create(ctx context.Context, owner uuid.UUID, input NoteInput) (*models.Note, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidNote)
	}

	now := s.now()
	note := &models.Note{
		ID:        uuid.New(),
		UserID:    owner,
		Title:     title,
		Content:   input.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, note); err != nil {
		return nil, fmt.Errorf("failed to create note: %w", err)
	}

	return note, nil
}

// Get returns one of owner's notes
func (s *NoteService) Get(ctx context.Context, owner uuid.UUID, id string) (*models.Note, error) {
	noteID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNoteNotFound
	}

	note, err := s.repo.GetByID(ctx, owner, noteID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoteNotFound
		}
		return nil, fmt.Errorf("failed to get note: %w", err)
	}

	return note, nil
}

// List returns owner's notes, most recently updated first
func (s *NoteService) List(ctx context.Context, owner uuid.UUID) ([]*models.Note, error) {
	notes, err := s.repo.ListByUser(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	if notes == nil {
		notes = []*models.Note{}
	}
	return notes, nil
}

// Update applies patch to one of owner's notes
func (s *NoteService) Update(ctx context.Context, owner uuid.UUID, id string, patch NotePatch) (*models.Note, error) {
	note, err := s.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title is required", ErrInvalidNote)
		}
		note.Title = title
	}
	if patch.Content != nil {
		note.Content = *patch.Content
	}

	now := s.now()
	// content first, so the summary hash matches what was just written
	if patch.Summary != nil {
		note.SetSummary(*patch.Summary, now)
	}
	note.UpdatedAt = now

	if err := s.save(ctx, note); err != nil {
		return nil, err
	}

	return note, nil
}

// Delete removes one of owner's notes
func (s *NoteService) Delete(ctx context.Context, owner uuid.UUID, id string) error {
	noteID, err := uuid.Parse(id)
	if err != nil {
		return ErrNoteNotFound
	}

	if err := s.repo.Delete(ctx, owner, noteID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNoteNotFound
		}
		return fmt.Errorf("failed to delete note: %w", err)
	}

	return nil
}

// GenerateSummary summarizes the note's content and stores the result on the note.
// Summarization failures are returned as *SummaryError unchanged.
func (s *NoteService) GenerateSummary(ctx context.Context, caller *models.UserContext, id string) (*models.Note, error) {
	if caller == nil {
		return nil, errUnauthorized()
	}

	note, err := s.Get(ctx, caller.UserID, id)
	if err != nil {
		return nil, err
	}

	result, err := s.summary.Summarize(ctx, SummaryRequest{Content: note.Content, Caller: caller})
	if err != nil {
		return nil, err
	}

	now := s.now()
	note.SetSummary(result.Summary, now)
	note.UpdatedAt = now

	if err := s.save(ctx, note); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": caller.UserID,
		"note_id": note.ID,
		"model":   result.Model,
	}).Info("note summary stored")

	return note, nil
}

func (s *NoteService) save(ctx context.Context, note *models.Note) error {
	if err := s.repo.Update(ctx, note); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNoteNotFound
		}
		return fmt.Errorf("failed to update note: %w", err)
	}
	return nil
}
