package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/notesai/notes-backend/internal/models"
)

// NoteRepository defines note storage operations. Reads, updates and deletes
// are keyed by owner as well as id; a missing or foreign row yields sql.ErrNoRows.
type NoteRepository interface {
	Create(ctx context.Context, note *models.Note) error
	GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Note, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Note, error)
	Update(ctx context.Context, note *models.Note) error
	Delete(ctx context.Context, userID, id uuid.UUID) error
}
