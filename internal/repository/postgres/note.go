package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/notesai/notes-backend/internal/models"
)

const noteColumns = `
	id, user_id, title, content, summary, summary_content_hash,
	summarized_at, created_at, updated_at`

// NoteRepository implements repository.NoteRepository. Every query is scoped
// to the owning user so a foreign id reads as sql.ErrNoRows.
type NoteRepository struct {
	db *sqlx.DB
}

func NewNoteRepository(db *sqlx.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

func (r *NoteRepository) Create(ctx context.Context, note *models.Note) error {
	query := `
		INSERT INTO notes (` + noteColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.ExecContext(ctx, query,
		note.ID, note.UserID, note.Title, note.Content, note.Summary,
		note.SummaryContentHash, note.SummarizedAt, note.CreatedAt, note.UpdatedAt,
	)
	return err
}

func (r *NoteRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Note, error) {
	var note models.Note
	query := `SELECT ` + noteColumns + ` FROM notes WHERE id = $1 AND user_id = $2`
	if err := r.db.GetContext(ctx, &note, query, id, userID); err != nil {
		return nil, err
	}
	return &note, nil
}

func (r *NoteRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Note, error) {
	notes := []*models.Note{}
	query := `SELECT ` + noteColumns + ` FROM notes WHERE user_id = $1 ORDER BY updated_at DESC`
	if err := r.db.SelectContext(ctx, &notes, query, userID); err != nil {
		return nil, err
	}
	return notes, nil
}

func (r *NoteRepository) Update(ctx context.Context, note *models.Note) error {
	query := `
		UPDATE notes SET
			title = $3,
			content = $4,
			summary = $5,
			summary_content_hash = $6,
			summarized_at = $7,
			updated_at = $8
		WHERE id = $1 AND user_id = $2`

	res, err := r.db.ExecContext(ctx, query,
		note.ID, note.UserID, note.Title, note.Content, note.Summary,
		note.SummaryContentHash, note.SummarizedAt, note.UpdatedAt,
	)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func (r *NoteRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
