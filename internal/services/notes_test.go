package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notesai/notes-backend/internal/logging"
	"github.com/notesai/notes-backend/internal/models"
	"github.com/notesai/notes-backend/internal/providers"
	"github.com/notesai/notes-backend/internal/repository/memory"
)

func newTestNoteService(provider providers.Provider) *NoteService {
	summary := NewSummaryService(provider, testSummarizerConfig(), logging.Discard())
	return NewNoteService(memory.NewNoteStore(), summary, logging.Discard())
}

func strPtr(s string) *string { return &s }

func TestNoteService_CreateRequiresTitle(t *testing.T) {
	svc := newTestNoteService(nil)

	_, err := svc.Create(context.Background(), uuid.New(), NoteInput{Title: "   ", Content: "body"})
	assert.ErrorIs(t, err, ErrInvalidNote)

	note, err := svc.Create(context.Background(), uuid.New(), NoteInput{Title: "  Groceries ", Content: "milk"})
	require.NoError(t, err)
	assert.Equal(t, "Groceries", note.Title)
	assert.Empty(t, note.Summary)
	assert.Nil(t, note.SummarizedAt)
}

func TestNoteService_OwnerIsolation(t *testing.T) {
	ctx := context.Background()
	svc := newTestNoteService(&fakeProvider{})
	alice, bob := uuid.New(), uuid.New()

	note, err := svc.Create(ctx, alice, NoteInput{Title: "Private", Content: longContent})
	require.NoError(t, err)

	_, err = svc.Get(ctx, bob, note.ID.String())
	assert.ErrorIs(t, err, ErrNoteNotFound)

	_, err = svc.Update(ctx, bob, note.ID.String(), NotePatch{Title: strPtr("Mine now")})
	assert.ErrorIs(t, err, ErrNoteNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, bob, note.ID.String()), ErrNoteNotFound)

	_, err = svc.GenerateSummary(ctx, &models.UserContext{UserID: bob}, note.ID.String())
	assert.ErrorIs(t, err, ErrNoteNotFound)

	bobs, err := svc.List(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, bobs)

	got, err := svc.Get(ctx, alice, note.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Private", got.Title)
}

func TestNoteService_InvalidIDIsNotFound(t *testing.T) {
	svc := newTestNoteService(nil)

	_, err := svc.Get(context.Background(), uuid.New(), "not-a-uuid")
	assert.ErrorIs(t, err, ErrNoteNotFound)
	assert.ErrorIs(t, svc.Delete(context.Background(), uuid.New(), "not-a-uuid"), ErrNoteNotFound)
}

func TestNoteService_PartialUpdate(t *testing.T) {
	ctx := context.Background()
	svc := newTestNoteService(nil)
	owner := uuid.New()

	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return created }
	note, err := svc.Create(ctx, owner, NoteInput{Title: "Title", Content: "first"})
	require.NoError(t, err)

	later := created.Add(time.Hour)
	svc.now = func() time.Time { return later }
	updated, err := svc.Update(ctx, owner, note.ID.String(), NotePatch{Content: strPtr("second")})
	require.NoError(t, err)

	assert.Equal(t, "Title", updated.Title)
	assert.Equal(t, "second", updated.Content)
	assert.Equal(t, created, updated.CreatedAt)
	assert.Equal(t, later, updated.UpdatedAt)

	_, err = svc.Update(ctx, owner, note.ID.String(), NotePatch{Title: strPtr("")})
	assert.ErrorIs(t, err, ErrInvalidNote)
}

func TestNoteService_SummaryPatchStampsContentHash(t *testing.T) {
	ctx := context.Background()
	svc := newTestNoteService(nil)
	owner := uuid.New()

	note, err := svc.Create(ctx, owner, NoteInput{Title: "Title", Content: "old"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, owner, note.ID.String(), NotePatch{
		Content: strPtr("new content"),
		Summary: strPtr("short version"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.ContentHash("new content"), updated.SummaryContentHash)
	require.NotNil(t, updated.SummarizedAt)
	assert.False(t, updated.SummaryStale())

	// editing content afterwards leaves the summary in place but stale
	updated, err = svc.Update(ctx, owner, note.ID.String(), NotePatch{Content: strPtr("newer content")})
	require.NoError(t, err)
	assert.Equal(t, "short version", updated.Summary)
	assert.True(t, updated.SummaryStale())

	updated, err = svc.Update(ctx, owner, note.ID.String(), NotePatch{Summary: strPtr("")})
	require.NoError(t, err)
	assert.Empty(t, updated.Summary)
	assert.Empty(t, updated.SummaryContentHash)
	assert.Nil(t, updated.SummarizedAt)
}

func TestNoteService_GenerateSummary(t *testing.T) {
	ctx := context.Background()
	provider := &fakeProvider{complete: func(ctx context.Context, req providers.CompletionRequest) (*providers.CompletionResponse, error) {
		return reply("\nRevenue grew everywhere.\n"), nil
	}}
	svc := newTestNoteService(provider)
	caller := testCaller()

	note, err := svc.Create(ctx, caller.UserID, NoteInput{Title: "Report", Content: longContent})
	require.NoError(t, err)

	updated, err := svc.GenerateSummary(ctx, caller, note.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Revenue grew everywhere.", updated.Summary)
	assert.Equal(t, models.ContentHash(longContent), updated.SummaryContentHash)
	require.NotNil(t, updated.SummarizedAt)

	stored, err := svc.Get(ctx, caller.UserID, note.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Revenue grew everywhere.", stored.Summary)
}

func TestNoteService_GenerateSummaryPassesThroughSummaryErrors(t *testing.T) {
	ctx := context.Background()
	caller := testCaller()

	svc := newTestNoteService(&fakeProvider{})
	note, err := svc.Create(ctx, caller.UserID, NoteInput{Title: "Tiny", Content: "too short"})
	require.NoError(t, err)
	_, err = svc.GenerateSummary(ctx, caller, note.ID.String())
	assert.ErrorIs(t, err, ErrInvalidInput)

	unconfigured := newTestNoteService(nil)
	note, err = unconfigured.Create(ctx, caller.UserID, NoteInput{Title: "Report", Content: longContent})
	require.NoError(t, err)
	_, err = unconfigured.GenerateSummary(ctx, caller, note.ID.String())
	assert.ErrorIs(t, err, ErrConfiguration)

	stored, err := unconfigured.Get(ctx, caller.UserID, note.ID.String())
	require.NoError(t, err)
	assert.Empty(t, stored.Summary)

	_, err = unconfigured.GenerateSummary(ctx, nil, note.ID.String())
	assert.ErrorIs(t, err, ErrUnauthorized)
}
