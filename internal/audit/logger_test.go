package audit

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notesai/notes-backend/internal/logging"
	"github.com/notesai/notes-backend/internal/models"
)

type failingRepository struct{}

func (failingRepository) Log(ctx context.Context, log *models.AuditLog) error {
	return errors.New("database is down")
}

func (failingRepository) GetByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*models.AuditLog, error) {
	return nil, errors.New("database is down")
}

func TestService_RecordAndList(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewLogRepository(logging.Discard()), logging.Discard())
	userID := uuid.New()
	noteID := uuid.New()

	login := NewEvent(EventLogin, &userID, "127.0.0.1", "test")
	svc.Record(ctx, login)

	create := NewEvent(EventNoteCreate, &userID, "127.0.0.1", "test")
	create.Resource = "notes"
	create.ResourceID = &noteID
	create.Metadata["status"] = 201
	svc.Record(ctx, create)

	// anonymous events are logged but not retained
	svc.Record(ctx, NewEvent(EventSummarize, nil, "127.0.0.1", "test"))

	events, err := svc.GetUserEvents(ctx, userID, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, EventNoteCreate, events[0].EventType)
	assert.Equal(t, &noteID, events[0].ResourceID)
	assert.Equal(t, EventLogin, events[1].EventType)
	assert.Equal(t, ResultSuccess, events[1].Result)

	events, err = svc.GetUserEvents(ctx, userID, 1)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestService_RecordSwallowsFailures(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)

	svc := NewService(failingRepository{}, logger)
	assert.NotPanics(t, func() {
		svc.Record(context.Background(), NewEvent(EventLogout, nil, "", ""))
	})
	assert.Contains(t, buf.String(), "failed to write audit log")
}

func TestLogRepository_Retention(t *testing.T) {
	ctx := context.Background()
	repo := NewLogRepository(logging.Discard())
	repo.retention = 3
	userID := uuid.New()

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Log(ctx, &models.AuditLog{ID: uuid.New(), UserID: &userID, Action: "notes.update"}))
	}

	entries, err := repo.GetByUserID(ctx, userID, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}
