package audit

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/notesai/notes-backend/internal/models"
)

const defaultLogRepositoryRetention = 100

// LogRepository writes audit entries to the structured log and keeps the most
// recent ones per user in memory. Used when the server runs without a database.
type LogRepository struct {
	logger    *logrus.Logger
	retention int

	mu      sync.RWMutex
	entries map[uuid.UUID][]*models.AuditLog
}

func NewLogRepository(logger *logrus.Logger) *LogRepository {
	return &LogRepository{
		logger:    logger,
		retention: defaultLogRepositoryRetention,
		entries:   make(map[uuid.UUID][]*models.AuditLog),
	}
}

func (r *LogRepository) Log(ctx context.Context, entry *models.AuditLog) error {
	fields := logrus.Fields{
		"audit_id":      entry.ID,
		"action":        entry.Action,
		"resource_type": entry.ResourceType,
		"status":        entry.Status,
		"ip_address":    entry.IPAddress,
	}
	if entry.UserID != nil {
		fields["user_id"] = *entry.UserID
	}
	if entry.ResourceID != nil {
		fields["resource_id"] = *entry.ResourceID
	}
	if entry.ErrorMessage != "" {
		fields["error_message"] = entry.ErrorMessage
	}
	r.logger.WithFields(fields).Info("audit")

	if entry.UserID == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *entry
	list := append(r.entries[*entry.UserID], &copied)
	if len(list) > r.retention {
		list = list[len(list)-r.retention:]
	}
	r.entries[*entry.UserID] = list
	return nil
}

// GetByUserID returns the user's retained entries, newest first
func (r *LogRepository) GetByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*models.AuditLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := r.entries[userID]
	if limit <= 0 || limit > len(list) {
		limit = len(list)
	}

	result := make([]*models.AuditLog, 0, limit)
	for i := len(list) - 1; i >= 0 && len(result) < limit; i-- {
		entry := *list[i]
		result = append(result, &entry)
	}
	return result, nil
}
