package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/notesai/notes-backend/internal/models"
)

// EventType represents the type of audit event
type EventType string

const (
	EventLogin          EventType = "auth.login"
	EventLogout         EventType = "auth.logout"
	EventSignup         EventType = "auth.signup"
	EventRefresh        EventType = "auth.refresh"
	EventPasswordChange EventType = "auth.password_change"
	EventNoteCreate     EventType = "notes.create"
	EventNoteUpdate     EventType = "notes.update"
	EventNoteDelete     EventType = "notes.delete"
	EventNoteSummarize  EventType = "notes.summarize"
	EventSummarize      EventType = "summary.generate"
)

const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Event represents an audit event
type Event struct {
	ID           uuid.UUID              `json:"id"`
	EventType    EventType              `json:"event_type"`
	UserID       *uuid.UUID             `json:"user_id,omitempty"`
	IPAddress    string                 `json:"ip_address,omitempty"`
	UserAgent    string                 `json:"user_agent,omitempty"`
	Resource     string                 `json:"resource,omitempty"`
	ResourceID   *uuid.UUID             `json:"resource_id,omitempty"`
	Result       string                 `json:"result,omitempty"`
	ErrorMessage string                 `json:"error_message,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
}

// Repository defines the interface for audit log persistence
type Repository interface {
	Log(ctx context.Context, log *models.AuditLog) error
	GetByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*models.AuditLog, error)
}

// Service records audit events. Recording never fails the caller.
type Service struct {
	repo   Repository
	logger *logrus.Logger
}

// NewService creates a new audit service
func NewService(repo Repository, logger *logrus.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// Record stores event; a storage failure is logged and swallowed
func (s *Service) Record(ctx context.Context, event *Event) {
	if err := s.repo.Log(ctx, toModel(event)); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"event_type": event.EventType,
			"event_id":   event.ID,
		}).Error("failed to write audit log")
	}
}

// GetUserEvents retrieves audit events for a specific user
func (s *Service) GetUserEvents(ctx context.Context, userID uuid.UUID, limit int) ([]*Event, error) {
	logs, err := s.repo.GetByUserID(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	events := make([]*Event, len(logs))
	for i, log := range logs {
		events[i] = &Event{
			ID:           log.ID,
			EventType:    EventType(log.Action),
			UserID:       log.UserID,
			IPAddress:    log.IPAddress,
			UserAgent:    log.UserAgent,
			Resource:     log.ResourceType,
			ResourceID:   log.ResourceID,
			Result:       log.Status,
			ErrorMessage: log.ErrorMessage,
			Metadata:     map[string]interface{}(log.Metadata),
			CreatedAt:    log.CreatedAt,
		}
	}

	return events, nil
}

// NewEvent creates an event stamped with a fresh id and the current time
func NewEvent(eventType EventType, userID *uuid.UUID, ipAddress, userAgent string) *Event {
	return &Event{
		ID:        uuid.New(),
		EventType: eventType,
		UserID:    userID,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		Result:    ResultSuccess,
		CreatedAt: time.Now(),
		Metadata:  make(map[string]interface{}),
	}
}

func toModel(event *Event) *models.AuditLog {
	return &models.AuditLog{
		ID:           event.ID,
		UserID:       event.UserID,
		Action:       string(event.EventType),
		ResourceType: event.Resource,
		ResourceID:   event.ResourceID,
		IPAddress:    event.IPAddress,
		UserAgent:    event.UserAgent,
		Metadata:     models.JSONB(event.Metadata),
		Status:       event.Result,
		ErrorMessage: event.ErrorMessage,
		CreatedAt:    event.CreatedAt,
	}
}
