package services

import (
	"github.com/sirupsen/logrus"

	"github.com/notesai/notes-backend/internal/config"
	"github.com/notesai/notes-backend/internal/providers"
	"github.com/notesai/notes-backend/internal/repository"
)

// Services holds all service instances
type Services struct {
	Notes   *NoteService
	Summary *SummaryService
}

// NewServices creates all service instances. provider is nil when no
// upstream API key is configured.
func NewServices(notes repository.NoteRepository, provider providers.Provider, cfg config.SummarizerConfig, logger *logrus.Logger) *Services {
	summary := NewSummaryService(provider, cfg, logger)

	return &Services{
		Notes:   NewNoteService(notes, summary, logger),
		Summary: summary,
	}
}
