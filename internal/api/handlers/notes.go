package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/notesai/notes-backend/internal/api/middleware"
	"github.com/notesai/notes-backend/internal/services"
)

// CreateNoteRequest represents a create note request
type CreateNoteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// UpdateNoteRequest represents a partial note update; absent fields are kept
type UpdateNoteRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
	Summary *string `json:"summary"`
}

type NoteHandler struct {
	notes  *services.NoteService
	logger *logrus.Logger
}

func NewNoteHandler(notes *services.NoteService, logger *logrus.Logger) *NoteHandler {
	return &NoteHandler{
		notes:  notes,
		logger: logger,
	}
}

// ListNotes handles GET /api/v1/notes
func (h *NoteHandler) ListNotes(c *fiber.Ctx) error {
	userContext := middleware.GetUserContext(c)
	if userContext == nil {
		return unauthenticated(c)
	}

	notes, err := h.notes.List(c.UserContext(), userContext.UserID)
	if err != nil {
		return h.noteError(c, err)
	}

	return c.JSON(fiber.Map{
		"notes": notes,
	})
}

// CreateNote handles POST /api/v1/notes
func (h *NoteHandler) CreateNote(c *fiber.Ctx) error {
	userContext := middleware.GetUserContext(c)
	if userContext == nil {
		return unauthenticated(c)
	}

	var req CreateNoteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	note, err := h.notes.Create(c.UserContext(), userContext.UserID, services.NoteInput{
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		return h.noteError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(note)
}

// GetNote handles GET /api/v1/notes/:id
func (h *NoteHandler) GetNote(c *fiber.Ctx) error {
	userContext := middleware.GetUserContext(c)
	if userContext == nil {
		return unauthenticated(c)
	}

	note, err := h.notes.Get(c.UserContext(), userContext.UserID, c.Params("id"))
	if err != nil {
		return h.noteError(c, err)
	}

	return c.JSON(note)
}

// UpdateNote handles PUT /api/v1/notes/:id
func (h *NoteHandler) UpdateNote(c *fiber.Ctx) error {
	userContext := middleware.GetUserContext(c)
	if userContext == nil {
		return unauthenticated(c)
	}

	var req UpdateNoteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	note, err := h.notes.Update(c.UserContext(), userContext.UserID, c.Params("id"), services.NotePatch{
		Title:   req.Title,
		Content: req.Content,
		Summary: req.Summary,
	})
	if err != nil {
		return h.noteError(c, err)
	}

	return c.JSON(note)
}

// DeleteNote handles DELETE /api/v1/notes/:id
func (h *NoteHandler) DeleteNote(c *fiber.Ctx) error {
	userContext := middleware.GetUserContext(c)
	if userContext == nil {
		return unauthenticated(c)
	}

	if err := h.notes.Delete(c.UserContext(), userContext.UserID, c.Params("id")); err != nil {
		return h.noteError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// GenerateSummary handles POST /api/v1/notes/:id/summary
func (h *NoteHandler) GenerateSummary(c *fiber.Ctx) error {
	userContext := middleware.GetUserContext(c)
	if userContext == nil {
		return unauthenticated(c)
	}

	note, err := h.notes.GenerateSummary(c.UserContext(), userContext, c.Params("id"))
	if err != nil {
		return h.noteError(c, err)
	}

	return c.JSON(note)
}

func (h *NoteHandler) noteError(c *fiber.Ctx, err error) error {
	var summaryErr *services.SummaryError
	switch {
	case errors.As(err, &summaryErr):
		return writeSummaryError(c, h.logger, err)
	case errors.Is(err, services.ErrNoteNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Note not found",
		})
	case errors.Is(err, services.ErrInvalidNote):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	h.logger.WithError(err).WithField("path", c.Path()).Error("note request failed")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Internal server error",
	})
}

func unauthenticated(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": "Not authenticated",
	})
}
