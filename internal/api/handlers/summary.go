package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/notesai/notes-backend/internal/api/middleware"
	"github.com/notesai/notes-backend/internal/services"
)

// SummarizeRequest is the body of POST /api/summarize
type SummarizeRequest struct {
	Content string `json:"content"`
}

type SummaryHandler struct {
	summaryService *services.SummaryService
	logger         *logrus.Logger
}

func NewSummaryHandler(summaryService *services.SummaryService, logger *logrus.Logger) *SummaryHandler {
	return &SummaryHandler{
		summaryService: summaryService,
		logger:         logger,
	}
}

// Summarize handles POST /api/summarize. The route runs behind optional
// auth so an anonymous caller gets the summarizer's own 401 body.
func (h *SummaryHandler) Summarize(c *fiber.Ctx) error {
	var req SummarizeRequest
	if err := c.BodyParser(&req); err != nil {
		// an unreadable body is the same as no content
		req = SummarizeRequest{}
	}

	result, err := h.summaryService.Summarize(c.UserContext(), services.SummaryRequest{
		Content: req.Content,
		Caller:  middleware.GetUserContext(c),
	})
	if err != nil {
		return writeSummaryError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{
		"summary": result.Summary,
	})
}

// writeSummaryError renders a summarization failure as {"message": ...}
func writeSummaryError(c *fiber.Ctx, logger *logrus.Logger, err error) error {
	var summaryErr *services.SummaryError
	if !errors.As(err, &summaryErr) {
		logger.WithError(err).WithField("path", c.Path()).Error("unexpected summarization failure")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Internal server error",
		})
	}

	if summaryErr.Status >= fiber.StatusInternalServerError {
		logger.WithError(summaryErr).WithField("path", c.Path()).Error("summarization failed")
	}

	return c.Status(summaryErr.Status).JSON(fiber.Map{
		"message": summaryErr.Message,
	})
}
