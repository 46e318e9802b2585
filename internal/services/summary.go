package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/sirupsen/logrus"

	"github.com/notesai/notes-backend/internal/config"
	"github.com/notesai/notes-backend/internal/models"
	"github.com/notesai/notes-backend/internal/providers"
)

const (
	// MinSummaryContentLength is the shortest content worth summarizing, counted
	// in UTF-16 code units as browser clients count it
	MinSummaryContentLength = 10

	defaultSummaryModel   = "llama3-8b-8192"
	defaultSummaryTimeout = 30 * time.Second

	summarySystemPrompt = "You are an AI assistant that summarizes text. Create a concise summary that captures the main points of the content. Keep the summary clear and informative."
	summaryUserPrompt   = "Please summarize the following text in a concise way (about 2-3 paragraphs maximum):\n\n"
)

// SummaryRequest is one summarization call. A nil Caller means the request
// carried no valid session.
type SummaryRequest struct {
	Content string
	Caller  *models.UserContext
}

type SummaryResult struct {
	Summary string `json:"summary"`
	Model   string `json:"-"`
}

// SummaryService turns note content into a short summary through the upstream provider
type SummaryService struct {
	provider    providers.Provider
	model       string
	temperature float32
	maxTokens   int
	timeout     time.Duration
	logger      *logrus.Logger
}

// NewSummaryService creates the summarization service. provider may be nil,
// in which case every valid request fails with a ConfigurationError.
func NewSummaryService(provider providers.Provider, cfg config.SummarizerConfig, logger *logrus.Logger) *SummaryService {
	s := &SummaryService{
		provider:    provider,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		timeout:     cfg.Timeout,
		logger:      logger,
	}
	if s.model == "" {
		s.model = defaultSummaryModel
	}
	if s.temperature == 0 {
		s.temperature = 0.3
	}
	if s.maxTokens <= 0 {
		s.maxTokens = 512
	}
	if s.timeout <= 0 {
		s.timeout = defaultSummaryTimeout
	}
	return s
}

// Configured reports whether an upstream provider is available
func (s *SummaryService) Configured() bool {
	return s.provider != nil
}

// Summarize validates the request and asks the upstream provider for a summary
func (s *SummaryService) Summarize(ctx context.Context, req SummaryRequest) (*SummaryResult, error) {
	if req.Caller == nil {
		return nil, errUnauthorized()
	}

	if req.Content == "" || contentLength(req.Content) < MinSummaryContentLength {
		return nil, errContentTooShort()
	}

	if s.provider == nil {
		return nil, errNotConfigured()
	}

	log := s.logger.WithFields(logrus.Fields{
		"user_id":  req.Caller.UserID,
		"provider": s.provider.Name(),
		"model":    s.model,
	})

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	resp, err := s.provider.Complete(callCtx, s.buildRequest(req.Content))
	if err != nil {
		summaryErr := s.translateError(callCtx, err)
		log.WithError(err).WithFields(logrus.Fields{
			"kind":     summaryErr.Kind,
			"status":   summaryErr.Status,
			"duration": time.Since(start),
		}).Warn("summarization failed")
		return nil, summaryErr
	}

	if len(resp.Choices) == 0 {
		log.WithField("response_id", resp.ID).Error("upstream returned no choices")
		return nil, errInternal(errors.New("upstream returned no choices"))
	}

	log.WithFields(logrus.Fields{
		"duration":          time.Since(start),
		"prompt_tokens":     resp.Usage.PromptTokens,
		"completion_tokens": resp.Usage.CompletionTokens,
	}).Debug("summary generated")

	model := resp.Model
	if model == "" {
		model = s.model
	}

	return &SummaryResult{
		Summary: strings.TrimSpace(resp.Choices[0].Message.Content),
		Model:   model,
	}, nil
}

func (s *SummaryService) buildRequest(content string) providers.CompletionRequest {
	temperature := s.temperature
	maxTokens := s.maxTokens

	return providers.CompletionRequest{
		Model: s.model,
		Messages: []providers.Message{
			{Role: providers.RoleSystem, Content: summarySystemPrompt},
			{Role: providers.RoleUser, Content: summaryUserPrompt + content},
		},
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	}
}

func (s *SummaryService) translateError(callCtx context.Context, err error) *SummaryError {
	var upstream *providers.UpstreamError
	switch {
	case errors.As(err, &upstream):
		return errUpstreamRejected(upstream.StatusCode, upstream.Message, err)
	case errors.Is(err, providers.ErrTimeout),
		errors.Is(callCtx.Err(), context.DeadlineExceeded):
		return errUpstreamTimeout(err)
	case errors.Is(err, providers.ErrUnavailable):
		return errUpstreamUnavailable(err)
	default:
		return errInternal(err)
	}
}

// contentLength counts UTF-16 code units, so characters outside the BMP count twice
func contentLength(content string) int {
	return len(utf16.Encode([]rune(content)))
}
