package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notesai/notes-backend/internal/config"
	"github.com/notesai/notes-backend/internal/logging"
	"github.com/notesai/notes-backend/internal/models"
	"github.com/notesai/notes-backend/internal/providers"
	"github.com/notesai/notes-backend/internal/providers/openai"
)

type fakeProvider struct {
	mu       sync.Mutex
	calls    int
	requests []providers.CompletionRequest
	complete func(ctx context.Context, req providers.CompletionRequest) (*providers.CompletionResponse, error)
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Complete(ctx context.Context, req providers.CompletionRequest) (*providers.CompletionResponse, error) {
	f.mu.Lock()
	f.calls++
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.complete != nil {
		return f.complete(ctx, req)
	}
	return reply("A summary."), nil
}

func (f *fakeProvider) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func reply(content string) *providers.CompletionResponse {
	return &providers.CompletionResponse{
		ID:    "cmpl-1",
		Model: "llama3-8b-8192",
		Choices: []providers.Choice{
			{Message: providers.Message{Role: providers.RoleAssistant, Content: content}},
		},
	}
}

func testSummarizerConfig() config.SummarizerConfig {
	return config.SummarizerConfig{
		Model:       "llama3-8b-8192",
		Temperature: 0.3,
		MaxTokens:   512,
		Timeout:     time.Second,
	}
}

func testCaller() *models.UserContext {
	return &models.UserContext{UserID: uuid.New(), Username: "alice"}
}

const longContent = "The quarterly report shows revenue growth across all regions."

func TestSummarize_UnauthenticatedMakesNoUpstreamCall(t *testing.T) {
	provider := &fakeProvider{}
	svc := NewSummaryService(provider, testSummarizerConfig(), logging.Discard())

	for _, content := range []string{"", "short", longContent} {
		_, err := svc.Summarize(context.Background(), SummaryRequest{Content: content})

		var summaryErr *SummaryError
		require.ErrorAs(t, err, &summaryErr)
		assert.Equal(t, Unauthorized, summaryErr.Kind)
		assert.Equal(t, http.StatusUnauthorized, summaryErr.Status)
		assert.Equal(t, "Unauthorized", summaryErr.Message)
	}

	assert.Equal(t, 0, provider.Calls())
}

func TestSummarize_ShortContentMakesNoUpstreamCall(t *testing.T) {
	provider := &fakeProvider{}
	svc := NewSummaryService(provider, testSummarizerConfig(), logging.Discard())

	for _, content := range []string{"", "a", "123456789", "ééééééééé", "😀😀😀😀"} {
		_, err := svc.Summarize(context.Background(), SummaryRequest{Content: content, Caller: testCaller()})

		var summaryErr *SummaryError
		require.ErrorAs(t, err, &summaryErr, "content %q", content)
		assert.Equal(t, InvalidInput, summaryErr.Kind)
		assert.Equal(t, http.StatusBadRequest, summaryErr.Status)
		assert.Equal(t, "Content is too short for summarization", summaryErr.Message)
	}

	assert.Equal(t, 0, provider.Calls())

	// ten characters is enough, however many bytes they take
	_, err := svc.Summarize(context.Background(), SummaryRequest{Content: "éééééééééé", Caller: testCaller()})
	require.NoError(t, err)
	assert.Equal(t, 1, provider.Calls())

	// five emoji are ten UTF-16 code units
	_, err = svc.Summarize(context.Background(), SummaryRequest{Content: "😀😀😀😀😀", Caller: testCaller()})
	require.NoError(t, err)
	assert.Equal(t, 2, provider.Calls())
}

func TestContentLength(t *testing.T) {
	assert.Equal(t, 0, contentLength(""))
	assert.Equal(t, 5, contentLength("hello"))
	assert.Equal(t, 3, contentLength("héé"))
	assert.Equal(t, 2, contentLength("😀"))
	assert.Equal(t, 10, contentLength("😀😀😀😀😀"))
}

func TestSummarize_MissingProviderIsConfigurationError(t *testing.T) {
	svc := NewSummaryService(nil, testSummarizerConfig(), logging.Discard())
	assert.False(t, svc.Configured())

	_, err := svc.Summarize(context.Background(), SummaryRequest{Content: longContent, Caller: testCaller()})

	var summaryErr *SummaryError
	require.ErrorAs(t, err, &summaryErr)
	assert.True(t, errors.Is(err, ErrConfiguration))
	assert.Equal(t, http.StatusInternalServerError, summaryErr.Status)
	assert.Equal(t, "API key for summarization service is not configured", summaryErr.Message)

	// authentication still comes first
	_, err = svc.Summarize(context.Background(), SummaryRequest{Content: longContent})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestSummarize_BuildsPrompt(t *testing.T) {
	provider := &fakeProvider{}
	svc := NewSummaryService(provider, testSummarizerConfig(), logging.Discard())

	_, err := svc.Summarize(context.Background(), SummaryRequest{Content: longContent, Caller: testCaller()})
	require.NoError(t, err)

	require.Len(t, provider.requests, 1)
	req := provider.requests[0]
	assert.Equal(t, "llama3-8b-8192", req.Model)
	require.NotNil(t, req.Temperature)
	assert.Equal(t, float32(0.3), *req.Temperature)
	require.NotNil(t, req.MaxTokens)
	assert.Equal(t, 512, *req.MaxTokens)

	require.Len(t, req.Messages, 2)
	assert.Equal(t, providers.RoleSystem, req.Messages[0].Role)
	assert.True(t, strings.HasPrefix(req.Messages[0].Content, "You are an AI assistant that summarizes text."))
	assert.Equal(t, providers.RoleUser, req.Messages[1].Role)
	assert.Equal(t,
		"Please summarize the following text in a concise way (about 2-3 paragraphs maximum):\n\n"+longContent,
		req.Messages[1].Content)
}

func TestSummarize_TrimsWhitespace(t *testing.T) {
	provider := &fakeProvider{complete: func(ctx context.Context, req providers.CompletionRequest) (*providers.CompletionResponse, error) {
		return reply("  Foo bar.  "), nil
	}}
	svc := NewSummaryService(provider, testSummarizerConfig(), logging.Discard())

	result, err := svc.Summarize(context.Background(), SummaryRequest{Content: longContent, Caller: testCaller()})
	require.NoError(t, err)
	assert.Equal(t, "Foo bar.", result.Summary)
}

func TestSummarize_RepeatedCallsAreIndependent(t *testing.T) {
	provider := &fakeProvider{}
	svc := NewSummaryService(provider, testSummarizerConfig(), logging.Discard())
	req := SummaryRequest{Content: longContent, Caller: testCaller()}

	_, err := svc.Summarize(context.Background(), req)
	require.NoError(t, err)
	_, err = svc.Summarize(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 2, provider.Calls())
}

func TestSummarize_EmptyChoicesIsInternalError(t *testing.T) {
	provider := &fakeProvider{complete: func(ctx context.Context, req providers.CompletionRequest) (*providers.CompletionResponse, error) {
		return &providers.CompletionResponse{ID: "cmpl-1"}, nil
	}}
	svc := NewSummaryService(provider, testSummarizerConfig(), logging.Discard())

	_, err := svc.Summarize(context.Background(), SummaryRequest{Content: longContent, Caller: testCaller()})

	var summaryErr *SummaryError
	require.ErrorAs(t, err, &summaryErr)
	assert.Equal(t, InternalError, summaryErr.Kind)
	assert.Equal(t, "Internal server error", summaryErr.Message)
}

func TestSummarize_UnknownProviderErrorIsInternalError(t *testing.T) {
	provider := &fakeProvider{complete: func(ctx context.Context, req providers.CompletionRequest) (*providers.CompletionResponse, error) {
		return nil, errors.New("unexpected end of JSON input")
	}}
	svc := NewSummaryService(provider, testSummarizerConfig(), logging.Discard())

	_, err := svc.Summarize(context.Background(), SummaryRequest{Content: longContent, Caller: testCaller()})
	assert.ErrorIs(t, err, ErrInternal)
}

func TestSummarize_TimeoutIsDistinct(t *testing.T) {
	provider := &fakeProvider{complete: func(ctx context.Context, req providers.CompletionRequest) (*providers.CompletionResponse, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	cfg := testSummarizerConfig()
	cfg.Timeout = 20 * time.Millisecond
	svc := NewSummaryService(provider, cfg, logging.Discard())

	_, err := svc.Summarize(context.Background(), SummaryRequest{Content: longContent, Caller: testCaller()})

	var summaryErr *SummaryError
	require.ErrorAs(t, err, &summaryErr)
	assert.Equal(t, UpstreamTimeout, summaryErr.Kind)
	assert.Equal(t, http.StatusGatewayTimeout, summaryErr.Status)
}

func TestSummarize_UpstreamRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer server.Close()

	svc := newUpstreamService(t, server.URL)
	_, err := svc.Summarize(context.Background(), SummaryRequest{Content: longContent, Caller: testCaller()})

	var summaryErr *SummaryError
	require.ErrorAs(t, err, &summaryErr)
	assert.Equal(t, UpstreamRejected, summaryErr.Kind)
	assert.Equal(t, http.StatusTooManyRequests, summaryErr.Status)
	assert.Contains(t, summaryErr.Message, "rate limited")
	assert.Equal(t, "Error from AI service: rate limited", summaryErr.Message)
}

func TestSummarize_UpstreamRejectionWithoutDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	svc := newUpstreamService(t, server.URL)
	_, err := svc.Summarize(context.Background(), SummaryRequest{Content: longContent, Caller: testCaller()})

	var summaryErr *SummaryError
	require.ErrorAs(t, err, &summaryErr)
	assert.Equal(t, UpstreamRejected, summaryErr.Kind)
	assert.Equal(t, http.StatusServiceUnavailable, summaryErr.Status)
	assert.Equal(t, "Error from AI service: Unknown error", summaryErr.Message)
}

func TestSummarize_ConnectionRefusedIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	svc := newUpstreamService(t, url)
	_, err := svc.Summarize(context.Background(), SummaryRequest{Content: longContent, Caller: testCaller()})

	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.False(t, errors.Is(err, ErrInternal))
}

func TestSummarize_UpstreamSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","model":"llama3-8b-8192","choices":[{"index":0,"message":{"role":"assistant","content":"  Foo bar.  "}}]}`))
	}))
	defer server.Close()

	svc := newUpstreamService(t, server.URL)
	result, err := svc.Summarize(context.Background(), SummaryRequest{Content: longContent, Caller: testCaller()})
	require.NoError(t, err)
	assert.Equal(t, "Foo bar.", result.Summary)
}

func newUpstreamService(t *testing.T, baseURL string) *SummaryService {
	t.Helper()
	cfg := testSummarizerConfig()
	cfg.APIKey = "test-key"
	cfg.BaseURL = baseURL

	provider, err := openai.NewProvider(cfg)
	require.NoError(t, err)
	return NewSummaryService(provider, cfg, logging.Discard())
}
