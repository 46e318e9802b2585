package services

import (
	"fmt"
	"net/http"
)

// SummaryErrorKind classifies summarization failures
type SummaryErrorKind string

const (
	Unauthorized        SummaryErrorKind = "unauthorized"
	InvalidInput        SummaryErrorKind = "invalid_input"
	ConfigurationError  SummaryErrorKind = "configuration_error"
	UpstreamUnavailable SummaryErrorKind = "upstream_unavailable"
	UpstreamTimeout     SummaryErrorKind = "upstream_timeout"
	UpstreamRejected    SummaryErrorKind = "upstream_rejected"
	InternalError       SummaryErrorKind = "internal_error"
)

// Sentinels for errors.Is; they match any SummaryError of the same kind.
var (
	ErrUnauthorized        = &SummaryError{Kind: Unauthorized}
	ErrInvalidInput        = &SummaryError{Kind: InvalidInput}
	ErrConfiguration       = &SummaryError{Kind: ConfigurationError}
	ErrUpstreamUnavailable = &SummaryError{Kind: UpstreamUnavailable}
	ErrUpstreamTimeout     = &SummaryError{Kind: UpstreamTimeout}
	ErrUpstreamRejected    = &SummaryError{Kind: UpstreamRejected}
	ErrInternal            = &SummaryError{Kind: InternalError}
)

// SummaryError carries the HTTP status and the public message of a failure.
// Err holds the underlying cause and is never shown to clients.
type SummaryError struct {
	Kind    SummaryErrorKind
	Status  int
	Message string
	Err     error
}

func (e *SummaryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *SummaryError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a SummaryError of the same kind
func (e *SummaryError) Is(target error) bool {
	t, ok := target.(*SummaryError)
	return ok && t.Kind == e.Kind
}

func errUnauthorized() *SummaryError {
	return &SummaryError{Kind: Unauthorized, Status: http.StatusUnauthorized, Message: "Unauthorized"}
}

func errContentTooShort() *SummaryError {
	return &SummaryError{Kind: InvalidInput, Status: http.StatusBadRequest, Message: "Content is too short for summarization"}
}

func errNotConfigured() *SummaryError {
	return &SummaryError{
		Kind:    ConfigurationError,
		Status:  http.StatusInternalServerError,
		Message: "API key for summarization service is not configured",
	}
}

func errUpstreamUnavailable(cause error) *SummaryError {
	return &SummaryError{
		Kind:    UpstreamUnavailable,
		Status:  http.StatusBadGateway,
		Message: "Error from AI service: service unavailable",
		Err:     cause,
	}
}

func errUpstreamTimeout(cause error) *SummaryError {
	return &SummaryError{
		Kind:    UpstreamTimeout,
		Status:  http.StatusGatewayTimeout,
		Message: "Error from AI service: request timed out",
		Err:     cause,
	}
}

func errUpstreamRejected(status int, detail string, cause error) *SummaryError {
	if detail == "" {
		detail = "Unknown error"
	}
	if status < http.StatusBadRequest {
		status = http.StatusBadGateway
	}
	return &SummaryError{
		Kind:    UpstreamRejected,
		Status:  status,
		Message: "Error from AI service: " + detail,
		Err:     cause,
	}
}

func errInternal(cause error) *SummaryError {
	return &SummaryError{
		Kind:    InternalError,
		Status:  http.StatusInternalServerError,
		Message: "Internal server error",
		Err:     cause,
	}
}
