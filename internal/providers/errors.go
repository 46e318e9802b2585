package providers

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout is returned when the upstream did not answer in time
	ErrTimeout = errors.New("upstream request timed out")
	// ErrUnavailable is returned when the upstream could not be reached
	ErrUnavailable = errors.New("upstream unavailable")
)

// UpstreamError is a non-success HTTP answer from the upstream service.
// Message is empty when the upstream sent no readable error body.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("upstream returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("upstream returned status %d: %s", e.StatusCode, e.Message)
}
