package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// FailureKind classifies why a completion attempt failed.
type FailureKind string

const (
	// FailureTimeout means the request exceeded its deadline.
	FailureTimeout FailureKind = "timeout"
	// FailureRateLimited means the service signalled throttling.
	FailureRateLimited FailureKind = "rate_limited"
	// FailureMalformed means the service answered but without usable content.
	FailureMalformed FailureKind = "malformed"
	// FailureNetwork means the request never completed at the transport level.
	FailureNetwork FailureKind = "network"
	// FailureUnknown covers everything else.
	FailureUnknown FailureKind = "unknown"
)

// APIError represents a non-2xx reply from the completion service.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("completion API error: status %d: %s", e.StatusCode, body)
}

// MalformedError represents a 2xx reply whose body carried no usable content.
type MalformedError struct {
	Message string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed completion response: %s", e.Message)
}

// ExhaustedError is returned by the orchestrator after every attempt failed.
// It carries the kind of the last failure.
type ExhaustedError struct {
	Attempts int
	LastKind FailureKind
	Cause    error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("completion failed after %d attempts (last failure: %s): %v", e.Attempts, e.LastKind, e.Cause)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Cause
}

// Classify maps a failed attempt's error to a FailureKind. Rate limiting is
// recognised both by status code and by message pattern, since some gateways
// report it inside a 200-wrapped error body.
func Classify(err error) FailureKind {
	if err == nil {
		return FailureUnknown
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusTooManyRequests {
			return FailureRateLimited
		}
		if containsRateLimitSignal(apiErr.Body) {
			return FailureRateLimited
		}
		return FailureUnknown
	}

	var malformed *MalformedError
	if errors.As(err, &malformed) {
		return FailureMalformed
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return FailureTimeout
		}
		return FailureNetwork
	}

	if containsRateLimitSignal(err.Error()) {
		return FailureRateLimited
	}

	return FailureUnknown
}

// containsRateLimitSignal reports whether a body or message carries a
// throttling indicator.
func containsRateLimitSignal(s string) bool {
	lower := strings.ToLower(s)
	return strings.Contains(lower, "rate limit") ||
		strings.Contains(lower, "rate-limit") ||
		strings.Contains(lower, "too many requests") ||
		strings.Contains(lower, "429")
}
