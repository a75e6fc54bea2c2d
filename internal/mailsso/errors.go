package mailsso

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Sentinel errors for provider failures. Callers distinguish failure kinds
// with errors.Is / errors.As; none of them is retried automatically.
var (
	// ErrTimeout indicates the request exceeded its deadline.
	ErrTimeout = errors.New("mailsso: request timed out")

	// ErrConnection indicates the provider could not be reached.
	ErrConnection = errors.New("mailsso: connection failed")

	// ErrMalformedResponse indicates a 2xx response whose body could not
	// be decoded.
	ErrMalformedResponse = errors.New("mailsso: malformed provider response")

	// ErrJobNotReady indicates a polled batch job has no results yet.
	ErrJobNotReady = errors.New("mailsso: batch job not ready")

	// ErrNoAPIKey indicates the client was asked to make a request without
	// a configured API key. Refused before any network call.
	ErrNoAPIKey = errors.New("mailsso: api key not configured")
)

// HTTPError is a non-2xx provider response. It is never collapsed into an
// empty success.
type HTTPError struct {
	Status int
	Body   string
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("mailsso: provider returned HTTP %d: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("mailsso: provider returned HTTP %d", e.Status)
}

// classifyTransport maps a transport-level error to ErrTimeout or
// ErrConnection, preserving the original via %w.
func classifyTransport(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrConnection, err)
}
