// Package source holds the pieces shared by every upstream connector: transport error
// classification and the retry, rate-limit and cache decorators.
package source

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/enrichment/backend/internal/domain/enrichment"
)

// DefaultUserAgent is sent on every outbound request
const DefaultUserAgent = "Mozilla/5.0 (compatible; ProductEnrichment/1.0)"

// ClassifyTransportError maps an http.Client error to a failure cause
func ClassifyTransportError(err error) enrichment.FailureCause {
	if err == nil {
		return enrichment.CauseNone
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return enrichment.CauseTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return enrichment.CauseTimeout
	}
	return enrichment.CauseConnection
}

// NewHTTPClient builds the client used by connectors
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// Truncate shortens upstream bodies quoted in error messages
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
