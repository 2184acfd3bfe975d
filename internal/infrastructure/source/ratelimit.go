package source

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/enrichment/backend/internal/domain/enrichment"
)

// RateLimitedConnector spaces out calls to a provider
type RateLimitedConnector struct {
	next    enrichment.Connector
	limiter *rate.Limiter
}

// WithRateLimit wraps a connector with a token bucket; rps <= 0 disables limiting
func WithRateLimit(next enrichment.Connector, rps float64, burst int) enrichment.Connector {
	if rps <= 0 {
		return next
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedConnector{next: next, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Source returns the wrapped source
func (c *RateLimitedConnector) Source() enrichment.SourceID {
	return c.next.Source()
}

// Fetch waits for a token then calls the wrapped connector
func (c *RateLimitedConnector) Fetch(ctx context.Context, barcode string, opts enrichment.FetchOptions) enrichment.Result {
	if err := c.limiter.Wait(ctx); err != nil {
		return enrichment.Failed(enrichment.CauseTimeout, "Rate limit wait aborted: "+err.Error())
	}
	return c.next.Fetch(ctx, barcode, opts)
}
