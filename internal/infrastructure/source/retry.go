package source

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/enrichment/backend/internal/domain/enrichment"
)

// RetryConfig bounds the explicit retry around one connector call
type RetryConfig struct {
	// MaxAttempts includes the first call; 1 disables retries
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryConfig performs a single attempt
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:     1,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     5 * time.Second,
	}
}

// errTransient marks a result worth retrying
var errTransient = errors.New("source: transient failure")

// RetryingConnector retries timeouts and connection failures with exponential backoff.
// Every other failure is returned after the first attempt.
type RetryingConnector struct {
	next   enrichment.Connector
	config RetryConfig
	logger *zap.Logger
}

// WithRetry wraps a connector; with MaxAttempts <= 1 the connector is returned unchanged
func WithRetry(next enrichment.Connector, config RetryConfig, logger *zap.Logger) enrichment.Connector {
	if config.MaxAttempts <= 1 {
		return next
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetryingConnector{next: next, config: config, logger: logger}
}

// Source returns the wrapped source
func (c *RetryingConnector) Source() enrichment.SourceID {
	return c.next.Source()
}

// Fetch calls the wrapped connector until it succeeds, fails permanently or runs out of attempts
func (c *RetryingConnector) Fetch(ctx context.Context, barcode string, opts enrichment.FetchOptions) enrichment.Result {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.config.InitialInterval
	b.MaxInterval = c.config.MaxInterval
	b.MaxElapsedTime = 0

	var result enrichment.Result
	attempt := 0
	operation := func() error {
		attempt++
		result = c.next.Fetch(ctx, barcode, opts)
		if result.Success {
			return nil
		}
		if result.Cause.Transient() {
			return errTransient
		}
		return backoff.Permanent(errors.New(result.Error))
	}
	notify := func(_ error, wait time.Duration) {
		c.logger.Info("Retrying source lookup",
			zap.String("source", string(c.next.Source())),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.String("cause", string(result.Cause)),
		)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.config.MaxAttempts-1)), ctx)
	_ = backoff.RetryNotify(operation, policy, notify)
	return result
}
