package email

import (
	"context"
	"log/slog"
	"time"

	"github.com/codeGROOVE-dev/retry-go"
)

// RetryPolicy bounds how often a fetcher repeats a failed upstream call.
// Only transport errors are retried; auth and parse errors are final.
type RetryPolicy struct {
	Attempts uint          // Total attempts, 1 means no retry
	Delay    time.Duration // Initial backoff between attempts
	MaxDelay time.Duration // Backoff ceiling
}

// NoRetry makes a single attempt
var NoRetry = RetryPolicy{Attempts: 1}

// Do runs fn under the policy and returns the error of the last attempt
func (p RetryPolicy) Do(ctx context.Context, logger *slog.Logger, provider string, fn func() error) error {
	attempts := p.Attempts
	if attempts == 0 {
		attempts = 1
	}
	maxDelay := p.MaxDelay
	if maxDelay == 0 {
		maxDelay = 10 * time.Second
	}

	var lastErr error
	err := retry.Do(
		func() error {
			lastErr = fn()
			return lastErr
		},
		retry.Attempts(attempts),
		retry.Delay(p.Delay),
		retry.MaxDelay(maxDelay),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn("Upstream call failed, retrying",
				"provider", provider,
				"attempt", n+1,
				"error", err)
		}),
		retry.RetryIf(func(err error) bool {
			return IsCategory(err, CategoryTransport)
		}),
	)
	if err == nil {
		return nil
	}
	if lastErr != nil {
		return lastErr
	}
	return err
}
