// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"log/slog"
	"math"
	"time"
)

// RetryBaseDelay is the first backoff between connectivity attempts.
// Tests override this to avoid real sleeps.
var RetryBaseDelay = 2 * time.Second

const defaultMaxRetries = 3

// withRetry calls fn until it succeeds, doubling the delay after each
// failure: 2 s, 4 s, 8 s. When maxRetries is 0 the default (3) is used. A
// cancelled context during a backoff wait returns ctx.Err(); after the last
// attempt the last error is returned.
func withRetry(ctx context.Context, maxRetries int, logger *slog.Logger, fn func(context.Context) error) error {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= maxRetries {
			return err
		}

		backoff := time.Duration(math.Pow(2, float64(attempt))) * RetryBaseDelay
		logger.Warn("source unavailable, retrying", "err", err, "backoff", backoff, "attempt", attempt+1, "max", maxRetries)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
}
