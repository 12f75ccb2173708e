package dispatch

import (
	"context"
	"time"
)

// RateLimiter bounds how often an account may dispatch alerts. Counting
// uses a fixed window per account.
type RateLimiter interface {
	// Allow records a dispatch attempt for the account and reports
	// whether it is within the limit. A denied attempt does not consume
	// budget.
	Allow(ctx context.Context, accountID string) (bool, error)

	// DeleteExpired removes windows that closed more than sweepRetention
	// ago. Returns the number of windows removed. Called by the
	// background worker.
	DeleteExpired(ctx context.Context) (int64, error)
}

// sweepRetention is how long a closed window is kept before the sweep
// removes its row. Allow starts a fresh window regardless, so the
// retention only affects storage, not limiting.
const sweepRetention = 24 * time.Hour

// RateConfig holds the dispatch rate limit parameters.
type RateConfig struct {
	// Window is the fixed window length.
	Window time.Duration

	// Limit is the maximum number of dispatches per window.
	Limit int
}

// DefaultRateConfig returns the production rate limit of 3 dispatches
// per 30 minutes.
func DefaultRateConfig() RateConfig {
	return RateConfig{
		Window: 30 * time.Minute,
		Limit:  3,
	}
}
