package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRateLimiter is a PostgreSQL implementation of RateLimiter.
// One row per account tracks the current window start and its count.
type PostgresRateLimiter struct {
	pool   *pgxpool.Pool
	config RateConfig
	now    func() time.Time
}

// NewPostgresRateLimiter creates a new PostgreSQL rate limiter.
func NewPostgresRateLimiter(pool *pgxpool.Pool, cfg RateConfig) *PostgresRateLimiter {
	return &PostgresRateLimiter{
		pool:   pool,
		config: cfg,
		now:    time.Now,
	}
}

// Allow records a dispatch attempt for the account within a transaction.
// The row lock serializes concurrent attempts by the same account so the
// count never exceeds the limit.
func (l *PostgresRateLimiter) Allow(ctx context.Context, accountID string) (bool, error) {
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin rate window transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	now := l.now()

	var (
		windowStart time.Time
		count       int
	)
	err = tx.QueryRow(ctx,
		`SELECT window_start, count FROM sos_rate_windows WHERE account_id = $1 FOR UPDATE`,
		accountID,
	).Scan(&windowStart, &count)

	switch {
	case errors.Is(err, pgx.ErrNoRows):
		_, err = tx.Exec(ctx,
			`INSERT INTO sos_rate_windows (account_id, window_start, count) VALUES ($1, $2, 1)`,
			accountID, now,
		)
		if err != nil {
			return false, err
		}
		return true, tx.Commit(ctx)

	case err != nil:
		return false, err
	}

	if now.Sub(windowStart) >= l.config.Window {
		// Window expired, start a fresh one.
		_, err = tx.Exec(ctx,
			`UPDATE sos_rate_windows SET window_start = $2, count = 1 WHERE account_id = $1`,
			accountID, now,
		)
		if err != nil {
			return false, err
		}
		return true, tx.Commit(ctx)
	}

	if count >= l.config.Limit {
		return false, tx.Commit(ctx)
	}

	_, err = tx.Exec(ctx,
		`UPDATE sos_rate_windows SET count = count + 1 WHERE account_id = $1`,
		accountID,
	)
	if err != nil {
		return false, err
	}
	return true, tx.Commit(ctx)
}

// DeleteExpired removes rate windows closed more than sweepRetention ago.
func (l *PostgresRateLimiter) DeleteExpired(ctx context.Context) (int64, error) {
	cutoff := l.now().Add(-(l.config.Window + sweepRetention))

	tag, err := l.pool.Exec(ctx,
		`DELETE FROM sos_rate_windows WHERE window_start < $1`,
		cutoff,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Ensure PostgresRateLimiter implements RateLimiter interface.
var _ RateLimiter = (*PostgresRateLimiter)(nil)
