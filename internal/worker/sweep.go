// Package worker provides background maintenance jobs for Guardline.
package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// DeviceSweeper removes device records that no longer hold any token.
// Records lose their last token when push providers report it invalid.
type DeviceSweeper interface {
	DeleteEmpty(ctx context.Context) (int64, error)
}

// RateWindowSweeper removes dispatch rate windows that have expired.
type RateWindowSweeper interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// SweepConfig holds configuration for the sweep jobs.
type SweepConfig struct {
	// Timeout bounds a single sweep run.
	// Default: 30 seconds
	Timeout time.Duration

	// Interval is how often sweeps run when the worker is not driven by
	// Pub/Sub messages.
	// Default: 15 minutes
	Interval time.Duration
}

// DefaultSweepConfig returns the default sweep configuration.
func DefaultSweepConfig() SweepConfig {
	return SweepConfig{
		Timeout:  30 * time.Second,
		Interval: 15 * time.Minute,
	}
}

// SweepJob runs the periodic registry and rate window cleanup.
type SweepJob struct {
	devices DeviceSweeper
	windows RateWindowSweeper
	config  SweepConfig
	logger  zerolog.Logger
}

// SweepJobConfig holds dependencies for the sweep job.
type SweepJobConfig struct {
	Devices DeviceSweeper
	Windows RateWindowSweeper
	Config  SweepConfig
	Logger  zerolog.Logger
}

// NewSweepJob creates a new sweep job.
func NewSweepJob(cfg SweepJobConfig) *SweepJob {
	config := cfg.Config
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.Interval == 0 {
		config.Interval = 15 * time.Minute
	}

	return &SweepJob{
		devices: cfg.Devices,
		windows: cfg.Windows,
		config:  config,
		logger:  cfg.Logger.With().Str("component", "sweep").Logger(),
	}
}

// RunRegistrySweep deletes device records holding no token. Returns the
// number of records removed.
func (j *SweepJob) RunRegistrySweep(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	start := time.Now()
	removed, err := j.devices.DeleteEmpty(ctx)
	if err != nil {
		return 0, err
	}

	j.logger.Info().
		Int64("removed", removed).
		Dur("duration", time.Since(start)).
		Msg("registry sweep completed")
	return removed, nil
}

// RunRateWindowSweep deletes expired dispatch rate windows. Returns the
// number of windows removed.
func (j *SweepJob) RunRateWindowSweep(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	start := time.Now()
	removed, err := j.windows.DeleteExpired(ctx)
	if err != nil {
		return 0, err
	}

	j.logger.Info().
		Int64("removed", removed).
		Dur("duration", time.Since(start)).
		Msg("rate window sweep completed")
	return removed, nil
}

// RunAll runs both sweeps. Each sweep failure is logged and does not
// stop the other.
func (j *SweepJob) RunAll(ctx context.Context) {
	if _, err := j.RunRegistrySweep(ctx); err != nil {
		j.logger.Error().Err(err).Msg("registry sweep failed")
	}
	if _, err := j.RunRateWindowSweep(ctx); err != nil {
		j.logger.Error().Err(err).Msg("rate window sweep failed")
	}
}
