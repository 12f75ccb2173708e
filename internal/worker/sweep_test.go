package worker

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guardline/guardline/internal/device"
	"github.com/guardline/guardline/internal/dispatch"
)

type failingSweeper struct{}

func (failingSweeper) DeleteEmpty(context.Context) (int64, error) {
	return 0, errors.New("database down")
}

func newTestSweepJob(devices DeviceSweeper, windows RateWindowSweeper) *SweepJob {
	return NewSweepJob(SweepJobConfig{
		Devices: devices,
		Windows: windows,
		Logger:  zerolog.New(io.Discard),
	})
}

func TestSweepJob_RunRegistrySweep(t *testing.T) {
	repo := device.NewInMemoryRepository()

	// One record with a token, one that lost its last token.
	live := &device.Device{ID: "dev-1", AccountID: "usr_a"}
	live.SetToken(device.KindExpoPush, "tok-live")
	_, err := repo.Upsert(context.Background(), live)
	require.NoError(t, err)

	empty := &device.Device{ID: "dev-2", AccountID: "usr_a"}
	empty.SetToken(device.KindExpoPush, "tok-dead")
	_, err = repo.Upsert(context.Background(), empty)
	require.NoError(t, err)
	_, err = repo.RemoveTokens(context.Background(), device.KindExpoPush, []string{"tok-dead"})
	require.NoError(t, err)

	job := newTestSweepJob(repo, dispatch.NewInMemoryRateLimiter(dispatch.DefaultRateConfig()))

	removed, err := job.RunRegistrySweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	devices, err := repo.ListByAccount(context.Background(), "usr_a")
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "dev-1", devices[0].ID)
}

func TestSweepJob_RunRateWindowSweep(t *testing.T) {
	limiter := dispatch.NewInMemoryRateLimiter(dispatch.RateConfig{Window: 30 * time.Minute, Limit: 3})

	current := time.Now()
	limiter.SetClock(func() time.Time { return current })

	_, err := limiter.Allow(context.Background(), "usr_a")
	require.NoError(t, err)

	// Past the window plus the retention period.
	current = current.Add(31*time.Minute + 24*time.Hour)

	job := newTestSweepJob(device.NewInMemoryRepository(), limiter)

	removed, err := job.RunRateWindowSweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
}

func TestSweepJob_RunAll_ContinuesAfterFailure(t *testing.T) {
	limiter := dispatch.NewInMemoryRateLimiter(dispatch.RateConfig{Window: time.Minute, Limit: 1})

	current := time.Now()
	limiter.SetClock(func() time.Time { return current })
	_, err := limiter.Allow(context.Background(), "usr_a")
	require.NoError(t, err)
	current = current.Add(2*time.Minute + 24*time.Hour)

	job := newTestSweepJob(failingSweeper{}, limiter)

	// The registry sweep fails but the rate window sweep still runs.
	job.RunAll(context.Background())

	removed, err := limiter.DeleteExpired(context.Background())
	require.NoError(t, err)
	assert.Zero(t, removed, "windows should already have been swept")
}
