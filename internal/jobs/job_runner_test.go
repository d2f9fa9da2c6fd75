package jobs

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetrent-backend/internal/domain"
)

func TestRunWithRecovery_Panic(t *testing.T) {
	h := newHarness(t)

	_, err := h.runner.runWithRecovery("boom", time.Second, func(ctx context.Context, log *slog.Logger) (Summary, error) {
		panic("nil map")
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")
}

func TestRunWithRecovery_AbandonsAtDeadline(t *testing.T) {
	h := newHarness(t)
	release := make(chan struct{})
	defer close(release)

	started := time.Now()
	_, err := h.runner.runWithRecovery("slow", 20*time.Millisecond, func(ctx context.Context, log *slog.Logger) (Summary, error) {
		<-release
		return Summary{}, nil
	})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(started), 5*time.Second)
}

func TestRunWithRecovery_PassesSummaryAndError(t *testing.T) {
	h := newHarness(t)

	sum, err := h.runner.runWithRecovery("ok", time.Second, func(ctx context.Context, log *slog.Logger) (Summary, error) {
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		return Summary{Notified: 3}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Notified)

	_, err = h.runner.runWithRecovery("fail", time.Second, func(ctx context.Context, log *slog.Logger) (Summary, error) {
		return Summary{}, errors.New("db down")
	})
	assert.EqualError(t, err, "db down")
}

func TestSweepNotifications(t *testing.T) {
	h := newHarness(t)

	sum := run(t, h, h.runner.sweepNotifications)

	assert.Equal(t, int64(4), sum.Deleted)
	assert.Equal(t, testNow.Add(-30*24*time.Hour), h.notes.cutoff)
}

func TestSweepNotifications_Failure(t *testing.T) {
	h := newHarness(t)
	h.notes.deleteErr = errors.New("lock timeout")

	_, err := h.runner.sweepNotifications(context.Background(), slog.Default())
	assert.Error(t, err)
}

func TestRun(t *testing.T) {
	h := newHarness(t)
	h.rents.rents = []domain.RentDetails{
		rent("r1", domain.RentStatusReserved, testNow.Add(-time.Hour)),
	}

	require.NoError(t, h.runner.Run(JobTransitionRents))
	assert.Equal(t, domain.RentStatusActive, h.rents.status("r1"))

	require.NoError(t, h.runner.Run(JobAll))
	assert.Error(t, h.runner.Run("make-coffee"))
	assert.Contains(t, JobNames(), JobSweepNotifications)
}
