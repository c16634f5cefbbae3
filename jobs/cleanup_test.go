package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingDeleter struct {
	calls atomic.Int32
	err   error
}

func (d *countingDeleter) DeleteUnverifiedExpired(context.Context, time.Time) (int64, error) {
	d.calls.Add(1)
	return 2, d.err
}

func TestRunOnce(t *testing.T) {
	d := &countingDeleter{}
	job := NewCleanup(d, time.Hour, zap.NewNop())

	removed, err := job.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	d.err = errors.New("db gone")
	_, err = job.RunOnce(context.Background())
	assert.Error(t, err)
}

func TestRunStopsOnCancel(t *testing.T) {
	d := &countingDeleter{}
	job := NewCleanup(d, 5*time.Millisecond, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		job.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return d.calls.Load() >= 3 }, time.Second, time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup job did not stop after cancel")
	}
}

func TestNewCleanupDefaultsInterval(t *testing.T) {
	job := NewCleanup(&countingDeleter{}, 0, zap.NewNop())
	assert.Equal(t, 24*time.Hour, job.interval)
}
