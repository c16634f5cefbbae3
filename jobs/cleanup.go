package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// UnverifiedDeleter removes local accounts whose verification window has passed.
type UnverifiedDeleter interface {
	DeleteUnverifiedExpired(ctx context.Context, now time.Time) (int64, error)
}

type Cleanup struct {
	users    UnverifiedDeleter
	interval time.Duration
	log      *zap.Logger
	now      func() time.Time
}

func NewCleanup(users UnverifiedDeleter, interval time.Duration, log *zap.Logger) *Cleanup {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &Cleanup{users: users, interval: interval, log: log, now: time.Now}
}

// RunOnce performs a single sweep and reports how many accounts went.
func (j *Cleanup) RunOnce(ctx context.Context) (int64, error) {
	removed, err := j.users.DeleteUnverifiedExpired(ctx, j.now())
	if err != nil {
		j.log.Error("unverified account cleanup failed", zap.Error(err))
		return 0, err
	}
	if removed > 0 {
		j.log.Info("removed unverified accounts", zap.Int64("count", removed))
	}
	return removed, nil
}

// Run sweeps once at start and then every interval until ctx is cancelled.
func (j *Cleanup) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	_, _ = j.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			j.log.Info("cleanup job stopped")
			return
		case <-ticker.C:
			_, _ = j.RunOnce(ctx)
		}
	}
}
