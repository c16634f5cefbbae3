package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Rule allows Max requests per Window for every client of one named limiter.
type Rule struct {
	Name   string
	Max    int
	Window time.Duration
}

type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	Reset     time.Time
}

type Limiter interface {
	Allow(ctx context.Context, rule Rule, client string) (Result, error)
}

const sweepEvery = time.Minute

type window struct {
	count  int
	start  time.Time
	length time.Duration
}

// MemoryLimiter counts requests in fixed windows inside this process.
type MemoryLimiter struct {
	mu        sync.Mutex
	windows   map[string]*window
	now       func() time.Time
	lastSweep time.Time
}

func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{windows: make(map[string]*window), now: time.Now}
}

func (l *MemoryLimiter) Allow(_ context.Context, rule Rule, client string) (Result, error) {
	now := l.now()
	key := rule.Name + ":" + client

	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweep(now)

	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= rule.Window {
		w = &window{start: now, length: rule.Window}
		l.windows[key] = w
	}
	w.count++

	res := Result{
		Limit: rule.Max,
		Reset: w.start.Add(rule.Window),
	}
	if w.count > rule.Max {
		return res, nil
	}
	res.Allowed = true
	res.Remaining = rule.Max - w.count
	return res, nil
}

// sweep drops windows that ended long ago so idle clients do not pile up.
func (l *MemoryLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < sweepEvery {
		return
	}
	for key, w := range l.windows {
		if now.Sub(w.start) >= w.length {
			delete(l.windows, key)
		}
	}
	l.lastSweep = now
}
