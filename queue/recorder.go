package queue

import (
	"context"
	"sync"
)

type Published struct {
	Key   string
	Event any
}

// Recorder keeps published events in memory. Handler tests assert on it.
type Recorder struct {
	mu     sync.Mutex
	events []Published
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Publish(_ context.Context, key string, event any, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Published{Key: key, Event: event})
	return nil
}

func (r *Recorder) Close() error { return nil }

func (r *Recorder) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, 0, len(r.events))
	for _, e := range r.events {
		keys = append(keys, e.Key)
	}
	return keys
}
