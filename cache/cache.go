package cache

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Store keeps cached responses. Keys are "<tag>:<request uri>[:user:<id>]".
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Invalidate drops every key containing tag and reports how many went.
	Invalidate(ctx context.Context, tag string) (int, error)
}

func Key(tag, uri string, userID uint) string {
	key := tag + ":" + uri
	if userID != 0 {
		key += ":user:" + strconv.FormatUint(uint64(userID), 10)
	}
	return key
}

const (
	DefaultMaxEntries = 10000
	sweepEvery        = time.Minute
)

type entry struct {
	value   []byte
	expires time.Time
}

// MemoryStore is a process-local Store holding at most maxEntries responses.
type MemoryStore struct {
	mu         sync.RWMutex
	entries    map[string]entry
	maxEntries int
	now        func() time.Time
	lastSweep  time.Time
}

func NewMemoryStore() *MemoryStore {
	return NewBoundedMemoryStore(DefaultMaxEntries)
}

// NewBoundedMemoryStore caps the store at maxEntries; a non-positive value uses DefaultMaxEntries.
func NewBoundedMemoryStore(maxEntries int) *MemoryStore {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &MemoryStore{
		entries:    make(map[string]entry),
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if s.now().After(e.expires) {
		s.mu.Lock()
		if cur, ok := s.entries[key]; ok && !s.now().Before(cur.expires) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return nil, false, nil
	}
	return e.value, true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[key]; !exists && len(s.entries) >= s.maxEntries {
		s.sweep(now, true)
		if len(s.entries) >= s.maxEntries {
			s.evictSoonest()
		}
	} else {
		s.sweep(now, false)
	}
	s.entries[key] = entry{value: value, expires: now.Add(ttl)}
	return nil
}

// sweep drops expired entries, at most once per sweepEvery unless forced.
func (s *MemoryStore) sweep(now time.Time, force bool) {
	if !force && now.Sub(s.lastSweep) < sweepEvery {
		return
	}
	for key, e := range s.entries {
		if !now.Before(e.expires) {
			delete(s.entries, key)
		}
	}
	s.lastSweep = now
}

func (s *MemoryStore) evictSoonest() {
	var victim string
	var soonest time.Time
	for key, e := range s.entries {
		if victim == "" || e.expires.Before(soonest) {
			victim, soonest = key, e.expires
		}
	}
	delete(s.entries, victim)
}

func (s *MemoryStore) Invalidate(_ context.Context, tag string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for key := range s.entries {
		if strings.Contains(key, tag) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed, nil
}

// Len counts entries, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
