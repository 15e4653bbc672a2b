package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Store counts requests per key inside a fixed window. Allow reports whether
// the request is under the ceiling and, when it is not, how long the caller
// should wait before retrying.
type Store interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (allowed bool, retryAfter time.Duration, err error)
}

type windowData struct {
	count       int
	windowStart time.Time
	window      time.Duration
}

const sweepInterval = time.Minute

// MemoryStore is a process-local fixed-window counter. Correct only for a
// single instance; deployments behind a load balancer use RedisStore.
type MemoryStore struct {
	mu        sync.Mutex
	requests  map[string]*windowData
	now       func() time.Time
	lastSweep time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		requests: make(map[string]*windowData),
		now:      time.Now,
	}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now)
	wd := s.requests[key]

	if wd == nil || now.Sub(wd.windowStart) > window {
		if limit == 0 {
			return false, window, nil
		}
		s.requests[key] = &windowData{count: 1, windowStart: now, window: window}
		return true, 0, nil
	}

	if wd.count >= limit {
		return false, wd.windowStart.Add(window).Sub(now), nil
	}
	wd.count++
	return true, 0, nil
}

// sweep drops expired windows so the map does not grow with every client IP
// ever seen. Caller holds the lock.
func (s *MemoryStore) sweep(now time.Time) {
	if now.Sub(s.lastSweep) < sweepInterval {
		return
	}
	for key, wd := range s.requests {
		if now.Sub(wd.windowStart) > wd.window {
			delete(s.requests, key)
		}
	}
	s.lastSweep = now
}
