package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter is an in-process token-bucket Limiter with one bucket per
// key behind a single mutex. Keys are operator IDs for authenticated
// traffic plus client IPs on the login endpoint, so the working set stays
// small and map contention is not a concern.
//
// Refill is lazy: each Allow tops the bucket up for the time elapsed since
// that key was last seen, then tries to take one token. A background sweep
// drops buckets idle long enough to have refilled completely — a full
// bucket is indistinguishable from no bucket, so eviction never changes an
// admission decision.
type MemoryLimiter struct {
	perSecond float64
	burst     float64
	idleTTL   time.Duration

	mu      sync.Mutex
	buckets map[string]*tokenBucket

	now       func() time.Time
	closeOnce sync.Once
	closed    chan struct{}
}

// tokenBucket is the refill state for one key.
type tokenBucket struct {
	tokens float64
	seen   time.Time
}

const sweepEvery = 5 * time.Minute

// NewMemoryLimiter creates a limiter granting perSecond sustained requests
// per key with bursts up to burst. Call Close to stop the sweep goroutine.
func NewMemoryLimiter(perSecond float64, burst int) *MemoryLimiter {
	// An idle bucket refills to capacity in burst/perSecond seconds and
	// then carries no state; keep it one sweep interval beyond that.
	ttl := sweepEvery
	if perSecond > 0 {
		ttl += time.Duration(float64(burst) / perSecond * float64(time.Second))
	}
	m := &MemoryLimiter{
		perSecond: perSecond,
		burst:     float64(burst),
		idleTTL:   ttl,
		buckets:   make(map[string]*tokenBucket),
		now:       time.Now,
		closed:    make(chan struct{}),
	}
	go m.sweepLoop()
	return m
}

// Allow takes one token from key's bucket, reporting whether one was
// available. A key not seen before (or swept since) starts from a full
// bucket.
func (m *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.buckets[key]
	if !ok {
		b = &tokenBucket{tokens: m.burst}
		m.buckets[key] = b
	} else {
		b.tokens += now.Sub(b.seen).Seconds() * m.perSecond
		if b.tokens > m.burst {
			b.tokens = m.burst
		}
	}
	b.seen = now

	if b.tokens < 1 {
		return false, nil
	}
	b.tokens--
	return true, nil
}

// Close stops the sweep goroutine. Safe to call more than once.
func (m *MemoryLimiter) Close() error {
	m.closeOnce.Do(func() { close(m.closed) })
	return nil
}

func (m *MemoryLimiter) sweepLoop() {
	ticker := time.NewTicker(sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-m.closed:
			return
		case <-ticker.C:
			m.sweep(m.now())
		}
	}
}

// sweep drops every bucket whose last use is at least idleTTL ago.
func (m *MemoryLimiter) sweep(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, b := range m.buckets {
		if now.Sub(b.seen) >= m.idleTTL {
			delete(m.buckets, key)
		}
	}
}
