// Package ratelimit provides a keyed token bucket limiter.
// Each key gets an independent bucket; buckets idle longer than the idle TTL are dropped.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/raidboard/raidboard-server/internal/clock"
)

// DefaultIdleTTL is how long an unused bucket is kept.
const DefaultIdleTTL = 10 * time.Minute

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedRateLimiter manages per-key rate limiting.
type KeyedRateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	clock   clock.Clock

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// Option configures a KeyedRateLimiter.
type Option func(*KeyedRateLimiter)

// WithClock sets the time source used for idle tracking.
func WithClock(c clock.Clock) Option {
	return func(krl *KeyedRateLimiter) { krl.clock = c }
}

// WithIdleTTL sets how long an unused bucket is kept.
func WithIdleTTL(ttl time.Duration) Option {
	return func(krl *KeyedRateLimiter) { krl.idleTTL = ttl }
}

// New creates a keyed limiter allowing rps requests per second with the given burst,
// and starts a background goroutine that prunes idle buckets until Stop.
func New(rps float64, burst int, opts ...Option) *KeyedRateLimiter {
	krl := &KeyedRateLimiter{
		buckets: make(map[string]*bucket),
		limit:   rate.Limit(rps),
		burst:   burst,
		idleTTL: DefaultIdleTTL,
		clock:   clock.System{},
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(krl)
	}

	krl.wg.Add(1)
	go krl.cleanup()

	return krl
}

// Allow reports whether a request for key may proceed now.
func (krl *KeyedRateLimiter) Allow(key string) bool {
	return krl.getLimiter(key).AllowN(krl.clock.Now(), 1)
}

// Wait blocks until a request for key is allowed or ctx is done.
func (krl *KeyedRateLimiter) Wait(ctx context.Context, key string) error {
	return krl.getLimiter(key).Wait(ctx)
}

// Len returns the number of tracked keys.
func (krl *KeyedRateLimiter) Len() int {
	krl.mu.Lock()
	defer krl.mu.Unlock()
	return len(krl.buckets)
}

// Prune drops buckets not used since the idle TTL and returns how many were removed.
func (krl *KeyedRateLimiter) Prune() int {
	cutoff := krl.clock.Now().Add(-krl.idleTTL)

	krl.mu.Lock()
	defer krl.mu.Unlock()

	removed := 0
	for key, b := range krl.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(krl.buckets, key)
			removed++
		}
	}
	return removed
}

// Stop shuts down the cleanup goroutine.
func (krl *KeyedRateLimiter) Stop() {
	krl.stopOnce.Do(func() {
		close(krl.done)
	})
	krl.wg.Wait()
}

func (krl *KeyedRateLimiter) getLimiter(key string) *rate.Limiter {
	now := krl.clock.Now()

	krl.mu.Lock()
	defer krl.mu.Unlock()

	b, ok := krl.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(krl.limit, krl.burst)}
		krl.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter
}

func (krl *KeyedRateLimiter) cleanup() {
	defer krl.wg.Done()

	ticker := time.NewTicker(krl.idleTTL)
	defer ticker.Stop()

	for {
		select {
		case <-krl.done:
			return
		case <-ticker.C:
			krl.Prune()
		}
	}
}
