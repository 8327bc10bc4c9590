package rest

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/net/context"
	"golang.org/x/time/rate"

	"github.com/fuad-daoud/ferrisgo/logger/dlog"
)

// RateLimiter gates outbound requests per logical bucket. Buckets are
// created lazily on first use and kept for the life of the process; blocking
// on one bucket never blocks another. An optional global ceiling gates all
// buckets together so a burst across many endpoints cannot trip
// connection-level throttling.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	global  *rate.Limiter
}

// NewRateLimiter builds a limiter. perSecond <= 0 disables the global
// ceiling.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	r := &RateLimiter{buckets: make(map[string]*bucket)}
	if perSecond > 0 {
		if burst < 1 {
			burst = 1
		}
		r.global = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
	return r
}

// Acquire suspends the caller until a request may legally be sent under the
// bucket's quota and the global ceiling. Cancelling ctx removes the caller
// from the queue and returns ctx.Err() without consuming quota.
func (r *RateLimiter) Acquire(ctx context.Context, key string) error {
	if r.global != nil {
		if err := r.global.Wait(ctx); err != nil {
			return err
		}
	}
	return r.bucket(key).acquire(ctx)
}

// Release feeds the server-reported limit headers back into the bucket.
// Passing nil headers (transport failure) leaves the bucket untouched.
func (r *RateLimiter) Release(key string, h http.Header) {
	if h == nil {
		return
	}
	b := r.bucket(key)
	b.mu.Lock()
	defer b.mu.Unlock()
	if v := h.Get("X-RateLimit-Limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			b.limit = n
		}
	}
	if v := h.Get("X-RateLimit-Remaining"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			b.remaining = n
		}
	}
	if v := h.Get("X-RateLimit-Reset"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			b.reset = time.Unix(0, int64(f*float64(time.Second)))
		}
	}
}

// Cooldown puts the bucket into an exhausted state until retryAfter elapses.
// Requests queued meanwhile are released in FIFO order once it expires.
func (r *RateLimiter) Cooldown(key string, retryAfter time.Duration) {
	b := r.bucket(key)
	b.mu.Lock()
	b.remaining = 0
	b.reset = time.Now().Add(retryAfter)
	b.mu.Unlock()
	dlog.Warn("Rate limit cooldown", "bucket", key, "retry_after", retryAfter)
}

func (r *RateLimiter) bucket(key string) *bucket {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.buckets[key]
	if !ok {
		// quota unknown until the first response; serialize until then
		b = &bucket{limit: 1, remaining: 1}
		r.buckets[key] = b
	}
	return b
}

type waiter struct {
	ch    chan struct{}
	woken bool
}

// bucket holds one endpoint-scoped quota window plus a FIFO queue of
// waiters. A reset time in the past means the window has replenished.
type bucket struct {
	mu        sync.Mutex
	limit     int
	remaining int
	reset     time.Time
	queue     []*waiter
}

func (b *bucket) acquire(ctx context.Context) error {
	w := &waiter{ch: make(chan struct{})}
	b.mu.Lock()
	b.queue = append(b.queue, w)
	if len(b.queue) == 1 {
		b.wake(w)
	}
	b.mu.Unlock()

	select {
	case <-w.ch:
	case <-ctx.Done():
		b.leave(w)
		return ctx.Err()
	}

	// head of the queue; wait for quota
	for {
		b.mu.Lock()
		now := time.Now()
		if b.reset.IsZero() || !b.reset.After(now) {
			b.remaining = b.limit
			b.reset = time.Time{}
		}
		if b.remaining > 0 {
			b.remaining--
			b.advance(w)
			b.mu.Unlock()
			return nil
		}
		wait := b.reset.Sub(now)
		b.mu.Unlock()

		t := time.NewTimer(wait)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			b.leave(w)
			return ctx.Err()
		}
	}
}

// wake signals a waiter exactly once. Callers hold b.mu.
func (b *bucket) wake(w *waiter) {
	if !w.woken {
		w.woken = true
		close(w.ch)
	}
}

// advance removes w from the head and wakes the next waiter. Callers hold
// b.mu.
func (b *bucket) advance(w *waiter) {
	for i, q := range b.queue {
		if q == w {
			b.queue = append(b.queue[:i], b.queue[i+1:]...)
			break
		}
	}
	if len(b.queue) > 0 {
		b.wake(b.queue[0])
	}
}

func (b *bucket) leave(w *waiter) {
	b.mu.Lock()
	b.advance(w)
	b.mu.Unlock()
}
