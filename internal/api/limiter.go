package api

import (
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

const defaultLimiterIdleTTL = 10 * time.Minute

// rateLimiter hands out one token bucket per client key.
// Buckets unused for idleTTL are dropped, a full bucket again on return.
type rateLimiter struct {
	limiters  sync.Map // key -> *limiterEntry
	rps       float64
	burst     int
	idleTTL   time.Duration
	now       func() time.Time
	lastSweep atomic.Int64
}

type limiterEntry struct {
	lim      *rate.Limiter
	lastSeen atomic.Int64 // unix nanos
}

func newRateLimiter(rps float64, burst int) *rateLimiter {
	if burst <= 0 {
		burst = 5
	}
	l := &rateLimiter{rps: rps, burst: burst, idleTTL: defaultLimiterIdleTTL, now: time.Now}
	l.lastSweep.Store(l.now().UnixNano())
	return l
}

// Allow reports whether key may proceed now. A non-positive rate disables limiting.
func (l *rateLimiter) Allow(key string) bool {
	if l == nil || l.rps <= 0 {
		return true
	}
	now := l.now()
	l.sweep(now)

	e := l.getEntry(key)
	e.lastSeen.Store(now.UnixNano())
	return e.lim.AllowN(now, 1)
}

func (l *rateLimiter) getEntry(key string) *limiterEntry {
	if v, ok := l.limiters.Load(key); ok {
		return v.(*limiterEntry)
	}
	e := &limiterEntry{lim: rate.NewLimiter(rate.Limit(l.rps), l.burst)}
	actual, _ := l.limiters.LoadOrStore(key, e)
	return actual.(*limiterEntry)
}

// sweep runs at most once per idleTTL; one caller wins the swap and does the scan.
func (l *rateLimiter) sweep(now time.Time) {
	last := l.lastSweep.Load()
	if now.UnixNano()-last < int64(l.idleTTL) {
		return
	}
	if !l.lastSweep.CompareAndSwap(last, now.UnixNano()) {
		return
	}
	cutoff := now.Add(-l.idleTTL).UnixNano()
	l.limiters.Range(func(k, v any) bool {
		if v.(*limiterEntry).lastSeen.Load() < cutoff {
			l.limiters.Delete(k)
		}
		return true
	})
}

func (l *rateLimiter) size() int {
	n := 0
	l.limiters.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
