package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter hands every client its own token bucket refilled at
// perMinute tokens a minute with a burst of the same size.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	idle     time.Duration
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter starts a limiter and its cleanup loop. Call Stop when done.
func NewRateLimiter(perMinute int) *RateLimiter {
	if perMinute < 1 {
		perMinute = 1
	}
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    perMinute,
		idle:     3 * time.Minute,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go rl.cleanup(time.Minute)
	return rl
}

// Allow consumes a token for key.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	v, ok := rl.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = rl.now()
	rl.mu.Unlock()
	return v.limiter.Allow()
}

// Stop ends the cleanup loop.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) cleanup(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-rl.stop:
			return
		case <-t.C:
			rl.evictIdle()
		}
	}
}

func (rl *RateLimiter) evictIdle() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cutoff := rl.now().Add(-rl.idle)
	for key, v := range rl.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(rl.visitors, key)
		}
	}
}

// Middleware rejects a client over its limit with 429. Clients are keyed
// by RemoteAddr, so TrustedRealIP must run first.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(r.RemoteAddr) {
			retry := int(math.Round(1 / float64(rl.limit)))
			w.Header().Set("Retry-After", strconv.Itoa(max(1, retry)))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"rate limit exceeded","message":"Too many requests","code":"RATE001"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}
