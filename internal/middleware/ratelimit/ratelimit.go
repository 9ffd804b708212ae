// Package ratelimit throttles join-code lookups per caller, so codes cannot
// be enumerated by brute force.
package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/gravadigital/eventhub-api/internal/metrics"
	"github.com/gravadigital/eventhub-api/internal/middleware/auth"
	"github.com/gravadigital/eventhub-api/internal/response"
)

const entryTTL = 15 * time.Minute

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter keeps one token bucket per client
type Limiter struct {
	mu       sync.Mutex
	entries  map[string]*entry
	every    time.Duration
	burst    int
	stopOnce sync.Once
	stop     chan struct{}
}

// New allows perMinute requests per client with the given burst. Call Stop to
// end the cleanup goroutine.
func New(perMinute, burst int) *Limiter {
	if perMinute <= 0 {
		perMinute = 1
	}
	if burst <= 0 {
		burst = 1
	}
	l := &Limiter{
		entries: make(map[string]*entry),
		every:   time.Minute / time.Duration(perMinute),
		burst:   burst,
		stop:    make(chan struct{}),
	}
	go l.cleanupLoop()
	return l
}

// Allow reports whether key may make a request now
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(rate.Every(l.every), l.burst)}
		l.entries[key] = e
	}
	e.lastSeen = time.Now()
	l.mu.Unlock()

	return e.limiter.Allow()
}

// Middleware rejects requests over the limit with 429 and Retry-After
func (l *Limiter) Middleware() gin.HandlerFunc {
	retryAfter := strconv.Itoa(max(1, int(l.every.Seconds())))
	return func(c *gin.Context) {
		if !l.Allow(clientKey(c)) {
			metrics.RateLimited.Inc()
			c.Header("Retry-After", retryAfter)
			response.ErrorResponseWithMessage(c, http.StatusTooManyRequests, "too many requests")
			c.Abort()
			return
		}
		c.Next()
	}
}

// clientKey buckets authenticated callers by user id. Anonymous callers fall
// back to the client IP, which only honours forwarding headers from the
// engine's trusted proxies.
func clientKey(c *gin.Context) string {
	if u, ok := auth.UserFrom(c); ok {
		return "user:" + u.ID.String()
	}
	return "ip:" + c.ClientIP()
}

func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.cleanup(time.Now())
		case <-l.stop:
			return
		}
	}
}

// cleanup drops buckets idle for longer than entryTTL
func (l *Limiter) cleanup(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for key, e := range l.entries {
		if now.Sub(e.lastSeen) > entryTTL {
			delete(l.entries, key)
		}
	}
}

// Stop ends the cleanup goroutine
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() {
		close(l.stop)
	})
}
