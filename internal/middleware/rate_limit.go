package middleware

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	// CleanupInterval is the interval for cleaning up stale limiters
	CleanupInterval = 5 * time.Minute
	// LimiterTTL is the time-to-live for inactive limiters
	LimiterTTL = 10 * time.Minute
)

// RateLimiter keeps one token bucket per owner
type RateLimiter struct {
	limiters  map[int32]*limiterEntry
	mu        sync.Mutex
	rateLimit rate.Limit
	burstSize int
	now       func() time.Time
	stopCh    chan struct{}
	stopOnce  sync.Once
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a RateLimiter allowing requestsPerSecond per owner
// with the given burst
func NewRateLimiter(requestsPerSecond float64, burstSize int) *RateLimiter {
	rl := &RateLimiter{
		limiters:  make(map[int32]*limiterEntry),
		rateLimit: rate.Limit(requestsPerSecond),
		burstSize: burstSize,
		now:       time.Now,
		stopCh:    make(chan struct{}),
	}

	go rl.cleanup()

	return rl
}

func (r *RateLimiter) entry(ownerID int32) *limiterEntry {
	entry, exists := r.limiters[ownerID]
	if !exists {
		entry = &limiterEntry{limiter: rate.NewLimiter(r.rateLimit, r.burstSize)}
		r.limiters[ownerID] = entry
	}
	entry.lastSeen = r.now()
	return entry
}

// Allow checks if a request from the given owner is allowed
func (r *RateLimiter) Allow(ownerID int32) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entry(ownerID).limiter.AllowN(r.now(), 1)
}

// Remaining returns the whole tokens left in the owner's bucket and how long
// until the bucket is full again
func (r *RateLimiter) Remaining(ownerID int32) (int, time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.limiters[ownerID]
	if !exists {
		return r.burstSize, 0
	}

	tokens := entry.limiter.TokensAt(r.now())
	if tokens < 0 {
		tokens = 0
	}
	missing := float64(r.burstSize) - tokens
	refill := time.Duration(missing / float64(r.rateLimit) * float64(time.Second))
	return int(math.Floor(tokens)), refill
}

// Limit returns the burst size, the most requests an owner can make at once
func (r *RateLimiter) Limit() int {
	return r.burstSize
}

// prune drops limiters that have been idle longer than LimiterTTL
func (r *RateLimiter) prune() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	now := r.now()
	for ownerID, entry := range r.limiters {
		if now.Sub(entry.lastSeen) > LimiterTTL {
			delete(r.limiters, ownerID)
			removed++
		}
	}
	return removed
}

// cleanup periodically removes stale limiters to prevent memory leaks
func (r *RateLimiter) cleanup() {
	ticker := time.NewTicker(CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := r.prune(); n > 0 {
				log.Debug().Int("removed", n).Msg("Cleaned up stale rate limiters")
			}
		case <-r.stopCh:
			return
		}
	}
}

// Stop stops the cleanup goroutine
func (r *RateLimiter) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
}

// RateLimitMiddleware returns an Echo middleware that limits each owner.
// It must run after Authenticate; requests without an owner pass through.
func RateLimitMiddleware(rl *RateLimiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ownerID := GetOwnerID(c)
			if ownerID == 0 {
				return next(c)
			}

			header := c.Response().Header()
			header.Set("X-RateLimit-Limit", fmt.Sprintf("%d", rl.Limit()))

			if !rl.Allow(ownerID) {
				// one token refills every 1/rate seconds
				retryAfter := int(math.Ceil(1 / float64(rl.rateLimit)))
				if retryAfter < 1 {
					retryAfter = 1
				}

				header.Set("X-RateLimit-Remaining", "0")
				header.Set("Retry-After", fmt.Sprintf("%d", retryAfter))

				log.Warn().
					Int32("owner_id", ownerID).
					Int("retry_after", retryAfter).
					Msg("Rate limit exceeded")

				return rateLimitError(c, fmt.Sprintf("Too many requests. Please retry after %d seconds.", retryAfter))
			}

			remaining, _ := rl.Remaining(ownerID)
			header.Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))

			return next(c)
		}
	}
}
