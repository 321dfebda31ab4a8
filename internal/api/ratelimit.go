package api

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// RateLimiter hands out one token bucket per user. Buckets idle for longer
// than idleTTL are dropped on the next sweep.
type RateLimiter struct {
	limit   rate.Limit
	burst   int
	idleTTL time.Duration

	mu         sync.RWMutex
	limiters   map[uuid.UUID]*rate.Limiter
	lastAccess map[uuid.UUID]time.Time
}

// NewRateLimiter allows perSecond requests per user with the given burst.
// A zero perSecond disables limiting.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	return &RateLimiter{
		limit:      limit,
		burst:      burst,
		idleTTL:    30 * time.Minute,
		limiters:   make(map[uuid.UUID]*rate.Limiter),
		lastAccess: make(map[uuid.UUID]time.Time),
	}
}

// Allow reports whether userID may make a request now.
func (r *RateLimiter) Allow(userID uuid.UUID) bool {
	if r == nil {
		return true
	}
	return r.userLimiter(userID).Allow()
}

func (r *RateLimiter) userLimiter(userID uuid.UUID) *rate.Limiter {
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastAccess[userID] = now
	if l, ok := r.limiters[userID]; ok {
		return l
	}
	r.sweep(now)
	l := rate.NewLimiter(r.limit, r.burst)
	r.limiters[userID] = l
	return l
}

// sweep runs with mu held.
func (r *RateLimiter) sweep(now time.Time) {
	for id, last := range r.lastAccess {
		if now.Sub(last) > r.idleTTL {
			delete(r.limiters, id)
			delete(r.lastAccess, id)
		}
	}
}
