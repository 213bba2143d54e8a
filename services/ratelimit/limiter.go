package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/upb/llm-content-gateway/services/providers"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Limiter gates outbound calls per provider so that consecutive grants are at
// least 60s/requestsPerMinute apart. It is advisory client-side throttling and
// never coordinates across providers.
type Limiter struct {
	mu       sync.Mutex
	rpm      map[providers.ProviderID]int
	limiters map[providers.ProviderID]*rate.Limiter
	granted  map[providers.ProviderID]time.Time
	logger   *zap.Logger
}

// NewLimiter creates a limiter from per-provider requests-per-minute settings.
// Providers missing from rpm fall back to their catalogue default.
func NewLimiter(rpm map[providers.ProviderID]int, logger *zap.Logger) *Limiter {
	if logger == nil {
		logger = zap.NewNop()
	}

	copied := make(map[providers.ProviderID]int, len(rpm))
	for id, v := range rpm {
		copied[id] = v
	}

	return &Limiter{
		rpm:      copied,
		limiters: make(map[providers.ProviderID]*rate.Limiter),
		granted:  make(map[providers.ProviderID]time.Time),
		logger:   logger,
	}
}

// Interval returns the minimum spacing between grants for id. Zero means unthrottled.
func (l *Limiter) Interval(id providers.ProviderID) time.Duration {
	rpm := l.requestsPerMinute(id)
	if rpm <= 0 {
		return 0
	}
	return time.Minute / time.Duration(rpm)
}

// Acquire blocks until id may issue its next request, then records the grant.
// It returns early with an error if ctx ends first.
func (l *Limiter) Acquire(ctx context.Context, id providers.ProviderID) error {
	limiter := l.getOrCreateLimiter(id)

	start := time.Now()
	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait for %s: %w", id, err)
	}

	now := time.Now()
	if waited := now.Sub(start); waited > time.Millisecond {
		l.logger.Debug("rate limit delay applied",
			zap.String("provider", string(id)),
			zap.Duration("waited", waited),
		)
	}

	l.mu.Lock()
	l.granted[id] = now
	l.mu.Unlock()

	return nil
}

// LastGranted returns the timestamp of the most recent grant for id
func (l *Limiter) LastGranted(id providers.ProviderID) (time.Time, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.granted[id]
	return t, ok
}

func (l *Limiter) requestsPerMinute(id providers.ProviderID) int {
	l.mu.Lock()
	rpm, ok := l.rpm[id]
	l.mu.Unlock()
	if ok {
		return rpm
	}
	if d, found := providers.Lookup(id); found {
		return d.Limits.RequestsPerMinute
	}
	return 0
}

// getOrCreateLimiter returns the token bucket for id, burst 1 so the first call passes immediately
func (l *Limiter) getOrCreateLimiter(id providers.ProviderID) *rate.Limiter {
	interval := l.Interval(id)

	l.mu.Lock()
	defer l.mu.Unlock()

	if limiter, exists := l.limiters[id]; exists {
		return limiter
	}

	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	limiter := rate.NewLimiter(limit, 1)
	l.limiters[id] = limiter
	return limiter
}
