package ratelimit

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	"github.com/amishk599/jobfeed/internal/model"
)

// ProviderLimiter keeps one token bucket per provider so a slow or strict
// provider never throttles the other.
type ProviderLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// NewProviderLimiter allows requestsPerSecond per provider with the given
// burst. A non-positive rate disables limiting.
func NewProviderLimiter(requestsPerSecond float64, burst int) *ProviderLimiter {
	limit := rate.Limit(requestsPerSecond)
	if requestsPerSecond <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &ProviderLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    limit,
		burst:    burst,
	}
}

// Wait blocks until the provider's bucket allows another request.
func (l *ProviderLimiter) Wait(ctx context.Context, provider string) error {
	if err := l.limiterFor(provider).Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait for %s: %w", provider, err)
	}
	return nil
}

func (l *ProviderLimiter) limiterFor(provider string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[provider]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[provider] = lim
	}
	return lim
}

// Ensure RateLimitedFetcher implements model.RawFetcher.
var _ model.RawFetcher = (*RateLimitedFetcher)(nil)

// RateLimitedFetcher is a decorator that waits on the provider's bucket
// before delegating to the wrapped RawFetcher.
type RateLimitedFetcher struct {
	inner    model.RawFetcher
	limiter  *ProviderLimiter
	provider string
}

// NewRateLimitedFetcher wraps a RawFetcher with provider-level rate limiting.
// Fetchers for the same provider should share the limiter.
func NewRateLimitedFetcher(inner model.RawFetcher, limiter *ProviderLimiter, provider string) *RateLimitedFetcher {
	return &RateLimitedFetcher{
		inner:    inner,
		limiter:  limiter,
		provider: provider,
	}
}

func (f *RateLimitedFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if err := f.limiter.Wait(ctx, f.provider); err != nil {
		return nil, err
	}
	return f.inner.Fetch(ctx, url)
}
