package adapter

import (
	"context"
	"slices"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/amishk599/jobfeed/internal/model"
)

const cacheKey = "jobs"

// CachedSource serves a source's last successful result for ttl. Only the
// read-only provider endpoints use it; imports always hit the provider.
type CachedSource struct {
	inner model.JobSource
	cache *gocache.Cache
}

// NewCachedSource wraps inner with a go-cache entry that expires after ttl.
func NewCachedSource(inner model.JobSource, ttl time.Duration) *CachedSource {
	return &CachedSource{inner: inner, cache: gocache.New(ttl, 2*ttl)}
}

func (c *CachedSource) Name() string { return c.inner.Name() }

// FetchJobs returns the cached jobs when fresh. Errors are never cached.
func (c *CachedSource) FetchJobs(ctx context.Context) ([]model.Job, error) {
	if v, found := c.cache.Get(cacheKey); found {
		return slices.Clone(v.([]model.Job)), nil
	}

	jobs, err := c.inner.FetchJobs(ctx)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(cacheKey, jobs)
	return slices.Clone(jobs), nil
}
