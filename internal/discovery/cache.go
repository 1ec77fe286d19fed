package discovery

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/couchcryptid/scan-site-discovery/internal/domain"
	"github.com/couchcryptid/scan-site-discovery/internal/observability"
)

// sensorCache memoizes station fetch results for the lifetime of one query.
// Concurrent requests for the same station collapse into a single upstream
// fetch; completed results are served from memory until Invalidate.
type sensorCache struct {
	fetcher StationFetcher
	metrics *observability.Metrics

	group singleflight.Group
	mu    sync.RWMutex
	data  map[string]domain.StationData
}

func newSensorCache(fetcher StationFetcher, metrics *observability.Metrics) *sensorCache {
	return &sensorCache{
		fetcher: fetcher,
		metrics: metrics,
		data:    make(map[string]domain.StationData),
	}
}

// GetOrFetch returns the cached data for a station, fetching it at most once
// per cache generation. The fetch runs under fetchCtx, which outlives any
// single caller; callerCtx only bounds this caller's wait. Failed fetches are
// not cached, so a later call may retry.
func (c *sensorCache) GetOrFetch(callerCtx, fetchCtx context.Context, triplet string) (domain.StationData, error) {
	c.mu.RLock()
	data, ok := c.data[triplet]
	c.mu.RUnlock()
	if ok {
		c.metrics.CacheLookups.WithLabelValues("hit").Inc()
		return data, nil
	}
	c.metrics.CacheLookups.WithLabelValues("miss").Inc()

	ch := c.group.DoChan(triplet, func() (interface{}, error) {
		c.mu.RLock()
		cached, found := c.data[triplet]
		c.mu.RUnlock()
		if found {
			return cached, nil
		}

		fetched, err := c.fetcher.FetchStationData(fetchCtx, triplet)
		if err != nil {
			return domain.StationData{}, err
		}

		c.mu.Lock()
		c.data[triplet] = fetched
		c.mu.Unlock()
		return fetched, nil
	})

	select {
	case <-callerCtx.Done():
		return domain.StationData{}, callerCtx.Err()
	case res := <-ch:
		if res.Err != nil {
			return domain.StationData{}, res.Err
		}
		return res.Val.(domain.StationData), nil
	}
}

// Invalidate drops every cached result. Callers cancel the owning session
// first, so in-flight fetches fail out instead of repopulating the cache.
func (c *sensorCache) Invalidate() {
	c.mu.Lock()
	c.data = make(map[string]domain.StationData)
	c.mu.Unlock()
}
