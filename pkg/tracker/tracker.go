package tracker

import (
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
)

// Tracker counts request outcomes per provider (e.g. "wikidata").
type Tracker struct {
	mu    sync.RWMutex
	stats map[string]*counters
}

type counters struct {
	cacheHits   atomic.Int64
	cacheMisses atomic.Int64
	success     atomic.Int64
	failures    atomic.Int64
	zeroResults atomic.Int64
}

// ProviderStats is a point-in-time copy of one provider's counters.
type ProviderStats struct {
	CacheHits     int64
	CacheMisses   int64
	APISuccess    int64
	APIFailures   int64
	APIZeroResult int64
}

// New creates a new Tracker.
func New() *Tracker {
	return &Tracker{stats: make(map[string]*counters)}
}

func (t *Tracker) get(provider string) *counters {
	t.mu.RLock()
	c, ok := t.stats[provider]
	t.mu.RUnlock()
	if ok {
		return c
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if c, ok = t.stats[provider]; ok {
		return c
	}
	c = &counters{}
	t.stats[provider] = c
	return c
}

func (t *Tracker) TrackCacheHit(provider string)   { t.get(provider).cacheHits.Add(1) }
func (t *Tracker) TrackCacheMiss(provider string)  { t.get(provider).cacheMisses.Add(1) }
func (t *Tracker) TrackAPISuccess(provider string) { t.get(provider).success.Add(1) }
func (t *Tracker) TrackAPIFailure(provider string) { t.get(provider).failures.Add(1) }

// TrackAPIZero records a successful response that carried no rows.
func (t *Tracker) TrackAPIZero(provider string) { t.get(provider).zeroResults.Add(1) }

// Snapshot returns a copy of the current stats.
func (t *Tracker) Snapshot() map[string]ProviderStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make(map[string]ProviderStats, len(t.stats))
	for k, c := range t.stats {
		result[k] = ProviderStats{
			CacheHits:     c.cacheHits.Load(),
			CacheMisses:   c.cacheMisses.Load(),
			APISuccess:    c.success.Load(),
			APIFailures:   c.failures.Load(),
			APIZeroResult: c.zeroResults.Load(),
		}
	}
	return result
}

// Log writes one DEBUG record per provider, in name order.
func (t *Tracker) Log(logger *slog.Logger) {
	snap := t.Snapshot()
	names := make([]string, 0, len(snap))
	for name := range snap {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		s := snap[name]
		logger.Debug("Provider stats",
			"provider", name,
			"cache_hits", s.CacheHits,
			"cache_misses", s.CacheMisses,
			"success", s.APISuccess,
			"failures", s.APIFailures,
			"zero_results", s.APIZeroResult)
	}
}
