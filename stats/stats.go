package stats

import (
	"sync"
	"sync/atomic"
	"time"
)

// Stats holds all server statistics with atomic counters
type Stats struct {
	// Server info
	StartTime time.Time

	// Request counters
	TotalRequests  atomic.Int64
	LyricsRequests atomic.Int64
	StatsRequests  atomic.Int64
	HealthRequests atomic.Int64
	OtherRequests  atomic.Int64

	// Cache performance
	CacheHits   atomic.Int64
	CacheMisses atomic.Int64

	// Per-provider outcomes
	providerHits   sync.Map // provider name -> *atomic.Int64
	providerErrors sync.Map // provider name -> *atomic.Int64

	// Resolution outcomes
	ResolvedSynced   atomic.Int64
	ResolvedUnsynced atomic.Int64
	NotFound         atomic.Int64

	// Rate limiting
	RateLimitExceeded atomic.Int64

	// Response status codes
	Status2xx atomic.Int64
	Status4xx atomic.Int64
	Status5xx atomic.Int64

	// Response time tracking (in microseconds for precision)
	totalResponseTime atomic.Int64
	responseCount     atomic.Int64
	minResponseTime   atomic.Int64
	maxResponseTime   atomic.Int64
}

// Global stats instance
var global = newStats()

func newStats() *Stats {
	s := &Stats{StartTime: time.Now()}
	s.minResponseTime.Store(int64(^uint64(0) >> 1)) // Max int64
	return s
}

// Get returns the global stats instance
func Get() *Stats {
	return global
}

// RecordRequest records a request to a specific endpoint
func (s *Stats) RecordRequest(endpoint string) {
	s.TotalRequests.Add(1)
	switch endpoint {
	case "/color-lyrics/v2/track/{id}":
		s.LyricsRequests.Add(1)
	case "/stats":
		s.StatsRequests.Add(1)
	case "/health":
		s.HealthRequests.Add(1)
	default:
		s.OtherRequests.Add(1)
	}
}

// RecordCacheHit records a lyrics cache hit
func (s *Stats) RecordCacheHit() {
	s.CacheHits.Add(1)
}

// RecordCacheMiss records a lyrics cache miss
func (s *Stats) RecordCacheMiss() {
	s.CacheMisses.Add(1)
}

func counter(m *sync.Map, name string) *atomic.Int64 {
	if v, ok := m.Load(name); ok {
		return v.(*atomic.Int64)
	}
	v, _ := m.LoadOrStore(name, &atomic.Int64{})
	return v.(*atomic.Int64)
}

// RecordProviderHit records a usable result from a provider
func (s *Stats) RecordProviderHit(provider string) {
	counter(&s.providerHits, provider).Add(1)
}

// RecordProviderError records a failed provider attempt
func (s *Stats) RecordProviderError(provider string) {
	counter(&s.providerErrors, provider).Add(1)
}

// RecordResolution records the outcome of one resolution
func (s *Stats) RecordResolution(synced bool) {
	if synced {
		s.ResolvedSynced.Add(1)
	} else {
		s.ResolvedUnsynced.Add(1)
	}
}

// RecordNotFound records a resolution that exhausted all providers
func (s *Stats) RecordNotFound() {
	s.NotFound.Add(1)
}

// RecordRateLimitExceeded records a rejected request (429)
func (s *Stats) RecordRateLimitExceeded() {
	s.RateLimitExceeded.Add(1)
}

// RecordStatusCode records a response status code
func (s *Stats) RecordStatusCode(code int) {
	switch {
	case code >= 200 && code < 300:
		s.Status2xx.Add(1)
	case code >= 400 && code < 500:
		s.Status4xx.Add(1)
	case code >= 500:
		s.Status5xx.Add(1)
	}
}

// RecordResponseTime records a response time
func (s *Stats) RecordResponseTime(duration time.Duration) {
	us := duration.Microseconds()

	s.totalResponseTime.Add(us)
	s.responseCount.Add(1)

	for {
		current := s.minResponseTime.Load()
		if us >= current || s.minResponseTime.CompareAndSwap(current, us) {
			break
		}
	}
	for {
		current := s.maxResponseTime.Load()
		if us <= current || s.maxResponseTime.CompareAndSwap(current, us) {
			break
		}
	}
}

// Uptime returns the server uptime
func (s *Stats) Uptime() time.Duration {
	return time.Since(s.StartTime)
}

// CacheHitRate returns the cache hit rate as a percentage
func (s *Stats) CacheHitRate() float64 {
	hits := s.CacheHits.Load()
	misses := s.CacheMisses.Load()
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total) * 100
}

// AvgResponseTime returns the average response time
func (s *Stats) AvgResponseTime() time.Duration {
	count := s.responseCount.Load()
	if count == 0 {
		return 0
	}
	return time.Duration(s.totalResponseTime.Load()/count) * time.Microsecond
}

// MinResponseTime returns the minimum response time
func (s *Stats) MinResponseTime() time.Duration {
	min := s.minResponseTime.Load()
	if min == int64(^uint64(0)>>1) {
		return 0
	}
	return time.Duration(min) * time.Microsecond
}

// MaxResponseTime returns the maximum response time
func (s *Stats) MaxResponseTime() time.Duration {
	return time.Duration(s.maxResponseTime.Load()) * time.Microsecond
}

func dumpCounters(m *sync.Map) map[string]int64 {
	out := make(map[string]int64)
	m.Range(func(k, v interface{}) bool {
		out[k.(string)] = v.(*atomic.Int64).Load()
		return true
	})
	return out
}

// Snapshot returns a point-in-time snapshot of all stats
func (s *Stats) Snapshot() map[string]interface{} {
	uptime := s.Uptime()

	return map[string]interface{}{
		"server": map[string]interface{}{
			"start_time":     s.StartTime.Format(time.RFC3339),
			"uptime":         uptime.String(),
			"uptime_seconds": int64(uptime.Seconds()),
		},
		"requests": map[string]interface{}{
			"total":  s.TotalRequests.Load(),
			"lyrics": s.LyricsRequests.Load(),
			"stats":  s.StatsRequests.Load(),
			"health": s.HealthRequests.Load(),
			"other":  s.OtherRequests.Load(),
		},
		"cache": map[string]interface{}{
			"hits":     s.CacheHits.Load(),
			"misses":   s.CacheMisses.Load(),
			"hit_rate": s.CacheHitRate(),
		},
		"providers": map[string]interface{}{
			"hits":   dumpCounters(&s.providerHits),
			"errors": dumpCounters(&s.providerErrors),
		},
		"resolutions": map[string]interface{}{
			"synced":    s.ResolvedSynced.Load(),
			"unsynced":  s.ResolvedUnsynced.Load(),
			"not_found": s.NotFound.Load(),
		},
		"rate_limiting": map[string]interface{}{
			"exceeded": s.RateLimitExceeded.Load(),
		},
		"responses": map[string]interface{}{
			"2xx": s.Status2xx.Load(),
			"4xx": s.Status4xx.Load(),
			"5xx": s.Status5xx.Load(),
		},
		"response_times": map[string]interface{}{
			"avg": s.AvgResponseTime().String(),
			"min": s.MinResponseTime().String(),
			"max": s.MaxResponseTime().String(),
		},
	}
}

// Reset zeroes every counter. Test helper.
func (s *Stats) Reset() {
	fresh := newStats()
	fresh.StartTime = s.StartTime
	s.TotalRequests.Store(0)
	s.LyricsRequests.Store(0)
	s.StatsRequests.Store(0)
	s.HealthRequests.Store(0)
	s.OtherRequests.Store(0)
	s.CacheHits.Store(0)
	s.CacheMisses.Store(0)
	s.ResolvedSynced.Store(0)
	s.ResolvedUnsynced.Store(0)
	s.NotFound.Store(0)
	s.RateLimitExceeded.Store(0)
	s.Status2xx.Store(0)
	s.Status4xx.Store(0)
	s.Status5xx.Store(0)
	s.totalResponseTime.Store(0)
	s.responseCount.Store(0)
	s.minResponseTime.Store(fresh.minResponseTime.Load())
	s.maxResponseTime.Store(0)
	s.providerHits.Range(func(k, _ interface{}) bool {
		s.providerHits.Delete(k)
		return true
	})
	s.providerErrors.Range(func(k, _ interface{}) bool {
		s.providerErrors.Delete(k)
		return true
	})
}
