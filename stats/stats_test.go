package stats

import (
	"testing"
	"time"
)

func TestRecordRequest(t *testing.T) {
	s := newStats()

	s.RecordRequest("/color-lyrics/v2/track/{id}")
	s.RecordRequest("/color-lyrics/v2/track/{id}")
	s.RecordRequest("/stats")
	s.RecordRequest("/health")
	s.RecordRequest("/")

	if s.TotalRequests.Load() != 5 {
		t.Errorf("Expected 5 total requests, got %d", s.TotalRequests.Load())
	}
	if s.LyricsRequests.Load() != 2 {
		t.Errorf("Expected 2 lyrics requests, got %d", s.LyricsRequests.Load())
	}
	if s.StatsRequests.Load() != 1 || s.HealthRequests.Load() != 1 || s.OtherRequests.Load() != 1 {
		t.Error("Unexpected per-endpoint counts")
	}
}

func TestCacheHitRate(t *testing.T) {
	s := newStats()

	if rate := s.CacheHitRate(); rate != 0 {
		t.Errorf("Expected 0%% with no traffic, got %f", rate)
	}

	s.RecordCacheHit()
	s.RecordCacheHit()
	s.RecordCacheHit()
	s.RecordCacheMiss()

	if rate := s.CacheHitRate(); rate != 75 {
		t.Errorf("Expected 75%%, got %f", rate)
	}
}

func TestProviderCounters(t *testing.T) {
	s := newStats()

	s.RecordProviderHit("spotify")
	s.RecordProviderHit("spotify")
	s.RecordProviderHit("netease")
	s.RecordProviderError("lrclib")

	hits := dumpCounters(&s.providerHits)
	if hits["spotify"] != 2 || hits["netease"] != 1 {
		t.Errorf("Unexpected provider hits: %v", hits)
	}

	errs := dumpCounters(&s.providerErrors)
	if errs["lrclib"] != 1 {
		t.Errorf("Unexpected provider errors: %v", errs)
	}
}

func TestResponseTimes(t *testing.T) {
	s := newStats()

	if s.AvgResponseTime() != 0 || s.MinResponseTime() != 0 || s.MaxResponseTime() != 0 {
		t.Error("Expected zero response times before traffic")
	}

	s.RecordResponseTime(10 * time.Millisecond)
	s.RecordResponseTime(30 * time.Millisecond)

	if avg := s.AvgResponseTime(); avg != 20*time.Millisecond {
		t.Errorf("Expected 20ms average, got %v", avg)
	}
	if min := s.MinResponseTime(); min != 10*time.Millisecond {
		t.Errorf("Expected 10ms minimum, got %v", min)
	}
	if max := s.MaxResponseTime(); max != 30*time.Millisecond {
		t.Errorf("Expected 30ms maximum, got %v", max)
	}
}

func TestStatusCodeClasses(t *testing.T) {
	s := newStats()

	s.RecordStatusCode(200)
	s.RecordStatusCode(204)
	s.RecordStatusCode(404)
	s.RecordStatusCode(500)

	if s.Status2xx.Load() != 2 || s.Status4xx.Load() != 1 || s.Status5xx.Load() != 1 {
		t.Error("Unexpected status class counts")
	}
}

func TestSnapshotAndReset(t *testing.T) {
	s := newStats()

	s.RecordRequest("/color-lyrics/v2/track/{id}")
	s.RecordCacheHit()
	s.RecordProviderHit("spotify")
	s.RecordResolution(true)
	s.RecordNotFound()
	s.RecordRateLimitExceeded()
	s.RecordResponseTime(5 * time.Millisecond)

	snap := s.Snapshot()
	for _, section := range []string{"server", "requests", "cache", "providers", "resolutions", "rate_limiting", "responses", "response_times"} {
		if _, ok := snap[section]; !ok {
			t.Errorf("Snapshot missing %q section", section)
		}
	}

	s.Reset()

	if s.TotalRequests.Load() != 0 || s.CacheHits.Load() != 0 || s.ResolvedSynced.Load() != 0 {
		t.Error("Expected counters zeroed after reset")
	}
	if hits := dumpCounters(&s.providerHits); len(hits) != 0 {
		t.Errorf("Expected provider counters cleared, got %v", hits)
	}
	if s.MinResponseTime() != 0 {
		t.Errorf("Expected min response time reset, got %v", s.MinResponseTime())
	}
}
