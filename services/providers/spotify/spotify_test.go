package spotify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"mobile-lyrics-go/config"
	"mobile-lyrics-go/lyricspb"
	"mobile-lyrics-go/services/providers"
)

type staticTokens struct {
	token string
	err   error
}

func (s *staticTokens) Token(ctx context.Context) (string, error) {
	return s.token, s.err
}

// memStore is an in-memory cache.Store for tests.
type memStore struct {
	mu     sync.Mutex
	values map[string]string
}

func newMemStore() *memStore {
	return &memStore{values: make(map[string]string)}
}

func (m *memStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok {
		return "", errors.New("not found")
	}
	return v, nil
}

func (m *memStore) Set(ctx context.Context, key, value string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *memStore) Close() error { return nil }

func testConfig(clientURL, apiURL string, storeTrackInfo bool) config.Config {
	cfg := config.Config{}
	cfg.Configuration.SpotifyClientURL = clientURL
	cfg.Configuration.SpotifyAPIURL = apiURL
	cfg.Configuration.StoreTrackInfo = storeTrackInfo
	return cfg
}

const syncedBody = `{
	"lyrics": {
		"syncType": "LINE_SYNCED",
		"lines": [
			{"startTimeMs": "1000", "words": "First line", "syllables": [], "endTimeMs": "0"},
			{"startTimeMs": "2500", "words": "Second line", "syllables": [], "endTimeMs": "0"}
		],
		"provider": "MusixmatchOrig",
		"providerLyricsId": "555",
		"providerDisplayName": "Musixmatch",
		"language": "en"
	},
	"colors": {"background": -9013642, "text": -16777216, "highlightText": -1}
}`

func TestFetch_Synced(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/color-lyrics/v2/track/abc123" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}

		q := r.URL.Query()
		if q.Get("format") != "json" || q.Get("vocalRemoval") != "false" || q.Get("market") != "DE" {
			t.Errorf("Unexpected query %s", r.URL.RawQuery)
		}
		if r.Header.Get("app-platform") != "WebPlayer" {
			t.Errorf("Expected app-platform header, got %q", r.Header.Get("app-platform"))
		}
		if r.Header.Get("Authorization") != "Bearer managed_token" {
			t.Errorf("Unexpected authorization %q", r.Header.Get("Authorization"))
		}

		w.Write([]byte(syncedBody))
	}))
	defer ts.Close()

	client := NewClient(testConfig(ts.URL, ts.URL, false), &staticTokens{token: "managed_token"}, nil)
	p := NewProvider(client)

	result, err := p.Fetch(context.Background(), &providers.Request{TrackID: "abc123", Market: "DE"})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if result == nil || result.Lyrics == nil {
		t.Fatal("Expected a result")
	}

	ly := result.Lyrics
	if ly.SyncType != lyricspb.SyncLineSynced {
		t.Errorf("Expected synced, got syncType %d", ly.SyncType)
	}
	if len(ly.Lines) != 2 || ly.Lines[0].StartTimeMs != 1000 || ly.Lines[1].StartTimeMs != 2500 {
		t.Errorf("Unexpected lines: %+v", ly.Lines)
	}
	if ly.Provider != "MusixmatchOrig" || ly.ProviderLyricsID != "555" || ly.Language != "en" {
		t.Errorf("Unexpected metadata: %+v", ly)
	}
	if result.Colors == nil || result.Colors.Background != -9013642 {
		t.Errorf("Unexpected colors: %+v", result.Colors)
	}
}

func TestFetch_UnsyncedMapping(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"lyrics":{"syncType":"UNSYNCED","lines":[{"startTimeMs":"0","words":"hello"}]}}`))
	}))
	defer ts.Close()

	client := NewClient(testConfig(ts.URL, ts.URL, false), &staticTokens{token: "tok"}, nil)
	p := NewProvider(client)

	result, err := p.Fetch(context.Background(), &providers.Request{TrackID: "abc123", Market: "US"})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if result.Lyrics.SyncType != lyricspb.SyncUnsynced {
		t.Errorf("Expected unsynced, got syncType %d", result.Lyrics.SyncType)
	}
	if result.Colors != nil {
		t.Errorf("Expected no colors, got %+v", result.Colors)
	}
}

func TestFetch_BearerOverride(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer caller_token" {
			t.Errorf("Expected caller token, got %q", r.Header.Get("Authorization"))
		}
		w.Write([]byte(syncedBody))
	}))
	defer ts.Close()

	client := NewClient(testConfig(ts.URL, ts.URL, false), &staticTokens{err: errors.New("must not be called")}, nil)
	p := NewProvider(client)

	_, err := p.Fetch(context.Background(), &providers.Request{TrackID: "abc123", Market: "US", Bearer: "caller_token"})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
}

func TestFetch_NoLyrics(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer ts.Close()

	client := NewClient(testConfig(ts.URL, ts.URL, false), &staticTokens{token: "tok"}, nil)
	p := NewProvider(client)

	result, err := p.Fetch(context.Background(), &providers.Request{TrackID: "abc123", Market: "US"})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if result != nil {
		t.Errorf("Expected nothing usable for 404, got %+v", result)
	}
}

func TestFetch_TokenFailure(t *testing.T) {
	client := NewClient(testConfig("http://127.0.0.1:0", "http://127.0.0.1:0", false),
		&staticTokens{err: errors.New("no credential")}, nil)
	p := NewProvider(client)

	_, err := p.Fetch(context.Background(), &providers.Request{TrackID: "abc123", Market: "US"})
	if err == nil {
		t.Error("Expected error when no token is available")
	}
}

const trackBody = `{
	"name": "Test Song",
	"artists": [{"name": "Test Artist"}, {"name": "Featured"}],
	"album": {"name": "Test Album"},
	"duration_ms": 215499
}`

func TestTrackInfo(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/tracks/abc123" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("Unexpected authorization %q", r.Header.Get("Authorization"))
		}
		w.Write([]byte(trackBody))
	}))
	defer ts.Close()

	client := NewClient(testConfig(ts.URL, ts.URL, false), &staticTokens{token: "tok"}, nil)

	info, err := client.TrackInfo(context.Background(), "abc123", "")
	if err != nil {
		t.Fatalf("TrackInfo failed: %v", err)
	}
	if info.Name != "Test Song" || info.Artist != "Test Artist" || info.Album != "Test Album" || info.DurationMs != 215499 {
		t.Errorf("Unexpected track info: %+v", info)
	}
}

func TestTrackInfo_StoreCaching(t *testing.T) {
	var requests atomic.Int64
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Write([]byte(trackBody))
	}))
	defer ts.Close()

	store := newMemStore()
	client := NewClient(testConfig(ts.URL, ts.URL, true), &staticTokens{token: "tok"}, store)

	for i := 0; i < 3; i++ {
		info, err := client.TrackInfo(context.Background(), "abc123", "")
		if err != nil {
			t.Fatalf("TrackInfo call %d failed: %v", i, err)
		}
		if info.Name != "Test Song" {
			t.Errorf("Call %d: unexpected name %q", i, info.Name)
		}
	}

	if n := requests.Load(); n != 1 {
		t.Errorf("Expected 1 upstream lookup with store caching, got %d", n)
	}
}

func TestTrackInfo_StoreDisabled(t *testing.T) {
	var requests atomic.Int64
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Write([]byte(trackBody))
	}))
	defer ts.Close()

	// STORE_TRACK_INFO off: the store must not be touched.
	store := newMemStore()
	client := NewClient(testConfig(ts.URL, ts.URL, false), &staticTokens{token: "tok"}, store)

	for i := 0; i < 2; i++ {
		if _, err := client.TrackInfo(context.Background(), "abc123", ""); err != nil {
			t.Fatalf("TrackInfo call %d failed: %v", i, err)
		}
	}

	if n := requests.Load(); n != 2 {
		t.Errorf("Expected every lookup to hit upstream, got %d", n)
	}
	if len(store.values) != 0 {
		t.Errorf("Expected store untouched, got %d entries", len(store.values))
	}
}
