package netease

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"mobile-lyrics-go/lyricspb"
	"mobile-lyrics-go/services/providers"
)

type fakeTracks struct {
	info *providers.TrackInfo
	err  error
}

func (f *fakeTracks) TrackInfo(ctx context.Context, trackID, bearer string) (*providers.TrackInfo, error) {
	return f.info, f.err
}

// gatewayServer decrypts incoming envelopes and dispatches on the inner URL.
func gatewayServer(t *testing.T, searchBody, lyricBody string) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/linux/forward" {
			t.Errorf("Unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("Failed to parse form: %v", err)
		}

		payload, err := decryptEparams(r.PostForm.Get("eparams"))
		if err != nil {
			t.Fatalf("Failed to decrypt eparams: %v", err)
		}

		var envelope forwardRequest
		if err := json.Unmarshal(payload, &envelope); err != nil {
			t.Fatalf("Failed to decode envelope: %v", err)
		}

		switch {
		case strings.Contains(envelope.URL, "cloudsearch"):
			w.Write([]byte(searchBody))
		case strings.Contains(envelope.URL, "song/lyric"):
			w.Write([]byte(lyricBody))
		default:
			t.Errorf("Unexpected inner URL %s", envelope.URL)
			http.NotFound(w, r)
		}
	}))
}

func TestClient_SearchSong(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("Failed to parse form: %v", err)
		}
		eparams := r.PostForm.Get("eparams")
		if eparams == "" {
			t.Error("Expected eparams form field")
		}

		payload, err := decryptEparams(eparams)
		if err != nil {
			t.Fatalf("Failed to decrypt eparams: %v", err)
		}
		var envelope forwardRequest
		if err := json.Unmarshal(payload, &envelope); err != nil {
			t.Fatalf("Failed to decode envelope: %v", err)
		}

		if envelope.Method != "POST" {
			t.Errorf("Expected POST envelope, got %q", envelope.Method)
		}
		if envelope.Params["s"] != "Song Artist" {
			t.Errorf("Unexpected search query %v", envelope.Params["s"])
		}
		if envelope.Params["type"] != float64(1) || envelope.Params["limit"] != float64(1) {
			t.Errorf("Unexpected search params %v", envelope.Params)
		}

		w.Write([]byte(`{"result":{"songs":[{"id":42}]},"code":200}`))
	}))
	defer ts.Close()

	client := NewClient(ts.URL)

	id, err := client.SearchSong(context.Background(), "Song Artist")
	if err != nil {
		t.Fatalf("SearchSong failed: %v", err)
	}
	if id != 42 {
		t.Errorf("Expected song ID 42, got %d", id)
	}
}

func TestClient_SearchSong_NoResults(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":{},"code":200}`))
	}))
	defer ts.Close()

	client := NewClient(ts.URL)

	id, err := client.SearchSong(context.Background(), "nothing here")
	if err != nil {
		t.Fatalf("SearchSong failed: %v", err)
	}
	if id != 0 {
		t.Errorf("Expected 0 for empty results, got %d", id)
	}
}

func TestProvider_Fetch_Synced(t *testing.T) {
	lrc := "[00:00.00] 作词 : Someone\n[00:00.50]\n[00:01.00]第一行\n[00:02.50]第二行\n"
	lyricJSON, _ := json.Marshal(map[string]any{"lrc": map[string]string{"lyric": lrc}, "code": 200})

	ts := gatewayServer(t, `{"result":{"songs":[{"id":7}]},"code":200}`, string(lyricJSON))
	defer ts.Close()

	p := NewProvider(NewClient(ts.URL), &fakeTracks{info: &providers.TrackInfo{Name: "歌", Artist: "人"}})

	result, err := p.Fetch(context.Background(), &providers.Request{TrackID: "abc123"})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if result == nil || result.Lyrics == nil {
		t.Fatal("Expected a result")
	}

	ly := result.Lyrics
	if ly.SyncType != lyricspb.SyncLineSynced {
		t.Errorf("Expected synced lyrics, got syncType %d", ly.SyncType)
	}
	// Credit line and the leading blank line are filtered out.
	if len(ly.Lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d: %+v", len(ly.Lines), ly.Lines)
	}
	if ly.Lines[0].StartTimeMs != 1000 || ly.Lines[0].Words != "第一行" {
		t.Errorf("Unexpected first line: %+v", ly.Lines[0])
	}
	if ly.Provider != "netease" || ly.ProviderLyricsID != "7" || ly.ProviderDisplayName != "NetEase Cloud Music" {
		t.Errorf("Unexpected provider metadata: %+v", ly)
	}
	if ly.Language != "zh" {
		t.Errorf("Expected zh, got %q", ly.Language)
	}
}

func TestProvider_Fetch_MissingTrackInfo(t *testing.T) {
	p := NewProvider(NewClient("http://127.0.0.1:0"), &fakeTracks{info: &providers.TrackInfo{Name: "Only Name"}})

	result, err := p.Fetch(context.Background(), &providers.Request{TrackID: "abc123"})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if result != nil {
		t.Errorf("Expected nothing usable without artist, got %+v", result)
	}
}

func TestProvider_Fetch_NoMatch(t *testing.T) {
	ts := gatewayServer(t, `{"result":{},"code":200}`, `{}`)
	defer ts.Close()

	p := NewProvider(NewClient(ts.URL), &fakeTracks{info: &providers.TrackInfo{Name: "n", Artist: "a"}})

	result, err := p.Fetch(context.Background(), &providers.Request{TrackID: "abc123"})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if result != nil {
		t.Errorf("Expected nothing usable for empty search, got %+v", result)
	}
}

func TestFilterLines(t *testing.T) {
	tests := []struct {
		name     string
		lrc      string
		expected []string
	}{
		{
			name:     "Credit lines removed",
			lrc:      "[00:00.00] 作词 : A\n[00:00.10] 作曲 : B\n[00:01.00]real line",
			expected: []string{"[00:01.00]real line"},
		},
		{
			name:     "Lines without bracket removed",
			lrc:      "no bracket here\n[00:01.00]kept",
			expected: []string{"[00:01.00]kept"},
		},
		{
			name:     "Leading blank line dropped, later blanks kept",
			lrc:      "[00:00.50]\n[00:01.00]first\n[00:02.00]",
			expected: []string{"[00:01.00]first", "[00:02.00]"},
		},
		{
			name:     "Empty input",
			lrc:      "",
			expected: nil,
		},
		{
			name:     "Whitespace-only lines removed",
			lrc:      "   \n\n[00:01.00]kept",
			expected: []string{"[00:01.00]kept"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterLines(tt.lrc)
			if len(got) != len(tt.expected) {
				t.Fatalf("Expected %d lines, got %d: %v", len(tt.expected), len(got), got)
			}
			for i := range tt.expected {
				if got[i] != tt.expected[i] {
					t.Errorf("Line %d: expected %q, got %q", i, tt.expected[i], got[i])
				}
			}
		})
	}
}

// Guard against URL-encoding regressions: eparams hex must pass through
// form encoding unchanged.
func TestEparamsFormEncoding(t *testing.T) {
	eparams, err := encryptEparams([]byte(`{"k":"v"}`))
	if err != nil {
		t.Fatalf("encryptEparams failed: %v", err)
	}

	form := url.Values{}
	form.Set("eparams", eparams)

	parsed, err := url.ParseQuery(form.Encode())
	if err != nil {
		t.Fatalf("ParseQuery failed: %v", err)
	}
	if parsed.Get("eparams") != eparams {
		t.Error("Expected eparams to survive form encoding")
	}
}
