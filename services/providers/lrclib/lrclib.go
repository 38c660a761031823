// Package lrclib is the last fallback adapter, backed by the open LRCLIB
// lyrics database. Lookup is by exact track signature, so it only fires when
// the track metadata lookup succeeds.
package lrclib

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"mobile-lyrics-go/logcolors"
	"mobile-lyrics-go/lyricspb"
	"mobile-lyrics-go/services/providers"
)

// ProviderName is the identifier for the LRCLIB provider
const ProviderName = "lrclib"

const (
	providerDisplayName = "LRCLIB"

	defaultTimeout = 10 * time.Second
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/134.0.0.0 Safari/537.3"
)

// getResponse is the /api/get payload subset we read.
type getResponse struct {
	ID           int64  `json:"id"`
	PlainLyrics  string `json:"plainLyrics"`
	SyncedLyrics string `json:"syncedLyrics"`
}

// LRCLibProvider implements the providers.Provider interface for LRCLIB.
type LRCLibProvider struct {
	baseURL    string
	tracks     providers.TrackInfoSource
	httpClient *http.Client
}

// NewProvider creates a new LRCLIB provider against the given base URL.
func NewProvider(baseURL string, tracks providers.TrackInfoSource) *LRCLibProvider {
	return &LRCLibProvider{
		baseURL:    baseURL,
		tracks:     tracks,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// Name returns the provider identifier
func (p *LRCLibProvider) Name() string {
	return ProviderName
}

// Fetch looks the track up by its exact signature and converts whichever of
// the synced or plain variants the record carries.
func (p *LRCLibProvider) Fetch(ctx context.Context, req *providers.Request) (*providers.Result, error) {
	info, err := p.tracks.TrackInfo(ctx, req.TrackID, req.Bearer)
	if err != nil {
		return nil, providers.NewProviderError(ProviderName, "track info lookup failed", err)
	}
	if info.Name == "" || info.Artist == "" {
		return nil, nil
	}

	record, err := p.get(ctx, info)
	if err != nil {
		return nil, providers.NewProviderError(ProviderName, "lookup failed", err)
	}
	if record == nil || (record.PlainLyrics == "" && record.SyncedLyrics == "") {
		return nil, nil
	}

	lyrics := &lyricspb.Lyrics{
		Provider:            ProviderName,
		ProviderLyricsID:    strconv.FormatInt(record.ID, 10),
		ProviderDisplayName: providerDisplayName,
	}

	if record.SyncedLyrics != "" {
		var syncedRaw []string
		for _, line := range strings.Split(record.SyncedLyrics, "\n") {
			if providers.IsSyncedLine(line) {
				syncedRaw = append(syncedRaw, line)
			}
		}
		lyrics.SyncType = lyricspb.SyncLineSynced
		lyrics.Lines = providers.SyncedLines(syncedRaw)
		lyrics.Language = providers.DetectLanguage(record.SyncedLyrics)
	} else {
		lyrics.SyncType = lyricspb.SyncUnsynced
		lyrics.Lines = providers.PlainLines(strings.Split(record.PlainLyrics, "\n"))
		lyrics.Language = providers.DetectLanguage(record.PlainLyrics)
	}

	if len(lyrics.Lines) == 0 {
		return nil, nil
	}

	log.Infof("%s [LRCLIB] Fetched lyrics for %s - %s (record %d, %d lines)",
		logcolors.LogSuccess, info.Name, info.Artist, record.ID, len(lyrics.Lines))

	return &providers.Result{Lyrics: lyrics}, nil
}

// get queries /api/get. Returns (nil, nil) when the track is unknown.
func (p *LRCLibProvider) get(ctx context.Context, info *providers.TrackInfo) (*getResponse, error) {
	params := url.Values{}
	params.Set("track_name", info.Name)
	params.Set("artist_name", info.Artist)
	if info.Album != "" {
		params.Set("album_name", info.Album)
	}
	if info.DurationMs > 0 {
		params.Set("duration", strconv.Itoa(int(math.Round(float64(info.DurationMs)/1000))))
	}

	req, err := http.NewRequestWithContext(ctx, "GET", p.baseURL+"/api/get?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var record getResponse
	if err := json.Unmarshal(body, &record); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &record, nil
}
