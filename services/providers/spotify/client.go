package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"mobile-lyrics-go/cache"
	"mobile-lyrics-go/config"
	"mobile-lyrics-go/logcolors"
	"mobile-lyrics-go/services/providers"
)

const (
	defaultTimeout = 10 * time.Second
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/134.0.0.0 Safari/537.3"

	trackInfoCachePrefix = "track_info_"
	trackInfoCacheTTL    = 7 * 24 * time.Hour
)

// TokenSource supplies the web-player bearer token. The token manager
// implements it.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Client talks to the lyrics endpoint and the public track metadata API.
// It also implements providers.TrackInfoSource for the search-based adapters.
type Client struct {
	clientURL string
	apiURL    string

	tokens TokenSource

	// store caches track metadata lookups when enabled; nil otherwise.
	store cache.Store

	httpClient *http.Client
}

// NewClient wires the client from configuration. store is only used when
// STORE_TRACK_INFO is set and may be nil.
func NewClient(cfg config.Config, tokens TokenSource, store cache.Store) *Client {
	if !cfg.Configuration.StoreTrackInfo {
		store = nil
	}

	return &Client{
		clientURL:  cfg.Configuration.SpotifyClientURL,
		apiURL:     cfg.Configuration.SpotifyAPIURL,
		tokens:     tokens,
		store:      store,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// bearer resolves the token for a request, preferring the caller-supplied
// override over the managed credential.
func (c *Client) bearer(ctx context.Context, override string) (string, error) {
	if override != "" {
		return override, nil
	}
	if c.tokens == nil {
		return "", fmt.Errorf("no token source configured")
	}
	return c.tokens.Token(ctx)
}

// Lyrics fetches the color-lyrics document for a track. Returns (nil, nil)
// when the track has no lyrics.
func (c *Client) Lyrics(ctx context.Context, trackID, market, bearerOverride string) (*lyricsResponse, error) {
	token, err := c.bearer(ctx, bearerOverride)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve bearer token: %w", err)
	}

	requestURL := fmt.Sprintf("%s/color-lyrics/v2/track/%s?format=json&vocalRemoval=false&market=%s",
		c.clientURL, trackID, market)

	req, err := http.NewRequestWithContext(ctx, "GET", requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("app-platform", "WebPlayer")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("lyrics endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var lyricsResp lyricsResponse
	if err := json.Unmarshal(body, &lyricsResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &lyricsResp, nil
}

// TrackInfo looks up track metadata for the search-based providers,
// optionally caching the result in the configured store.
func (c *Client) TrackInfo(ctx context.Context, trackID, bearerOverride string) (*providers.TrackInfo, error) {
	if info, ok := c.trackInfoFromStore(ctx, trackID); ok {
		return info, nil
	}

	token, err := c.bearer(ctx, bearerOverride)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve bearer token: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", c.apiURL+"/v1/tracks/"+trackID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("track endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var trackResp trackResponse
	if err := json.Unmarshal(body, &trackResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	info := &providers.TrackInfo{
		Name:       trackResp.Name,
		Album:      trackResp.Album.Name,
		DurationMs: trackResp.DurationMs,
	}
	if len(trackResp.Artists) > 0 {
		info.Artist = trackResp.Artists[0].Name
	}

	c.trackInfoToStore(ctx, trackID, info)
	return info, nil
}

func (c *Client) trackInfoFromStore(ctx context.Context, trackID string) (*providers.TrackInfo, bool) {
	if c.store == nil {
		return nil, false
	}

	value, err := c.store.Get(ctx, trackInfoCachePrefix+trackID)
	if err != nil {
		return nil, false
	}

	var info providers.TrackInfo
	if err := json.Unmarshal([]byte(value), &info); err != nil {
		return nil, false
	}

	log.Debugf("%s Track info cache hit for %s", logcolors.LogCache, trackID)
	return &info, true
}

func (c *Client) trackInfoToStore(ctx context.Context, trackID string, info *providers.TrackInfo) {
	if c.store == nil {
		return
	}

	data, err := json.Marshal(info)
	if err != nil {
		return
	}

	if err := c.store.Set(ctx, trackInfoCachePrefix+trackID, string(data), time.Now().Add(trackInfoCacheTTL)); err != nil {
		log.Warnf("%s Failed to cache track info for %s: %v", logcolors.LogCache, trackID, err)
	}
}
