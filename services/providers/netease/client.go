package netease

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"mobile-lyrics-go/logcolors"
)

const (
	// Inner endpoints forwarded through the gateway. These travel inside
	// the encrypted envelope, so they always name the public host even
	// when the gateway base URL is overridden.
	cloudsearchURL = "https://music.163.com/api/cloudsearch/pc"
	songLyricURL   = "https://music.163.com/api/song/lyric"

	forwardPath = "/api/linux/forward"

	defaultTimeout = 10 * time.Second
	userAgent      = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_12_5) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/59.0.3071.115 Safari/537.36"
	forwardCookie  = "os=pc; osver=Microsoft-Windows-10-Professional-build-10586-64bit; appver=2.0.3.131777; channel=netease; __remember_me=true"
)

// Client talks to the NetEase gateway. All calls go through the encrypted
// linux/forward envelope.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a gateway client against the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// forward encrypts the envelope and posts it to the gateway.
func (c *Client) forward(ctx context.Context, envelope forwardRequest) ([]byte, error) {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal envelope: %w", err)
	}

	eparams, err := encryptEparams(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt envelope: %w", err)
	}

	form := url.Values{}
	form.Set("eparams", eparams)

	req, err := http.NewRequestWithContext(ctx, envelope.Method, c.baseURL+forwardPath, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Referer", "https://music.163.com/")
	req.Header.Set("Cookie", forwardCookie)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return body, nil
}

// SearchSong returns the best-match song ID for "name artist", 0 when the
// search comes back empty.
func (c *Client) SearchSong(ctx context.Context, query string) (int64, error) {
	log.Debugf("%s [NetEase] Searching: %s", logcolors.LogSearch, query)

	body, err := c.forward(ctx, forwardRequest{
		Method: "POST",
		Params: map[string]any{
			"s":     query,
			"type":  1,
			"limit": 1,
			"total": true,
		},
		URL: cloudsearchURL,
	})
	if err != nil {
		return 0, err
	}

	var searchResp searchResponse
	if err := json.Unmarshal(body, &searchResp); err != nil {
		return 0, fmt.Errorf("failed to parse search response: %w", err)
	}

	if len(searchResp.Result.Songs) == 0 {
		return 0, nil
	}
	return searchResp.Result.Songs[0].ID, nil
}

// LyricLRC fetches the raw LRC document for a song, "" when the song has no
// lyrics.
func (c *Client) LyricLRC(ctx context.Context, songID int64) (string, error) {
	log.Debugf("%s [NetEase] Downloading lyrics for song %d", logcolors.LogLyrics, songID)

	body, err := c.forward(ctx, forwardRequest{
		Method: "POST",
		Params: map[string]any{
			"id": songID,
			"lv": 1,
			"kv": 1,
			"tv": -1,
		},
		URL: songLyricURL,
	})
	if err != nil {
		return "", err
	}

	var lyricResp lyricResponse
	if err := json.Unmarshal(body, &lyricResp); err != nil {
		return "", fmt.Errorf("failed to parse lyric response: %w", err)
	}

	return lyricResp.LRC.Lyric, nil
}
