// Package spotify is the first-party lyrics adapter. It fetches the upstream
// color-lyrics document for a track and normalizes it, and doubles as the
// track metadata source for the search-based fallback adapters.
package spotify

import (
	"context"
	"strconv"

	log "github.com/sirupsen/logrus"

	"mobile-lyrics-go/logcolors"
	"mobile-lyrics-go/lyricspb"
	"mobile-lyrics-go/services/providers"
)

// ProviderName is the identifier for the Spotify provider
const ProviderName = "spotify"

// SpotifyProvider implements the providers.Provider interface against the
// upstream color-lyrics endpoint.
type SpotifyProvider struct {
	client *Client
}

// NewProvider creates a new Spotify provider backed by the given client.
func NewProvider(client *Client) *SpotifyProvider {
	return &SpotifyProvider{client: client}
}

// Name returns the provider identifier
func (p *SpotifyProvider) Name() string {
	return ProviderName
}

// Fetch retrieves lyrics for the track. Upstream already returns the target
// document shape, so mapping is mostly timestamp string parsing.
func (p *SpotifyProvider) Fetch(ctx context.Context, req *providers.Request) (*providers.Result, error) {
	resp, err := p.client.Lyrics(ctx, req.TrackID, req.Market, req.Bearer)
	if err != nil {
		return nil, providers.NewProviderError(ProviderName, "lyrics fetch failed", err)
	}
	if resp == nil || len(resp.Lyrics.Lines) == 0 {
		return nil, nil
	}

	syncType := lyricspb.SyncUnsynced
	if resp.Lyrics.SyncType == "LINE_SYNCED" {
		syncType = lyricspb.SyncLineSynced
	}

	lines := make([]lyricspb.Line, 0, len(resp.Lyrics.Lines))
	for _, l := range resp.Lyrics.Lines {
		lines = append(lines, lyricspb.Line{
			StartTimeMs: parseTimestamp(l.StartTimeMs),
			Words:       l.Words,
			Syllables:   mapSyllables(l.Syllables),
			EndTimeMs:   parseTimestamp(l.EndTimeMs),
		})
	}

	result := &providers.Result{
		Lyrics: &lyricspb.Lyrics{
			SyncType:            syncType,
			Lines:               lines,
			Provider:            resp.Lyrics.Provider,
			ProviderLyricsID:    resp.Lyrics.ProviderLyricsID,
			ProviderDisplayName: resp.Lyrics.ProviderDisplayName,
			Language:            resp.Lyrics.Language,
		},
	}
	if resp.Colors != nil {
		result.Colors = &lyricspb.Colors{
			Background:    resp.Colors.Background,
			Text:          resp.Colors.Text,
			HighlightText: resp.Colors.HighlightText,
		}
	}

	log.Infof("%s [Spotify] Fetched lyrics for %s (%d lines, syncType: %s)",
		logcolors.LogSuccess, req.TrackID, len(lines), resp.Lyrics.SyncType)

	return result, nil
}

func parseTimestamp(s string) int32 {
	ms, _ := strconv.ParseInt(s, 10, 32)
	return int32(ms)
}

func mapSyllables(payload []syllablePayload) []lyricspb.Syllable {
	syllables := make([]lyricspb.Syllable, 0, len(payload))
	for _, s := range payload {
		syllables = append(syllables, lyricspb.Syllable{
			StartTimeMs: parseTimestamp(s.StartTimeMs),
			Words:       s.Words,
			EndTimeMs:   parseTimestamp(s.EndTimeMs),
		})
	}
	return syllables
}
