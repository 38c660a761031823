// Package netease is the first fallback adapter. It matches the track by
// name and artist through cloudsearch, downloads the LRC document and
// normalizes it, preferring timestamped lines when any survive filtering.
package netease

import (
	"context"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"mobile-lyrics-go/logcolors"
	"mobile-lyrics-go/lyricspb"
	"mobile-lyrics-go/services/providers"
)

// ProviderName is the identifier for the NetEase provider
const ProviderName = "netease"

const providerDisplayName = "NetEase Cloud Music"

// NeteaseProvider implements the providers.Provider interface for NetEase
// Cloud Music lyrics.
type NeteaseProvider struct {
	client *Client
	tracks providers.TrackInfoSource
}

// NewProvider creates a new NetEase provider. tracks supplies the metadata
// the search needs.
func NewProvider(client *Client, tracks providers.TrackInfoSource) *NeteaseProvider {
	return &NeteaseProvider{client: client, tracks: tracks}
}

// Name returns the provider identifier
func (p *NeteaseProvider) Name() string {
	return ProviderName
}

// Fetch searches NetEase for the track and converts its LRC document.
func (p *NeteaseProvider) Fetch(ctx context.Context, req *providers.Request) (*providers.Result, error) {
	info, err := p.tracks.TrackInfo(ctx, req.TrackID, req.Bearer)
	if err != nil {
		return nil, providers.NewProviderError(ProviderName, "track info lookup failed", err)
	}
	if info.Name == "" || info.Artist == "" {
		return nil, nil
	}

	songID, err := p.client.SearchSong(ctx, info.Name+" "+info.Artist)
	if err != nil {
		return nil, providers.NewProviderError(ProviderName, "song search failed", err)
	}
	if songID == 0 {
		return nil, nil
	}

	lrc, err := p.client.LyricLRC(ctx, songID)
	if err != nil {
		return nil, providers.NewProviderError(ProviderName, "lyrics download failed", err)
	}
	if lrc == "" {
		return nil, nil
	}

	lines := FilterLines(lrc)
	if len(lines) == 0 {
		return nil, nil
	}

	var syncedRaw []string
	for _, line := range lines {
		if providers.IsSyncedLine(line) {
			syncedRaw = append(syncedRaw, line)
		}
	}

	lyrics := &lyricspb.Lyrics{
		Provider:            ProviderName,
		ProviderLyricsID:    strconv.FormatInt(songID, 10),
		ProviderDisplayName: providerDisplayName,
		Language:            providers.DetectLanguage(strings.Join(lines, "\n")),
	}
	if len(syncedRaw) > 0 {
		lyrics.SyncType = lyricspb.SyncLineSynced
		lyrics.Lines = providers.SyncedLines(syncedRaw)
	} else {
		lyrics.SyncType = lyricspb.SyncUnsynced
		lyrics.Lines = providers.PlainLines(lines)
	}

	log.Infof("%s [NetEase] Fetched lyrics for %s - %s (song %d, %d lines)",
		logcolors.LogSuccess, info.Name, info.Artist, songID, len(lyrics.Lines))

	return &providers.Result{Lyrics: lyrics}, nil
}

// FilterLines strips credit and malformed lines from a raw LRC document.
// A leading line with a timestamp but no text is dropped so documents that
// open with a blank credit row do not start with an empty lyric.
func FilterLines(lrc string) []string {
	var lines []string
	for _, line := range strings.Split(lrc, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if strings.Contains(line, "作词 :") || strings.Contains(line, "作曲 :") {
			continue
		}
		bracket := strings.Index(line, "]")
		if bracket < 0 {
			continue
		}
		if len(lines) == 0 && strings.TrimSpace(line[bracket+1:]) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
