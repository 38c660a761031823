package resolver

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"mobile-lyrics-go/lyricspb"
)

// Cached documents surface under the historical provider identity so clients
// keep rendering them the same way.
const (
	cacheProviderName        = "musixmatch"
	cacheProviderDisplayName = "Musixmatch"
)

const lyricsCachePrefix = "lyrics_"

// encodeRecord packs a resolved document into the compact cache value:
//
//	sync;start.b64(words).end|start.b64(words).end|...;background;text;highlight
//
// Base64 keeps the words free of the separator characters.
func encodeRecord(lyrics *lyricspb.Lyrics, colors *lyricspb.Colors) string {
	parts := make([]string, 0, len(lyrics.Lines))
	for _, line := range lyrics.Lines {
		parts = append(parts, fmt.Sprintf("%d.%s.%d",
			line.StartTimeMs,
			base64.StdEncoding.EncodeToString([]byte(line.Words)),
			line.EndTimeMs))
	}

	sync := 0
	if lyrics.SyncType == lyricspb.SyncLineSynced {
		sync = 1
	}

	return fmt.Sprintf("%d;%s;%d;%d;%d",
		sync, strings.Join(parts, "|"),
		colors.Background, colors.Text, colors.HighlightText)
}

// decodeRecord unpacks a cache value back into a document, reporting an error
// for any malformed record so stale junk never reaches the encoder.
func decodeRecord(value string) (*lyricspb.Lyrics, *lyricspb.Colors, error) {
	fields := strings.Split(value, ";")
	if len(fields) != 5 {
		return nil, nil, fmt.Errorf("record has %d fields, want 5", len(fields))
	}

	sync, err := strconv.Atoi(fields[0])
	if err != nil || (sync != 0 && sync != 1) {
		return nil, nil, fmt.Errorf("invalid sync flag %q", fields[0])
	}

	var lines []lyricspb.Line
	for _, part := range strings.Split(fields[1], "|") {
		segs := strings.Split(part, ".")
		if len(segs) != 3 {
			return nil, nil, fmt.Errorf("invalid line segment %q", part)
		}
		start, err := strconv.ParseInt(segs[0], 10, 32)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid start time %q", segs[0])
		}
		words, err := base64.StdEncoding.DecodeString(segs[1])
		if err != nil {
			return nil, nil, fmt.Errorf("invalid words encoding in %q", part)
		}
		end, err := strconv.ParseInt(segs[2], 10, 32)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid end time %q", segs[2])
		}
		lines = append(lines, lyricspb.Line{
			StartTimeMs: int32(start),
			Words:       string(words),
			Syllables:   []lyricspb.Syllable{},
			EndTimeMs:   int32(end),
		})
	}
	if len(lines) == 0 {
		return nil, nil, fmt.Errorf("record has no lines")
	}

	colors := &lyricspb.Colors{}
	for i, dst := range []*int32{&colors.Background, &colors.Text, &colors.HighlightText} {
		v, err := strconv.ParseInt(fields[2+i], 10, 32)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid color %q", fields[2+i])
		}
		*dst = int32(v)
	}

	syncType := lyricspb.SyncUnsynced
	if sync == 1 {
		syncType = lyricspb.SyncLineSynced
	}

	return &lyricspb.Lyrics{
		SyncType:            syncType,
		Lines:               lines,
		Provider:            cacheProviderName,
		ProviderDisplayName: cacheProviderDisplayName,
	}, colors, nil
}
