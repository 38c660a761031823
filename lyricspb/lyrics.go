// Package lyricspb implements the canonical lyrics wire format:
//
//	Root     { lyrics = 1, colors = 2 }
//	Lyrics   { syncType = 1, lines = 2, provider = 3,
//	           providerLyricsId = 4, providerDisplayName = 5, language = 6 }
//	Line     { startTimeMs = 1, words = 2, syllables = 3, endTimeMs = 4 }
//	Syllable { startTimeMs = 1, words = 2, endTimeMs = 3 }
//	Colors   { background = 1, text = 2, highlightText = 3 }
//
// Messages use standard proto3 encoding (zero values omitted).
package lyricspb

// SyncType values for Lyrics.SyncType
const (
	SyncUnsynced   int32 = 0
	SyncLineSynced int32 = 1
)

// Syllable carries sub-word timing. Providers in this system never populate
// syllables, but the schema reserves the field.
type Syllable struct {
	StartTimeMs int32
	Words       string
	EndTimeMs   int32
}

// Line is a single lyrics line with timing information
type Line struct {
	StartTimeMs int32
	Words       string
	Syllables   []Syllable
	EndTimeMs   int32
}

// Lyrics is the normalized lyrics body produced by any provider
type Lyrics struct {
	SyncType            int32
	Lines               []Line
	Provider            string
	ProviderLyricsID    string
	ProviderDisplayName string
	Language            string
}

// Colors is the signed 24-bit-packed color scheme for the mobile renderer
type Colors struct {
	Background    int32
	Text          int32
	HighlightText int32
}

// Root is the top-level document returned to clients
type Root struct {
	Lyrics *Lyrics
	Colors *Colors
}

// DefaultColors returns the color scheme used when a provider supplies none.
func DefaultColors() *Colors {
	return &Colors{
		Background:    -9079435,
		Text:          -16777216,
		HighlightText: -1,
	}
}
