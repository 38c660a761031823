package providers

import (
	"regexp"
	"strconv"
	"strings"

	"mobile-lyrics-go/lyricspb"
)

// LRC timestamp pattern: [mm:ss.xx] or [mm:ss.xxx]
var lrcTimeRegex = regexp.MustCompile(`^\[(\d{2}):(\d{2})[\.:](\d{2,3})\]`)

// IsSyncedLine reports whether the line starts with an LRC timestamp.
func IsSyncedLine(line string) bool {
	return lrcTimeRegex.MatchString(line)
}

// ParseLRCLine splits one LRC line into its start time in milliseconds and
// the lyric text. Two-digit fractions are centiseconds.
func ParseLRCLine(line string) (int32, string, bool) {
	match := lrcTimeRegex.FindStringSubmatch(line)
	if len(match) < 4 {
		return 0, "", false
	}

	minutes, _ := strconv.ParseInt(match[1], 10, 64)
	seconds, _ := strconv.ParseInt(match[2], 10, 64)
	millis, _ := strconv.ParseInt(match[3], 10, 64)
	if len(match[3]) == 2 {
		millis *= 10
	}

	text := strings.TrimSpace(line[len(match[0]):])
	return int32(minutes*60*1000 + seconds*1000 + millis), text, true
}

// SyncedLines converts the timestamped subset of lines into ordered document
// lines, dropping any that fail to parse.
func SyncedLines(rawLines []string) []lyricspb.Line {
	var lines []lyricspb.Line
	for _, raw := range rawLines {
		startMs, text, ok := ParseLRCLine(raw)
		if !ok {
			continue
		}
		lines = append(lines, lyricspb.Line{
			StartTimeMs: startMs,
			Words:       text,
			Syllables:   []lyricspb.Syllable{},
		})
	}
	return lines
}

// PlainLines converts untimed text into document lines in reading order.
func PlainLines(rawLines []string) []lyricspb.Line {
	var lines []lyricspb.Line
	for _, raw := range rawLines {
		text := strings.TrimSpace(raw)
		if text == "" {
			continue
		}
		lines = append(lines, lyricspb.Line{
			Words:     text,
			Syllables: []lyricspb.Syllable{},
		})
	}
	return lines
}

// DetectLanguage guesses a 2-letter language code from the lyric text.
// Best-effort rune-range heuristic, defaults to English.
func DetectLanguage(content string) string {
	for _, r := range content {
		switch {
		case r >= '一' && r <= '鿿':
			return "zh"
		case r >= '぀' && r <= 'ゟ': // Hiragana
			return "ja"
		case r >= '゠' && r <= 'ヿ': // Katakana
			return "ja"
		case r >= '가' && r <= '힯': // Korean
			return "ko"
		case r >= 'Ѐ' && r <= 'ӿ': // Cyrillic
			return "ru"
		case r >= '؀' && r <= 'ۿ': // Arabic
			return "ar"
		}
	}
	return "en"
}
