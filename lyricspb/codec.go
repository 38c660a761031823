package lyricspb

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// ValidationError reports a document that violates the schema. Compliant
// adapters never produce one; seeing it indicates an adapter bug.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return "lyrics document validation failed: " + e.Msg
}

// Validate checks the assembled document against the schema invariants
// before serialization.
func Validate(root *Root) error {
	if root == nil {
		return &ValidationError{Msg: "root message is nil"}
	}
	if root.Lyrics == nil {
		return &ValidationError{Msg: "lyrics: required field missing"}
	}

	ly := root.Lyrics
	if ly.SyncType != SyncUnsynced && ly.SyncType != SyncLineSynced {
		return &ValidationError{Msg: fmt.Sprintf("lyrics.syncType: invalid enum value %d", ly.SyncType)}
	}
	if len(ly.Lines) == 0 {
		return &ValidationError{Msg: "lyrics.lines: required field missing"}
	}

	var prev int32
	for i, line := range ly.Lines {
		if line.StartTimeMs < 0 {
			return &ValidationError{Msg: fmt.Sprintf("lyrics.lines[%d].startTimeMs: negative value %d", i, line.StartTimeMs)}
		}
		if ly.SyncType == SyncLineSynced {
			if line.StartTimeMs < prev {
				return &ValidationError{Msg: fmt.Sprintf("lyrics.lines[%d].startTimeMs: %d decreases below %d", i, line.StartTimeMs, prev)}
			}
			prev = line.StartTimeMs
		} else if line.StartTimeMs != 0 {
			return &ValidationError{Msg: fmt.Sprintf("lyrics.lines[%d].startTimeMs: must be 0 for unsynced lyrics", i)}
		}
	}

	if root.Colors == nil {
		return &ValidationError{Msg: "colors: required field missing"}
	}

	return nil
}

// Marshal validates the document and serializes it to the wire format.
func Marshal(root *Root) ([]byte, error) {
	if err := Validate(root); err != nil {
		return nil, err
	}

	// Both submessages are always emitted, even when their encoding is
	// empty: message presence survives the wire, so an all-zero Colors
	// decodes as a present message rather than nil.
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.BytesType)
	b = protowire.AppendBytes(b, appendLyrics(nil, root.Lyrics))
	b = protowire.AppendTag(b, 2, protowire.BytesType)
	b = protowire.AppendBytes(b, appendColors(nil, root.Colors))
	return b, nil
}

func appendInt32(b []byte, num protowire.Number, v int32) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(int64(v)))
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendLyrics(b []byte, ly *Lyrics) []byte {
	b = appendInt32(b, 1, ly.SyncType)
	for i := range ly.Lines {
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendBytes(b, appendLine(nil, &ly.Lines[i]))
	}
	b = appendString(b, 3, ly.Provider)
	b = appendString(b, 4, ly.ProviderLyricsID)
	b = appendString(b, 5, ly.ProviderDisplayName)
	b = appendString(b, 6, ly.Language)
	return b
}

func appendLine(b []byte, line *Line) []byte {
	b = appendInt32(b, 1, line.StartTimeMs)
	b = appendString(b, 2, line.Words)
	for i := range line.Syllables {
		syl := &line.Syllables[i]
		var sb []byte
		sb = appendInt32(sb, 1, syl.StartTimeMs)
		sb = appendString(sb, 2, syl.Words)
		sb = appendInt32(sb, 3, syl.EndTimeMs)
		b = protowire.AppendTag(b, 3, protowire.BytesType)
		b = protowire.AppendBytes(b, sb)
	}
	b = appendInt32(b, 4, line.EndTimeMs)
	return b
}

func appendColors(b []byte, c *Colors) []byte {
	b = appendInt32(b, 1, c.Background)
	b = appendInt32(b, 2, c.Text)
	b = appendInt32(b, 3, c.HighlightText)
	return b
}

// Unmarshal decodes a wire-format document. Unknown fields are skipped.
func Unmarshal(data []byte) (*Root, error) {
	root := &Root{}
	err := walkFields(data, func(num protowire.Number, typ protowire.Type, payload []byte) error {
		if typ != protowire.BytesType {
			return nil
		}
		switch num {
		case 1:
			ly, err := unmarshalLyrics(payload)
			if err != nil {
				return err
			}
			root.Lyrics = ly
		case 2:
			c, err := unmarshalColors(payload)
			if err != nil {
				return err
			}
			root.Colors = c
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return root, nil
}

// walkFields iterates the top-level fields of one message, handing varint
// payloads and length-delimited payloads to fn.
func walkFields(data []byte, fn func(num protowire.Number, typ protowire.Type, payload []byte) error) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return fmt.Errorf("invalid wire data: %w", protowire.ParseError(n))
		}
		data = data[n:]

		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return fmt.Errorf("invalid varint for field %d: %w", num, protowire.ParseError(n))
			}
			buf := protowire.AppendVarint(nil, v)
			if err := fn(num, typ, buf); err != nil {
				return err
			}
			data = data[n:]
		case protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return fmt.Errorf("invalid bytes for field %d: %w", num, protowire.ParseError(n))
			}
			if err := fn(num, typ, v); err != nil {
				return err
			}
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return fmt.Errorf("invalid field %d: %w", num, protowire.ParseError(n))
			}
			data = data[n:]
		}
	}
	return nil
}

func consumeInt32(payload []byte) int32 {
	v, n := protowire.ConsumeVarint(payload)
	if n < 0 {
		return 0
	}
	return int32(v)
}

func unmarshalLyrics(data []byte) (*Lyrics, error) {
	ly := &Lyrics{}
	err := walkFields(data, func(num protowire.Number, typ protowire.Type, payload []byte) error {
		switch num {
		case 1:
			ly.SyncType = consumeInt32(payload)
		case 2:
			line, err := unmarshalLine(payload)
			if err != nil {
				return err
			}
			ly.Lines = append(ly.Lines, line)
		case 3:
			ly.Provider = string(payload)
		case 4:
			ly.ProviderLyricsID = string(payload)
		case 5:
			ly.ProviderDisplayName = string(payload)
		case 6:
			ly.Language = string(payload)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ly, nil
}

func unmarshalLine(data []byte) (Line, error) {
	var line Line
	err := walkFields(data, func(num protowire.Number, typ protowire.Type, payload []byte) error {
		switch num {
		case 1:
			line.StartTimeMs = consumeInt32(payload)
		case 2:
			line.Words = string(payload)
		case 3:
			syl, err := unmarshalSyllable(payload)
			if err != nil {
				return err
			}
			line.Syllables = append(line.Syllables, syl)
		case 4:
			line.EndTimeMs = consumeInt32(payload)
		}
		return nil
	})
	return line, err
}

func unmarshalSyllable(data []byte) (Syllable, error) {
	var syl Syllable
	err := walkFields(data, func(num protowire.Number, typ protowire.Type, payload []byte) error {
		switch num {
		case 1:
			syl.StartTimeMs = consumeInt32(payload)
		case 2:
			syl.Words = string(payload)
		case 3:
			syl.EndTimeMs = consumeInt32(payload)
		}
		return nil
	})
	return syl, err
}

func unmarshalColors(data []byte) (*Colors, error) {
	c := &Colors{}
	err := walkFields(data, func(num protowire.Number, typ protowire.Type, payload []byte) error {
		switch num {
		case 1:
			c.Background = consumeInt32(payload)
		case 2:
			c.Text = consumeInt32(payload)
		case 3:
			c.HighlightText = consumeInt32(payload)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}
