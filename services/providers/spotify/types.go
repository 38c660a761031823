package spotify

// lyricsResponse is the color-lyrics payload for one track.
type lyricsResponse struct {
	Lyrics lyricsPayload  `json:"lyrics"`
	Colors *colorsPayload `json:"colors"`
}

type lyricsPayload struct {
	SyncType            string        `json:"syncType"`
	Lines               []linePayload `json:"lines"`
	Provider            string        `json:"provider"`
	ProviderLyricsID    string        `json:"providerLyricsId"`
	ProviderDisplayName string        `json:"providerDisplayName"`
	Language            string        `json:"language"`
}

// linePayload carries timestamps as decimal strings on the wire.
type linePayload struct {
	StartTimeMs string            `json:"startTimeMs"`
	Words       string            `json:"words"`
	Syllables   []syllablePayload `json:"syllables"`
	EndTimeMs   string            `json:"endTimeMs"`
}

type syllablePayload struct {
	StartTimeMs string `json:"startTimeMs"`
	Words       string `json:"words"`
	EndTimeMs   string `json:"endTimeMs"`
}

type colorsPayload struct {
	Background    int32 `json:"background"`
	Text          int32 `json:"text"`
	HighlightText int32 `json:"highlightText"`
}

// trackResponse is the subset of the track metadata endpoint we read.
type trackResponse struct {
	Name    string `json:"name"`
	Artists []struct {
		Name string `json:"name"`
	} `json:"artists"`
	Album struct {
		Name string `json:"name"`
	} `json:"album"`
	DurationMs int `json:"duration_ms"`
}
