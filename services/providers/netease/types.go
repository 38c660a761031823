package netease

// forwardRequest is the envelope the linux/forward gateway expects. The
// inner URL names the real API endpoint; the whole envelope travels
// encrypted in the eparams form field.
type forwardRequest struct {
	Method string         `json:"method"`
	Params map[string]any `json:"params"`
	URL    string         `json:"url"`
}

// searchResponse is the cloudsearch result subset we read.
type searchResponse struct {
	Result struct {
		Songs []struct {
			ID int64 `json:"id"`
		} `json:"songs"`
	} `json:"result"`
	Code int `json:"code"`
}

// lyricResponse is the song/lyric result subset we read.
type lyricResponse struct {
	LRC struct {
		Lyric string `json:"lyric"`
	} `json:"lrc"`
	Code int `json:"code"`
}
