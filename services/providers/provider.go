package providers

import (
	"context"

	"mobile-lyrics-go/lyricspb"
)

// Request carries one resolution attempt through the adapters.
type Request struct {
	// TrackID is the Spotify track identifier.
	TrackID string

	// Market is the 2-letter country code. The HTTP layer resolves the
	// legacy "from_token" value before it gets here.
	Market string

	// Bearer, when set, is a caller-supplied access token that overrides
	// the token manager for this single resolution.
	Bearer string
}

// Result is the normalized outcome of one adapter. Colors is nil unless the
// provider supplied its own scheme.
type Result struct {
	Lyrics *lyricspb.Lyrics
	Colors *lyricspb.Colors
}

// Provider is one lyrics source. Fetch returns (nil, nil) when the provider
// has nothing usable; errors are caught by the pipeline and treated the same
// way, so ordinary not-found conditions must not be errors.
type Provider interface {
	// Name returns the provider's identifier (e.g. "spotify", "netease")
	Name() string

	Fetch(ctx context.Context, req *Request) (*Result, error)
}

// TrackInfo is the basic track metadata the search-based providers need to
// build their queries.
type TrackInfo struct {
	Name       string
	Artist     string
	Album      string
	DurationMs int
}

// TrackInfoSource supplies track metadata; the Spotify client implements it.
// Adapters that require name+artist return nothing usable when the lookup
// fails or comes back incomplete.
type TrackInfoSource interface {
	TrackInfo(ctx context.Context, trackID, bearer string) (*TrackInfo, error)
}

// ProviderError wraps an adapter failure with its provider name.
type ProviderError struct {
	Provider string
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return e.Provider + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Provider + ": " + e.Message
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError creates a new ProviderError
func NewProviderError(provider, message string, err error) *ProviderError {
	return &ProviderError{
		Provider: provider,
		Message:  message,
		Err:      err,
	}
}
