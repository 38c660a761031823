// Package resolver runs the provider chain for one track and produces the
// serialized document. Providers are consulted in configuration order; the
// first synced result short-circuits the chain, otherwise the first unsynced
// result survives as the fallback.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"mobile-lyrics-go/cache"
	"mobile-lyrics-go/logcolors"
	"mobile-lyrics-go/lyricspb"
	"mobile-lyrics-go/services/providers"
	"mobile-lyrics-go/stats"
)

var (
	// ErrNotFound means every provider came up empty for the track.
	ErrNotFound = errors.New("no lyrics found")

	// ErrEncoding means a usable document failed to serialize. The HTTP
	// layer maps it to a 500 instead of the not-found 404.
	ErrEncoding = errors.New("failed to encode lyrics document")
)

// noExpiry marks cache records that never go stale.
var noExpiry time.Time

// Resolver owns the resolution pipeline: cache check, ordered provider loop,
// document assembly and serialization.
type Resolver struct {
	providers []providers.Provider
	store     cache.Store // nil when caching disabled
	stats     *stats.Stats
}

// New creates a resolver over the given provider chain. store may be nil.
func New(chain []providers.Provider, store cache.Store) *Resolver {
	return &Resolver{
		providers: chain,
		store:     store,
		stats:     stats.Get(),
	}
}

// Resolve produces the serialized document for one track.
//
// Color handling follows the cascade rule: the scheme starts at the default
// and is replaced whenever a provider supplies its own, so a fallback result
// without colors inherits the last scheme seen before it was captured.
func (r *Resolver) Resolve(ctx context.Context, req *providers.Request) ([]byte, error) {
	colors := lyricspb.DefaultColors()

	var fallback *lyricspb.Lyrics
	var fallbackColors *lyricspb.Colors
	fallbackCached := false

	if lyrics, cachedColors, ok := r.fromCache(ctx, req.TrackID); ok {
		r.stats.RecordCacheHit()
		colors = cachedColors

		if lyrics.SyncType == lyricspb.SyncLineSynced {
			log.Infof("%s Cache hit (synced) for %s", logcolors.LogCacheLyrics, req.TrackID)
			r.stats.RecordResolution(true)
			return r.encode(lyrics, colors)
		}

		// Unsynced records are the one exception to write-once: the
		// chain runs again, and a later synced result replaces the
		// record. The cached document stays the fallback so the
		// response never regresses below what was stored.
		log.Infof("%s Cache hit (unsynced) for %s, trying providers for a synced upgrade", logcolors.LogCacheLyrics, req.TrackID)
		fallback = lyrics
		fallbackColors = colors
		fallbackCached = true
	} else {
		r.stats.RecordCacheMiss()
	}

	for _, p := range r.providers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result, err := p.Fetch(ctx, req)
		if err != nil {
			r.stats.RecordProviderError(p.Name())
			log.Warnf("%s Provider %s failed for %s: %v", logcolors.LogFallback, p.Name(), req.TrackID, err)
			continue
		}
		if result == nil || result.Lyrics == nil || len(result.Lyrics.Lines) == 0 {
			log.Debugf("%s Provider %s has nothing for %s", logcolors.LogFallback, p.Name(), req.TrackID)
			continue
		}

		r.stats.RecordProviderHit(p.Name())
		if result.Colors != nil {
			colors = result.Colors
		}

		if result.Lyrics.SyncType == lyricspb.SyncLineSynced {
			log.Infof("%s Resolved %s via %s (synced, %d lines)",
				logcolors.LogResolve, req.TrackID, p.Name(), len(result.Lyrics.Lines))
			r.toCache(ctx, req.TrackID, result.Lyrics, colors)
			r.stats.RecordResolution(true)
			return r.encode(result.Lyrics, colors)
		}

		if fallback == nil {
			fallback = result.Lyrics
			fallbackColors = colors
			fallbackCached = false
		}
	}

	if fallback == nil {
		r.stats.RecordNotFound()
		return nil, ErrNotFound
	}

	log.Infof("%s Resolved %s via %s (unsynced, %d lines)",
		logcolors.LogResolve, req.TrackID, fallback.Provider, len(fallback.Lines))
	if !fallbackCached {
		r.toCache(ctx, req.TrackID, fallback, fallbackColors)
	}
	r.stats.RecordResolution(false)
	return r.encode(fallback, fallbackColors)
}

func (r *Resolver) encode(lyrics *lyricspb.Lyrics, colors *lyricspb.Colors) ([]byte, error) {
	data, err := lyricspb.Marshal(&lyricspb.Root{Lyrics: lyrics, Colors: colors})
	if err != nil {
		log.Errorf("%s %v", logcolors.LogEncode, err)
		return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	return data, nil
}

func (r *Resolver) fromCache(ctx context.Context, trackID string) (*lyricspb.Lyrics, *lyricspb.Colors, bool) {
	if r.store == nil {
		return nil, nil, false
	}

	value, err := r.store.Get(ctx, lyricsCachePrefix+trackID)
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			log.Warnf("%s Cache read failed for %s: %v", logcolors.LogCache, trackID, err)
		}
		return nil, nil, false
	}

	lyrics, colors, err := decodeRecord(value)
	if err != nil {
		log.Warnf("%s Dropping malformed cache record for %s: %v", logcolors.LogCache, trackID, err)
		return nil, nil, false
	}
	return lyrics, colors, true
}

// toCache persists the winning document, best-effort. Records carry no
// expiry; lyrics do not go stale.
func (r *Resolver) toCache(ctx context.Context, trackID string, lyrics *lyricspb.Lyrics, colors *lyricspb.Colors) {
	if r.store == nil {
		return
	}

	if err := r.store.Set(ctx, lyricsCachePrefix+trackID, encodeRecord(lyrics, colors), noExpiry); err != nil {
		log.Warnf("%s Cache write failed for %s: %v", logcolors.LogCache, trackID, err)
	}
}
