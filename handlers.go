package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"mobile-lyrics-go/logcolors"
	"mobile-lyrics-go/services/providers"
	"mobile-lyrics-go/services/resolver"
	"mobile-lyrics-go/stats"
)

const defaultMarket = "US"

// server holds the wired pipeline the handlers dispatch into.
type server struct {
	resolver *resolver.Resolver

	// cacheEnabled is reported by /health so operators can spot a
	// misconfigured backend at a glance.
	cacheEnabled bool
}

// rootHandler answers probes from mobile clients checking the override host.
func (s *server) rootHandler(w http.ResponseWriter, r *http.Request) {
	stats.Get().RecordRequest("/")
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) lyricsHandler(w http.ResponseWriter, r *http.Request) {
	stats.Get().RecordRequest("/color-lyrics/v2/track/{id}")

	trackID := mux.Vars(r)["id"]
	if trackID == "" {
		http.Error(w, "Track ID not provided", http.StatusBadRequest)
		return
	}

	req := &providers.Request{
		TrackID: trackID,
		Market:  resolveMarket(r),
		Bearer:  bearerOverride(r),
	}

	data, err := s.resolver.Resolve(r.Context(), req)
	if err != nil {
		if errors.Is(err, resolver.ErrEncoding) {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		if !errors.Is(err, resolver.ErrNotFound) {
			log.Warnf("%s Resolution failed for %s: %v", logcolors.LogResolve, trackID, err)
		}
		// A miss is retryable once a provider recovers, so tell
		// intermediaries not to pin the 404.
		w.Header().Set("Cache-Control", "no-store")
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/protobuf")
	w.Write(data)
}

func (s *server) healthHandler(w http.ResponseWriter, r *http.Request) {
	stats.Get().RecordRequest("/health")

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": "ok",
		"cache":  s.cacheEnabled,
		"uptime": stats.Get().Uptime().String(),
	})
}

func (s *server) statsHandler(w http.ResponseWriter, r *http.Request) {
	stats.Get().RecordRequest("/stats")

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats.Get().Snapshot())
}

// resolveMarket maps the market query parameter to a 2-letter country code.
// The legacy "from_token" value means "the caller's country"; the edge
// proxies in front of this service report it in their geo headers.
func resolveMarket(r *http.Request) string {
	market := r.URL.Query().Get("market")
	if market != "" && market != "from_token" {
		return market
	}

	if country := r.Header.Get("x-vercel-ip-country"); country != "" {
		return country
	}
	if country := r.Header.Get("cf-ipcountry"); country != "" {
		return country
	}
	return defaultMarket
}

// bearerOverride extracts a caller-supplied access token, "" when absent.
func bearerOverride(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
