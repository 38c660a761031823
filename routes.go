package main

import (
	"github.com/gorilla/mux"
)

// setupRoutes configures all HTTP routes for the API
func setupRoutes(router *mux.Router, srv *server) {
	// Probe endpoint for clients checking the override host
	router.HandleFunc("/", srv.rootHandler).Methods("GET")

	// The lyrics endpoint, path-compatible with the upstream client API
	router.HandleFunc("/color-lyrics/v2/track/{id}", srv.lyricsHandler).Methods("GET")

	// Health and stats endpoints
	router.HandleFunc("/health", srv.healthHandler).Methods("GET")
	router.HandleFunc("/stats", srv.statsHandler).Methods("GET")
}
