package main

import (
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"mobile-lyrics-go/cache"
	"mobile-lyrics-go/config"
	"mobile-lyrics-go/logcolors"
	"mobile-lyrics-go/middleware"
	"mobile-lyrics-go/services/notifier"
	"mobile-lyrics-go/services/providers"
	"mobile-lyrics-go/services/providers/lrclib"
	"mobile-lyrics-go/services/providers/netease"
	"mobile-lyrics-go/services/providers/spotify"
	"mobile-lyrics-go/services/resolver"
	"mobile-lyrics-go/services/token"
)

var conf = config.Get()

func init() {
	log.SetFormatter(&log.JSONFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.InfoLevel) // Set to InfoLevel (change to DebugLevel for detailed logs)
}

func main() {
	if err := conf.Validate(); err != nil {
		log.Fatalf("%s Invalid configuration: %v", logcolors.LogConfig, err)
	}
	if len(conf.SPDCCookies()) == 0 {
		log.Warnf("%s No SP_DC cookies configured, first-party lyrics will be unavailable", logcolors.LogConfig)
	}

	store, err := cache.New(conf)
	if err != nil {
		log.Fatalf("%s Failed to initialize cache store: %v", logcolors.LogCacheInit, err)
	}
	if store != nil {
		defer store.Close()
		log.Infof("%s Cache backend: %s", logcolors.LogCacheInit, conf.Configuration.CacheBackend)
	} else {
		log.Infof("%s Caching disabled", logcolors.LogCacheInit)
	}

	notifiers := notifier.FromEnv()
	tokens := token.NewManager(conf, store, notifiers)

	spotifyClient := spotify.NewClient(conf, tokens, store)

	// Provider priority: first-party, then the search-based fallbacks.
	chain := []providers.Provider{
		spotify.NewProvider(spotifyClient),
		netease.NewProvider(netease.NewClient(conf.Configuration.NeteaseURL), spotifyClient),
		lrclib.NewProvider(conf.Configuration.LRCLibURL, spotifyClient),
	}

	srv := &server{
		resolver:     resolver.New(chain, store),
		cacheEnabled: store != nil,
	}

	router := mux.NewRouter()
	setupRoutes(router, srv)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
	})

	limiter := middleware.NewIPRateLimiter(
		rate.Limit(conf.Configuration.RateLimitPerSecond),
		conf.Configuration.RateLimitBurstLimit)

	// logging middleware
	loggedRouter := middleware.LoggingMiddleware(router)
	// chain cors middleware
	corsHandler := c.Handler(loggedRouter)
	// chain rate limiter, health stays reachable for probes
	handler := middleware.RateLimitMiddleware(limiter, []string{"/health"})(corsHandler)

	port := conf.Configuration.Port

	log.Infof("%s Server listening on port %s", logcolors.LogServer, port)
	log.Fatal(http.ListenAndServe(":"+port, handler))
}
