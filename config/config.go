package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	log "github.com/sirupsen/logrus"
)

var conf = mustLoad()

type Config struct {
	Configuration struct {
		Port string `envconfig:"PORT" default:"8080"`

		// Spotify credential acquisition
		SPDC        string `envconfig:"SP_DC" default:""`
		TOTPVersion int    `envconfig:"TOTP_VERSION" default:"8"`
		TokenFile   string `envconfig:"TOKEN_FILE" default:"./data/token"`

		// Upstream endpoints (overridable for testing)
		SpotifyWebURL    string `envconfig:"SPOTIFY_WEB_URL" default:"https://open.spotify.com"`
		SpotifyClientURL string `envconfig:"SPOTIFY_CLIENT_URL" default:"https://spclient.wg.spotify.com"`
		SpotifyAPIURL    string `envconfig:"SPOTIFY_API_URL" default:"https://api.spotify.com"`
		NeteaseURL       string `envconfig:"NETEASE_URL" default:"http://music.163.com"`
		LRCLibURL        string `envconfig:"LRCLIB_URL" default:"https://lrclib.net"`

		// Cache store selection
		CacheBackend  string `envconfig:"CACHE_BACKEND" default:"file"`
		CacheFilePath string `envconfig:"CACHE_FILE_PATH" default:"./data/lyrics.db"`
		RedisURL      string `envconfig:"REDIS_URL" default:""`
		DatabasePath  string `envconfig:"DATABASE_PATH" default:"./data/lyrics.sqlite"`

		// Track metadata caching
		StoreTrackInfo bool `envconfig:"STORE_TRACK_INFO" default:"false"`

		// Rate limiting
		RateLimitPerSecond  int `envconfig:"RATE_LIMIT_PER_SECOND" default:"2"`
		RateLimitBurstLimit int `envconfig:"RATE_LIMIT_BURST_LIMIT" default:"5"`

		// Auth failure alerting
		AuthFailureAlertThreshold int `envconfig:"AUTH_FAILURE_ALERT_THRESHOLD" default:"5"`

		// Circuit breaker for the token endpoint
		CircuitBreakerThreshold    int `envconfig:"CIRCUIT_BREAKER_THRESHOLD" default:"5"`
		CircuitBreakerCooldownSecs int `envconfig:"CIRCUIT_BREAKER_COOLDOWN_SECS" default:"300"`
	}

	FeatureFlags struct {
		CacheCompression bool `envconfig:"FF_CACHE_COMPRESSION" default:"true"`
	}
}

// SPDCCookies returns the configured sp_dc cookies, one per account.
func (c Config) SPDCCookies() []string {
	var cookies []string
	for _, part := range strings.Split(c.Configuration.SPDC, ",") {
		if part = strings.TrimSpace(part); part != "" {
			cookies = append(cookies, part)
		}
	}
	return cookies
}

// Validate checks option values that envconfig cannot express.
func (c Config) Validate() error {
	switch c.Configuration.CacheBackend {
	case "file", "redis", "sqlite", "none":
	default:
		return fmt.Errorf("invalid CACHE_BACKEND %q (want file, redis, sqlite or none)", c.Configuration.CacheBackend)
	}

	if c.Configuration.CacheBackend == "redis" && c.Configuration.RedisURL == "" {
		return fmt.Errorf("CACHE_BACKEND=redis requires REDIS_URL")
	}

	switch c.Configuration.TOTPVersion {
	case 5, 8:
	default:
		return fmt.Errorf("invalid TOTP_VERSION %d (want 5 or 8)", c.Configuration.TOTPVersion)
	}

	return nil
}

// load loads the configuration from the environment.
func load() (Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Warnf("Error loading env config: %v", err)
	}

	cfg := Config{}
	err = envconfig.Process("", &cfg)
	return cfg, err
}

func mustLoad() Config {
	c, err := load()
	if err != nil {
		log.WithError(err).Warnf("Unable to load configuration")
	}

	return c
}

func Get() Config {
	return conf
}
