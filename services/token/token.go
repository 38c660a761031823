// Package token owns the Spotify web-player access credential: acquisition
// against the token endpoint (sp_dc cookie + TOTP), reuse from memory, and
// best-effort persistence across restarts.
package token

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"mobile-lyrics-go/cache"
	"mobile-lyrics-go/circuitbreaker"
	"mobile-lyrics-go/config"
	"mobile-lyrics-go/logcolors"
	"mobile-lyrics-go/services/notifier"
)

// ErrAuth means no access credential could be obtained. Adapters treat it as
// "provider unavailable" and fall through to the next provider.
var ErrAuth = errors.New("could not obtain access credential")

const (
	storeKey  = "sp_access_token"
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/134.0.0.0 Safari/537.3"

	defaultTimeout = 15 * time.Second
)

// Credential is the access token plus its absolute expiry. It is replaced
// wholesale on refresh and never handed out past ExpiresAtMs.
type Credential struct {
	AccessToken string `json:"accessToken"`
	ExpiresAtMs int64  `json:"accessTokenExpirationTimestampMs"`
}

func (c Credential) valid() bool {
	return c.AccessToken != "" && c.ExpiresAtMs > time.Now().UnixMilli()
}

// credentialCodec is the store encoding, chosen once at construction so the
// persisted form matches what the configured backend historically used.
type credentialCodec int

const (
	// base64-encoded JSON row, the relational format
	codecJSON credentialCodec = iota
	// "<token>:<expiryMs>", the key-value service format
	codecColon
)

func (c credentialCodec) encode(cred Credential) string {
	if c == codecColon {
		return fmt.Sprintf("%s:%d", cred.AccessToken, cred.ExpiresAtMs)
	}
	data, _ := json.Marshal(cred)
	return base64.StdEncoding.EncodeToString(data)
}

// decodeCredential accepts either store encoding, keeping the backends
// interchangeable views of the same credential.
func decodeCredential(value string) (Credential, bool) {
	if i := strings.LastIndex(value, ":"); i > 0 {
		if expiry, err := strconv.ParseInt(value[i+1:], 10, 64); err == nil {
			return Credential{AccessToken: value[:i], ExpiresAtMs: expiry}, true
		}
	}

	data, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return Credential{}, false
	}
	var cred Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return Credential{}, false
	}
	return cred, cred.AccessToken != ""
}

type serverTimeResponse struct {
	ServerTime int64 `json:"serverTime"`
}

type tokenResponse struct {
	AccessToken                      string `json:"accessToken"`
	AccessTokenExpirationTimestampMs int64  `json:"accessTokenExpirationTimestampMs"`
	IsAnonymous                      bool   `json:"isAnonymous"`
}

// Manager owns the credential. All lookups go through Token; concurrent cold
// lookups share a single network acquisition.
type Manager struct {
	mu    sync.RWMutex
	cred  Credential
	group singleflight.Group

	totp      *TOTP
	cookies   []string
	webURL    string
	tokenFile string

	store cache.Store // nil when caching disabled
	codec credentialCodec

	breaker   *circuitbreaker.CircuitBreaker
	notifiers []notifier.Notifier

	failStreak     int
	alertThreshold int

	httpClient *http.Client
}

// NewManager wires the manager from configuration. store may be nil.
func NewManager(cfg config.Config, store cache.Store, notifiers []notifier.Notifier) *Manager {
	codec := codecJSON
	if cfg.Configuration.CacheBackend == "redis" {
		codec = codecColon
	}

	return &Manager{
		totp:      NewTOTP(cfg.Configuration.TOTPVersion),
		cookies:   cfg.SPDCCookies(),
		webURL:    cfg.Configuration.SpotifyWebURL,
		tokenFile: cfg.Configuration.TokenFile,
		store:     store,
		codec:     codec,
		breaker: circuitbreaker.New(circuitbreaker.Config{
			Name:      "Token-Endpoint",
			Threshold: cfg.Configuration.CircuitBreakerThreshold,
			Cooldown:  time.Duration(cfg.Configuration.CircuitBreakerCooldownSecs) * time.Second,
		}),
		notifiers:      notifiers,
		alertThreshold: cfg.Configuration.AuthFailureAlertThreshold,
		httpClient:     &http.Client{Timeout: defaultTimeout},
	}
}

// Token returns an unexpired access token: memory first, then the cache
// store, then the local token file, then a fresh acquisition. Concurrent
// callers during a cold start share one in-flight acquisition.
func (m *Manager) Token(ctx context.Context) (string, error) {
	m.mu.RLock()
	if m.cred.valid() {
		token := m.cred.AccessToken
		m.mu.RUnlock()
		return token, nil
	}
	m.mu.RUnlock()

	v, err, _ := m.group.Do(storeKey, func() (interface{}, error) {
		// Another waiter may have refreshed while we queued.
		m.mu.RLock()
		if m.cred.valid() {
			token := m.cred.AccessToken
			m.mu.RUnlock()
			return token, nil
		}
		m.mu.RUnlock()

		if cred, ok := m.fromStore(ctx); ok {
			m.setCredential(cred)
			return cred.AccessToken, nil
		}

		if cred, ok := m.fromFile(); ok {
			m.setCredential(cred)
			return cred.AccessToken, nil
		}

		cred, err := m.acquire(ctx)
		if err != nil {
			return "", err
		}

		m.persist(ctx, cred)
		return cred.AccessToken, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (m *Manager) setCredential(cred Credential) {
	m.mu.Lock()
	m.cred = cred
	m.mu.Unlock()
}

func (m *Manager) fromStore(ctx context.Context) (Credential, bool) {
	if m.store == nil {
		return Credential{}, false
	}

	value, err := m.store.Get(ctx, storeKey)
	if err != nil {
		return Credential{}, false
	}

	cred, ok := decodeCredential(value)
	if !ok || !cred.valid() {
		return Credential{}, false
	}

	log.Debugf("%s Reusing credential from cache store", logcolors.LogTokenStore)
	return cred, true
}

// fromFile reads the hex-encoded JSON token file left by a previous run.
func (m *Manager) fromFile() (Credential, bool) {
	if m.tokenFile == "" {
		return Credential{}, false
	}

	raw, err := os.ReadFile(m.tokenFile)
	if err != nil {
		return Credential{}, false
	}

	data, err := hex.DecodeString(strings.TrimSpace(string(raw)))
	if err != nil {
		return Credential{}, false
	}

	var cred Credential
	if err := json.Unmarshal(data, &cred); err != nil || !cred.valid() {
		return Credential{}, false
	}

	log.Debugf("%s Reusing credential from token file", logcolors.LogTokenStore)
	return cred, true
}

// persist writes the fresh credential everywhere, best-effort. Failures are
// logged and swallowed; durability never fails the call.
func (m *Manager) persist(ctx context.Context, cred Credential) {
	m.setCredential(cred)

	if m.store != nil {
		expiry := time.UnixMilli(cred.ExpiresAtMs)
		if err := m.store.Set(ctx, storeKey, m.codec.encode(cred), expiry); err != nil {
			log.Warnf("%s Failed to persist credential to cache store: %v", logcolors.LogTokenStore, err)
		}
	}

	if m.tokenFile != "" {
		if err := os.MkdirAll(filepath.Dir(m.tokenFile), 0755); err == nil {
			data, _ := json.Marshal(cred)
			if err := os.WriteFile(m.tokenFile, []byte(hex.EncodeToString(data)), 0600); err != nil {
				log.Warnf("%s Failed to persist credential to token file: %v", logcolors.LogTokenStore, err)
			}
		}
	}
}

// acquire mints a fresh credential from the token endpoint, signing the
// request with a TOTP over the upstream server time and authenticating with
// one of the configured sp_dc cookies chosen at random.
func (m *Manager) acquire(ctx context.Context) (Credential, error) {
	if len(m.cookies) == 0 {
		return Credential{}, fmt.Errorf("%w: no sp_dc cookies configured", ErrAuth)
	}

	if !m.breaker.Allow() {
		return Credential{}, fmt.Errorf("%w: %v", ErrAuth, circuitbreaker.ErrCircuitOpen)
	}

	cookie := m.cookies[rand.Intn(len(m.cookies))]

	cred, err := m.requestToken(ctx, cookie)
	if err != nil {
		m.breaker.RecordFailure()
		m.recordAuthFailure(err)
		log.Warnf("%s %v", logcolors.LogAuthError, err)
		return Credential{}, fmt.Errorf("%w: %v", ErrAuth, err)
	}

	m.breaker.RecordSuccess()
	m.resetAuthFailures()

	log.Infof("%s Fresh credential acquired, expires at %s", logcolors.LogToken,
		time.UnixMilli(cred.ExpiresAtMs).Format(time.RFC3339))
	return cred, nil
}

func (m *Manager) requestToken(ctx context.Context, cookie string) (Credential, error) {
	serverTimeMs := m.serverTime(ctx, cookie)

	params := url.Values{}
	params.Set("reason", "init")
	params.Set("productType", "web-player")
	params.Set("totp", m.totp.Generate(serverTimeMs))
	params.Set("totpVer", strconv.Itoa(m.totp.Version))
	params.Set("ts", strconv.FormatInt(serverTimeMs, 10))

	req, err := http.NewRequestWithContext(ctx, "GET", m.webURL+"/api/token?"+params.Encode(), nil)
	if err != nil {
		return Credential{}, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Cookie", "sp_dc="+cookie)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return Credential{}, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Credential{}, fmt.Errorf("token endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Credential{}, fmt.Errorf("failed to read token response: %w", err)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return Credential{}, fmt.Errorf("failed to parse token response: %w", err)
	}
	if tr.AccessToken == "" {
		return Credential{}, fmt.Errorf("token response contained no access token")
	}
	if tr.IsAnonymous {
		log.Warnf("%s Token is anonymous, sp_dc cookie may be invalid", logcolors.LogToken)
	}

	return Credential{AccessToken: tr.AccessToken, ExpiresAtMs: tr.AccessTokenExpirationTimestampMs}, nil
}

// serverTime fetches the upstream clock in milliseconds, 0 when unavailable.
// A skewed clock yields a code the endpoint rejects, which surfaces as an
// authentication failure.
func (m *Manager) serverTime(ctx context.Context, cookie string) int64 {
	req, err := http.NewRequestWithContext(ctx, "GET", m.webURL+"/api/server-time", nil)
	if err != nil {
		return 0
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Cookie", "sp_dc="+cookie)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return 0
	}
	defer resp.Body.Close()

	var st serverTimeResponse
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return 0
	}
	return st.ServerTime * 1000
}

func (m *Manager) recordAuthFailure(err error) {
	m.mu.Lock()
	m.failStreak++
	streak := m.failStreak
	m.mu.Unlock()

	if m.alertThreshold > 0 && streak == m.alertThreshold {
		notifier.Broadcast(m.notifiers, "Credential acquisition failing",
			fmt.Sprintf("%d consecutive token acquisition failures, last error: %v", streak, err))
	}
}

func (m *Manager) resetAuthFailures() {
	m.mu.Lock()
	m.failStreak = 0
	m.mu.Unlock()
}
