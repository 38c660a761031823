package middleware

import (
	"math"
	"net"
	"net/http"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"mobile-lyrics-go/logcolors"
	"mobile-lyrics-go/stats"
)

// IPRateLimiter manages a token bucket per client IP
type IPRateLimiter struct {
	ips   map[string]*rate.Limiter
	mu    *sync.RWMutex
	rate  rate.Limit
	burst int
}

// NewIPRateLimiter creates a new per-IP rate limiter
func NewIPRateLimiter(r rate.Limit, burst int) *IPRateLimiter {
	return &IPRateLimiter{
		ips:   make(map[string]*rate.Limiter),
		mu:    &sync.RWMutex{},
		rate:  r,
		burst: burst,
	}
}

// GetBurstLimit returns the configured burst limit
func (i *IPRateLimiter) GetBurstLimit() int {
	return i.burst
}

func (i *IPRateLimiter) AddIP(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	limiter := rate.NewLimiter(i.rate, i.burst)
	i.ips[ip] = limiter

	return limiter
}

func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	limiter, exists := i.ips[ip]

	if !exists {
		i.mu.Unlock()
		return i.AddIP(ip)
	}

	i.mu.Unlock()

	return limiter
}

// GetTokens returns the number of tokens currently available for an IP
func (i *IPRateLimiter) GetTokens(ip string) int {
	return int(math.Floor(i.GetLimiter(ip).Tokens()))
}

// ClientIP extracts the originating client IP, honoring the usual proxy
// headers before falling back to the socket address.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if first := strings.TrimSpace(strings.Split(xff, ",")[0]); first != "" {
			return first
		}
	}
	if xrip := r.Header.Get("X-Real-IP"); xrip != "" {
		return xrip
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimitMiddleware rejects clients that exhaust their token bucket with a
// 429. Paths in exemptPaths bypass the limiter.
func RateLimitMiddleware(limiter *IPRateLimiter, exemptPaths []string) func(http.Handler) http.Handler {
	exempt := make(map[string]bool)
	for _, path := range exemptPaths {
		exempt[path] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if exempt[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			ip := ClientIP(r)
			if !limiter.GetLimiter(ip).Allow() {
				stats.Get().RecordRateLimitExceeded()
				log.Warnf("%s Rate limit exceeded for %s on %s", logcolors.LogRateLimit, ip, r.URL.Path)
				w.Header().Set("Retry-After", "1")
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
