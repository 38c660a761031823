package logcolors

// ANSI color codes for log prefixes
const (
	Reset  = "\033[0m"
	Green  = "\033[32m"
	Blue   = "\033[34m"
	Purple = "\033[35m"
	Cyan   = "\033[36m"
	Red    = "\033[31m"
)

// Cache-related log prefixes
const (
	LogCacheInit   = Blue + "[Cache:Init]" + Reset
	LogCache       = Blue + "[Cache]" + Reset
	LogCacheLyrics = Green + "[Cache:Lyrics]" + Reset
)

// Token lifecycle log prefixes
const (
	LogToken      = Cyan + "[Token]" + Reset
	LogTokenStore = Cyan + "[Token:Store]" + Reset
	LogAuthError  = Purple + "[Auth Error]" + Reset
)

// Provider and pipeline log prefixes
const (
	LogResolve  = Purple + "[Resolve]" + Reset
	LogProvider = Blue + "[Provider]" + Reset
	LogSearch   = Blue + "[Search]" + Reset
	LogLyrics   = Blue + "[Lyrics]" + Reset
	LogSuccess  = Green + "[Success]" + Reset
	LogFallback = Cyan + "[Fallback]" + Reset
	LogEncode   = Red + "[Encode]" + Reset
)

// Server/Init log prefixes
const (
	LogServer    = Green + "[Server]" + Reset
	LogConfig    = Cyan + "[Config]" + Reset
	LogStats     = Blue + "[Stats]" + Reset
	LogRateLimit = Purple + "[RateLimit]" + Reset
	LogNotifier  = Cyan + "[Notifier]" + Reset
)

// CircuitBreakerPrefix returns a colored circuit breaker prefix with the given name
func CircuitBreakerPrefix(name string) string {
	return Purple + "[CircuitBreaker:" + name + "]" + Reset
}
