package middleware

import (
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"mobile-lyrics-go/logcolors"
	"mobile-lyrics-go/stats"
)

const yellow = "\033[33m"

// ResponseRecorder wraps a ResponseWriter to capture the status code and
// body size for access logging.
type ResponseRecorder struct {
	http.ResponseWriter
	StatusCode int
	BodySize   int
}

// NewResponseRecorder creates a recorder defaulting to 200, matching the
// implicit status of a handler that never calls WriteHeader.
func NewResponseRecorder(w http.ResponseWriter) *ResponseRecorder {
	return &ResponseRecorder{ResponseWriter: w, StatusCode: http.StatusOK}
}

func (r *ResponseRecorder) WriteHeader(code int) {
	r.StatusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *ResponseRecorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	r.BodySize += n
	return n, err
}

// getStatusColor returns the ANSI color for a status code class
func getStatusColor(code int) string {
	switch {
	case code >= 200 && code < 300:
		return logcolors.Green
	case code >= 300 && code < 400:
		return logcolors.Cyan
	case code >= 400 && code < 500:
		return yellow
	case code >= 500:
		return logcolors.Red
	default:
		return logcolors.Reset
	}
}

// LoggingMiddleware logs one line per request and feeds the stats counters.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := NewResponseRecorder(w)

		next.ServeHTTP(recorder, r)

		duration := time.Since(start)

		s := stats.Get()
		s.RecordStatusCode(recorder.StatusCode)
		s.RecordResponseTime(duration)

		log.Infof("%s %s %s %s%d%s %dB %v (%s)",
			logcolors.LogServer,
			r.Method,
			r.URL.Path,
			getStatusColor(recorder.StatusCode), recorder.StatusCode, logcolors.Reset,
			recorder.BodySize,
			duration,
			ClientIP(r))
	})
}
