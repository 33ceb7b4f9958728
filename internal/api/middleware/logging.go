package middleware

import (
	"net/http"
	"time"

	"github.com/amaplayer/search-service/internal/infrastructure/observability"
	"github.com/rs/zerolog"
)

// LoggingMiddleware logs one line per request. The log level tracks the
// response class: server errors log at error, client errors at warn and
// health probes at debug to keep steady-state output readable.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		logger := observability.LoggerFromContext(r.Context())
		var evt *zerolog.Event
		switch {
		case rw.statusCode >= http.StatusInternalServerError:
			evt = logger.Error()
		case rw.statusCode >= http.StatusBadRequest:
			evt = logger.Warn()
		case r.URL.Path == "/health":
			evt = logger.Debug()
		default:
			evt = logger.Info()
		}

		evt.Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rw.statusCode).
			Int64("bytes", rw.bytes).
			Dur("duration", time.Since(start)).
			Str("remote", r.RemoteAddr).
			Msg("request")
	})
}

// loggingResponseWriter captures the status code and body size. Flush is
// forwarded so streaming responses keep working through the wrapper.
type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
	bytes      int64
}

func (rw *loggingResponseWriter) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (rw *loggingResponseWriter) Write(data []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(data)
	rw.bytes += int64(n)
	return n, err
}

func (rw *loggingResponseWriter) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
