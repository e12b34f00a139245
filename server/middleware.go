package server

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// statusWriter records the status code written to the response. It keeps
// http.Flusher visible so SSE handlers still stream through it.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// WithRequestLogging logs each request with a generated request ID and
// records request metrics.
func WithRequestLogging(next http.Handler, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.New().String()
		sw := &statusWriter{ResponseWriter: w}

		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(sw, r)

		elapsed := time.Since(start)
		requestsTotal.WithLabelValues(r.URL.Path, strconv.Itoa(sw.status)).Inc()
		requestDuration.WithLabelValues(r.URL.Path).Observe(elapsed.Seconds())

		logger.Info("request handled",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration_ms", elapsed.Milliseconds())
	})
}

// WithCORS applies the configured allowed origins and answers preflight
// requests. An allowed origin of "*" matches everything.
func WithCORS(next http.Handler, origins []string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowed := matchOrigin(origins, origin); allowed != "" {
			w.Header().Set("Access-Control-Allow-Origin", allowed)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func matchOrigin(origins []string, origin string) string {
	for _, o := range origins {
		if o == "*" {
			return "*"
		}
		if o == origin && origin != "" {
			return origin
		}
	}
	return ""
}
