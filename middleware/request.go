package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"rolebot/appctx"
	"rolebot/core"
	"rolebot/core/log"
	"rolebot/metrics"
)

const RequestIDHeader = "X-Request-ID"

// statusWriter wraps http.ResponseWriter to capture status code
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

// RequestLogging assigns a request id, logs each request and records HTTP metrics
func RequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Caller ids are only trusted in the shape we generate ourselves
		requestID := r.Header.Get(RequestIDHeader)
		if !core.IsValidID(requestID) {
			requestID = core.NewID(core.RequestPrefix)
		}
		w.Header().Set(RequestIDHeader, requestID)
		r = r.WithContext(appctx.SetRequestID(r.Context(), requestID))

		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		latency := time.Since(start)
		path := routeTemplate(r)
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(latency.Seconds())

		log.Logger().Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapped.status).
			Dur("latency", latency).
			Str("request_id", requestID).
			Str("remote_addr", r.RemoteAddr).
			Msg("request completed")
	})
}

// routeTemplate keeps metric label cardinality bounded to registered routes
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if template, err := route.GetPathTemplate(); err == nil {
			return template
		}
	}
	return "unmatched"
}

// Flush lets handlers push the response before running follow-up work
func (w *statusWriter) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
