package web

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"hoursync/metrics"
)

const requestIDHeader = "X-Request-ID"

const appKeyHeader = "X-App-Key"

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// requestIDMiddleware propagates the caller's correlation id or assigns a
// fresh one, and always echoes it on the response.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := r.Header.Get(requestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		r.Header.Set(requestIDHeader, rid)
		w.Header().Set(requestIDHeader, rid)
		next.ServeHTTP(w, r)
	})
}

// accessLogMiddleware emits one structured line per request and counts it,
// choosing the log level by response status.
func accessLogMiddleware(log zerolog.Logger, recorder metrics.Recorder, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		recorder.IncRequestsTotal(r.URL.Path, sw.status)

		event := log.Info()
		switch {
		case sw.status >= 500:
			event = log.Error()
		case sw.status >= 400:
			event = log.Warn()
		}
		event.
			Str("request_id", r.Header.Get(requestIDHeader)).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote_addr", r.RemoteAddr).
			Int("status", sw.status).
			Dur("latency", time.Since(start)).
			Msg("request")
	})
}

// requireAppKey gates a handler behind the shared application key. The
// comparison is constant time so the key cannot be probed byte by byte.
func (s *Server) requireAppKey(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.appKey == "" {
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "app key is not configured"})
			return
		}

		provided := r.Header.Get(appKeyHeader)
		if subtle.ConstantTimeCompare([]byte(provided), []byte(s.appKey)) != 1 {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid app key"})
			return
		}

		next(w, r)
	}
}
