package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// RequestLogger returns a middleware that logs each request. verbose is
// consulted per request; when it reports false, requests are logged at debug
// level only.
func RequestLogger(logger zerolog.Logger, verbose func() bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			reqID := middleware.GetReqID(r.Context())
			reqLogger := logger.With().Str("request_id", reqID).Logger()
			r = r.WithContext(reqLogger.WithContext(r.Context()))

			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)

			level := zerolog.InfoLevel
			if verbose != nil && !verbose() {
				level = zerolog.DebugLevel
			}
			if ww.status >= http.StatusInternalServerError {
				level = zerolog.WarnLevel
			}

			reqLogger.WithLevel(level).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.status).
				Dur("duration", time.Since(start)).
				Msg("request")
		})
	}
}
