// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/logging"
)

// RequestLoggerMiddleware logs one line per completed request. Requests to quietPaths
// (health probes) are only logged when they fail.
func RequestLoggerMiddleware(quietPaths ...string) func(http.Handler) http.Handler {
	quiet := make(map[string]struct{}, len(quietPaths))
	for _, path := range quietPaths {
		quiet[path] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now().UTC()

			ctx := logging.AppendCtx(r.Context(), slog.String("method", r.Method))
			ctx = logging.AppendCtx(ctx, slog.String("path", r.URL.Path))
			ctx = logging.AppendCtx(ctx, slog.String("remote_addr", r.RemoteAddr))
			if source, ok := strings.CutPrefix(r.URL.Path, WebhookPathPrefix); ok {
				ctx = logging.AppendCtx(ctx, slog.String("webhook", source))
			}

			ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(ww, r.WithContext(ctx))

			_, isQuiet := quiet[r.URL.Path]
			if isQuiet && ww.statusCode < http.StatusInternalServerError {
				return
			}
			slog.Log(ctx, statusLevel(ww.statusCode), "HTTP request served",
				"status", ww.statusCode,
				"bytes", ww.written,
				"user_agent", r.UserAgent(),
				"duration", time.Since(start).String(),
			)
		})
	}
}

func statusLevel(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// responseWriter records the status code and body size of a response
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	written     int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(p []byte) (int, error) {
	rw.wroteHeader = true
	n, err := rw.ResponseWriter.Write(p)
	rw.written += n
	return n, err
}
