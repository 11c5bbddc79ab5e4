// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/pkg/constants"
)

// RequestIDMiddleware reuses the caller's X-REQUEST-ID or generates one,
// echoes it on the response and stores it in the request context.
func RequestIDMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(constants.RequestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
			}

			w.Header().Set(constants.RequestIDHeader, requestID)

			ctx := context.WithValue(r.Context(), constants.RequestIDContextID, requestID)
			ctx = logging.AppendCtx(ctx, slog.String("request_id", requestID))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestIDFromContext returns the request id stored by RequestIDMiddleware.
func RequestIDFromContext(ctx context.Context) string {
	requestID, _ := ctx.Value(constants.RequestIDContextID).(string)
	return requestID
}
