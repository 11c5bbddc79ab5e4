// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package middleware

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
)

// WebhookPathPrefix is the route prefix of every inbound provider webhook
const WebhookPathPrefix = "/webhooks/"

// MaxWebhookBodyBytes caps how much of a webhook body is read
const MaxWebhookBodyBytes int64 = 10 << 20

type rawBodyKey struct{}

// WebhookBodyCaptureMiddleware buffers the body of webhook deliveries so signatures are
// verified over the exact bytes the provider signed. Deliveries over MaxWebhookBodyBytes
// are refused before any handler runs.
func WebhookBodyCaptureMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || !strings.HasPrefix(r.URL.Path, WebhookPathPrefix) {
				next.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(io.LimitReader(r.Body, MaxWebhookBodyBytes+1))
			_ = r.Body.Close()
			switch {
			case err != nil:
				http.Error(w, "failed to read webhook body", http.StatusBadRequest)
				return
			case int64(len(body)) > MaxWebhookBodyBytes:
				http.Error(w, "webhook body too large", http.StatusRequestEntityTooLarge)
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(body))
			next.ServeHTTP(w, r.WithContext(WithRawBody(r.Context(), body)))
		})
	}
}

// WithRawBody stores a webhook body in ctx
func WithRawBody(ctx context.Context, body []byte) context.Context {
	return context.WithValue(ctx, rawBodyKey{}, body)
}

// RawBody returns the webhook body buffered by WebhookBodyCaptureMiddleware.
func RawBody(ctx context.Context) ([]byte, bool) {
	body, ok := ctx.Value(rawBodyKey{}).([]byte)
	return body, ok
}
