// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package constants

import (
	"fmt"
	"net/url"
	"strings"
)

// Constants for the HTTP request headers
const (
	// AuthorizationHeader is the header name for the authorization
	AuthorizationHeader string = "authorization"

	// RequestIDHeader is the header name for the request ID
	RequestIDHeader string = "X-REQUEST-ID"

	// APIKeyHeader is the header used by the internal processing API
	APIKeyHeader string = "X-API-Key"

	// MeetingBaasAPIKeyHeader is the header used by the meeting-baas API
	MeetingBaasAPIKeyHeader string = "x-meeting-baas-api-key"

	// WebhookSignatureHeader carries the HMAC signature of an inbound webhook body
	WebhookSignatureHeader string = "X-Webhook-Signature"

	// WebhookTimestampHeader carries the timestamp the webhook signature was computed with
	WebhookTimestampHeader string = "X-Webhook-Timestamp"

	// NatsMsgIDHeader is the JetStream header used for publish deduplication
	NatsMsgIDHeader string = "Nats-Msg-Id"
)

// contextRequestID is the type for the request ID context key
type contextRequestID string

// RequestIDContextID is the context ID for the request ID
const RequestIDContextID contextRequestID = "X-REQUEST-ID"

// PublicObjectURL builds the public URL of an object stored in a bucket.
// The base URL may or may not end with a slash; the object name is path-escaped.
func PublicObjectURL(baseURL, bucket, name string) string {
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(baseURL, "/"), bucket, url.PathEscape(name))
}
