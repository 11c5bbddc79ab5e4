// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package constants

import (
	"testing"
)

func TestHTTPHeaderConstants(t *testing.T) {
	tests := []struct {
		name     string
		constant string
		expected string
	}{
		{
			name:     "RequestIDHeader",
			constant: RequestIDHeader,
			expected: "X-REQUEST-ID",
		},
		{
			name:     "APIKeyHeader",
			constant: APIKeyHeader,
			expected: "X-API-Key",
		},
		{
			name:     "MeetingBaasAPIKeyHeader",
			constant: MeetingBaasAPIKeyHeader,
			expected: "x-meeting-baas-api-key",
		},
		{
			name:     "NatsMsgIDHeader",
			constant: NatsMsgIDHeader,
			expected: "Nats-Msg-Id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.constant != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, tt.constant)
			}
		})
	}
}

func TestPublicObjectURL(t *testing.T) {
	tests := []struct {
		name     string
		baseURL  string
		bucket   string
		object   string
		expected string
	}{
		{
			name:     "base without trailing slash",
			baseURL:  "https://files.example.com/storage",
			bucket:   "meetings",
			object:   "bot-123.mp4",
			expected: "https://files.example.com/storage/meetings/bot-123.mp4",
		},
		{
			name:     "base with trailing slash",
			baseURL:  "https://files.example.com/storage/",
			bucket:   "meetings",
			object:   "bot-123.mp4",
			expected: "https://files.example.com/storage/meetings/bot-123.mp4",
		},
		{
			name:     "object name is escaped",
			baseURL:  "http://localhost:8080/recordings",
			bucket:   "meetings",
			object:   "bot 1.mp4",
			expected: "http://localhost:8080/recordings/meetings/bot%201.mp4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PublicObjectURL(tt.baseURL, tt.bucket, tt.object)
			if got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}
