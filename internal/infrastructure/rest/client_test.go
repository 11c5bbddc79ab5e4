// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/pkg/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func testPolicy() retry.Policy {
	return retry.Policy{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestClient_Do(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	t.Run("sends headers and body and decodes response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/api/v1/bot/", r.URL.Path)
			assert.Equal(t, "1", r.URL.Query().Get("page"))
			assert.Equal(t, "Token secret", r.Header.Get("Authorization"))
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			var in payload
			require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
			assert.Equal(t, "bot", in.Name)

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"name":"created"}`))
		}))
		defer server.Close()

		client := NewClient(Config{
			Name:    "test",
			BaseURL: server.URL + "/",
			Headers: map[string]string{"Authorization": "Token secret"},
			Retry:   testPolicy(),
		})

		var out payload
		err := client.Do(context.Background(), http.MethodPost, "/api/v1/bot/", url.Values{"page": {"1"}}, payload{Name: "bot"}, &out)
		require.NoError(t, err)
		assert.Equal(t, "created", out.Name)
	})

	t.Run("empty response body is accepted", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		client := NewClient(Config{Name: "test", BaseURL: server.URL, Retry: testPolicy()})
		var out payload
		require.NoError(t, client.Do(context.Background(), http.MethodDelete, "bots/1", nil, nil, &out))
	})

	t.Run("retries server errors", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			_, _ = w.Write([]byte(`{"name":"ok"}`))
		}))
		defer server.Close()

		client := NewClient(Config{Name: "test", BaseURL: server.URL, Retry: testPolicy()})
		var out payload
		require.NoError(t, client.Do(context.Background(), http.MethodGet, "thing", nil, nil, &out))
		assert.Equal(t, "ok", out.Name)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("not found is classified and not retried", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			http.Error(w, "missing", http.StatusNotFound)
		}))
		defer server.Close()

		client := NewClient(Config{Name: "test", BaseURL: server.URL, Retry: testPolicy()})
		err := client.Do(context.Background(), http.MethodGet, "thing", nil, nil, nil)
		require.Error(t, err)
		assert.Equal(t, domain.ErrorTypeNotFound, domain.GetErrorType(err))
		assert.Equal(t, http.StatusNotFound, StatusCode(err))
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("exhausted retries are unavailable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		client := NewClient(Config{Name: "test", BaseURL: server.URL, Retry: testPolicy()})
		err := client.Do(context.Background(), http.MethodGet, "thing", nil, nil, nil)
		require.Error(t, err)
		assert.Equal(t, domain.ErrorTypeUnavailable, domain.GetErrorType(err))
		assert.Equal(t, http.StatusServiceUnavailable, StatusCode(err))
	})

	t.Run("invalid json response is unavailable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{not json`))
		}))
		defer server.Close()

		client := NewClient(Config{Name: "test", BaseURL: server.URL, Retry: testPolicy()})
		var out payload
		err := client.Do(context.Background(), http.MethodGet, "thing", nil, nil, &out)
		assert.Equal(t, domain.ErrorTypeUnavailable, domain.GetErrorType(err))
	})
}

func TestClient_Create(t *testing.T) {
	tests := []struct {
		name         string
		failures     []int
		expectErr    bool
		expectCalls  int32
		expectStatus int
	}{
		{name: "created first time", expectCalls: 1},
		{name: "bad gateway is not repeated", failures: []int{http.StatusBadGateway}, expectErr: true, expectCalls: 1, expectStatus: http.StatusBadGateway},
		{name: "internal error is not repeated", failures: []int{http.StatusInternalServerError}, expectErr: true, expectCalls: 1, expectStatus: http.StatusInternalServerError},
		{name: "rate limited is repeated", failures: []int{http.StatusTooManyRequests}, expectCalls: 2},
		{name: "unavailable is repeated", failures: []int{http.StatusServiceUnavailable, http.StatusServiceUnavailable}, expectCalls: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/videos", r.URL.Path)
				n := int(calls.Add(1))
				if n <= len(tt.failures) {
					w.WriteHeader(tt.failures[n-1])
					return
				}
				_, _ = w.Write([]byte(`{"name":"created"}`))
			}))
			defer server.Close()

			client := NewClient(Config{Name: "test", BaseURL: server.URL, Retry: testPolicy()})
			var out struct {
				Name string `json:"name"`
			}
			err := client.Create(context.Background(), "/videos", map[string]string{"title": "t"}, &out)

			assert.Equal(t, tt.expectCalls, calls.Load())
			if tt.expectErr {
				require.Error(t, err)
				assert.Equal(t, tt.expectStatus, StatusCode(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "created", out.Name)
		})
	}
}

func TestClient_Create_AttemptTimeoutIsNotRepeated(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(Config{Name: "test", BaseURL: server.URL, Timeout: 50 * time.Millisecond, Retry: testPolicy()})
	err := client.Create(context.Background(), "/bots", map[string]string{"meeting_url": "u"}, nil)
	require.Error(t, err)
	assert.Equal(t, domain.ErrorTypeUnavailable, domain.GetErrorType(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_TokenSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(Config{
		Name:        "test",
		BaseURL:     server.URL,
		TokenSource: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "abc"}),
		Retry:       testPolicy(),
	})
	require.NoError(t, client.Do(context.Background(), http.MethodGet, "videos", nil, nil, nil))
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "https://example.com/video.mp4", redact("https://user:pw@example.com/video.mp4?X-Amz-Signature=abc"))
	assert.Equal(t, "invalid-url", redact("://bad"))
}
