// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package rest is the JSON HTTP client shared by every outbound integration.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/pkg/retry"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"
)

const (
	// DefaultClientTimeout bounds every single request attempt
	DefaultClientTimeout = 30 * time.Second
	// maxResponseBytes caps how much of a response body is read
	maxResponseBytes = 10 << 20
	// maxErrorBodyBytes caps how much of an error body is kept in the error
	maxErrorBodyBytes = 2 << 10
)

// Config holds the configuration of a REST client
type Config struct {
	// Name labels logs, spans and errors
	Name    string
	BaseURL string
	Timeout time.Duration
	// Headers are sent with every request, typically the API key
	Headers map[string]string
	// TokenSource, when set, authenticates requests with a bearer token
	TokenSource oauth2.TokenSource
	Retry       retry.Policy
	// Transport overrides the base round tripper, for tests
	Transport http.RoundTripper
}

// Client performs JSON requests with retries
type Client struct {
	httpClient *http.Client
	config     Config
}

// NewClient creates a new REST client
func NewClient(config Config) *Client {
	if config.Timeout <= 0 {
		config.Timeout = DefaultClientTimeout
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	config.Retry = config.Retry.WithDefaults().Named(config.Name)

	base := config.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	var transport http.RoundTripper = otelhttp.NewTransport(base,
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return config.Name + " " + r.Method
		}),
	)
	if config.TokenSource != nil {
		transport = &oauth2.Transport{
			Base:   transport,
			Source: oauth2.ReuseTokenSource(nil, config.TokenSource),
		}
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   config.Timeout,
			Transport: transport,
		},
		config: config,
	}
}

// URL joins path and query onto the base URL
func (c *Client) URL(path string, query url.Values) string {
	u := c.config.BaseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// Do sends a JSON request to path and decodes the JSON response into out when it is not nil
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	return c.DoURL(ctx, method, c.URL(path, query), body, out)
}

// DoURL is Do for an absolute URL, such as a pagination cursor returned by the API
func (c *Client) DoURL(ctx context.Context, method, rawURL string, body, out any) error {
	return c.do(ctx, c.config.Retry, method, rawURL, body, out)
}

// Create POSTs body to path. Creation is not idempotent, so an attempt is only repeated
// when the server cannot have acted on it (see retry.IsRetryableCreate).
func (c *Client) Create(ctx context.Context, path string, body, out any) error {
	policy := c.config.Retry
	policy.Retryable = retry.IsRetryableCreate
	return c.do(ctx, policy, http.MethodPost, c.URL(path, nil), body, out)
}

func (c *Client) do(ctx context.Context, policy retry.Policy, method, rawURL string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return domain.NewInternalError(fmt.Sprintf("failed to marshal %s request body", c.config.Name), err)
		}
	}

	start := time.Now()
	data, err := retry.DoValue(ctx, policy, func(ctx context.Context) ([]byte, error) {
		return c.attempt(ctx, method, rawURL, payload)
	})
	duration := time.Since(start)

	if err != nil {
		slog.ErrorContext(ctx, c.config.Name+" API request failed",
			"method", method,
			"url", redact(rawURL),
			"duration", duration.String(),
			logging.ErrKey, err,
		)
		return c.classify(err)
	}

	slog.DebugContext(ctx, c.config.Name+" API request completed",
		"method", method,
		"url", redact(rawURL),
		"duration", duration.String(),
	)

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return domain.NewUnavailableError(fmt.Sprintf("failed to decode %s response", c.config.Name), err)
	}
	return nil
}

func (c *Client) attempt(ctx context.Context, method, rawURL string, payload []byte) ([]byte, error) {
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, bodyReader)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range c.config.Headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &retry.HTTPStatusError{
			Method:     method,
			URL:        redact(rawURL),
			StatusCode: resp.StatusCode,
			Body:       truncate(string(data), maxErrorBodyBytes),
		}
	}
	return data, nil
}

// classify maps a failed call onto the domain error taxonomy
func (c *Client) classify(err error) error {
	var statusErr *retry.HTTPStatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
		return domain.NewNotFoundError(c.config.Name+" resource not found", err)
	}
	if errors.Is(err, context.Canceled) {
		return domain.NewUnavailableError(c.config.Name+" request cancelled", err)
	}
	return domain.NewUnavailableError(c.config.Name+" request failed", err)
}

// StatusCode returns the HTTP status of a failed call, 0 when the failure was not an HTTP response
func StatusCode(err error) int {
	var statusErr *retry.HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}

// redact drops the query string, which may carry tokens or signed URL parameters
func redact(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "invalid-url"
	}
	u.RawQuery = ""
	u.User = nil
	return u.String()
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
