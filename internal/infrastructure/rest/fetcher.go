// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package rest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/pkg/retry"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	// DefaultFetchTimeout bounds a whole recording download
	DefaultFetchTimeout = 30 * time.Minute
	// DefaultFirstByteTimeout bounds each ranged first-byte request
	DefaultFirstByteTimeout = 15 * time.Second
)

// Fetcher downloads provider recordings as streams
type Fetcher struct {
	httpClient      *http.Client
	firstByteClient *http.Client
	policy          retry.Policy
}

// NewFetcher creates a fetcher. Retries only cover the request until the response headers arrive.
func NewFetcher(timeout time.Duration, policy retry.Policy, transport http.RoundTripper) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	if transport == nil {
		transport = http.DefaultTransport
	}
	instrumented := otelhttp.NewTransport(transport)
	return &Fetcher{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: instrumented,
		},
		firstByteClient: &http.Client{
			Timeout:   min(timeout, DefaultFirstByteTimeout),
			Transport: instrumented,
		},
		policy: policy.WithDefaults().Named("fetch recording"),
	}
}

// Fetch opens the recording at rawURL. The caller closes the returned body.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	if rawURL == "" {
		return nil, domain.NewValidationError("recording url is required")
	}

	body, err := f.open(ctx, rawURL, false)
	if err != nil {
		return nil, domain.NewUnavailableError("failed to download recording", err)
	}
	return body, nil
}

// Probe requests the first byte of the recording. A ranged GET is used because
// presigned storage urls are signed for GET only. Each attempt is bounded by
// DefaultFirstByteTimeout rather than the download timeout.
func (f *Fetcher) Probe(ctx context.Context, rawURL string) error {
	if rawURL == "" {
		return domain.NewValidationError("recording url is required")
	}

	body, err := f.open(ctx, rawURL, true)
	if err != nil {
		return domain.NewUnavailableError("recording is not reachable", err)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 1<<10))
	return body.Close()
}

func (f *Fetcher) open(ctx context.Context, rawURL string, firstByteOnly bool) (io.ReadCloser, error) {
	return retry.DoValue(ctx, f.policy, func(ctx context.Context) (io.ReadCloser, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, retry.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		client := f.httpClient
		if firstByteOnly {
			req.Header.Set("Range", "bytes=0-0")
			client = f.firstByteClient
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			_ = resp.Body.Close()
			return nil, &retry.HTTPStatusError{Method: http.MethodGet, URL: redact(rawURL), StatusCode: resp.StatusCode}
		}
		return resp.Body, nil
	})
}
