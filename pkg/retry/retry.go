// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package retry wraps outbound calls in an exponential backoff with jitter.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Default policy values
const (
	DefaultMaxAttempts  = 3
	DefaultInitialDelay = 500 * time.Millisecond
	DefaultMaxDelay     = 10 * time.Second
	DefaultMultiplier   = 2.0
	DefaultJitter       = 0.25
)

// Policy configures how a call is retried.
type Policy struct {
	MaxAttempts  int           `yaml:"max_attempts"`
	InitialDelay time.Duration `yaml:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay"`
	Multiplier   float64       `yaml:"multiplier"`
	// Jitter is the randomization factor applied to every delay, 0.25 means ±25%.
	Jitter float64 `yaml:"jitter"`
	// Retryable decides whether a failed attempt is tried again. Nil means IsRetryable.
	Retryable func(error) bool `yaml:"-"`
	// Name labels log lines emitted between attempts.
	Name string `yaml:"-"`
}

// DefaultPolicy returns the policy used when nothing is configured.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  DefaultMaxAttempts,
		InitialDelay: DefaultInitialDelay,
		MaxDelay:     DefaultMaxDelay,
		Multiplier:   DefaultMultiplier,
		Jitter:       DefaultJitter,
	}
}

// WithDefaults fills zero fields from DefaultPolicy.
func (p Policy) WithDefaults() Policy {
	d := DefaultPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = d.MaxAttempts
	}
	if p.InitialDelay <= 0 {
		p.InitialDelay = d.InitialDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = d.MaxDelay
	}
	if p.MaxDelay < p.InitialDelay {
		p.MaxDelay = p.InitialDelay
	}
	if p.Multiplier < 1 {
		p.Multiplier = d.Multiplier
	}
	if p.Jitter < 0 || p.Jitter >= 1 {
		p.Jitter = d.Jitter
	}
	return p
}

// Named returns a copy of the policy whose log lines carry the given operation name.
func (p Policy) Named(name string) Policy {
	p.Name = name
	return p
}

func (p Policy) backOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialDelay
	b.MaxInterval = p.MaxDelay
	b.Multiplier = p.Multiplier
	b.RandomizationFactor = p.Jitter
	return b
}

// HTTPStatusError reports a non-2xx response from a remote API.
type HTTPStatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// IsRetryable reports whether err is worth another attempt.
// HTTP errors are retried on 5xx and 429 only. Network failures, including an attempt
// that hit its own client timeout, are retried. Cancellation is not.
// Whether the caller gave up is decided by Do from its own context, not from err.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		return false
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= http.StatusInternalServerError ||
			statusErr.StatusCode == http.StatusTooManyRequests
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return !errors.Is(err, context.Canceled)
}

// IsRetryableCreate is IsRetryable for requests that are not idempotent, such as a POST
// that creates a resource. Only failures where the server cannot have acted are retried:
// the connection was never established, or the server answered 429 or 503.
func IsRetryableCreate(err error) bool {
	if err == nil {
		return false
	}

	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		return false
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusTooManyRequests ||
			statusErr.StatusCode == http.StatusServiceUnavailable
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}

// Permanent marks err so that it is returned without further attempts.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Do runs fn until it succeeds, the policy is exhausted or ctx is done.
// On exhaustion the error of the last attempt is returned unchanged.
func Do(ctx context.Context, policy Policy, fn func(ctx context.Context) error) error {
	_, err := DoValue(ctx, policy, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// DoValue is Do for calls that produce a result.
func DoValue[T any](ctx context.Context, policy Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	policy = policy.WithDefaults()
	retryable := policy.Retryable
	if retryable == nil {
		retryable = IsRetryable
	}

	attempt := 0
	operation := func() (T, error) {
		attempt++
		value, err := fn(ctx)
		if err != nil && (ctx.Err() != nil || !retryable(err)) {
			return value, backoff.Permanent(err)
		}
		return value, err
	}

	notify := func(err error, next time.Duration) {
		slog.WarnContext(ctx, "call failed, retrying",
			"operation", policy.Name,
			"attempt", attempt,
			"max_attempts", policy.MaxAttempts,
			"backoff", next.String(),
			"error", err,
		)
	}

	value, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy.backOff()),
		backoff.WithMaxTries(uint(policy.MaxAttempts)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(notify),
	)

	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		err = permanent.Err
	}
	return value, err
}
