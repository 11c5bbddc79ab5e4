// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultSignatureTolerance is how old a signed request may be before it is refused
const DefaultSignatureTolerance = 5 * time.Minute

const signatureVersion = "v0"

// Signature validation errors
var (
	ErrMissingSignature = errors.New("missing webhook signature")
	ErrMissingTimestamp = errors.New("missing webhook timestamp")
	ErrStaleTimestamp   = errors.New("webhook timestamp outside the accepted window")
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

// SignatureValidator checks HMAC-SHA256 signatures of inbound webhook bodies.
// The signed message is "v0:{timestamp}:{body}" and the signature is sent as "v0={hex}".
type SignatureValidator struct {
	secret    []byte
	tolerance time.Duration
	now       func() time.Time
}

// NewSignatureValidator creates a validator, nil when secret is empty
func NewSignatureValidator(secret string, tolerance time.Duration) *SignatureValidator {
	if secret == "" {
		return nil
	}
	if tolerance <= 0 {
		tolerance = DefaultSignatureTolerance
	}
	return &SignatureValidator{
		secret:    []byte(secret),
		tolerance: tolerance,
		now:       time.Now,
	}
}

// Sign computes the signature header value for body at timestamp
func (v *SignatureValidator) Sign(body []byte, timestamp string) string {
	h := hmac.New(sha256.New, v.secret)
	h.Write([]byte(signatureVersion + ":" + timestamp + ":"))
	h.Write(body)
	return signatureVersion + "=" + hex.EncodeToString(h.Sum(nil))
}

// ValidateSignature validates the webhook signature and rejects replays outside the tolerance
func (v *SignatureValidator) ValidateSignature(body []byte, signature, timestamp string) error {
	if signature == "" {
		return ErrMissingSignature
	}
	if timestamp == "" {
		return ErrMissingTimestamp
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid timestamp format: %w", err)
	}
	age := v.now().Sub(time.Unix(ts, 0))
	if age > v.tolerance || age < -v.tolerance {
		return ErrStaleTimestamp
	}

	expected := strings.TrimPrefix(v.Sign(body, timestamp), signatureVersion+"=")
	provided := strings.TrimPrefix(signature, signatureVersion+"=")
	if !hmac.Equal([]byte(provided), []byte(expected)) {
		return ErrInvalidSignature
	}
	return nil
}
