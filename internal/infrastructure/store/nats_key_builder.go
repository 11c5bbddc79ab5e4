// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"encoding/base64"
	"strings"

	"github.com/nats-io/nats.go"
)

// Common key prefixes
const (
	// Entity prefixes
	KeyPrefixBot           = "bot"
	KeyPrefixCalendar      = "calendar"
	KeyPrefixCalendarEvent = "event"
	KeyPrefixProfile       = "profile"
	KeyPrefixUserSettings  = "settings"

	// Index prefixes
	KeyPrefixIndex              = "index"
	KeyPrefixIndexEvent         = "event"
	KeyPrefixIndexDeduplication = "dedup"
)

const (
	keySeparator  = "."
	encodedMarker = "="
)

// KeyBuilder builds NATS KV keys out of dot separated tokens so that
// subject wildcards can be used to filter them.
type KeyBuilder struct {
	prefix string
}

// NewKeyBuilder creates a new key builder with an optional prefix
func NewKeyBuilder(prefix string) *KeyBuilder {
	return &KeyBuilder{
		prefix: prefix,
	}
}

// EntityKey builds a key for an entity (e.g., "bot.4b1f")
func (kb *KeyBuilder) EntityKey(entityType, id string) string {
	return kb.CompoundKey(entityType, EncodeToken(id))
}

// IndexKey builds a key for a one-to-many index (e.g., "index.event.evt-1.bot-1")
func (kb *KeyBuilder) IndexKey(indexType, indexValue, entityID string) string {
	return kb.CompoundKey(KeyPrefixIndex, indexType, EncodeToken(indexValue), EncodeToken(entityID))
}

// UniqueIndexKey builds the single key a unique index value maps to (e.g., "index.dedup.<value>")
func (kb *KeyBuilder) UniqueIndexKey(indexType, indexValue string) string {
	return kb.CompoundKey(KeyPrefixIndex, indexType, EncodeToken(indexValue))
}

// IndexFilter builds the subject filter matching every IndexKey of an index value
func (kb *KeyBuilder) IndexFilter(indexType, indexValue string) string {
	return kb.CompoundKey(KeyPrefixIndex, indexType, EncodeToken(indexValue), ">")
}

// CompoundKey joins already valid tokens
func (kb *KeyBuilder) CompoundKey(parts ...string) string {
	key := strings.Join(parts, keySeparator)
	if kb.prefix == "" {
		return key
	}
	return kb.prefix + keySeparator + key
}

// EncodeToken returns value unchanged when it is a valid key token and
// an "=" marked raw URL base64 form otherwise.
//
// NATS limitations: https://docs.nats.io/nats-concepts/jetstream/key-value-store#notes
func EncodeToken(value string) string {
	if isPlainToken(value) {
		return value
	}
	return encodedMarker + base64.RawURLEncoding.EncodeToString([]byte(value))
}

// DecodeToken reverses EncodeToken.
func DecodeToken(token string) (string, error) {
	if token == "" {
		return "", nats.ErrInvalidKey
	}
	if !strings.HasPrefix(token, encodedMarker) {
		return token, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(token, encodedMarker))
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func isPlainToken(value string) bool {
	if value == "" {
		return false
	}
	for _, c := range value {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}
