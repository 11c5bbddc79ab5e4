// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package messaging

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// Encoding selects the wire format of published task bodies.
type Encoding string

const (
	EncodingJSON    Encoding = "json"
	EncodingMsgpack Encoding = "msgpack"
)

// Content types written to the Content-Type header of published tasks.
const (
	ContentTypeHeader  = "Content-Type"
	ContentTypeJSON    = "application/json"
	ContentTypeMsgpack = "application/msgpack"
)

// ParseEncoding maps a configuration value to an Encoding, defaulting to JSON.
func ParseEncoding(raw string) Encoding {
	if strings.EqualFold(strings.TrimSpace(raw), string(EncodingMsgpack)) {
		return EncodingMsgpack
	}
	return EncodingJSON
}

// Encode serializes v and returns the content type it was written with.
func Encode(encoding Encoding, v any) ([]byte, string, error) {
	if encoding == EncodingMsgpack {
		data, err := msgpack.Marshal(v)
		return data, ContentTypeMsgpack, err
	}
	data, err := json.Marshal(v)
	return data, ContentTypeJSON, err
}

// Decode reads a task body into v. JSON is tried first and msgpack second,
// unless the content type names msgpack explicitly.
func Decode(data []byte, contentType string, v any) error {
	if len(data) == 0 {
		return errors.New("empty task body")
	}
	if contentType == ContentTypeMsgpack {
		return msgpack.Unmarshal(data, v)
	}

	jsonErr := json.Unmarshal(data, v)
	if jsonErr == nil {
		return nil
	}
	if msgpackErr := msgpack.Unmarshal(data, v); msgpackErr != nil {
		return fmt.Errorf("task body is neither JSON (%v) nor msgpack (%w)", jsonErr, msgpackErr)
	}
	return nil
}
