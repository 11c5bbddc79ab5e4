// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package utils

import (
	"testing"
	"time"
)

func TestPtr(t *testing.T) {
	tests := []string{
		"",
		"hello",
		"special chars: !@#$%^&*()",
		"unicode: 你好世界",
	}

	for _, test := range tests {
		t.Run(test, func(t *testing.T) {
			ptr := Ptr(test)
			if ptr == nil {
				t.Fatal("expected non-nil pointer")
			}
			if *ptr != test {
				t.Errorf("expected %q, got %q", test, *ptr)
			}
		})
	}
}

func TestValue(t *testing.T) {
	if got := Value[string](nil); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
	if got := Value(Ptr(42)); got != 42 {
		t.Errorf("expected 42, got %d", got)
	}
	now := time.Now()
	if got := Value(&now); !got.Equal(now) {
		t.Errorf("expected %v, got %v", now, got)
	}
	if got := Value[time.Time](nil); !got.IsZero() {
		t.Errorf("expected zero time, got %v", got)
	}
}

func TestNonEmptyStringPtr(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected *string
	}{
		{name: "empty", input: "", expected: nil},
		{name: "blank", input: "   ", expected: nil},
		{name: "value", input: "abc", expected: Ptr("abc")},
		{name: "value is trimmed", input: "  abc ", expected: Ptr("abc")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NonEmptyStringPtr(tt.input)
			if tt.expected == nil {
				if got != nil {
					t.Errorf("expected nil, got %q", *got)
				}
				return
			}
			if got == nil || *got != *tt.expected {
				t.Errorf("expected %q, got %v", *tt.expected, got)
			}
		})
	}
}
