// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package utils

import "strings"

// Ptr returns a pointer to a copy of v.
func Ptr[T any](v T) *T {
	return &v
}

// Value safely dereferences p, returning the zero value if p is nil.
func Value[T any](p *T) T {
	if p != nil {
		return *p
	}
	var zero T
	return zero
}

// NonEmptyStringPtr returns nil for blank strings and a pointer to the trimmed string otherwise.
func NonEmptyStringPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
