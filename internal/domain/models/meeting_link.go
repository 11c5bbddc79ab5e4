// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/pkg/constants"
)

var linkPattern = regexp.MustCompile(`https?://[^\s<>"]+`)

// zoomJoinPaths are the path prefixes of joinable Zoom links
var zoomJoinPaths = []string{"/j/", "/my/", "/w/"}

// ExtractLinks returns the distinct http(s) links of text in order of appearance.
// Sentence punctuation stuck to the end of a link is dropped.
func ExtractLinks(text string) []string {
	matches := linkPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(matches))
	links := make([]string, 0, len(matches))
	for _, link := range matches {
		link = strings.TrimRight(link, ".,!?;:)]}'")
		if _, ok := seen[link]; ok {
			continue
		}
		seen[link] = struct{}{}
		links = append(links, link)
	}
	return links
}

// IsZoomLink reports whether the link points at a Zoom host, including vanity subdomains.
func IsZoomLink(link string) bool {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil || u.Host == "" {
		return strings.Contains(link, constants.ZoomHost)
	}
	host := strings.ToLower(u.Hostname())
	return host == constants.ZoomHost || strings.HasSuffix(host, "."+constants.ZoomHost)
}

// isZoomJoinLink reports whether the link joins a Zoom meeting rather than pointing elsewhere on zoom.us
func isZoomJoinLink(link string) bool {
	u, err := url.Parse(link)
	if err != nil || !IsZoomLink(link) {
		return false
	}
	for _, prefix := range zoomJoinPaths {
		if strings.HasPrefix(u.Path, prefix) {
			return true
		}
	}
	return false
}

// ZoomJoinLink returns the first Zoom join link written in the event's location or description.
// Calendar providers only detect conferencing links in structured fields, so pasted links are missed.
func (g *GoogleCalendarEvent) ZoomJoinLink() string {
	if g == nil {
		return ""
	}
	for _, text := range []string{g.Location, g.Description} {
		for _, link := range ExtractLinks(text) {
			if isZoomJoinLink(link) {
				return link
			}
		}
	}
	return ""
}
