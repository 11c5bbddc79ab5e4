// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package notifier posts operational messages to the team channel.
package notifier

import (
	"context"
	"log/slog"

	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain"
)

var severityPrefixes = map[domain.Severity]string{
	domain.SeveritySend:    "",
	domain.SeverityInfo:    "ℹ️ ",
	domain.SeveritySuccess: "✅ ",
	domain.SeverityWarn:    "⚠️ ",
	domain.SeverityError:   "❌ ",
	domain.SeverityDone:    "✨ ",
}

// Format renders text with the prefix of its severity
func Format(severity domain.Severity, text string) string {
	return severityPrefixes[severity] + text
}

// LogNotifier writes notifications to the structured log only.
// It is used when no Slack token is configured.
type LogNotifier struct{}

// NewLogNotifier creates a LogNotifier
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

// Send implements domain.Notifier
func (n *LogNotifier) Send(ctx context.Context, severity domain.Severity, text string) {
	slog.DebugContext(ctx, "notification not delivered, notifications are disabled",
		"severity", string(severity),
		"text", Format(severity, text),
	)
}
