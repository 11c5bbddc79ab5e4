// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package logging contains the logging functionality for the meeting bot service.
package logging

import (
	"context"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	slogotel "github.com/remychantenay/slog-otel"
)

type ctxKey string

// Public constants
const (
	ErrKey = "error"

	// Attribute keys shared by every component that handles bots.
	BotIDKey      = "bot_id"
	ProviderKey   = "provider"
	CalendarIDKey = "calendar_id"
	EventIDKey    = "event_id"
	ProfileIDKey  = "profile_id"
	UserEmailKey  = "user_email"
	SubjectKey    = "subject"
	RequestIDKey  = "request_id"
)

// Private constants
const (
	slogFields      ctxKey = "slog_fields"
	logLevelDefault        = slog.LevelDebug

	// Log levels
	debug = "debug"
	warn  = "warn"
	err   = "error"
	info  = "info"

	formatText = "text"

	// Log field for errors that need a human to act on them.
	priorityCritical = "critical"
)

type contextHandler struct {
	slog.Handler
}

// Handle adds contextual attributes to the Record before calling the underlying handler
func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if attrs, ok := ctx.Value(slogFields).([]slog.Attr); ok {
		for _, v := range attrs {
			r.AddAttrs(v)
		}
	}

	return h.Handler.Handle(ctx, r)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{h.Handler.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{h.Handler.WithGroup(name)}
}

// AppendCtx adds an slog attribute to the provided context so that it will be
// included in any Record created with such context
func AppendCtx(parent context.Context, attr slog.Attr) context.Context {
	if parent == nil {
		parent = context.Background()
	}

	if v, ok := parent.Value(slogFields).([]slog.Attr); ok {
		// copy so sibling contexts never share a backing array
		next := make([]slog.Attr, len(v), len(v)+1)
		copy(next, v)
		next = append(next, attr)
		return context.WithValue(parent, slogFields, next)
	}

	return context.WithValue(parent, slogFields, []slog.Attr{attr})
}

// WithBot tags every log line written with the returned context with the bot id.
func WithBot(ctx context.Context, botID string) context.Context {
	return AppendCtx(ctx, slog.String(BotIDKey, botID))
}

// ParseLevel maps a LOG_LEVEL value to a slog level, defaulting to debug.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case debug:
		return slog.LevelDebug
	case warn:
		return slog.LevelWarn
	case err:
		return slog.LevelError
	case info:
		return slog.LevelInfo
	default:
		return logLevelDefault
	}
}

// NewHandler builds the service handler chain writing to w:
// context attributes, then trace correlation, then JSON (or text) output.
func NewHandler(w io.Writer, level slog.Level, addSource bool, format string) slog.Handler {
	logOptions := &slog.HandlerOptions{Level: level, AddSource: addSource}

	var h slog.Handler
	if strings.EqualFold(format, formatText) {
		h = slog.NewTextHandler(w, logOptions)
	} else {
		h = slog.NewJSONHandler(w, logOptions)
	}

	return contextHandler{&slogotel.OtelHandler{Next: h}}
}

// InitStructureLogConfig sets the structured log behavior
func InitStructureLogConfig() slog.Handler {
	level := ParseLevel(os.Getenv("LOG_LEVEL"))

	// Configure source information
	addSource := os.Getenv("LOG_ADD_SOURCE")
	withSource := addSource == "true" || addSource == "t" || addSource == "1"

	h := NewHandler(os.Stdout, level, withSource, os.Getenv("LOG_FORMAT"))
	log.SetFlags(log.Llongfile)
	slog.SetDefault(slog.New(h))

	slog.Info("log config",
		"logLevel", level,
		"addSource", withSource,
	)

	return h
}

// Priority creates a slog.Attr for error priority classification
func Priority(level string) slog.Attr {
	return slog.String("priority", level)
}

// PriorityCritical marks errors that should be escalated to the team
func PriorityCritical() slog.Attr {
	return Priority(priorityCritical)
}
