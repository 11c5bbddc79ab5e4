// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package main is an operator tool that enqueues meeting bot tasks by hand,
// for example to resync a calendar or retry a recording upload.
package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/jessevdk/go-flags"

	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/logging"
)

// globalOptions are shared by every command
type globalOptions struct {
	Debug        bool   `short:"d" long:"debug" env:"DEBUG" description:"enable debug logging"`
	NATSURL      string `long:"nats-url" env:"NATS_URL" default:"nats://localhost:4222" description:"NATS server URL"`
	TaskEncoding string `long:"task-encoding" env:"TASK_ENCODING" default:"json" choice:"json" choice:"msgpack" description:"encoding of queued tasks"`
}

var opts globalOptions

func newParser() *flags.Parser {
	parser := flags.NewParser(&opts, flags.Default)
	parser.CommandHandler = func(command flags.Commander, args []string) error {
		if opts.Debug {
			if err := os.Setenv("LOG_LEVEL", "debug"); err != nil {
				return err
			}
		}
		logging.InitStructureLogConfig()
		return command.Execute(args)
	}

	mustAddCommand(parser, "sync-calendar", "Queue a calendar sync",
		"Queues a calendar sync task. With --full every event of the calendar is re-read.",
		&syncCalendarCommand{})
	mustAddCommand(parser, "upload-video", "Queue a recording upload",
		"Queues the upload of a bot recording into the recordings object store.",
		&uploadVideoCommand{})
	return parser
}

func mustAddCommand(parser *flags.Parser, name, short, long string, data any) {
	if _, err := parser.AddCommand(name, short, long, data); err != nil {
		slog.With(logging.ErrKey, err, "command", name).Error("error registering command")
		os.Exit(1)
	}
}

func main() {
	if _, err := newParser().Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return
		}
		os.Exit(1)
	}
}
