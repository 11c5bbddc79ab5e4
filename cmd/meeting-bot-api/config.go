// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"gopkg.in/yaml.v3"

	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/infrastructure/apivideo"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/infrastructure/meetingbaas"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/infrastructure/messaging"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/infrastructure/notifier"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/infrastructure/processing"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/infrastructure/recall"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/infrastructure/rest"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/infrastructure/store"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/pkg/retry"
)

// options are the command line flags and environment variables of the service.
// Secrets are only read from here, never from the tuning file.
type options struct {
	Debug      bool   `short:"d" long:"debug" env:"DEBUG" description:"enable debug logging"`
	Port       string `short:"p" long:"port" env:"PORT" default:"8080" description:"listen port"`
	Bind       string `long:"bind" env:"BIND" default:"*" description:"interface to bind on"`
	ConfigFile string `short:"c" long:"config" env:"CONFIG_FILE" description:"optional YAML file with client and worker tuning"`

	NATSURL          string `long:"nats-url" env:"NATS_URL" default:"nats://localhost:4222" description:"NATS server URL"`
	PublicBaseURL    string `long:"public-base-url" env:"PUBLIC_BASE_URL" default:"http://localhost:8080/recordings" description:"base URL stored recordings are served under"`
	TranscriptDBPath string `long:"transcript-db" env:"TRANSCRIPT_DB_PATH" default:"transcripts.db" description:"path of the sqlite transcript database"`
	TaskEncoding     string `long:"task-encoding" env:"TASK_ENCODING" default:"json" choice:"json" choice:"msgpack" description:"encoding of queued tasks"`

	RecallAPIKey      string `long:"recall-api-key" env:"RECALL_API_KEY" description:"Recall.ai API key" required:"true"`
	MeetingBaasAPIKey string `long:"meeting-baas-api-key" env:"MEETING_BAAS_API_KEY" description:"Meeting BaaS API key" required:"true"`
	APIVideoAPIKey    string `long:"api-video-api-key" env:"API_VIDEO_API_KEY" description:"api.video API key" required:"true"`
	ProcessingBaseURL string `long:"processing-base-url" env:"PROCESSING_BASE_URL" description:"video processing service URL, processing is skipped when empty"`
	ProcessingAPIKey  string `long:"processing-api-key" env:"PROCESSING_API_KEY" description:"video processing service API key"`

	SlackToken   string `long:"slack-token" env:"SLACK_BOT_TOKEN" description:"Slack bot token, notifications are only logged when empty"`
	SlackChannel string `long:"slack-channel" env:"SLACK_CHANNEL" description:"Slack channel notifications are posted to"`

	RecallWebhookSecret        string `long:"recall-webhook-secret" env:"RECALL_WEBHOOK_SECRET" description:"signing secret of Recall.ai webhooks"`
	MeetingBaasWebhookSecret   string `long:"meeting-baas-webhook-secret" env:"MEETING_BAAS_WEBHOOK_SECRET" description:"signing secret of Meeting BaaS webhooks"`
	MeetingEventsWebhookSecret string `long:"meeting-events-webhook-secret" env:"MEETING_EVENTS_WEBHOOK_SECRET" description:"signing secret of meeting event webhooks"`
}

// tuning holds the non-secret knobs that can be overridden from a YAML file.
type tuning struct {
	WorkerCount        int                      `yaml:"worker_count"`
	LookupCacheTTL     time.Duration            `yaml:"lookup_cache_ttl"`
	SignatureTolerance time.Duration            `yaml:"signature_tolerance"`
	DuplicateWindow    time.Duration            `yaml:"duplicate_window"`
	ShutdownTimeout    time.Duration            `yaml:"shutdown_timeout"`
	Fetcher            fetcherConfig            `yaml:"fetcher"`
	Consumer           messaging.ConsumerConfig `yaml:"consumer"`
	Recall             recall.Config            `yaml:"recall"`
	MeetingBaas        meetingbaas.Config       `yaml:"meeting_baas"`
	APIVideo           apivideo.Config          `yaml:"api_video"`
	Processing         processing.Config        `yaml:"processing"`
	Slack              notifier.SlackConfig     `yaml:"slack"`
}

// fetcherConfig configures downloads of provider recordings
type fetcherConfig struct {
	Timeout time.Duration `yaml:"timeout"`
	Retry   retry.Policy  `yaml:"retry"`
}

// config is the resolved configuration of the service
type config struct {
	options
	Tuning tuning
}

func defaultTuning() tuning {
	return tuning{
		WorkerCount:     4,
		LookupCacheTTL:  store.DefaultLookupCacheTTL,
		DuplicateWindow: messaging.DefaultDuplicateWindow,
		ShutdownTimeout: 25 * time.Second,
		Fetcher: fetcherConfig{
			Timeout: rest.DefaultFetchTimeout,
			Retry:   retry.DefaultPolicy(),
		},
		Recall:      recall.Config{Retry: retry.DefaultPolicy()},
		MeetingBaas: meetingbaas.Config{Retry: retry.DefaultPolicy()},
		APIVideo:    apivideo.Config{Retry: retry.DefaultPolicy()},
		Processing:  processing.Config{Retry: retry.DefaultPolicy()},
	}
}

// loadConfig parses flags and environment variables, then overlays the tuning file.
// It returns nil when help was requested.
func loadConfig(args []string) (*config, error) {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	// Based on the debug flag, set the log level environment variable used by [logging.InitStructureLogConfig]
	if opts.Debug {
		if err := os.Setenv("LOG_LEVEL", "debug"); err != nil {
			return nil, fmt.Errorf("error setting log level: %w", err)
		}
	}

	if _, err := url.ParseRequestURI(opts.PublicBaseURL); err != nil {
		return nil, fmt.Errorf("invalid public base URL %q: %w", opts.PublicBaseURL, err)
	}

	cfg := &config{options: opts, Tuning: defaultTuning()}
	if opts.ConfigFile != "" {
		if err := readTuningFile(opts.ConfigFile, &cfg.Tuning); err != nil {
			return nil, err
		}
	}
	cfg.applySecrets()
	return cfg, nil
}

// readTuningFile decodes a YAML tuning file over the defaults already in t
func readTuningFile(path string, t *tuning) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			slog.With(logging.ErrKey, closeErr).Warn("failed to close config file")
		}
	}()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(t); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to decode config file %s: %w", path, err)
	}
	return nil
}

// applySecrets copies credentials from the options into the client configurations
func (c *config) applySecrets() {
	c.Tuning.Recall.APIKey = c.RecallAPIKey
	c.Tuning.MeetingBaas.APIKey = c.MeetingBaasAPIKey
	c.Tuning.APIVideo.APIKey = c.APIVideoAPIKey
	c.Tuning.Processing.APIKey = c.ProcessingAPIKey
	if c.ProcessingBaseURL != "" {
		c.Tuning.Processing.BaseURL = c.ProcessingBaseURL
	}
	c.Tuning.Slack.Token = c.SlackToken
	if c.SlackChannel != "" {
		c.Tuning.Slack.Channel = c.SlackChannel
	}
}

// listenAddr returns the address the HTTP server binds to
func (c *config) listenAddr() string {
	if c.Bind == "*" {
		return ":" + c.Port
	}
	return c.Bind + ":" + c.Port
}
