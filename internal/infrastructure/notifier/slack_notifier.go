// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package notifier

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/logging"
	"github.com/slack-go/slack"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const defaultSlackTimeout = 10 * time.Second

// SlackConfig holds the configuration for the Slack notifier
type SlackConfig struct {
	Token   string `yaml:"-"`
	Channel string `yaml:"channel"`
	// APIURL overrides the Slack Web API base url, it must end with a slash
	APIURL  string        `yaml:"api_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// SlackNotifier posts notifications with chat.postMessage
type SlackNotifier struct {
	client  *slack.Client
	channel string
}

// NewSlackNotifier creates a SlackNotifier
func NewSlackNotifier(config SlackConfig) *SlackNotifier {
	if config.Timeout <= 0 {
		config.Timeout = defaultSlackTimeout
	}
	options := []slack.Option{
		slack.OptionHTTPClient(&http.Client{
			Timeout:   config.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}),
	}
	if config.APIURL != "" {
		options = append(options, slack.OptionAPIURL(config.APIURL))
	}
	return &SlackNotifier{
		client:  slack.New(config.Token, options...),
		channel: config.Channel,
	}
}

// New returns a SlackNotifier when a token is configured, otherwise a LogNotifier
func New(config SlackConfig) domain.Notifier {
	if config.Token == "" || config.Channel == "" {
		slog.Warn("slack notifications disabled, no token or channel configured")
		return NewLogNotifier()
	}
	return NewSlackNotifier(config)
}

// Send implements domain.Notifier. Delivery failures are logged and swallowed.
func (n *SlackNotifier) Send(ctx context.Context, severity domain.Severity, text string) {
	_, _, err := n.client.PostMessageContext(ctx, n.channel,
		slack.MsgOptionText(Format(severity, text), false),
		slack.MsgOptionDisableLinkUnfurl(),
		slack.MsgOptionDisableMediaUnfurl(),
	)
	if err != nil {
		slog.WarnContext(ctx, "failed to send slack message",
			"severity", string(severity),
			logging.ErrKey, err,
		)
	}
}
