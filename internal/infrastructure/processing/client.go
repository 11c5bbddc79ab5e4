// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package processing hands hosted recordings to the downstream analysis API.
package processing

import (
	"context"
	"net/http"
	"time"

	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/infrastructure/rest"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/pkg/constants"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/pkg/retry"
)

// Config holds the configuration for the processing API client
type Config struct {
	BaseURL   string            `yaml:"base_url"`
	APIKey    string            `yaml:"-"`
	Timeout   time.Duration     `yaml:"timeout"`
	Retry     retry.Policy      `yaml:"retry"`
	Transport http.RoundTripper `yaml:"-"`
}

type processVideoRequest struct {
	MeetingBotID string `json:"meetingBotId"`
}

// Client implements VideoProcessor
type Client struct {
	rest *rest.Client
}

// NewClient creates a new processing API client
func NewClient(config Config) *Client {
	return &Client{
		rest: rest.NewClient(rest.Config{
			Name:      "processing",
			BaseURL:   config.BaseURL,
			Timeout:   config.Timeout,
			Headers:   map[string]string{constants.APIKeyHeader: config.APIKey},
			Retry:     config.Retry,
			Transport: config.Transport,
		}),
	}
}

// ProcessVideo asks the processing API to analyse the recording of a bot
func (c *Client) ProcessVideo(ctx context.Context, botID string) error {
	if botID == "" {
		return domain.NewValidationError("bot id is required")
	}
	return c.rest.Do(ctx, http.MethodPost, "/process_video", nil, processVideoRequest{MeetingBotID: botID}, nil)
}
