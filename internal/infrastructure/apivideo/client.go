// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package apivideo publishes recordings to the api.video hosting service.
package apivideo

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/infrastructure/rest"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/pkg/retry"
	"golang.org/x/oauth2"
)

// DefaultBaseURL is the production api.video endpoint
const DefaultBaseURL = "https://ws.api.video"

// Config holds the configuration for the api.video client
type Config struct {
	BaseURL   string            `yaml:"base_url"`
	APIKey    string            `yaml:"-"`
	Timeout   time.Duration     `yaml:"timeout"`
	Retry     retry.Policy      `yaml:"retry"`
	Transport http.RoundTripper `yaml:"-"`
}

type videoList struct {
	Data []models.HostedVideo `json:"data"`
}

// Client implements VideoHosting for api.video
type Client struct {
	rest *rest.Client
}

// NewClient creates a new api.video client authenticated with a token exchanged for the API key
func NewClient(ctx context.Context, config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}

	auth := rest.NewClient(rest.Config{
		Name:      "api.video auth",
		BaseURL:   config.BaseURL,
		Timeout:   config.Timeout,
		Retry:     config.Retry,
		Transport: config.Transport,
	})

	var tokens oauth2.TokenSource = &apiKeyTokenSource{ctx: ctx, auth: auth, apiKey: config.APIKey}

	return &Client{
		rest: rest.NewClient(rest.Config{
			Name:        "api.video",
			BaseURL:     config.BaseURL,
			Timeout:     config.Timeout,
			TokenSource: tokens,
			Retry:       config.Retry,
			Transport:   config.Transport,
		}),
	}
}

// FindByBotID returns the newest video tagged with the bot id, nil when there is none
func (c *Client) FindByBotID(ctx context.Context, botID string) (*models.HostedVideo, error) {
	if botID == "" {
		return nil, domain.NewValidationError("bot id is required")
	}

	query := url.Values{
		"sortBy":    {"createdAt"},
		"sortOrder": {"desc"},
	}
	query.Set("metadata["+models.VideoMetadataBotID+"]", botID)

	var list videoList
	if err := c.rest.Do(ctx, http.MethodGet, "/videos", query, nil, &list); err != nil {
		return nil, err
	}
	if len(list.Data) == 0 {
		return nil, nil
	}
	video := list.Data[0]
	return &video, nil
}

// CreateVideo creates a hosted video ingested from the request source url
func (c *Client) CreateVideo(ctx context.Context, request models.CreateHostedVideoRequest) (*models.HostedVideo, error) {
	if request.Title == "" {
		return nil, domain.NewValidationError("video title is required")
	}
	if request.Source == "" {
		return nil, domain.NewValidationError("video source is required")
	}

	var video models.HostedVideo
	if err := c.rest.Create(ctx, "/videos", request, &video); err != nil {
		return nil, err
	}
	if video.VideoID == "" {
		return nil, domain.NewUnavailableError("api.video returned a video without id")
	}
	return &video, nil
}
