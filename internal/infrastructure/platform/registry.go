// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package platform

import (
	"fmt"
	"strings"
	"sync"

	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain/models"
)

// platformProviders maps the meeting platforms bots are scheduled for onto the provider that records them
var platformProviders = map[models.MeetingPlatform]models.Provider{
	models.MeetingPlatformZoom:       models.ProviderMeetingBaas,
	models.MeetingPlatformGoogleMeet: models.ProviderRecall,
}

// Registry implements the BotProviderRegistry interface
type Registry struct {
	providers map[models.Provider]domain.BotProvider
	mu        sync.RWMutex
}

// NewRegistry creates a new provider registry
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[models.Provider]domain.BotProvider),
	}
}

// GetProvider returns the bot provider registered under the given name
func (r *Registry) GetProvider(provider models.Provider) (domain.BotProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, exists := r.providers[provider]
	if !exists {
		return nil, domain.NewNotFoundError(fmt.Sprintf("bot provider %s not registered", provider))
	}

	return p, nil
}

// RegisterProvider registers a bot provider under its own name
func (r *Registry) RegisterProvider(provider domain.BotProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.providers[provider.Name()] = provider
}

// ForPlatform returns the provider that schedules bots for a calendar meeting platform
func (r *Registry) ForPlatform(platform models.MeetingPlatform) (domain.BotProvider, error) {
	provider, ok := platformProviders[platform]
	if !ok {
		return nil, domain.NewValidationError(fmt.Sprintf("unsupported meeting platform %q", platform))
	}
	return r.GetProvider(provider)
}

// ForMeetingURL returns the provider for an ad-hoc meeting link: Zoom links go
// to meeting-baas, everything else to recall.
func (r *Registry) ForMeetingURL(meetingURL string) (domain.BotProvider, error) {
	if strings.TrimSpace(meetingURL) == "" {
		return nil, domain.NewValidationError("meeting url is required")
	}
	if IsZoomURL(meetingURL) {
		return r.GetProvider(models.ProviderMeetingBaas)
	}
	return r.GetProvider(models.ProviderRecall)
}

// IsZoomURL reports whether the link points at a Zoom host, including vanity subdomains.
func IsZoomURL(meetingURL string) bool {
	return models.IsZoomLink(meetingURL)
}
