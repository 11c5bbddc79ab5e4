// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package platform

import (
	"context"
	"sync"
	"testing"

	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	name models.Provider
}

func (s *stubProvider) Name() models.Provider { return s.name }

func (s *stubProvider) CreateBot(context.Context, models.CreateBotRequest) ([]models.ProvisionedBot, error) {
	return nil, nil
}

func (s *stubProvider) RemoveBot(context.Context, string) error { return nil }

func newTestRegistry() (*Registry, *stubProvider, *stubProvider) {
	registry := NewRegistry()
	recall := &stubProvider{name: models.ProviderRecall}
	baas := &stubProvider{name: models.ProviderMeetingBaas}
	registry.RegisterProvider(recall)
	registry.RegisterProvider(baas)
	return registry, recall, baas
}

func TestRegistry_GetProvider(t *testing.T) {
	registry := NewRegistry()

	provider, err := registry.GetProvider(models.ProviderRecall)
	assert.Nil(t, provider)
	assert.Equal(t, domain.ErrorTypeNotFound, domain.GetErrorType(err))

	recall := &stubProvider{name: models.ProviderRecall}
	registry.RegisterProvider(recall)

	provider, err = registry.GetProvider(models.ProviderRecall)
	require.NoError(t, err)
	assert.Same(t, recall, provider)
}

func TestRegistry_RegisterProvider_Overwrite(t *testing.T) {
	registry := NewRegistry()
	first := &stubProvider{name: models.ProviderRecall}
	second := &stubProvider{name: models.ProviderRecall}

	registry.RegisterProvider(first)
	registry.RegisterProvider(second)

	provider, err := registry.GetProvider(models.ProviderRecall)
	require.NoError(t, err)
	assert.Same(t, second, provider)
}

func TestRegistry_ForPlatform(t *testing.T) {
	registry, recall, baas := newTestRegistry()

	provider, err := registry.ForPlatform(models.MeetingPlatformZoom)
	require.NoError(t, err)
	assert.Same(t, baas, provider)

	provider, err = registry.ForPlatform(models.MeetingPlatformGoogleMeet)
	require.NoError(t, err)
	assert.Same(t, recall, provider)

	_, err = registry.ForPlatform(models.MeetingPlatformWebex)
	assert.Equal(t, domain.ErrorTypeValidation, domain.GetErrorType(err))
}

func TestRegistry_ForMeetingURL(t *testing.T) {
	registry, recall, baas := newTestRegistry()

	tests := []struct {
		url      string
		expected domain.BotProvider
	}{
		{url: "https://zoom.us/j/123456", expected: baas},
		{url: "https://lfx.zoom.us/j/123456?pwd=abc", expected: baas},
		{url: "https://meet.google.com/abc-defg-hij", expected: recall},
		{url: "https://notzoom.us.example.com/j/1", expected: recall},
		{url: "https://teams.microsoft.com/l/meetup-join/x", expected: recall},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			provider, err := registry.ForMeetingURL(tt.url)
			require.NoError(t, err)
			assert.Same(t, tt.expected, provider)
		})
	}

	_, err := registry.ForMeetingURL("  ")
	assert.Equal(t, domain.ErrorTypeValidation, domain.GetErrorType(err))
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	registry := NewRegistry()
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			registry.RegisterProvider(&stubProvider{name: models.ProviderRecall})
		}()
		go func() {
			defer wg.Done()
			_, _ = registry.GetProvider(models.ProviderRecall)
		}()
	}
	wg.Wait()

	_, err := registry.GetProvider(models.ProviderRecall)
	assert.NoError(t, err)
}
