// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package apivideo

import (
	"context"
	"net/http"
	"time"

	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/infrastructure/rest"
	"golang.org/x/oauth2"
)

type authRequest struct {
	APIKey string `json:"apiKey"`
}

type authResponse struct {
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// apiKeyTokenSource exchanges the API key for a short-lived bearer token
type apiKeyTokenSource struct {
	ctx    context.Context
	auth   *rest.Client
	apiKey string
}

// Token implements oauth2.TokenSource
func (s *apiKeyTokenSource) Token() (*oauth2.Token, error) {
	var resp authResponse
	if err := s.auth.Do(s.ctx, http.MethodPost, "/auth/api-key", nil, authRequest{APIKey: s.apiKey}, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, domain.NewUnavailableError("api.video returned an empty access token")
	}

	token := &oauth2.Token{
		AccessToken:  resp.AccessToken,
		TokenType:    resp.TokenType,
		RefreshToken: resp.RefreshToken,
	}
	if resp.ExpiresIn > 0 {
		token.Expiry = time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	}
	return token, nil
}
