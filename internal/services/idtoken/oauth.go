package idtoken

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
)

// OAuthClient wraps the OAuth2 authorization-code flow for obtaining an ID
// token to verify.
type OAuthClient struct {
	config *oauth2.Config
}

// NewOAuthClient creates an OAuth2 client for the given relying party
// credentials. Endpoints come from provider metadata.
func NewOAuthClient(clientID, clientSecret, redirectURI string, meta *Metadata) *OAuthClient {
	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  meta.AuthorizationEndpoint,
			TokenURL: meta.TokenEndpoint,
		},
	}

	return &OAuthClient{config: config}
}

// AuthCodeURL returns the authorization URL for the given state.
func (c *OAuthClient) AuthCodeURL(state string) string {
	return c.config.AuthCodeURL(state)
}

// ExchangeCode exchanges an authorization code and returns the ID token the
// issuer attached to the token response.
func (c *OAuthClient) ExchangeCode(ctx context.Context, code string) (string, error) {
	token, err := c.config.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	idToken, ok := token.Extra("id_token").(string)
	if !ok || idToken == "" {
		return "", fmt.Errorf("token response did not include an id_token")
	}

	return idToken, nil
}
