// Package oidc talks to an OpenID Connect provider: it builds the authorize
// URL, exchanges codes and verifies the returned id_token.
package oidc

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/akpsi-umich/portal-backend/idp"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// Config holds the provider settings
type Config struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	JWKSURL      string
	Issuer       string
	RedirectURL  string
	Scopes       []string
	Timeout      time.Duration
}

// Claims are the id_token claims the portal reads
type Claims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	HostedDomain  string `json:"hd"`
	jwt.RegisteredClaims
}

// Provider implements idp.Exchanger for an OIDC provider
type Provider struct {
	oauth2Config *oauth2.Config
	httpClient   *http.Client
	keys         *KeySet
	issuer       string
}

// NewProvider creates a provider client
func NewProvider(cfg Config) *Provider {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	httpClient := &http.Client{Timeout: timeout}

	return &Provider{
		oauth2Config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthURL,
				TokenURL: cfg.TokenURL,
			},
			RedirectURL: cfg.RedirectURL,
			Scopes:      cfg.Scopes,
		},
		httpClient: httpClient,
		keys:       NewKeySet(cfg.JWKSURL, httpClient),
		issuer:     cfg.Issuer,
	}
}

// AuthCodeURL returns the provider's authorize URL with a PKCE challenge and a hosted-domain hint
func (p *Provider) AuthCodeURL(state, verifier, hostedDomain string) string {
	opts := []oauth2.AuthCodeOption{oauth2.S256ChallengeOption(verifier)}
	if hostedDomain != "" {
		opts = append(opts, oauth2.SetAuthURLParam("hd", hostedDomain))
	}
	return p.oauth2Config.AuthCodeURL(state, opts...)
}

// Exchange trades the code for tokens and returns the verified identity
func (p *Provider) Exchange(ctx context.Context, code, verifier string) (idp.Principal, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	var opts []oauth2.AuthCodeOption
	if verifier != "" {
		opts = append(opts, oauth2.VerifierOption(verifier))
	}
	token, err := p.oauth2Config.Exchange(ctx, code, opts...)
	if err != nil {
		return idp.Principal{}, fmt.Errorf("code exchange failed: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return idp.Principal{}, fmt.Errorf("token response has no id_token")
	}

	claims, err := p.Verify(ctx, rawIDToken)
	if err != nil {
		return idp.Principal{}, err
	}

	return idp.Principal{
		ID:          claims.Subject,
		Email:       claims.Email,
		DisplayName: claims.Name,
	}, nil
}

// Verify checks the id_token signature and standard claims
func (p *Provider) Verify(ctx context.Context, rawIDToken string) (*Claims, error) {
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithExpirationRequired(),
		jwt.WithAudience(p.oauth2Config.ClientID),
	}
	if p.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(p.issuer))
	}

	token, err := jwt.ParseWithClaims(rawIDToken, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		kid, ok := token.Header["kid"].(string)
		if !ok {
			return nil, fmt.Errorf("missing 'kid' in token header")
		}
		return p.keys.Key(ctx, kid)
	}, parserOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to verify id_token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid id_token claims")
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("subject claim is missing")
	}
	if claims.Email == "" {
		return nil, fmt.Errorf("email claim is missing")
	}
	return claims, nil
}
