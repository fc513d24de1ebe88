// Package oauth implements the Zoom OAuth flows: the PKCE install flow for
// user-level apps and account credentials for server-to-server apps.
package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	apperrors "zoomhook/internal/pkg/errors"
	"zoomhook/internal/platform/metrics"
)

const (
	GrantAuthorizationCode  = "authorization_code"
	GrantRefreshToken       = "refresh_token"
	GrantAccountCredentials = "account_credentials"

	defaultTimeout = 30 * time.Second
)

type Config struct {
	// Host is the Zoom web host, e.g. https://zoom.us.
	Host         string
	ClientID     string
	ClientSecret string
	RedirectURL  string

	Account AccountConfig

	HTTPClient *http.Client
	Metrics    *metrics.Metrics
}

// AccountConfig is the server-to-server app used for account-level tokens.
type AccountConfig struct {
	AccountID    string
	ClientID     string
	ClientSecret string
	TokenURL     string
}

// Token is the token pair returned by Zoom.
type Token struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresIn    int64     `json:"expires_in"`
	Scope        string    `json:"scope,omitempty"`
	Expiry       time.Time `json:"expiry"`
}

// InstallRequest is one install attempt. The caller must keep State and
// Verifier until the authorization callback arrives.
type InstallRequest struct {
	URL      string
	State    string
	Verifier string
}

type Client struct {
	oauth      *oauth2.Config
	httpClient *http.Client
	account    oauth2.TokenSource
	metrics    *metrics.Metrics
}

func NewClient(cfg Config) *Client {
	host := strings.TrimRight(cfg.Host, "/")
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	c := &Client{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint: oauth2.Endpoint{
				AuthURL:   host + "/oauth/authorize",
				TokenURL:  host + "/oauth/token",
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		httpClient: httpClient,
		metrics:    cfg.Metrics,
	}

	if cfg.Account.ClientID != "" {
		tokenURL := cfg.Account.TokenURL
		if tokenURL == "" {
			tokenURL = host + "/oauth/token"
		}
		account := &clientcredentials.Config{
			ClientID:     cfg.Account.ClientID,
			ClientSecret: cfg.Account.ClientSecret,
			TokenURL:     tokenURL,
			EndpointParams: url.Values{
				"grant_type": []string{GrantAccountCredentials},
				"account_id": []string{cfg.Account.AccountID},
			},
			AuthStyle: oauth2.AuthStyleInHeader,
		}
		// clientcredentials caches the token until it expires.
		c.account = account.TokenSource(c.withHTTPClient(context.Background()))
	}

	return c
}

func (c *Client) withHTTPClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

// InstallURL starts an install attempt with a fresh state and PKCE verifier.
func (c *Client) InstallURL() (*InstallRequest, error) {
	state, err := randomState()
	if err != nil {
		return nil, err
	}
	verifier := oauth2.GenerateVerifier()

	return &InstallRequest{
		URL:      c.oauth.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier)),
		State:    state,
		Verifier: verifier,
	}, nil
}

// Challenge derives the S256 code challenge for a verifier.
func Challenge(verifier string) string {
	return oauth2.S256ChallengeFromVerifier(verifier)
}

// Exchange trades an authorization code, and the PKCE verifier if one was
// used, for a token pair.
func (c *Client) Exchange(ctx context.Context, code, verifier string) (*Token, error) {
	if code == "" {
		return nil, apperrors.Validation("oauth.exchange", "authorization code must be a valid string")
	}

	var opts []oauth2.AuthCodeOption
	if verifier != "" {
		opts = append(opts, oauth2.VerifierOption(verifier))
	}

	tok, err := c.oauth.Exchange(c.withHTTPClient(ctx), code, opts...)
	c.metrics.TokenRequest(GrantAuthorizationCode, err)
	if err != nil {
		return nil, classify("oauth.exchange", err)
	}
	return fromOAuth2(tok), nil
}

// Refresh trades a refresh token for a new token pair.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Token, error) {
	if refreshToken == "" {
		return nil, apperrors.Validation("oauth.refresh", "refresh token must be a valid string")
	}

	src := c.oauth.TokenSource(c.withHTTPClient(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	c.metrics.TokenRequest(GrantRefreshToken, err)
	if err != nil {
		return nil, classify("oauth.refresh", err)
	}
	return fromOAuth2(tok), nil
}

// AccountToken returns a server-to-server access token, fetching a new one
// only when the cached token has expired.
func (c *Client) AccountToken(ctx context.Context) (*Token, error) {
	if c.account == nil {
		return nil, apperrors.Validation("oauth.account_token", "account credentials are not configured")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tok, err := c.account.Token()
	c.metrics.TokenRequest(GrantAccountCredentials, err)
	if err != nil {
		return nil, classify("oauth.account_token", err)
	}
	return fromOAuth2(tok), nil
}

func fromOAuth2(tok *oauth2.Token) *Token {
	t := &Token{
		AccessToken:  tok.AccessToken,
		TokenType:    tok.TokenType,
		RefreshToken: tok.RefreshToken,
		ExpiresIn:    tok.ExpiresIn,
		Expiry:       tok.Expiry,
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		t.Scope = scope
	}
	if t.ExpiresIn == 0 && !t.Expiry.IsZero() {
		t.ExpiresIn = int64(time.Until(t.Expiry).Seconds())
	}
	return t
}

// classify maps token endpoint failures onto the error kinds: rejected
// credentials are auth errors, everything else is upstream.
func classify(op string, err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
		status := retrieveErr.Response.StatusCode
		if status >= 400 && status < 500 {
			return apperrors.Auth(op, err)
		}
		return apperrors.Upstream(op, status, err)
	}
	return apperrors.Upstream(op, 0, err)
}

func randomState() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
