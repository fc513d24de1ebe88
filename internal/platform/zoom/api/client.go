// Package api is a thin authenticated wrapper around the Zoom REST API.
// Calls are never retried; failures are returned to the caller as-is,
// tagged with an error kind.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	apperrors "zoomhook/internal/pkg/errors"
	"zoomhook/internal/platform/metrics"
)

const (
	DefaultBaseURL       = "https://api.zoom.us/v2"
	DefaultClientTimeout = 30 * time.Second
)

// ClientAPI is implemented by Client and by test doubles.
type ClientAPI interface {
	GetUser(ctx context.Context, token, userID string) (*User, error)
	GetMe(ctx context.Context, token string) (*User, error)
	CreateMeeting(ctx context.Context, token string, request *CreateMeetingRequest) (*Meeting, error)
	AddRegistrant(ctx context.Context, token, meetingID string, request *RegistrantRequest) (*Registrant, error)
	AssignCoHost(ctx context.Context, token, meetingID, email string) error
	StartRecording(ctx context.Context, token, meetingID string) error
	GetDeeplink(ctx context.Context, token string, action *DeeplinkAction) (string, error)
}

type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Metrics    *metrics.Metrics
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	metrics    *metrics.Metrics
}

var _ ClientAPI = (*Client)(nil)

func NewClient(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultClientTimeout
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}

	return &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		httpClient: httpClient,
		metrics:    config.Metrics,
	}
}

// BaseURLFromHost derives the REST base URL from the web host:
// https://zoom.us becomes https://api.zoom.us/v2.
func BaseURLFromHost(host string) (string, error) {
	u, err := url.Parse(host)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid zoom host %q", host)
	}
	u.Host = "api." + u.Host
	u.Path = "/v2"
	u.RawQuery = ""
	return u.String(), nil
}

// ErrorResponse is the error body returned by Zoom.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *ErrorResponse) Error() string {
	return fmt.Sprintf("zoom API error (code %d): %s", e.Code, e.Message)
}

func parseErrorResponse(body []byte) error {
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Message != "" {
		return &errResp
	}
	return fmt.Errorf("zoom API error: %s", string(body))
}

// do performs one request and decodes a 2xx body into out when out is
// non-nil.
func (c *Client) do(ctx context.Context, op, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "failed to marshal request body")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		c.metrics.ZoomAPICall(op, 0, duration)
		log.Ctx(ctx).Error().Err(err).Str("operation", op).Str("method", method).Str("path", path).Msg("zoom API request failed")
		return apperrors.Upstream("zoom."+op, 0, err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.metrics.ZoomAPICall(op, resp.StatusCode, duration)
	log.Ctx(ctx).Debug().
		Str("operation", op).
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", duration).
		Msg("zoom API request completed")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(resp.Body)
		apiErr := parseErrorResponse(raw)
		if resp.StatusCode == http.StatusUnauthorized {
			return apperrors.Auth("zoom."+op, apiErr)
		}
		return apperrors.Upstream("zoom."+op, resp.StatusCode, apiErr)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return apperrors.Upstream("zoom."+op, resp.StatusCode, errors.Wrap(err, "failed to decode response"))
	}
	return nil
}
