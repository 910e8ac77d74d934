// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package marathon

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/NVIDIA/marathon-deployer/pkg/auth"
	"github.com/NVIDIA/marathon-deployer/pkg/defaults"
	apperrors "github.com/NVIDIA/marathon-deployer/pkg/errors"
)

const (
	// DefaultUserAgent is sent when WithUserAgent is not used.
	DefaultUserAgent = "mdeploy/1.0"

	// HeaderRequestID carries a per-request UUID for correlation with orchestrator logs.
	HeaderRequestID = "X-Request-Id"

	// maxBodyBytes caps how much of a response body is read.
	maxBodyBytes = 1 << 20
)

// DeploymentResult is the orchestrator's reply to an accepted app update.
type DeploymentResult struct {
	DeploymentID string `json:"deploymentId"`
	Version      string `json:"version"`
}

// Deployment is one entry of the active deployment list.
type Deployment struct {
	ID           string   `json:"id"`
	Version      string   `json:"version,omitempty"`
	AffectedApps []string `json:"affectedApps,omitempty"`
	CurrentStep  int      `json:"currentStep,omitempty"`
	TotalSteps   int      `json:"totalSteps,omitempty"`
}

// APIError is returned for any non-2xx orchestrator response.
type APIError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 512 {
		body = body[:512] + "..."
	}
	if body == "" {
		return fmt.Sprintf("%s %s returned status %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s returned status %d: %s", e.Method, e.URL, e.StatusCode, body)
}

// StatusCode returns the HTTP status carried by err, or 0 when err is not an APIError.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// Option configures a Client.
type Option func(*Client)

// Client talks to the orchestrator REST API.
type Client struct {
	baseURL            string
	userAgent          string
	timeout            time.Duration
	insecureSkipVerify bool
	httpClient         *http.Client
	limiter            *rate.Limiter

	mu    sync.RWMutex
	token *auth.Token
}

// WithHTTPClient replaces the default client. Timeout and TLS options are
// ignored when a client is supplied.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

func WithUserAgent(userAgent string) Option {
	return func(cl *Client) {
		cl.userAgent = userAgent
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(cl *Client) {
		cl.timeout = timeout
	}
}

func WithInsecureSkipVerify(skip bool) Option {
	return func(cl *Client) {
		cl.insecureSkipVerify = skip
	}
}

// WithRateLimit paces requests to at most limit per second with the given burst.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(cl *Client) {
		if limit > 0 {
			cl.limiter = rate.NewLimiter(limit, max(burst, 1))
		}
	}
}

// WithToken sets the initial token sent in the Authorization header.
func WithToken(t *auth.Token) Option {
	return func(cl *Client) {
		cl.token = t
	}
}

// NewClient returns a client for the orchestrator at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, apperrors.NewWithContext(apperrors.ErrCodeInvalidRequest,
			"orchestrator URL must be an absolute http(s) URL", map[string]any{"url": baseURL})
	}

	c := &Client{
		baseURL:   strings.TrimRight(u.String(), "/"),
		userAgent: DefaultUserAgent,
		timeout:   defaults.HTTPClientTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{
			Timeout:   c.timeout,
			Transport: newTransport(c.insecureSkipVerify),
		}
	}
	return c, nil
}

func newTransport(insecure bool) *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   defaults.HTTPConnectTimeout,
			KeepAlive: defaults.HTTPKeepAlive,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          10,
		IdleConnTimeout:       defaults.HTTPIdleConnTimeout,
		TLSHandshakeTimeout:   defaults.HTTPTLSHandshakeTimeout,
		ResponseHeaderTimeout: defaults.HTTPResponseHeaderTimeout,
		ExpectContinueTimeout: defaults.HTTPExpectContinueTimeout,
		TLSClientConfig: &tls.Config{
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: insecure, //nolint:gosec // opt-in for self-signed cluster endpoints
		},
	}
}

// BaseURL returns the normalized orchestrator URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetToken replaces the token used for subsequent requests. A nil token
// removes the Authorization header.
func (c *Client) SetToken(t *auth.Token) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = t
}

// Token returns the token currently in use, or nil.
func (c *Client) Token() *auth.Token {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// AppPath returns the API path for appID. A leading slash on the id is dropped
// and group separators are kept.
func AppPath(appID string) string {
	segments := strings.Split(strings.Trim(appID, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return "/v2/apps/" + strings.Join(segments, "/")
}

// UpdateApp submits body as the new definition of appID.
func (c *Client) UpdateApp(ctx context.Context, appID string, body []byte, force bool) (*DeploymentResult, error) {
	if strings.Trim(appID, "/") == "" {
		return nil, apperrors.New(apperrors.ErrCodeInvalidRequest, "application id is required")
	}
	path := AppPath(appID) + "?force=" + strconv.FormatBool(force)

	data, err := c.do(ctx, http.MethodPut, path, body)
	if err != nil {
		return nil, err
	}

	res := &DeploymentResult{}
	if len(bytes.TrimSpace(data)) == 0 {
		return res, nil
	}
	if err := json.Unmarshal(data, res); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to decode deployment result", err)
	}
	return res, nil
}

// Deployments lists the deployments currently in progress.
func (c *Client) Deployments(ctx context.Context) ([]Deployment, error) {
	data, err := c.do(ctx, http.MethodGet, "/v2/deployments", nil)
	if err != nil {
		return nil, err
	}
	var list []Deployment
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to decode deployment list", err)
	}
	return list, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeCancelled, "request cancelled while rate limited", err)
		}
	}

	target := c.baseURL + path
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to build request", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(HeaderRequestID, requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if t := c.Token(); t != nil && t.Value != "" {
		req.Header.Set("Authorization", t.HeaderValue())
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	apiRequestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	if err != nil {
		apiRequestsTotal.WithLabelValues(method, "error").Inc()
		if ctx.Err() != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeCancelled, "request cancelled", err)
		}
		return nil, apperrors.WrapWithContext(apperrors.ErrCodeUnavailable, "orchestrator request failed", err,
			map[string]any{"method": method, "url": target})
	}
	defer resp.Body.Close()

	apiRequestsTotal.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeUnavailable, "failed to read orchestrator response", err)
	}

	slog.Debug("orchestrator response",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"requestId", requestID)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Method: method, URL: target, StatusCode: resp.StatusCode, Body: string(data)}
		return nil, apperrors.WrapWithContext(apperrors.ErrCodeAPI, "orchestrator rejected request", apiErr,
			map[string]any{"status": resp.StatusCode, "requestId": requestID})
	}
	return data, nil
}
