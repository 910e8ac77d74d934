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

package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/NVIDIA/marathon-deployer/pkg/defaults"
	apperrors "github.com/NVIDIA/marathon-deployer/pkg/errors"
)

// DCOSCookieName is the session cookie set by the DC/OS login endpoint.
const DCOSCookieName = "dcos-acs-auth-cookie"

// Doer executes HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ServiceAccount is the JSON plaintext of a DC/OS service account credential.
type ServiceAccount struct {
	UID           string `json:"uid"`
	LoginEndpoint string `json:"login_endpoint"`
	PrivateKey    string `json:"private_key"`
	Scheme        string `json:"scheme"`
}

// LoginPayload is the body posted to the login endpoint.
type LoginPayload struct {
	UID   string `json:"uid"`
	Token string `json:"token"`

	endpoint string
}

// Endpoint returns the login endpoint the payload is addressed to.
func (p *LoginPayload) Endpoint() string {
	return p.endpoint
}

// LoginResponse is the part of the login response the provider relies on.
type LoginResponse struct {
	StatusCode int
	Cookies    []*http.Cookie
}

// Token returns the token carried by the named cookie, or nil when the
// response did not set it.
func (r *LoginResponse) Token(cookieName string) *Token {
	for _, c := range r.Cookies {
		if c.Name == cookieName && c.Value != "" {
			return &Token{Value: c.Value, CookieName: c.Name}
		}
	}
	return nil
}

// ParseSetCookies parses every Set-Cookie header; malformed entries are skipped.
func ParseSetCookies(h http.Header) []*http.Cookie {
	lines := h.Values("Set-Cookie")
	out := make([]*http.Cookie, 0, len(lines))
	for _, line := range lines {
		c, err := http.ParseSetCookie(line)
		if err != nil {
			slog.Debug("skipping malformed Set-Cookie header", "error", err)
			continue
		}
		out = append(out, c)
	}
	return out
}

// DCOSProvider exchanges a signed JWT for a DC/OS session cookie.
type DCOSProvider struct {
	credential *Credential
	store      CredentialStore
	client     Doer
	cookieName string
	ttl        time.Duration
	now        func() time.Time

	logins singleflight.Group
}

// DCOSOption configures a DCOSProvider.
type DCOSOption func(*DCOSProvider)

// WithHTTPClient sets the client used for the login request.
func WithHTTPClient(d Doer) DCOSOption {
	return func(p *DCOSProvider) { p.client = d }
}

// WithStore sets the store that UpdateCredential writes refreshed tokens to.
func WithStore(s CredentialStore) DCOSOption {
	return func(p *DCOSProvider) { p.store = s }
}

// WithCookieName overrides the session cookie name.
func WithCookieName(name string) DCOSOption {
	return func(p *DCOSProvider) { p.cookieName = name }
}

// WithTokenTTL overrides the login JWT lifetime.
func WithTokenTTL(ttl time.Duration) DCOSOption {
	return func(p *DCOSProvider) { p.ttl = ttl }
}

// WithClock overrides the time source used for JWT timestamps.
func WithClock(now func() time.Time) DCOSOption {
	return func(p *DCOSProvider) { p.now = now }
}

// NewDCOSProvider returns a provider for the service account credential.
func NewDCOSProvider(cred *Credential, opts ...DCOSOption) *DCOSProvider {
	p := &DCOSProvider{
		credential: cred,
		client:     &http.Client{Timeout: defaults.LoginTimeout},
		cookieName: DCOSCookieName,
		ttl:        defaults.JWTExpiry,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ParseServiceAccount decodes the credential plaintext. Errors name the
// credential id and never quote the plaintext.
func ParseServiceAccount(cred *Credential) (*ServiceAccount, error) {
	ctx := map[string]any{"credentialId": cred.ID}

	var sa ServiceAccount
	if err := json.Unmarshal(cred.Secret, &sa); err != nil {
		msg := fmt.Sprintf("credential %s is not a valid service account JSON document", cred.ID)
		var syn *json.SyntaxError
		if errors.As(err, &syn) {
			ctx["offset"] = syn.Offset
		}
		return nil, apperrors.NewWithContext(apperrors.ErrCodeAuthentication, msg, ctx)
	}

	var missing []string
	if sa.UID == "" {
		missing = append(missing, "uid")
	}
	if sa.LoginEndpoint == "" {
		missing = append(missing, "login_endpoint")
	}
	if sa.PrivateKey == "" {
		missing = append(missing, "private_key")
	}
	if len(missing) > 0 {
		ctx["missing"] = missing
		return nil, apperrors.NewWithContext(apperrors.ErrCodeAuthentication,
			fmt.Sprintf("credential %s is missing fields: %s", cred.ID, strings.Join(missing, ", ")), ctx)
	}
	if sa.Scheme == "" {
		sa.Scheme = "RS256"
	}
	return &sa, nil
}

// CreateLoginPayload parses the credential and signs the login JWT.
func (p *DCOSProvider) CreateLoginPayload() (*LoginPayload, error) {
	sa, err := ParseServiceAccount(p.credential)
	if err != nil {
		return nil, err
	}
	signed, err := SignToken(sa.UID, sa.Scheme, []byte(sa.PrivateKey), p.now(), p.ttl)
	if err != nil {
		return nil, fmt.Errorf("credential %s: %w", p.credential.ID, err)
	}
	return &LoginPayload{UID: sa.UID, Token: signed, endpoint: sa.LoginEndpoint}, nil
}

// Login posts the payload to its endpoint and returns the parsed response.
func (p *DCOSProvider) Login(ctx context.Context, payload *LoginPayload) (*LoginResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeAuthentication, "failed to encode login payload", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, payload.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.WrapWithContext(apperrors.ErrCodeAuthentication, "failed to create login request", err,
			map[string]any{"credentialId": p.credential.ID})
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", uuid.New().String())

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, apperrors.WrapWithContext(apperrors.ErrCodeAuthentication, "login request failed", err,
			map[string]any{"credentialId": p.credential.ID, "endpoint": payload.endpoint})
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperrors.NewWithContext(apperrors.ErrCodeAuthentication,
			fmt.Sprintf("login rejected with status %d", resp.StatusCode),
			map[string]any{"credentialId": p.credential.ID, "status": resp.StatusCode})
	}

	return &LoginResponse{StatusCode: resp.StatusCode, Cookies: ParseSetCookies(resp.Header)}, nil
}

// Token signs a JWT, logs in and returns the session token. Concurrent
// callers share a single login and the context of the first caller.
func (p *DCOSProvider) Token(ctx context.Context) (*Token, error) {
	v, err, _ := p.logins.Do(p.credential.ID, func() (any, error) {
		return p.login(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Token), nil
}

func (p *DCOSProvider) login(ctx context.Context) (*Token, error) {
	payload, err := p.CreateLoginPayload()
	if err != nil {
		return nil, err
	}
	resp, err := p.Login(ctx, payload)
	if err != nil {
		return nil, err
	}
	tok := resp.Token(p.cookieName)
	if tok == nil {
		return nil, apperrors.NewWithContext(apperrors.ErrCodeAuthentication, "login response did not set the session cookie",
			map[string]any{"credentialId": p.credential.ID, "cookie": p.cookieName})
	}
	slog.Debug("acquired session token", "credentialId", p.credential.ID, "uid", payload.UID)
	return tok, nil
}

// UpdateCredential logs in and stores the new token under existing.ID.
func (p *DCOSProvider) UpdateCredential(ctx context.Context, existing *Credential) (bool, error) {
	if p.store == nil {
		return false, apperrors.New(apperrors.ErrCodeInternal, "no credential store configured for token write-back")
	}
	tok, err := p.Token(ctx)
	if err != nil {
		return false, err
	}
	if bytes.Equal(existing.Secret, []byte(tok.Value)) {
		return false, nil
	}
	changed, err := p.store.Update(ctx, existing.ID, []byte(tok.Value))
	if err != nil {
		return false, fmt.Errorf("failed to store refreshed token for %s: %w", existing.ID, err)
	}
	return changed, nil
}
