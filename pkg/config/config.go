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

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/NVIDIA/marathon-deployer/pkg/defaults"
	apperrors "github.com/NVIDIA/marathon-deployer/pkg/errors"
)

// Entry is a single name/value pair used for labels and environment variables.
type Entry struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// RetrySettings bounds the conflict retry loop.
type RetrySettings struct {
	MaxAttempts int           `json:"maxAttempts,omitempty" yaml:"maxAttempts,omitempty"`
	Delay       time.Duration `json:"delay,omitempty" yaml:"delay,omitempty"`
}

// DeploymentConfig describes one deployment: where the definition lives, which
// overrides to merge into it and how to submit and follow it.
// Values returned by New are normalized and must be treated as read-only.
type DeploymentConfig struct {
	URL                 string        `json:"url" yaml:"url"`
	Filename            string        `json:"filename" yaml:"filename"`
	RenderedFilename    string        `json:"renderedFilename,omitempty" yaml:"renderedFilename,omitempty"`
	AppID               string        `json:"appId,omitempty" yaml:"appId,omitempty"`
	DockerImage         string        `json:"docker,omitempty" yaml:"docker,omitempty"`
	ForceUpdate         bool          `json:"forceUpdate" yaml:"forceUpdate"`
	InjectHostVariables bool          `json:"injectHostVariables" yaml:"injectHostVariables"`
	WaitForDeploy       bool          `json:"wait" yaml:"wait"`
	Timeout             time.Duration `json:"timeout" yaml:"timeout"`
	URIs                []string      `json:"uris,omitempty" yaml:"uris,omitempty"`
	Labels              []Entry       `json:"labels,omitempty" yaml:"labels,omitempty"`
	Env                 []Entry       `json:"env,omitempty" yaml:"env,omitempty"`
	CredentialID        string        `json:"credentialId,omitempty" yaml:"credentialId,omitempty"`
	ConflictRetry       RetrySettings `json:"conflictRetry" yaml:"conflictRetry"`
	PollInterval        time.Duration `json:"pollInterval" yaml:"pollInterval"`
}

// Option configures a DeploymentConfig during construction.
type Option func(*DeploymentConfig)

// WithFilename sets the source definition file.
func WithFilename(name string) Option {
	return func(c *DeploymentConfig) { c.Filename = name }
}

// WithRenderedFilename sets the rendered output file.
func WithRenderedFilename(name string) Option {
	return func(c *DeploymentConfig) { c.RenderedFilename = name }
}

// WithAppID overrides the application id.
func WithAppID(id string) Option {
	return func(c *DeploymentConfig) { c.AppID = id }
}

// WithDockerImage overrides container.docker.image.
func WithDockerImage(image string) Option {
	return func(c *DeploymentConfig) { c.DockerImage = image }
}

// WithForceUpdate sets the force flag on the update request.
func WithForceUpdate(force bool) Option {
	return func(c *DeploymentConfig) { c.ForceUpdate = force }
}

// WithInjectHostVariables injects build metadata into the definition env.
func WithInjectHostVariables(inject bool) Option {
	return func(c *DeploymentConfig) { c.InjectHostVariables = inject }
}

// WithWait enables waiting for the deployment to complete within timeout.
func WithWait(wait bool, timeout time.Duration) Option {
	return func(c *DeploymentConfig) {
		c.WaitForDeploy = wait
		c.Timeout = timeout
	}
}

// WithURIs sets the URI list that replaces the definition's uris.
func WithURIs(uris ...string) Option {
	return func(c *DeploymentConfig) { c.URIs = append(c.URIs, uris...) }
}

// WithLabels adds label entries.
func WithLabels(labels ...Entry) Option {
	return func(c *DeploymentConfig) { c.Labels = append(c.Labels, labels...) }
}

// WithEnv adds extra environment entries.
func WithEnv(env ...Entry) Option {
	return func(c *DeploymentConfig) { c.Env = append(c.Env, env...) }
}

// WithCredentialID names the credential used for authentication.
func WithCredentialID(id string) Option {
	return func(c *DeploymentConfig) { c.CredentialID = id }
}

// WithConflictRetry sets the conflict retry bound and delay.
func WithConflictRetry(maxAttempts int, delay time.Duration) Option {
	return func(c *DeploymentConfig) {
		c.ConflictRetry = RetrySettings{MaxAttempts: maxAttempts, Delay: delay}
	}
}

// WithPollInterval sets the deployment polling interval.
func WithPollInterval(d time.Duration) Option {
	return func(c *DeploymentConfig) { c.PollInterval = d }
}

// New builds a normalized DeploymentConfig for the orchestrator at url.
func New(url string, opts ...Option) (*DeploymentConfig, error) {
	c := &DeploymentConfig{
		URL:     url,
		Timeout: defaults.DeploymentTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.normalize(true); err != nil {
		return nil, err
	}
	return c, nil
}

// NewFileOnly builds a config for rendering without submission; the
// orchestrator url is optional.
func NewFileOnly(opts ...Option) (*DeploymentConfig, error) {
	c := &DeploymentConfig{Timeout: defaults.DeploymentTimeout}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.normalize(false); err != nil {
		return nil, err
	}
	return c, nil
}

// normalize applies defaults and collapses duplicate URIs and labels.
func (c *DeploymentConfig) normalize(requireURL bool) error {
	c.URL = strings.TrimRight(strings.TrimSpace(c.URL), "/")
	if requireURL && c.URL == "" {
		return apperrors.New(apperrors.ErrCodeInvalidRequest, "orchestrator url is required")
	}
	if c.Timeout < 0 {
		return apperrors.NewWithContext(apperrors.ErrCodeInvalidRequest, "timeout must not be negative",
			map[string]any{"timeout": c.Timeout.String()})
	}
	if strings.TrimSpace(c.Filename) == "" {
		c.Filename = defaults.DefinitionFilename
	}
	if strings.TrimSpace(c.RenderedFilename) == "" {
		c.RenderedFilename = defaults.RenderedFilename
	}
	if c.ConflictRetry.MaxAttempts <= 0 {
		c.ConflictRetry.MaxAttempts = defaults.ConflictRetryAttempts
	}
	if c.ConflictRetry.Delay < 0 {
		return apperrors.New(apperrors.ErrCodeInvalidRequest, "conflict retry delay must not be negative")
	}
	if c.ConflictRetry.Delay == 0 {
		c.ConflictRetry.Delay = defaults.ConflictRetryDelay
	}
	if c.PollInterval <= 0 {
		c.PollInterval = defaults.PollInterval
	}
	c.URIs = dedupeURIs(c.URIs)
	c.Labels = collapseEntries(c.Labels)
	c.Env = collapseEntries(c.Env)
	return nil
}

// ShouldWait reports whether the deployment watcher is active for this config.
func (c *DeploymentConfig) ShouldWait() bool {
	return c.WaitForDeploy && c.Timeout > 0
}

// Clone returns a deep copy.
func (c *DeploymentConfig) Clone() *DeploymentConfig {
	out := *c
	out.URIs = append([]string(nil), c.URIs...)
	out.Labels = append([]Entry(nil), c.Labels...)
	out.Env = append([]Entry(nil), c.Env...)
	return &out
}

// dedupeURIs drops blank entries and exact duplicates, keeping first occurrences in order.
func dedupeURIs(uris []string) []string {
	if len(uris) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(uris))
	out := make([]string, 0, len(uris))
	for _, u := range uris {
		if strings.TrimSpace(u) == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

// collapseEntries keeps one entry per name. The last value wins and the
// entry keeps the position of its first occurrence.
func collapseEntries(entries []Entry) []Entry {
	if len(entries) == 0 {
		return nil
	}
	index := make(map[string]int, len(entries))
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if strings.TrimSpace(e.Name) == "" {
			continue
		}
		if i, ok := index[e.Name]; ok {
			out[i].Value = e.Value
			continue
		}
		index[e.Name] = len(out)
		out = append(out, e)
	}
	return out
}

// ParseKeyValues parses name=value pairs such as --label team=web.
// The value may itself contain '='.
func ParseKeyValues(pairs []string) ([]Entry, error) {
	out := make([]Entry, 0, len(pairs))
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid entry %q: expected name=value", p)
		}
		out = append(out, Entry{Name: strings.TrimSpace(name), Value: value})
	}
	return out, nil
}
