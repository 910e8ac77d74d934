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

package deployer

import (
	"context"
	"log/slog"
	"net/http"
	"path/filepath"

	"k8s.io/utils/clock"

	"github.com/NVIDIA/marathon-deployer/pkg/config"
	"github.com/NVIDIA/marathon-deployer/pkg/definition"
	apperrors "github.com/NVIDIA/marathon-deployer/pkg/errors"
	"github.com/NVIDIA/marathon-deployer/pkg/marathon"
	"github.com/NVIDIA/marathon-deployer/pkg/retry"
	"github.com/NVIDIA/marathon-deployer/pkg/template"
	"github.com/NVIDIA/marathon-deployer/pkg/watcher"
)

// Deployer is the lifecycle of a single deployment, step by step.
type Deployer interface {
	Read(ctx context.Context, cfg *config.DeploymentConfig) (*definition.Definition, error)
	Merge(def *definition.Definition, cfg *config.DeploymentConfig) (*definition.Definition, error)
	RenderToFile(def *definition.Definition, cfg *config.DeploymentConfig) (string, error)
	Submit(ctx context.Context, def *definition.Definition, cfg *config.DeploymentConfig) (*Submission, error)
	WaitForCompletion(ctx context.Context, sub *Submission, cfg *config.DeploymentConfig) (*watcher.Result, error)
}

var _ Deployer = (*Pipeline)(nil)

// Option configures a Pipeline.
type Option func(*Pipeline)

// Pipeline is the default Deployer. Run drives all steps in order.
type Pipeline struct {
	connector Connector
	vars      template.Variables
	host      config.HostVariables
	workDir   string
	clock     clock.Clock
	sleep     retry.Sleeper
	fileOnly  bool
}

// WithConnector sets how transports and auth providers are obtained.
func WithConnector(c Connector) Option {
	return func(p *Pipeline) {
		p.connector = c
	}
}

// WithVariables sets the template context for override values and filenames.
func WithVariables(v template.Variables) Option {
	return func(p *Pipeline) {
		p.vars = v
	}
}

// WithHostVariables sets the values injected into the definition env.
func WithHostVariables(h config.HostVariables) Option {
	return func(p *Pipeline) {
		p.host = h
	}
}

// WithWorkDir resolves relative definition and rendered paths against dir.
func WithWorkDir(dir string) Option {
	return func(p *Pipeline) {
		p.workDir = dir
	}
}

// WithClock sets the clock used for timing and, unless WithSleeper is
// given, for retry and poll sleeps.
func WithClock(c clock.Clock) Option {
	return func(p *Pipeline) {
		p.clock = c
	}
}

// WithSleeper overrides how retry and poll delays are waited out.
func WithSleeper(s retry.Sleeper) Option {
	return func(p *Pipeline) {
		p.sleep = s
	}
}

// WithFileOnly stops the run after the rendered file is written.
func WithFileOnly() Option {
	return func(p *Pipeline) {
		p.fileOnly = true
	}
}

// New returns a pipeline. Without WithConnector, a StoreConnector with no
// credential store is used.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		connector: &StoreConnector{},
		vars:      template.Variables{},
		clock:     clock.RealClock{},
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.sleep == nil {
		p.sleep = retry.ClockSleeper(p.clock)
	}
	return p
}

func (p *Pipeline) path(name string) string {
	name = template.Resolve(name, p.vars)
	if p.workDir == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(p.workDir, name)
}

// Read loads the configured definition file.
func (p *Pipeline) Read(_ context.Context, cfg *config.DeploymentConfig) (*definition.Definition, error) {
	return definition.Load(p.path(cfg.Filename))
}

// Merge applies cfg's overrides to def.
func (p *Pipeline) Merge(def *definition.Definition, cfg *config.DeploymentConfig) (*definition.Definition, error) {
	return definition.Merge(def, cfg, p.vars, p.host)
}

// RenderToFile writes def to the configured rendered path and returns it.
func (p *Pipeline) RenderToFile(def *definition.Definition, cfg *config.DeploymentConfig) (string, error) {
	path := p.path(cfg.RenderedFilename)
	if err := definition.WriteFile(path, def); err != nil {
		return "", err
	}
	slog.Debug("rendered definition written",
		"path", path,
		"appId", def.ID(),
		"containerType", def.ContainerType(),
		"image", def.Image(),
		"uris", len(def.URIs()),
		"labels", len(def.Labels()),
		"env", len(def.Env()))
	return path, nil
}

// Submit sends def to the orchestrator. Conflicts are retried under the
// config's retry settings. The first 401 triggers one re-authentication;
// the request is repeated once if the provider returns a different token.
// A repeated request reuses the rendered body and force flag.
func (p *Pipeline) Submit(ctx context.Context, def *definition.Definition, cfg *config.DeploymentConfig) (*Submission, error) {
	appID := def.ID()
	if appID == "" {
		return nil, apperrors.New(apperrors.ErrCodeDefinitionInvalid, "definition has no id")
	}
	body, err := def.MarshalJSON()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to encode definition", err)
	}

	conn, err := p.connector.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	sub := &Submission{AppID: appID, SubmittedAt: p.clock.Now(), lister: conn.Transport}
	policy := retry.Policy{
		MaxAttempts: cfg.ConflictRetry.MaxAttempts,
		Backoff:     retry.Constant(cfg.ConflictRetry.Delay),
		Sleep:       p.sleep,
	}
	reauthenticated := false

	send := func(ctx context.Context) (*marathon.DeploymentResult, error) {
		sub.Attempts++
		return conn.Transport.UpdateApp(ctx, appID, body, cfg.ForceUpdate)
	}

	var accepted *marathon.DeploymentResult
	err = retry.Do(ctx, policy, isConflict, func(ctx context.Context, attempt int) error {
		res, err := send(ctx)
		if marathon.StatusCode(err) == http.StatusUnauthorized && !reauthenticated {
			reauthenticated = true
			refreshed, authErr := p.reauthenticate(ctx, conn, cfg)
			if authErr != nil {
				return authErr
			}
			if refreshed {
				res, err = send(ctx)
			}
		}
		if err != nil {
			if isConflict(err) && attempt < policy.MaxAttempts {
				conflictRetriesTotal.Inc()
				slog.Warn("deployment in progress, retrying",
					"appId", appID,
					"attempt", attempt,
					"maxAttempts", policy.MaxAttempts,
					"delay", cfg.ConflictRetry.Delay.String())
			}
			return err
		}
		accepted = res
		return nil
	})
	if err != nil {
		return sub, err
	}

	sub.DeploymentID = accepted.DeploymentID
	sub.Version = accepted.Version
	slog.Info("deployment submitted",
		"appId", appID,
		"deploymentId", sub.DeploymentID,
		"version", sub.Version,
		"attempts", sub.Attempts)
	return sub, nil
}

// reauthenticate asks the provider for a fresh token and installs it.
// It reports whether the token changed and the request should be repeated.
// Without a provider the original 401 stands.
func (p *Pipeline) reauthenticate(ctx context.Context, conn *Connection, cfg *config.DeploymentConfig) (bool, error) {
	if conn.Provider == nil {
		reauthTotal.WithLabelValues("no_provider").Inc()
		return false, nil
	}
	prior := conn.Transport.Token()
	tok, err := conn.Provider.Token(ctx)
	if err != nil {
		reauthTotal.WithLabelValues("error").Inc()
		return false, apperrors.WrapWithContext(apperrors.ErrCodeAuthentication, "re-authentication failed", err,
			map[string]any{"credentialId": cfg.CredentialID})
	}
	if tok.Equal(prior) {
		reauthTotal.WithLabelValues("unchanged").Inc()
		slog.Warn("re-authentication returned the same token", "credentialId", cfg.CredentialID)
		return false, nil
	}
	conn.Transport.SetToken(tok)
	reauthTotal.WithLabelValues("refreshed").Inc()
	slog.Info("re-authenticated after unauthenticated response", "credentialId", cfg.CredentialID)
	return true, nil
}

// WaitForCompletion polls until the submitted deployment finishes or the
// config's timeout passes.
func (p *Pipeline) WaitForCompletion(ctx context.Context, sub *Submission, cfg *config.DeploymentConfig) (*watcher.Result, error) {
	w := &watcher.Watcher{
		Lister:   sub.lister,
		Interval: cfg.PollInterval,
		Timeout:  cfg.Timeout,
		Clock:    p.clock,
		Sleep:    p.sleep,
	}
	res, err := w.Wait(ctx, sub.DeploymentID, sub.SubmittedAt)
	if res != nil {
		deploymentWaitSeconds.WithLabelValues(string(res.Outcome)).Observe(res.Elapsed.Seconds())
	}
	return res, err
}

// Run executes read, merge, render, submit and the optional wait for cfg.
// Errors are reported on the result rather than returned.
func (p *Pipeline) Run(ctx context.Context, cfg *config.DeploymentConfig) *Result {
	start := p.clock.Now()
	res := &Result{AppID: cfg.AppID, Filename: cfg.Filename}
	defer func() {
		res.Duration = p.clock.Since(start)
		submissionsTotal.WithLabelValues(string(res.Status)).Inc()
	}()

	def, err := p.Read(ctx, cfg)
	if err != nil {
		return res.fail(err)
	}
	merged, err := p.Merge(def, cfg)
	if err != nil {
		return res.fail(err)
	}
	res.AppID = merged.ID()

	if res.RenderedFile, err = p.RenderToFile(merged, cfg); err != nil {
		return res.fail(err)
	}
	if p.fileOnly {
		res.Status = StatusRendered
		return res
	}

	sub, err := p.Submit(ctx, merged, cfg)
	if sub != nil {
		res.Attempts = sub.Attempts
	}
	if err != nil {
		return res.fail(err)
	}
	res.DeploymentID = sub.DeploymentID
	res.Version = sub.Version
	res.Status = StatusSucceeded

	if !cfg.ShouldWait() || sub.DeploymentID == "" {
		return res
	}
	wr, err := p.WaitForCompletion(ctx, sub, cfg)
	if wr != nil {
		res.Outcome = wr.Outcome
		res.Polls = wr.Polls
	}
	if err != nil {
		return res.fail(err)
	}
	return res
}

// RunBatch runs each config in order. A failure does not stop later
// configs but fails the batch. Configs not started before ctx is done are
// reported as cancelled.
func (p *Pipeline) RunBatch(ctx context.Context, cfgs []*config.DeploymentConfig) *BatchResult {
	out := &BatchResult{Results: make([]*Result, 0, len(cfgs))}
	for i, cfg := range cfgs {
		var res *Result
		if err := ctx.Err(); err != nil {
			res = (&Result{AppID: cfg.AppID, Filename: cfg.Filename}).
				fail(apperrors.Wrap(apperrors.ErrCodeCancelled, "batch interrupted", err))
		} else {
			res = p.Run(ctx, cfg)
		}
		if !res.Succeeded() {
			out.Failed++
			slog.Error("deployment failed",
				"index", i,
				"filename", cfg.Filename,
				"appId", res.AppID,
				"error", res.Error)
		}
		out.Results = append(out.Results, res)
	}
	return out
}

func isConflict(err error) bool {
	return marathon.StatusCode(err) == http.StatusConflict
}
