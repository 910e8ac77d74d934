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

	"github.com/NVIDIA/marathon-deployer/pkg/auth"
	"github.com/NVIDIA/marathon-deployer/pkg/config"
	apperrors "github.com/NVIDIA/marathon-deployer/pkg/errors"
	"github.com/NVIDIA/marathon-deployer/pkg/marathon"
)

// Transport is the orchestrator surface the pipeline drives.
type Transport interface {
	UpdateApp(ctx context.Context, appID string, body []byte, force bool) (*marathon.DeploymentResult, error)
	Deployments(ctx context.Context) ([]marathon.Deployment, error)
	SetToken(t *auth.Token)
	Token() *auth.Token
}

// Connection pairs a transport with the provider consulted on 401.
// Provider is nil when no credential is configured.
type Connection struct {
	Transport Transport
	Provider  auth.Provider
}

// Connector opens a connection for one deployment config.
type Connector interface {
	Connect(ctx context.Context, cfg *config.DeploymentConfig) (*Connection, error)
}

// ConnectorFunc adapts a function to Connector.
type ConnectorFunc func(ctx context.Context, cfg *config.DeploymentConfig) (*Connection, error)

// Connect implements Connector.
func (f ConnectorFunc) Connect(ctx context.Context, cfg *config.DeploymentConfig) (*Connection, error) {
	return f(ctx, cfg)
}

// StoreConnector builds a marathon client per config and, when the config
// names a credential, an auth provider for it from Store.
type StoreConnector struct {
	Store         auth.CredentialStore
	ClientOptions []marathon.Option
	AuthOptions   []auth.DCOSOption
}

// Connect implements Connector.
func (s *StoreConnector) Connect(ctx context.Context, cfg *config.DeploymentConfig) (*Connection, error) {
	client, err := marathon.NewClient(cfg.URL, s.ClientOptions...)
	if err != nil {
		return nil, err
	}
	conn := &Connection{Transport: client}
	slog.Debug("connecting to orchestrator", "url", client.BaseURL(), "credentialId", cfg.CredentialID)
	if cfg.CredentialID == "" {
		return conn, nil
	}
	if s.Store == nil {
		return nil, apperrors.NewWithContext(apperrors.ErrCodeAuthentication, "credential configured but no credential store available",
			map[string]any{"credentialId": cfg.CredentialID})
	}

	cred, err := s.Store.Lookup(ctx, cfg.CredentialID)
	if err != nil {
		return nil, apperrors.WrapWithContext(apperrors.ErrCodeAuthentication, "failed to look up credential", err,
			map[string]any{"credentialId": cfg.CredentialID})
	}
	opts := append([]auth.DCOSOption{auth.WithStore(s.Store)}, s.AuthOptions...)
	provider, tok, err := auth.NewProvider(ctx, cred, opts...)
	if err != nil {
		return nil, err
	}
	client.SetToken(tok)
	conn.Provider = provider
	return conn, nil
}
