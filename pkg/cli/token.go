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

package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/marathon-deployer/pkg/auth"
	"github.com/NVIDIA/marathon-deployer/pkg/defaults"
	apperrors "github.com/NVIDIA/marathon-deployer/pkg/errors"
	"github.com/NVIDIA/marathon-deployer/pkg/header"
)

// tokenRefresh reports a refresh-token run. It never carries token values.
type tokenRefresh struct {
	CredentialID string `json:"credentialId" yaml:"credentialId"`
	TokenID      string `json:"tokenId" yaml:"tokenId"`
	Changed      bool   `json:"changed" yaml:"changed"`
}

func refreshTokenCmd() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:     "credential-id",
			Usage:    "Id of the service account credential used to log in",
			Sources:  cli.EnvVars("MDEPLOY_CREDENTIAL_ID"),
			Required: true,
		},
		&cli.StringFlag{
			Name:     "token-id",
			Usage:    "Id the session token is stored under",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "credential-store",
			Usage:    "Credential store URI (file://, k8s://namespace/secret, awssm://region, keyring://service, memory://)",
			Sources:  cli.EnvVars("MDEPLOY_CREDENTIAL_STORE"),
			Required: true,
		},
		kubeconfigFlag(),
		outputFlag(),
		formatFlag(),
	}

	return &cli.Command{
		Name:  "refresh-token",
		Usage: "Log in with a service account and store the session token.",
		Description: `Signs a login token with the service account private key, exchanges it for
a session token and writes the token to the credential store under
--token-id. Later deployments can then use --credential-id <token-id> as a
static token without logging in again.

Examples:

  mdeploy refresh-token --credential-store k8s://ci/marathon-credentials \
    --credential-id deployer-sa --token-id deployer-token`,
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if _, err := parseOutputFormat(cmd); err != nil {
				return err
			}
			kube, err := kubeClient(cmd)
			if err != nil {
				return err
			}
			store, err := openStore(ctx, cmd, kube)
			if err != nil {
				return err
			}

			res, err := refreshToken(ctx, store, cmd.String("credential-id"), cmd.String("token-id"))
			if err != nil {
				return err
			}
			return writeReport(ctx, cmd, kube, header.KindTokenRefreshResult, res)
		},
	}
}

// refreshToken logs in with the service account stored under credentialID and
// writes the session token to tokenID.
func refreshToken(ctx context.Context, store auth.CredentialStore, credentialID, tokenID string) (*tokenRefresh, error) {
	// writing the token under the service account id would destroy the account
	if credentialID == tokenID {
		return nil, apperrors.NewWithContext(apperrors.ErrCodeInvalidRequest, "token id must differ from the service account credential id",
			map[string]any{"credentialId": credentialID})
	}

	cred, err := store.Lookup(ctx, credentialID)
	if err != nil {
		return nil, apperrors.WrapWithContext(apperrors.ErrCodeAuthentication, "failed to look up service account", err,
			map[string]any{"credentialId": credentialID})
	}
	if !auth.IsServiceAccount(cred) {
		return nil, apperrors.NewWithContext(apperrors.ErrCodeInvalidRequest, "credential is not a service account",
			map[string]any{"credentialId": credentialID})
	}

	existing, err := store.Lookup(ctx, tokenID)
	switch {
	case apperrors.IsCode(err, apperrors.ErrCodeNotFound):
		existing = &auth.Credential{ID: tokenID}
	case err != nil:
		return nil, fmt.Errorf("failed to read current token %s: %w", tokenID, err)
	}

	ctx, cancel := context.WithTimeout(ctx, defaults.LoginTimeout)
	defer cancel()

	provider := auth.NewDCOSProvider(cred, auth.WithStore(store))
	changed, err := provider.UpdateCredential(ctx, existing)
	if err != nil {
		return nil, err
	}
	slog.Info("session token refreshed", "credentialId", credentialID, "tokenId", tokenID, "changed", changed)
	return &tokenRefresh{CredentialID: credentialID, TokenID: tokenID, Changed: changed}, nil
}
