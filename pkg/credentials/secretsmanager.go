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

package credentials

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/smithy-go"

	"github.com/NVIDIA/marathon-deployer/pkg/auth"
)

// ManagerAPI is the subset of the Secrets Manager client used by SecretsManager.
type ManagerAPI interface {
	GetSecretValue(ctx context.Context, in *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
	PutSecretValue(ctx context.Context, in *secretsmanager.PutSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.PutSecretValueOutput, error)
	CreateSecret(ctx context.Context, in *secretsmanager.CreateSecretInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.CreateSecretOutput, error)
}

// SecretsManager keeps each credential as an AWS Secrets Manager secret
// named prefix+id.
type SecretsManager struct {
	api    ManagerAPI
	prefix string
	mu     sync.Mutex
}

// NewSecretsManager wraps an existing Secrets Manager client.
func NewSecretsManager(api ManagerAPI, prefix string) *SecretsManager {
	return &SecretsManager{api: api, prefix: prefix}
}

// NewSecretsManagerForRegion builds a client from the default AWS config chain.
func NewSecretsManagerForRegion(ctx context.Context, region, prefix string) (*SecretsManager, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewSecretsManager(secretsmanager.NewFromConfig(cfg), prefix), nil
}

func isResourceNotFound(err error) bool {
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "ResourceNotFoundException"
}

// Lookup returns the current value of the secret for id.
func (s *SecretsManager) Lookup(ctx context.Context, id string) (*auth.Credential, error) {
	out, err := s.api.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(s.prefix + id),
	})
	if err != nil {
		if isResourceNotFound(err) {
			return nil, notFound("awssm", id)
		}
		return nil, fmt.Errorf("failed to read secret for credential %s: %w", id, err)
	}
	switch {
	case out.SecretString != nil:
		return &auth.Credential{ID: id, Secret: []byte(*out.SecretString)}, nil
	case out.SecretBinary != nil:
		return &auth.Credential{ID: id, Secret: out.SecretBinary}, nil
	default:
		return nil, notFound("awssm", id)
	}
}

// Update puts a new secret version, creating the secret when absent.
func (s *SecretsManager) Update(ctx context.Context, id string, secret []byte) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := s.prefix + id
	current, err := s.Lookup(ctx, id)
	if err == nil && string(current.Secret) == string(secret) {
		return false, nil
	}

	_, err = s.api.PutSecretValue(ctx, &secretsmanager.PutSecretValueInput{
		SecretId:     aws.String(name),
		SecretString: aws.String(string(secret)),
	})
	if isResourceNotFound(err) {
		_, err = s.api.CreateSecret(ctx, &secretsmanager.CreateSecretInput{
			Name:         aws.String(name),
			SecretString: aws.String(string(secret)),
		})
	}
	if err != nil {
		return false, fmt.Errorf("failed to write secret for credential %s: %w", id, err)
	}
	return true, nil
}
