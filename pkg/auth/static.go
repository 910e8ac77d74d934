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
	"strings"

	apperrors "github.com/NVIDIA/marathon-deployer/pkg/errors"
)

// StaticProvider serves a pre-issued API token stored verbatim in the credential.
type StaticProvider struct {
	credential *Credential
}

// NewStaticProvider returns a provider for a plain token credential.
func NewStaticProvider(cred *Credential) *StaticProvider {
	return &StaticProvider{credential: cred}
}

// Token returns the stored token. It never changes between calls, so a 401
// with a static token is not retried.
func (p *StaticProvider) Token(context.Context) (*Token, error) {
	v := strings.TrimSpace(string(p.credential.Secret))
	if v == "" {
		return nil, apperrors.NewWithContext(apperrors.ErrCodeAuthentication, "token credential is empty",
			map[string]any{"credentialId": p.credential.ID})
	}
	return &Token{Value: v}, nil
}

// UpdateCredential is a no-op; a static token cannot be refreshed.
func (p *StaticProvider) UpdateCredential(context.Context, *Credential) (bool, error) {
	return false, nil
}

// IsServiceAccount reports whether the credential plaintext looks like a
// service account document (a JSON object) rather than a bare token.
func IsServiceAccount(cred *Credential) bool {
	trimmed := bytes.TrimSpace(cred.Secret)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return false
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &probe); err != nil {
		// malformed objects still go to the service account path so that
		// parsing reports a proper authentication error
		return true
	}
	_, ok := probe["login_endpoint"]
	return ok
}

// NewProvider picks the DC/OS provider for service account credentials and
// the static provider otherwise. It also returns the token to present on the
// first request, which is only known up front for static tokens.
func NewProvider(ctx context.Context, cred *Credential, opts ...DCOSOption) (Provider, *Token, error) {
	if IsServiceAccount(cred) {
		p := NewDCOSProvider(cred, opts...)
		if _, err := ParseServiceAccount(cred); err != nil {
			return nil, nil, err
		}
		return p, nil, nil
	}
	p := NewStaticProvider(cred)
	tok, err := p.Token(ctx)
	if err != nil {
		return nil, nil, err
	}
	return p, tok, nil
}
