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

	"github.com/zalando/go-keyring"

	"github.com/NVIDIA/marathon-deployer/pkg/auth"
)

// Keyring keeps credentials in the operating system keyring under service.
type Keyring struct {
	service string
}

// NewKeyring returns a store for the given keyring service name.
func NewKeyring(service string) *Keyring {
	if service == "" {
		service = "mdeploy"
	}
	return &Keyring{service: service}
}

// Lookup reads the keyring entry for id.
func (k *Keyring) Lookup(_ context.Context, id string) (*auth.Credential, error) {
	v, err := keyring.Get(k.service, id)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, notFound("keyring", id)
		}
		return nil, fmt.Errorf("failed to read keyring entry for credential %s: %w", id, err)
	}
	return &auth.Credential{ID: id, Secret: []byte(v)}, nil
}

// Update replaces the keyring entry for id.
func (k *Keyring) Update(_ context.Context, id string, secret []byte) (bool, error) {
	old, err := keyring.Get(k.service, id)
	if err == nil && old == string(secret) {
		return false, nil
	}
	if err := keyring.Set(k.service, id, string(secret)); err != nil {
		return false, fmt.Errorf("failed to write keyring entry for credential %s: %w", id, err)
	}
	return true, nil
}
