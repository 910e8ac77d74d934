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
	"bytes"
	"context"
	"sync"

	"github.com/NVIDIA/marathon-deployer/pkg/auth"
	apperrors "github.com/NVIDIA/marathon-deployer/pkg/errors"
)

// Store is the credential store contract used by the deployer.
type Store = auth.CredentialStore

// notFound builds the error returned when id has no stored value.
func notFound(backend, id string) error {
	return apperrors.NewWithContext(apperrors.ErrCodeNotFound, "credential not found",
		map[string]any{"credentialId": id, "store": backend})
}

// Memory keeps credentials in process memory.
type Memory struct {
	mu     sync.Mutex
	values map[string][]byte
}

// NewMemory returns a Memory store seeded with values.
func NewMemory(values map[string]string) *Memory {
	m := &Memory{values: make(map[string][]byte, len(values))}
	for k, v := range values {
		m.values[k] = []byte(v)
	}
	return m
}

// Lookup returns a copy of the stored credential.
func (m *Memory) Lookup(_ context.Context, id string) (*auth.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[id]
	if !ok {
		return nil, notFound("memory", id)
	}
	return &auth.Credential{ID: id, Secret: bytes.Clone(v)}, nil
}

// Update stores secret under id and reports whether the value changed.
func (m *Memory) Update(_ context.Context, id string, secret []byte) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.values[id]; ok && bytes.Equal(old, secret) {
		return false, nil
	}
	m.values[id] = bytes.Clone(secret)
	return true, nil
}
