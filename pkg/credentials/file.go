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
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/NVIDIA/marathon-deployer/pkg/auth"
)

// File keeps credentials in a YAML document mapping id to plaintext.
// The file is re-read on every call so external edits are picked up.
type File struct {
	path string
	mu   sync.Mutex
}

// NewFile returns a store backed by the YAML file at path.
func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) read() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to read credential file %s: %w", f.path, err)
	}
	values := map[string]string{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		// yaml errors can quote the offending line; report the path only
		return nil, fmt.Errorf("credential file %s is not a YAML mapping of id to secret", f.path)
	}
	return values, nil
}

// Lookup returns the credential stored under id.
func (f *File) Lookup(_ context.Context, id string) (*auth.Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.read()
	if err != nil {
		return nil, err
	}
	v, ok := values[id]
	if !ok {
		return nil, notFound("file", id)
	}
	return &auth.Credential{ID: id, Secret: []byte(v)}, nil
}

// Update rewrites the file with secret stored under id.
func (f *File) Update(_ context.Context, id string, secret []byte) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.read()
	if err != nil {
		return false, err
	}
	if old, ok := values[id]; ok && old == string(secret) {
		return false, nil
	}
	values[id] = string(secret)

	data, err := yaml.Marshal(values)
	if err != nil {
		return false, fmt.Errorf("failed to encode credential file: %w", err)
	}

	// write through a temp file so a crash never leaves a truncated store
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".credentials-*")
	if err != nil {
		return false, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return false, fmt.Errorf("failed to write credential file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return false, fmt.Errorf("failed to set credential file mode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return false, fmt.Errorf("failed to close credential file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return false, fmt.Errorf("failed to replace credential file %s: %w", f.path, err)
	}
	return true, nil
}
