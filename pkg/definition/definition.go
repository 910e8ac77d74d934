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

package definition

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	apperrors "github.com/NVIDIA/marathon-deployer/pkg/errors"
)

// Well-known application definition fields.
const (
	FieldID        = "id"
	FieldContainer = "container"
	FieldDocker    = "docker"
	FieldImage     = "image"
	FieldType      = "type"
	FieldURIs      = "uris"
	FieldLabels    = "labels"
	FieldEnv       = "env"

	containerTypeDocker = "DOCKER"
)

// Definition is a Marathon application definition: an arbitrary JSON object
// with typed accessors for the fields the deployer rewrites. Numbers are kept
// as json.Number so that values round-trip unchanged.
type Definition struct {
	doc map[string]any
}

// Parse decodes data into a Definition. The top-level value must be a
// non-empty JSON object.
func Parse(data []byte) (*Definition, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeDefinitionInvalid, "definition is not valid JSON", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, apperrors.New(apperrors.ErrCodeDefinitionInvalid, "definition has trailing data after the JSON value")
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return nil, apperrors.NewWithContext(apperrors.ErrCodeDefinitionInvalid, "definition must be a JSON object",
			map[string]any{"type": jsonKind(v)})
	}
	if len(obj) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeDefinitionInvalid, "definition is empty")
	}
	return &Definition{doc: obj}, nil
}

// Load reads and parses the definition file at path.
func Load(path string) (*Definition, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewWithContext(apperrors.ErrCodeFileMissing, "definition file not found",
				map[string]any{"path": path})
		}
		return nil, fmt.Errorf("failed to stat definition file %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, apperrors.NewWithContext(apperrors.ErrCodeFileInvalid, "definition path is not a regular file",
			map[string]any{"path": path})
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definition file %s: %w", path, err)
	}

	d, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// WriteFile writes the definition as indented JSON, creating parent
// directories. An existing directory at path is rejected.
func WriteFile(path string, d *Definition) error {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return apperrors.NewWithContext(apperrors.ErrCodeFileInvalid, "rendered output path is a directory",
			map[string]any{"path": path})
	}

	data, err := json.MarshalIndent(d.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode definition: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write rendered definition %s: %w", path, err)
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d *Definition) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.doc)
}

// Clone returns a deep copy.
func (d *Definition) Clone() *Definition {
	return &Definition{doc: deepCopy(d.doc).(map[string]any)}
}

// ID returns the application id or an empty string when absent.
func (d *Definition) ID() string {
	s, _ := d.doc[FieldID].(string)
	return s
}

// Image returns container.docker.image or an empty string.
func (d *Definition) Image() string {
	container, _ := d.doc[FieldContainer].(map[string]any)
	docker, _ := container[FieldDocker].(map[string]any)
	s, _ := docker[FieldImage].(string)
	return s
}

// ContainerType returns container.type or an empty string.
func (d *Definition) ContainerType() string {
	container, _ := d.doc[FieldContainer].(map[string]any)
	s, _ := container[FieldType].(string)
	return s
}

// URIs returns the uris array; non-string members are skipped.
func (d *Definition) URIs() []string {
	raw, _ := d.doc[FieldURIs].([]any)
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Labels returns the string-valued labels.
func (d *Definition) Labels() map[string]string {
	return stringMap(d.doc[FieldLabels])
}

// Env returns the string-valued env entries. Secret references and other
// object values are omitted.
func (d *Definition) Env() map[string]string {
	return stringMap(d.doc[FieldEnv])
}

func (d *Definition) setID(id string) {
	d.doc[FieldID] = id
}

func (d *Definition) setImage(image string) {
	container := ensureObject(d.doc, FieldContainer, map[string]any{FieldType: containerTypeDocker})
	docker := ensureObject(container, FieldDocker, map[string]any{})
	docker[FieldImage] = image
}

func (d *Definition) setURIs(uris []string) {
	arr := make([]any, len(uris))
	for i, u := range uris {
		arr[i] = u
	}
	d.doc[FieldURIs] = arr
}

func (d *Definition) setLabel(name, value string) {
	ensureObject(d.doc, FieldLabels, map[string]any{})[name] = value
}

func (d *Definition) setEnv(name, value string) {
	ensureObject(d.doc, FieldEnv, map[string]any{})[name] = value
}

// ensureObject returns parent[key] as an object, installing init when the
// key is absent or holds a non-object value.
func ensureObject(parent map[string]any, key string, init map[string]any) map[string]any {
	if obj, ok := parent[key].(map[string]any); ok {
		return obj
	}
	parent[key] = init
	return init
}

func stringMap(v any) map[string]string {
	obj, _ := v.(map[string]any)
	out := make(map[string]string, len(obj))
	for k, v := range obj {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}

func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = deepCopy(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = deepCopy(val)
		}
		return out
	default:
		return t
	}
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}
