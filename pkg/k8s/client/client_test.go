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

package client

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestResolveKubeconfig(t *testing.T) {
	t.Run("explicit path wins", func(t *testing.T) {
		t.Setenv("KUBECONFIG", "/from/env")
		if got := ResolveKubeconfig("/explicit"); got != "/explicit" {
			t.Errorf("ResolveKubeconfig() = %q, want /explicit", got)
		}
	})

	t.Run("env var used when no explicit path", func(t *testing.T) {
		t.Setenv("KUBECONFIG", "/from/env")
		if got := ResolveKubeconfig(""); got != "/from/env" {
			t.Errorf("ResolveKubeconfig() = %q, want /from/env", got)
		}
	})

	t.Run("home config when present", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("HOME", home)
		t.Setenv("KUBECONFIG", "")
		if got := ResolveKubeconfig(""); got != "" {
			t.Errorf("ResolveKubeconfig() = %q, want empty without ~/.kube/config", got)
		}

		path := filepath.Join(home, ".kube", "config")
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("apiVersion: v1\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		if got := ResolveKubeconfig(""); got != path {
			t.Errorf("ResolveKubeconfig() = %q, want %q", got, path)
		}
	})
}

func TestNewInvalidKubeconfig(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
	}{
		{
			name:  "missing file",
			setup: func(_ *testing.T) string { return "/nonexistent/path/to/kubeconfig" },
		},
		{
			name: "invalid content",
			setup: func(t *testing.T) string {
				p := filepath.Join(t.TempDir(), "kubeconfig")
				if err := os.WriteFile(p, []byte("invalid yaml content"), 0o600); err != nil {
					t.Fatal(err)
				}
				return p
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.setup(t))
			if err == nil {
				t.Fatal("New() expected error")
			}
			if !strings.Contains(err.Error(), "failed to build kube config") {
				t.Errorf("New() error = %v", err)
			}
		})
	}
}

func TestDefaultIsStable(t *testing.T) {
	c1, err1 := Default()
	c2, err2 := Default()
	if c1 != c2 {
		t.Error("Default() returned different clients")
	}
	//nolint:errorlint // identity check on cached error
	if err1 != err2 {
		t.Errorf("Default() returned different errors: %v, %v", err1, err2)
	}
}
