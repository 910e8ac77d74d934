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
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/util/homedir"
)

// Interface is kubernetes.Interface, aliased so callers can pass the fake clientset.
type Interface = kubernetes.Interface

var (
	defaultOnce   sync.Once
	defaultClient Interface
	defaultErr    error
)

// Default returns a process-wide client built from the discovered kubeconfig.
// Construction happens once; later calls return the same client and error.
func Default() (Interface, error) {
	defaultOnce.Do(func() {
		defaultClient, defaultErr = New("")
	})
	return defaultClient, defaultErr
}

// ResolveKubeconfig returns the kubeconfig path to use. An explicit path wins,
// then KUBECONFIG, then ~/.kube/config when present. An empty result means
// in-cluster configuration should be used.
func ResolveKubeconfig(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv("KUBECONFIG"); env != "" {
		return env
	}
	home := filepath.Join(homedir.HomeDir(), ".kube", "config")
	if _, err := os.Stat(home); err == nil {
		return home
	}
	return ""
}

// New builds a client for the kubeconfig at path, falling back to
// discovery when path is empty.
func New(path string) (Interface, error) {
	cfg, err := restConfig(ResolveKubeconfig(path))
	if err != nil {
		return nil, err
	}
	cs, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes client: %w", err)
	}
	return cs, nil
}

func restConfig(kubeconfig string) (*rest.Config, error) {
	// InClusterConfig directly avoids the "neither --kubeconfig nor --master" warning
	if kubeconfig == "" {
		cfg, err := rest.InClusterConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to get in-cluster config: %w", err)
		}
		return cfg, nil
	}
	cfg, err := clientcmd.BuildConfigFromFlags("", kubeconfig)
	if err != nil {
		return nil, fmt.Errorf("failed to build kube config from %s: %w", kubeconfig, err)
	}
	return cfg, nil
}
