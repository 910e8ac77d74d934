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
	"fmt"
	"sync"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/NVIDIA/marathon-deployer/pkg/auth"
	"github.com/NVIDIA/marathon-deployer/pkg/defaults"
	"github.com/NVIDIA/marathon-deployer/pkg/k8s/client"
)

// Kubernetes keeps credentials as data keys of a single Secret.
type Kubernetes struct {
	client    client.Interface
	namespace string
	name      string
	mu        sync.Mutex
}

// NewKubernetes returns a store backed by the Secret namespace/name.
func NewKubernetes(c client.Interface, namespace, name string) *Kubernetes {
	if namespace == "" {
		namespace = "default"
	}
	return &Kubernetes{client: c, namespace: namespace, name: name}
}

// Lookup returns the Secret data stored under id.
func (k *Kubernetes) Lookup(ctx context.Context, id string) (*auth.Credential, error) {
	ctx, cancel := context.WithTimeout(ctx, defaults.K8sRequestTimeout)
	defer cancel()

	secret, err := k.client.CoreV1().Secrets(k.namespace).Get(ctx, k.name, metav1.GetOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return nil, notFound("kubernetes", id)
		}
		return nil, fmt.Errorf("failed to get secret %s/%s: %w", k.namespace, k.name, err)
	}
	v, ok := secret.Data[id]
	if !ok {
		return nil, notFound("kubernetes", id)
	}
	return &auth.Credential{ID: id, Secret: bytes.Clone(v)}, nil
}

// Update writes secret under id, creating the Secret when it does not exist.
func (k *Kubernetes) Update(ctx context.Context, id string, secret []byte) (bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaults.K8sRequestTimeout)
	defer cancel()

	secrets := k.client.CoreV1().Secrets(k.namespace)
	existing, err := secrets.Get(ctx, k.name, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		created := &corev1.Secret{
			ObjectMeta: metav1.ObjectMeta{
				Name:      k.name,
				Namespace: k.namespace,
				Labels:    map[string]string{"app.kubernetes.io/managed-by": "mdeploy"},
			},
			Type: corev1.SecretTypeOpaque,
			Data: map[string][]byte{id: bytes.Clone(secret)},
		}
		if _, err := secrets.Create(ctx, created, metav1.CreateOptions{}); err != nil {
			return false, fmt.Errorf("failed to create secret %s/%s: %w", k.namespace, k.name, err)
		}
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get secret %s/%s: %w", k.namespace, k.name, err)
	}

	if old, ok := existing.Data[id]; ok && bytes.Equal(old, secret) {
		return false, nil
	}
	updated := existing.DeepCopy()
	if updated.Data == nil {
		updated.Data = map[string][]byte{}
	}
	updated.Data[id] = bytes.Clone(secret)
	if _, err := secrets.Update(ctx, updated, metav1.UpdateOptions{}); err != nil {
		return false, fmt.Errorf("failed to update secret %s/%s: %w", k.namespace, k.name, err)
	}
	return true, nil
}
