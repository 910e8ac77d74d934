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

package serializer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/NVIDIA/marathon-deployer/pkg/defaults"
	"github.com/NVIDIA/marathon-deployer/pkg/k8s/client"
)

// ConfigMapURIScheme addresses a ConfigMap as cm://namespace/name.
const ConfigMapURIScheme = "cm://"

// ConfigMapWriter stores serialized data in a Kubernetes ConfigMap,
// creating it when missing.
type ConfigMapWriter struct {
	client    client.Interface
	namespace string
	name      string
	format    Format
	now       func() time.Time
}

// NewConfigMapWriter creates a writer for the ConfigMap namespace/name.
func NewConfigMapWriter(c client.Interface, namespace, name string, format Format) *ConfigMapWriter {
	return &ConfigMapWriter{
		client:    c,
		namespace: namespace,
		name:      name,
		format:    normalizeFormat(format),
		now:       time.Now,
	}
}

// Serialize writes v under data["report.<ext>"] together with the format
// and a timestamp.
func (w *ConfigMapWriter) Serialize(ctx context.Context, v any) error {
	ctx, cancel := context.WithTimeout(ctx, defaults.K8sRequestTimeout)
	defer cancel()

	content, err := encode(w.format, v)
	if err != nil {
		return err
	}
	data := map[string]string{
		"report." + w.format.extension(): string(content),
		"format":                         string(w.format),
		"timestamp":                      w.now().UTC().Format(time.RFC3339),
	}

	cms := w.client.CoreV1().ConfigMaps(w.namespace)
	existing, err := cms.Get(ctx, w.name, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		cm := &corev1.ConfigMap{
			ObjectMeta: metav1.ObjectMeta{
				Name:      w.name,
				Namespace: w.namespace,
				Labels: map[string]string{
					"app.kubernetes.io/name":      "mdeploy",
					"app.kubernetes.io/component": "report",
				},
			},
			Data: data,
		}
		if _, err := cms.Create(ctx, cm, metav1.CreateOptions{}); err != nil {
			return fmt.Errorf("failed to create ConfigMap %s/%s: %w", w.namespace, w.name, err)
		}
		slog.Info("report written", "configmap", w.namespace+"/"+w.name, "format", w.format)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get ConfigMap %s/%s: %w", w.namespace, w.name, err)
	}

	updated := existing.DeepCopy()
	updated.Data = data
	if _, err := cms.Update(ctx, updated, metav1.UpdateOptions{}); err != nil {
		return fmt.Errorf("failed to update ConfigMap %s/%s: %w", w.namespace, w.name, err)
	}
	slog.Info("report written", "configmap", w.namespace+"/"+w.name, "format", w.format)
	return nil
}

// Close is a no-op.
func (w *ConfigMapWriter) Close() error {
	return nil
}

// ParseConfigMapURI splits cm://namespace/name.
func ParseConfigMapURI(uri string) (namespace, name string, err error) {
	if !strings.HasPrefix(uri, ConfigMapURIScheme) {
		return "", "", fmt.Errorf("invalid ConfigMap URI: must start with %s", ConfigMapURIScheme)
	}
	parts := strings.SplitN(strings.TrimPrefix(uri, ConfigMapURIScheme), "/", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid ConfigMap URI format: expected %snamespace/name, got %s", ConfigMapURIScheme, uri)
	}
	namespace = strings.TrimSpace(parts[0])
	name = strings.TrimSpace(parts[1])
	if namespace == "" {
		return "", "", fmt.Errorf("invalid ConfigMap URI: namespace cannot be empty")
	}
	if name == "" {
		return "", "", fmt.Errorf("invalid ConfigMap URI: name cannot be empty")
	}
	return namespace, name, nil
}

// NewReportWriter returns a serializer for dest: stdout when empty, a
// ConfigMap for cm:// URIs, a file otherwise. kube may be nil, in which
// case the default client is used for ConfigMaps.
func NewReportWriter(format Format, dest string, kube client.Interface) (Serializer, error) {
	dest = strings.TrimSpace(dest)
	if !strings.HasPrefix(dest, ConfigMapURIScheme) {
		return NewFileWriterOrStdout(format, dest), nil
	}
	namespace, name, err := ParseConfigMapURI(dest)
	if err != nil {
		return nil, err
	}
	if kube == nil {
		if kube, err = client.Default(); err != nil {
			return nil, fmt.Errorf("failed to get kubernetes client: %w", err)
		}
	}
	return NewConfigMapWriter(kube, namespace, name, format), nil
}
