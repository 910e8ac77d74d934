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
	"net/url"
	"strings"

	apperrors "github.com/NVIDIA/marathon-deployer/pkg/errors"
	"github.com/NVIDIA/marathon-deployer/pkg/k8s/client"
)

// Supported store URI schemes.
const (
	SchemeFile       = "file"
	SchemeKubernetes = "k8s"
	SchemeAWS        = "awssm"
	SchemeKeyring    = "keyring"
	SchemeMemory     = "memory"
)

type openOptions struct {
	kube client.Interface
	aws  ManagerAPI
}

// OpenOption customizes store construction in Open.
type OpenOption func(*openOptions)

// WithKubernetesClient uses c instead of building a client from kubeconfig.
func WithKubernetesClient(c client.Interface) OpenOption {
	return func(o *openOptions) { o.kube = c }
}

// WithSecretsManagerAPI uses api instead of loading the default AWS config.
func WithSecretsManagerAPI(api ManagerAPI) OpenOption {
	return func(o *openOptions) { o.aws = api }
}

// Open returns the store addressed by uri:
//
//	file:///path/credentials.yaml   (a bare path is treated the same)
//	k8s://namespace/secret-name?kubeconfig=/path
//	awssm://us-west-2?prefix=deploy/
//	keyring://service
//	memory://
func Open(ctx context.Context, uri string, opts ...OpenOption) (Store, error) {
	o := &openOptions{}
	for _, opt := range opts {
		opt(o)
	}

	if uri == "" {
		return nil, apperrors.New(apperrors.ErrCodeInvalidRequest, "credential store URI is required")
	}
	if !strings.Contains(uri, "://") {
		return NewFile(uri), nil
	}
	if strings.HasPrefix(uri, SchemeFile+"://") {
		return NewFile(strings.TrimPrefix(uri, SchemeFile+"://")), nil
	}

	u, err := url.Parse(uri)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidRequest, "invalid credential store URI", err)
	}

	switch u.Scheme {
	case SchemeMemory:
		return NewMemory(nil), nil
	case SchemeKeyring:
		return NewKeyring(u.Host), nil
	case SchemeKubernetes:
		name := strings.Trim(u.Path, "/")
		if u.Host == "" || name == "" || strings.Contains(name, "/") {
			return nil, apperrors.NewWithContext(apperrors.ErrCodeInvalidRequest,
				"kubernetes store URI must be k8s://namespace/secret", map[string]any{"uri": uri})
		}
		kc := o.kube
		if kc == nil {
			if kc, err = client.New(u.Query().Get("kubeconfig")); err != nil {
				return nil, apperrors.Wrap(apperrors.ErrCodeUnavailable, "failed to create kubernetes client", err)
			}
		}
		return NewKubernetes(kc, u.Host, name), nil
	case SchemeAWS:
		prefix := u.Query().Get("prefix")
		if o.aws != nil {
			return NewSecretsManager(o.aws, prefix), nil
		}
		sm, err := NewSecretsManagerForRegion(ctx, u.Host, prefix)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeUnavailable, "failed to create secrets manager client", err)
		}
		return sm, nil
	default:
		return nil, apperrors.NewWithContext(apperrors.ErrCodeInvalidRequest,
			"unsupported credential store scheme", map[string]any{"scheme": u.Scheme})
	}
}
