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

package defaults

import "time"

// Definition file naming.
const (
	// DefinitionFilename is the application definition read when none is configured.
	DefinitionFilename = "marathon.json"

	// RenderedFilename is the rendered output name; the placeholder is resolved
	// against the template variables before use.
	RenderedFilename = "marathon-rendered-${BUILD_NUMBER}.json"
)

// Deployment timeouts.
const (
	// DeploymentTimeout is the default window for waiting on a rollout to finish.
	DeploymentTimeout = 15 * time.Minute

	// PollInterval is the delay between deployment list fetches for a single deployment.
	PollInterval = 5 * time.Second

	// BatchPollInterval is the delay between deployment list fetches in batch runs.
	BatchPollInterval = 10 * time.Second
)

// Conflict retry parameters for 409 responses.
const (
	// ConflictRetryAttempts is the total number of submission attempts on conflict.
	ConflictRetryAttempts = 3

	// ConflictRetryDelay is the pause between attempts for a single deployment.
	ConflictRetryDelay = 2 * time.Second

	// BatchConflictRetryDelay is the pause between attempts in batch runs.
	BatchConflictRetryDelay = 5 * time.Second
)

// Authentication parameters.
const (
	// JWTExpiry is the lifetime of the signed login token.
	JWTExpiry = 5 * time.Minute

	// LoginTimeout bounds a single login request.
	LoginTimeout = 30 * time.Second
)

// HTTP client timeouts for outbound requests.
const (
	// HTTPClientTimeout is the default total timeout for HTTP requests.
	HTTPClientTimeout = 30 * time.Second

	// HTTPConnectTimeout is the timeout for establishing connections.
	HTTPConnectTimeout = 5 * time.Second

	// HTTPTLSHandshakeTimeout is the timeout for TLS handshake.
	HTTPTLSHandshakeTimeout = 5 * time.Second

	// HTTPResponseHeaderTimeout is the timeout for reading response headers.
	HTTPResponseHeaderTimeout = 10 * time.Second

	// HTTPIdleConnTimeout is the timeout for idle connections in the pool.
	HTTPIdleConnTimeout = 90 * time.Second

	// HTTPKeepAlive is the keep-alive duration for connections.
	HTTPKeepAlive = 30 * time.Second

	// HTTPExpectContinueTimeout is the timeout for Expect: 100-continue.
	HTTPExpectContinueTimeout = 1 * time.Second
)

// Kubernetes API timeouts.
const (
	// K8sRequestTimeout bounds a single Secret or ConfigMap read or write.
	K8sRequestTimeout = 30 * time.Second
)
