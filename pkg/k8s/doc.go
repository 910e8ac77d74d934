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

// Package k8s groups the Kubernetes integration used by mdeploy.
//
// # Sub-packages
//
// client: Kubernetes clientset construction with kubeconfig discovery
//
//	clientset, err := client.New(kubeconfig)
//	if err != nil {
//	    return err
//	}
//
// The clientset backs the k8s:// credential store (Secret keys per
// credential id) and cm:// report output (ConfigMap data).
//
// # Authentication
//
// Kubeconfig resolution order:
//  1. Explicit --kubeconfig path
//  2. KUBECONFIG environment variable
//  3. ~/.kube/config
//  4. In-cluster service account, when running inside a pod
package k8s
