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

package deployer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Submission outcome metrics
	submissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mdeploy_submissions_total",
			Help: "Total number of deployment runs by final status",
		},
		[]string{"outcome"},
	)

	// Retry metrics
	conflictRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mdeploy_conflict_retries_total",
			Help: "Total number of submissions retried after a deployment conflict",
		},
	)
	reauthTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mdeploy_reauth_total",
			Help: "Total number of re-authentication attempts after an unauthenticated response",
		},
		[]string{"result"},
	)

	// Completion wait metrics
	deploymentWaitSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mdeploy_deployment_wait_seconds",
			Help:    "Time spent waiting for deployments to finish, by outcome",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600, 900, 1800},
		},
		[]string{"outcome"},
	)
)
