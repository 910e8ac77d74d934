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

package watcher

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"k8s.io/utils/clock"

	"github.com/NVIDIA/marathon-deployer/pkg/defaults"
	apperrors "github.com/NVIDIA/marathon-deployer/pkg/errors"
	"github.com/NVIDIA/marathon-deployer/pkg/marathon"
	"github.com/NVIDIA/marathon-deployer/pkg/retry"
)

// Lister returns the orchestrator's active deployments.
type Lister interface {
	Deployments(ctx context.Context) ([]marathon.Deployment, error)
}

// Outcome is how a wait ended.
type Outcome string

const (
	OutcomeComplete  Outcome = "complete"
	OutcomeTimedOut  Outcome = "timed_out"
	OutcomeCancelled Outcome = "cancelled"
)

// Result describes a finished wait.
type Result struct {
	Outcome Outcome       `json:"outcome" yaml:"outcome"`
	Polls   int           `json:"polls" yaml:"polls"`
	Elapsed time.Duration `json:"elapsed" yaml:"elapsed"`
}

// Watcher polls the active deployment list until a deployment leaves it.
type Watcher struct {
	Lister   Lister
	Interval time.Duration
	Timeout  time.Duration
	Clock    clock.Clock
	Sleep    retry.Sleeper
}

// Wait blocks until deploymentID is no longer listed, the time since the
// submission at since exceeds the timeout, or ctx is cancelled. A timeout is
// an outcome, not an error. Failures listing deployments are logged and the
// poll is repeated. Cancellation returns OutcomeCancelled with a CANCELLED error.
func (w *Watcher) Wait(ctx context.Context, deploymentID string, since time.Time) (*Result, error) {
	if deploymentID == "" {
		return nil, apperrors.New(apperrors.ErrCodeInvalidRequest, "deployment id is required")
	}

	clk := w.Clock
	if clk == nil {
		clk = clock.RealClock{}
	}
	sleep := w.Sleep
	if sleep == nil {
		sleep = retry.ClockSleeper(clk)
	}
	interval := w.Interval
	if interval <= 0 {
		interval = defaults.PollInterval
	}

	res := &Result{}
	for {
		if err := sleep(ctx, interval); err != nil {
			res.Outcome = OutcomeCancelled
			res.Elapsed = clk.Since(since)
			return res, apperrors.Wrap(apperrors.ErrCodeCancelled, "deployment wait interrupted", err)
		}

		res.Polls++
		active, err := w.Lister.Deployments(ctx)
		switch {
		case err != nil:
			slog.Warn("failed to list deployments",
				"deploymentId", deploymentID,
				"poll", res.Polls,
				"error", err)
		case !contains(active, deploymentID):
			res.Outcome = OutcomeComplete
			res.Elapsed = clk.Since(since)
			slog.Info("deployment complete",
				"deploymentId", deploymentID,
				"polls", res.Polls,
				"elapsed", res.Elapsed.String())
			return res, nil
		default:
			slog.Debug("deployment in progress",
				"deploymentId", deploymentID,
				"poll", res.Polls)
		}

		if elapsed := clk.Since(since); elapsed > w.Timeout {
			res.Outcome = OutcomeTimedOut
			res.Elapsed = elapsed
			slog.Warn("timed out waiting for deployment",
				"deploymentId", deploymentID,
				"timeout", w.Timeout.String(),
				"polls", res.Polls)
			return res, nil
		}
	}
}

func contains(list []marathon.Deployment, id string) bool {
	return slices.ContainsFunc(list, func(d marathon.Deployment) bool { return d.ID == id })
}
