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
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"

	apperrors "github.com/NVIDIA/marathon-deployer/pkg/errors"
	"github.com/NVIDIA/marathon-deployer/pkg/marathon"
)

// scriptedLister returns responses in order, repeating the last one.
type scriptedLister struct {
	mu        sync.Mutex
	responses []func() ([]marathon.Deployment, error)
	calls     int
}

func (s *scriptedLister) Deployments(context.Context) ([]marathon.Deployment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := min(s.calls, len(s.responses)-1)
	s.calls++
	return s.responses[i]()
}

func active(ids ...string) func() ([]marathon.Deployment, error) {
	return func() ([]marathon.Deployment, error) {
		out := make([]marathon.Deployment, 0, len(ids))
		for _, id := range ids {
			out = append(out, marathon.Deployment{ID: id})
		}
		return out, nil
	}
}

func failing() ([]marathon.Deployment, error) {
	return nil, errors.New("connection refused")
}

// steppingWatcher advances a fake clock by each requested sleep.
func steppingWatcher(l Lister, interval, timeout time.Duration) (*Watcher, *clocktesting.FakeClock, *[]time.Duration) {
	fc := clocktesting.NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	var slept []time.Duration
	w := &Watcher{
		Lister:   l,
		Interval: interval,
		Timeout:  timeout,
		Clock:    fc,
		Sleep: func(ctx context.Context, d time.Duration) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			slept = append(slept, d)
			fc.Step(d)
			return nil
		},
	}
	return w, fc, &slept
}

func TestWaitCompletesAfterTwoPolls(t *testing.T) {
	l := &scriptedLister{responses: []func() ([]marathon.Deployment, error){
		active("d-1", "other"),
		active("other"),
	}}
	w, fc, slept := steppingWatcher(l, 5*time.Second, time.Minute)

	res, err := w.Wait(context.Background(), "d-1", fc.Now())
	require.NoError(t, err)
	assert.Equal(t, OutcomeComplete, res.Outcome)
	assert.Equal(t, 2, res.Polls)
	assert.Equal(t, 2, l.calls)
	assert.Equal(t, []time.Duration{5 * time.Second, 5 * time.Second}, *slept)
	assert.Equal(t, 10*time.Second, res.Elapsed)
}

func TestWaitTimesOutWithoutError(t *testing.T) {
	l := &scriptedLister{responses: []func() ([]marathon.Deployment, error){active("d-1")}}
	w, fc, _ := steppingWatcher(l, 10*time.Second, 30*time.Second)

	res, err := w.Wait(context.Background(), "d-1", fc.Now())
	require.NoError(t, err)
	assert.Equal(t, OutcomeTimedOut, res.Outcome)
	assert.Equal(t, 4, res.Polls)
	assert.Greater(t, res.Elapsed, 30*time.Second)
}

func TestWaitTimeoutCountsFromSubmission(t *testing.T) {
	l := &scriptedLister{responses: []func() ([]marathon.Deployment, error){active("d-1")}}
	w, fc, _ := steppingWatcher(l, 5*time.Second, 10*time.Second)

	since := fc.Now().Add(-8 * time.Second)
	res, err := w.Wait(context.Background(), "d-1", since)
	require.NoError(t, err)
	assert.Equal(t, OutcomeTimedOut, res.Outcome)
	assert.Equal(t, 1, res.Polls)
}

func TestWaitListErrorsAreNotFatal(t *testing.T) {
	l := &scriptedLister{responses: []func() ([]marathon.Deployment, error){
		failing,
		failing,
		active(),
	}}
	w, fc, _ := steppingWatcher(l, 5*time.Second, time.Minute)

	res, err := w.Wait(context.Background(), "d-1", fc.Now())
	require.NoError(t, err)
	assert.Equal(t, OutcomeComplete, res.Outcome)
	assert.Equal(t, 3, res.Polls)
}

func TestWaitListErrorsUntilTimeout(t *testing.T) {
	l := &scriptedLister{responses: []func() ([]marathon.Deployment, error){failing}}
	w, fc, _ := steppingWatcher(l, 5*time.Second, 10*time.Second)

	res, err := w.Wait(context.Background(), "d-1", fc.Now())
	require.NoError(t, err)
	assert.Equal(t, OutcomeTimedOut, res.Outcome)
}

func TestWaitCancelled(t *testing.T) {
	l := &scriptedLister{responses: []func() ([]marathon.Deployment, error){active("d-1")}}
	w, fc, _ := steppingWatcher(l, 5*time.Second, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := w.Wait(ctx, "d-1", fc.Now())
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeCancelled))
	assert.Equal(t, OutcomeCancelled, res.Outcome)
	assert.Equal(t, 0, res.Polls)
	assert.Equal(t, 0, l.calls)
}

func TestWaitRequiresDeploymentID(t *testing.T) {
	w := &Watcher{Lister: &scriptedLister{}, Interval: time.Second, Timeout: time.Second}
	_, err := w.Wait(context.Background(), "", time.Now())
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidRequest))
}

func TestWaitWithClockSleeper(t *testing.T) {
	l := &scriptedLister{responses: []func() ([]marathon.Deployment, error){active("d-1"), active()}}
	fc := clocktesting.NewFakeClock(time.Unix(0, 0))
	w := &Watcher{Lister: l, Interval: 5 * time.Second, Timeout: time.Minute, Clock: fc}

	done := make(chan *Result, 1)
	go func() {
		res, _ := w.Wait(context.Background(), "d-1", fc.Now())
		done <- res
	}()

	for range 2 {
		require.Eventually(t, fc.HasWaiters, time.Second, time.Millisecond)
		fc.Step(5 * time.Second)
	}

	select {
	case res := <-done:
		require.NotNil(t, res)
		assert.Equal(t, OutcomeComplete, res.Outcome)
		assert.Equal(t, 2, res.Polls)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not finish")
	}
}
