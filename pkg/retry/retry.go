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

package retry

import (
	"context"
	"fmt"
	"time"

	"k8s.io/utils/clock"

	apperrors "github.com/NVIDIA/marathon-deployer/pkg/errors"
)

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Backoff returns the delay before the given attempt (2 is the first retry).
type Backoff func(attempt int) time.Duration

// Policy bounds how often an operation is attempted.
type Policy struct {
	MaxAttempts int
	Backoff     Backoff
	Sleep       Sleeper
}

// Constant returns a Backoff with a fixed delay.
func Constant(d time.Duration) Backoff {
	return func(int) time.Duration { return d }
}

// ClockSleeper sleeps on clk so tests can drive time with a fake clock.
func ClockSleeper(clk clock.Clock) Sleeper {
	return func(ctx context.Context, d time.Duration) error {
		if d <= 0 {
			return ctx.Err()
		}
		t := clk.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C():
			return nil
		}
	}
}

// Do calls fn until it succeeds, returns an error retryable rejects, or the
// policy's attempts are used up. Exhaustion returns MAX_RETRIES wrapping the
// last error. Cancellation while sleeping returns CANCELLED.
func Do(ctx context.Context, p Policy, retryable func(error) bool, fn func(ctx context.Context, attempt int) error) error {
	attempts := max(p.MaxAttempts, 1)
	sleep := p.Sleep
	if sleep == nil {
		sleep = ClockSleeper(clock.RealClock{})
	}

	var last error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			var d time.Duration
			if p.Backoff != nil {
				d = p.Backoff(attempt)
			}
			if err := sleep(ctx, d); err != nil {
				return apperrors.Wrap(apperrors.ErrCodeCancelled, "retry interrupted", err)
			}
		}

		last = fn(ctx, attempt)
		if last == nil {
			return nil
		}
		if retryable == nil || !retryable(last) {
			return last
		}
	}

	return apperrors.WrapWithContext(apperrors.ErrCodeMaxRetries,
		fmt.Sprintf("max retries reached after %d attempts", attempts), last,
		map[string]any{"attempts": attempts})
}
