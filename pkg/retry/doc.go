// Package retry runs an operation under a bounded retry policy.
//
// A Policy carries the attempt bound, a Backoff giving the delay before each
// retry, and a Sleeper. ClockSleeper sleeps on a k8s.io/utils/clock so tests
// can step a fake clock instead of waiting:
//
//	p := retry.Policy{MaxAttempts: 3, Backoff: retry.Constant(2 * time.Second), Sleep: retry.ClockSleeper(clk)}
//	err := retry.Do(ctx, p, isConflict, func(ctx context.Context, attempt int) error {
//	    return submit(ctx)
//	})
//
// Errors rejected by the retryable predicate are returned unchanged.
// Exhausting the bound returns a MAX_RETRIES error wrapping the last failure.
package retry
