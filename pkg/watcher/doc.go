// Package watcher waits for a submitted deployment to finish by polling the
// orchestrator's active deployment list.
//
// Each cycle sleeps for Interval, lists deployments and checks whether the
// deployment id is still present. The wait ends as:
//   - OutcomeComplete when the id is no longer listed
//   - OutcomeTimedOut when more than Timeout has passed since submission
//   - OutcomeCancelled when the context is done during a sleep
//
// Timing out is reported as an outcome rather than an error because the
// submission has already been accepted.
package watcher
