// Package defaults provides centralized configuration constants for the deployer.
//
// This package defines file names, timeout values, retry parameters, and
// other configuration defaults used across the codebase. Centralizing these
// values ensures consistency and makes tuning easier.
//
// # Categories
//
//   - Definition file naming: source and rendered output names
//   - Deployment timeouts: completion window and poll intervals
//   - Conflict retry: attempts and delays for 409 responses
//   - Authentication: JWT lifetime and login timeout
//   - HTTP client timeouts: for outbound requests
//
// # Usage
//
//	import "github.com/NVIDIA/marathon-deployer/pkg/defaults"
//
//	ctx, cancel := context.WithTimeout(ctx, defaults.LoginTimeout)
//	defer cancel()
//
// Single and batch runs use different poll intervals and retry delays; both
// are exposed so callers can pick either explicitly rather than relying on
// which entry point happened to construct the pipeline.
package defaults
