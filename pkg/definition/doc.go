// Package definition loads, merges and renders Marathon application definitions.
//
// A Definition is read fresh from a file for every run, merged with a
// config.DeploymentConfig and then either submitted or written to a rendered
// output file. Merge never mutates its input; it returns an updated copy.
//
// Load reports the failure kinds the host runner distinguishes:
//
//   - FILE_MISSING: nothing exists at the configured path
//   - FILE_INVALID: the path is a directory or other non-regular file
//   - DEFINITION_INVALID: the content is not a non-empty JSON object
package definition
