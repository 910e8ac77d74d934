// Package errors provides structured error types for better observability
// and programmatic error handling across the deployer.
//
// Every failure surfaced to the host job runner carries one of the codes
// declared here so callers can tell a missing definition file apart from
// an exhausted conflict retry or a rejected login.
//
// Example usage:
//
//	err := errors.WrapWithContext(
//	    errors.ErrCodeAuthentication,
//	    "failed to parse credential",
//	    cause,
//	    map[string]any{
//	        "credentialId": cred.ID,
//	    },
//	)
//
// Messages and context must never carry secret material; only identifying
// data such as credential ids or application ids belong there.
package errors
