// Package auth acquires session tokens for the orchestrator API.
//
// Two providers exist:
//
//   - DCOSProvider reads a service account credential whose plaintext is JSON
//     with uid, login_endpoint, private_key and scheme fields, signs a short
//     lived JWT with it, posts {"uid", "token"} to the login endpoint and
//     extracts the session token from the dcos-acs-auth-cookie cookie.
//   - StaticProvider serves a pre-issued token stored verbatim.
//
// Supported signing schemes are HS256, HS384 and HS512, which sign with the
// raw shared secret, and RS256, RS384 and RS512, which sign with a PEM encoded
// RSA private key.
//
// Credential plaintext never appears in logs or errors. Errors name the
// credential id only; JSON syntax errors report the byte offset instead of
// the offending text.
//
// Tokens carry no expiry tracking: callers ask for a fresh token after a 401.
package auth
