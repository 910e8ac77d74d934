// Package credentials implements the stores the deployer reads service
// account credentials from and writes refreshed tokens back to.
//
// Each store satisfies auth.CredentialStore: Lookup returns the plaintext
// for an id and Update replaces it, reporting whether the value changed.
// Errors name the credential id only, never its value.
//
// Stores are addressed by URI and built with Open:
//
//	file:///etc/mdeploy/credentials.yaml   YAML mapping of id to secret
//	k8s://namespace/secret                 keys of a Kubernetes Secret
//	awssm://region?prefix=p/               AWS Secrets Manager, one secret per id
//	keyring://service                      OS keyring via go-keyring
//	memory://                              process memory, for tests
package credentials
