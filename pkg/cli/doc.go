// Package cli implements the command-line interface for mdeploy, the Marathon
// application deployer.
//
// # Overview
//
// mdeploy takes an application definition (marathon.json), merges
// deployment-time overrides into it, writes the rendered definition to disk
// and submits it to the orchestrator. It is meant to run as a CI job step.
//
// # Commands
//
// deploy - Deploy a single application definition:
//
//	mdeploy deploy --url URL [-f marathon.json] [--docker-image IMAGE] [--wait]
//
// Updates rejected with 409 because another deployment holds the
// application lock are retried. A 401 triggers one re-login with the
// configured service account.
//
// batch - Deploy several definitions listed in a batch file, in order:
//
//	mdeploy batch --config deployments.yaml
//
// render - Merge and write the definition without submitting it:
//
//	mdeploy render -f marathon.json --rendered-filename rendered.json
//
// refresh-token - Log in with a service account and store the session token:
//
//	mdeploy refresh-token --credential-store k8s://ci/creds --credential-id sa --token-id token
//
// # Credential Stores
//
//	path or file://path    YAML map of credential id to secret
//	k8s://namespace/name   Keys of a Kubernetes Secret
//	awssm://region         AWS Secrets Manager, optional ?prefix=
//	keyring://service      OS keyring
//	memory://              Process-local store, useful in tests
//
// Credential secrets are never logged and never appear in errors.
//
// # Output Formats
//
// Every command reports its result with --format table (default), json or
// yaml, to stdout, a file, or a ConfigMap (--output cm://namespace/name).
//
// # Environment Variables
//
//	LOG_LEVEL                 Logging verbosity (debug, info, warn, error)
//	MDEPLOY_URL               Orchestrator base URL
//	MDEPLOY_CREDENTIAL_STORE  Credential store URI
//	MDEPLOY_CREDENTIAL_ID     Credential id
//	MDEPLOY_VARS_FILE         Dotenv file of template variables
//	MDEPLOY_METRICS_FILE      Prometheus textfile written on exit
//	BUILD_NUMBER, GIT_COMMIT  Job runner metadata used by --inject-vars
//
// # Exit Codes
//
//	0  Success
//	1  Any failure, including a failed deployment in a batch
//
// Version information is embedded at build time using ldflags:
//
//	go build -ldflags="-X 'github.com/NVIDIA/marathon-deployer/pkg/cli.version=1.0.0'"
package cli
