// Package config defines DeploymentConfig, the declarative description of a
// single deployment, and the loaders that produce it.
//
// A DeploymentConfig is built once, either from CLI flags through New or from
// a batch file through LoadBatch, and is read-only afterwards. Construction
// normalizes it:
//
//   - a blank filename becomes defaults.DefinitionFilename
//   - a blank rendered filename becomes defaults.RenderedFilename
//   - URIs are de-duplicated by exact string equality, first occurrence kept
//   - labels and env entries are collapsed by name, last value wins
//   - a negative timeout is rejected
//
// Template variables come from the process environment, the job runner's
// build metadata (HostVariables), an optional dotenv vars file and explicit
// overrides, in increasing order of precedence.
//
// Batch file example:
//
//	defaults:
//	  url: http://marathon.mesos:8080
//	  credentialId: dcos-deployer
//	  wait: true
//	  timeout: 10m
//	deployments:
//	  - filename: web/marathon.json
//	    docker: registry.local/web:${BUILD_NUMBER}
//	    labels:
//	      - name: team
//	        value: web
//	  - filename: worker/marathon.json
//	    forceUpdate: true
package config
