// Package header provides the envelope stamped on mdeploy reports.
//
// Every report written by the CLI starts with a Kubernetes-style header so
// that consumers can tell reports apart and check the schema version:
//
//	kind: DeploymentResult
//	apiVersion: mdeploy.nvidia.com/v1
//	metadata:
//	  timestamp: "2025-12-30T10:30:00Z"
//	  version: v1.0.0
//	  command: deploy
//	result:
//	  appId: /web
//	  status: succeeded
//
// Consumers should check APIVersion before parsing the result:
//
//	if h.APIVersion != header.APIVersion {
//	    return fmt.Errorf("unsupported API version: %s", h.APIVersion)
//	}
package header
