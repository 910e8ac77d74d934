// Package marathon is a minimal client for the Marathon-compatible
// orchestrator REST API used by the deployer.
//
// Only two endpoints are covered:
//
//	PUT {base}/v2/apps/{id}?force={true|false}   submit a rendered definition
//	GET {base}/v2/deployments                    list active deployments
//
// Non-2xx responses return an *APIError wrapped in a StructuredError with
// code API; StatusCode extracts the HTTP status for retry decisions.
//
// The Authorization header is set from the current token when one is
// present. Tokens are swapped with SetToken after re-authentication.
//
//	c, err := marathon.NewClient("https://dcos.example.com/service/marathon",
//	    marathon.WithRateLimit(5, 1))
//	res, err := c.UpdateApp(ctx, "/web", body, false)
package marathon
