/*
Package deployer runs the deployment pipeline for Marathon application
definitions.

A run reads the definition file, merges the deployment config's overrides,
writes the rendered definition, submits it to the orchestrator and, when
configured, waits for the rollout to finish:

	read -> merge -> render -> submit (retry on 409, re-auth on 401) -> wait

# Deployer

The Deployer interface exposes each step so callers can compose them. Pipeline
is the default implementation; Run drives the steps in order and reports the
outcome on a Result instead of returning an error:

	p := deployer.New(
	    deployer.WithConnector(&deployer.StoreConnector{Store: store}),
	    deployer.WithVariables(vars),
	    deployer.WithHostVariables(host),
	)
	res := p.Run(ctx, cfg)
	if !res.Succeeded() {
	    return res.Err
	}

WithFileOnly stops after rendering and never contacts the orchestrator.

# Submission

Conflicts (409) are retried up to cfg.ConflictRetry.MaxAttempts with a fixed
delay. Exhausting the bound fails with code MAX_RETRIES. The first 401 asks
the connection's auth provider for a new token; if it differs, the same body
is sent once more. All other error statuses fail immediately.

# Batches

RunBatch processes configs sequentially in order. A failed config does not
stop the rest, but BatchResult.Succeeded reports false.

# Connections

Transports and auth providers are obtained per config from a Connector.
StoreConnector builds a marathon.Client for cfg.URL and, when cfg names a
credential, looks it up in a credential store and selects the provider.
Service account credentials log in only after the orchestrator answers 401.

# Metrics

	mdeploy_submissions_total{outcome}
	mdeploy_conflict_retries_total
	mdeploy_reauth_total{result}
	mdeploy_deployment_wait_seconds{outcome}
*/
package deployer
