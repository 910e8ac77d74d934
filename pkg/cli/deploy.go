// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/marathon-deployer/pkg/config"
	"github.com/NVIDIA/marathon-deployer/pkg/defaults"
	"github.com/NVIDIA/marathon-deployer/pkg/header"
)

func deployCmd() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:     "url",
			Usage:    "Orchestrator base URL (e.g. https://marathon.example.com)",
			Sources:  cli.EnvVars("MDEPLOY_URL", "MARATHON_URL"),
			Required: true,
		},
		&cli.BoolFlag{
			Name:  "wait",
			Usage: "Wait for the deployment to finish before returning",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Value: defaults.DeploymentTimeout,
			Usage: "Maximum time to wait for the deployment when --wait is set (0 disables waiting)",
		},
		&cli.DurationFlag{
			Name:  "poll-interval",
			Value: defaults.PollInterval,
			Usage: "Interval between deployment status polls",
		},
		&cli.StringFlag{
			Name:    "credential-id",
			Usage:   "Credential id to look up in the credential store",
			Sources: cli.EnvVars("MDEPLOY_CREDENTIAL_ID"),
		},
		&cli.DurationFlag{
			Name:  "conflict-delay",
			Value: defaults.ConflictRetryDelay,
			Usage: "Delay between retries when the application is locked by another deployment",
		},
		&cli.IntFlag{
			Name:  "conflict-attempts",
			Value: defaults.ConflictRetryAttempts,
			Usage: "Maximum submission attempts when the application is locked by another deployment",
		},
	}
	flags = append(flags, definitionFlags()...)
	flags = append(flags, templateFlags()...)
	flags = append(flags, connectionFlags()...)
	flags = append(flags, outputFlag(), formatFlag())

	return &cli.Command{
		Name:  "deploy",
		Usage: "Merge overrides into an application definition and submit it.",
		Description: `Reads the application definition, merges the configured overrides into it,
writes the rendered definition and submits it to the orchestrator. Updates
rejected because another deployment holds the application lock are retried.

Examples:

Deploy with a new image and wait for the rollout:
  mdeploy deploy --url https://marathon.example.com -f marathon.json \
    --docker-image registry.example.com/web:1.4.2 --wait

Authenticate with a service account kept in a Kubernetes Secret:
  mdeploy deploy --url https://marathon.example.com \
    --credential-store k8s://ci/marathon-credentials --credential-id deployer`,
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if _, err := parseOutputFormat(cmd); err != nil {
				return err
			}

			opts, err := definitionOptions(cmd)
			if err != nil {
				return err
			}
			opts = append(opts,
				config.WithWait(cmd.Bool("wait"), cmd.Duration("timeout")),
				config.WithPollInterval(cmd.Duration("poll-interval")),
				config.WithCredentialID(cmd.String("credential-id")),
				config.WithConflictRetry(int(cmd.Int("conflict-attempts")), cmd.Duration("conflict-delay")),
			)
			cfg, err := config.New(cmd.String("url"), opts...)
			if err != nil {
				return err
			}

			kube, err := kubeClient(cmd)
			if err != nil {
				return err
			}
			pipeline, err := newPipeline(ctx, cmd, kube)
			if err != nil {
				return err
			}

			result := pipeline.Run(ctx, cfg)
			if err := writeReport(ctx, cmd, kube, header.KindDeploymentResult, result); err != nil {
				return err
			}
			if !result.Succeeded() {
				return fmt.Errorf("deployment of %s failed: %w", cfg.Filename, result.Err)
			}
			slog.Info("deployment submitted",
				"appId", result.AppID,
				"deploymentId", result.DeploymentID,
				"duration", result.Duration.Round(time.Millisecond))
			return nil
		},
	}
}

// definitionFlags select the definition and the overrides merged into it.
func definitionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "filename",
			Aliases: []string{"f"},
			Value:   defaults.DefinitionFilename,
			Usage:   "Application definition file (may contain ${VAR} references)",
		},
		&cli.StringFlag{
			Name:  "rendered-filename",
			Value: defaults.RenderedFilename,
			Usage: "File the merged definition is written to",
		},
		&cli.StringFlag{
			Name:  "app-id",
			Usage: "Override the application id",
		},
		&cli.StringFlag{
			Name:  "docker-image",
			Usage: "Override container.docker.image",
		},
		&cli.BoolFlag{
			Name:  "force",
			Usage: "Force the update even if the application is locked by a deployment",
		},
		&cli.BoolFlag{
			Name:  "inject-vars",
			Usage: "Inject job runner metadata (build number, commit) into the definition env",
		},
		&cli.StringSliceFlag{
			Name:  "uri",
			Usage: "URI to fetch into the sandbox; replaces the definition's uris (can be repeated)",
		},
		&cli.StringSliceFlag{
			Name:  "label",
			Usage: "Label to add or replace (format: NAME=value, can be repeated)",
		},
		&cli.StringSliceFlag{
			Name:  "env",
			Usage: "Environment variable to add or replace (format: NAME=value, can be repeated)",
		},
	}
}

// definitionOptions translates definitionFlags into config options.
func definitionOptions(cmd *cli.Command) ([]config.Option, error) {
	labels, err := config.ParseKeyValues(cmd.StringSlice("label"))
	if err != nil {
		return nil, fmt.Errorf("invalid --label: %w", err)
	}
	env, err := config.ParseKeyValues(cmd.StringSlice("env"))
	if err != nil {
		return nil, fmt.Errorf("invalid --env: %w", err)
	}
	return []config.Option{
		config.WithFilename(cmd.String("filename")),
		config.WithRenderedFilename(cmd.String("rendered-filename")),
		config.WithAppID(cmd.String("app-id")),
		config.WithDockerImage(cmd.String("docker-image")),
		config.WithForceUpdate(cmd.Bool("force")),
		config.WithInjectHostVariables(cmd.Bool("inject-vars")),
		config.WithURIs(cmd.StringSlice("uri")...),
		config.WithLabels(labels...),
		config.WithEnv(env...),
	}, nil
}
