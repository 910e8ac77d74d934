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

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/marathon-deployer/pkg/config"
	"github.com/NVIDIA/marathon-deployer/pkg/header"
)

func batchCmd() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:     "config",
			Aliases:  []string{"c"},
			Usage:    "Batch file listing the deployments to run, in order (YAML or JSON)",
			Sources:  cli.EnvVars("MDEPLOY_BATCH_CONFIG"),
			Required: true,
		},
	}
	flags = append(flags, templateFlags()...)
	flags = append(flags, connectionFlags()...)
	flags = append(flags, outputFlag(), formatFlag())

	return &cli.Command{
		Name:  "batch",
		Usage: "Deploy several application definitions in order.",
		Description: `Runs every deployment listed in the batch file one after another. A failed
deployment is reported and the batch continues with the next entry; the
command exits non-zero when any deployment failed.

The batch file has an optional defaults section inherited by every entry:

  defaults:
    url: https://marathon.example.com
    credentialId: deployer
    wait: true
    timeout: 10m
  deployments:
    - filename: web/marathon.json
      docker: registry.example.com/web:1.4.2
    - filename: worker/marathon.json
      forceUpdate: true`,
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if _, err := parseOutputFormat(cmd); err != nil {
				return err
			}
			batch, err := config.LoadBatch(cmd.String("config"))
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

			slog.Info("starting batch", "deployments", len(batch.Deployments))
			result := pipeline.RunBatch(ctx, batch.Deployments)
			if err := writeReport(ctx, cmd, kube, header.KindBatchResult, result); err != nil {
				return err
			}
			if !result.Succeeded() {
				return fmt.Errorf("%d of %d deployments failed", result.Failed, len(result.Results))
			}
			return nil
		},
	}
}
