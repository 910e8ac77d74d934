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

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/marathon-deployer/pkg/config"
	"github.com/NVIDIA/marathon-deployer/pkg/deployer"
	"github.com/NVIDIA/marathon-deployer/pkg/header"
)

func renderCmd() *cli.Command {
	flags := definitionFlags()
	flags = append(flags, templateFlags()...)
	flags = append(flags, outputFlag(), formatFlag())

	return &cli.Command{
		Name:  "render",
		Usage: "Write the merged application definition without submitting it.",
		Description: `Performs the read, merge and render steps of a deployment and stops before
contacting the orchestrator. Useful for reviewing overrides in CI.

Examples:

  mdeploy render -f marathon.json --docker-image registry.example.com/web:1.4.2 \
    --rendered-filename rendered.json`,
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if _, err := parseOutputFormat(cmd); err != nil {
				return err
			}
			opts, err := definitionOptions(cmd)
			if err != nil {
				return err
			}
			cfg, err := config.NewFileOnly(opts...)
			if err != nil {
				return err
			}

			pipeline, err := newPipeline(ctx, cmd, nil, deployer.WithFileOnly())
			if err != nil {
				return err
			}
			result := pipeline.Run(ctx, cfg)
			if err := writeReport(ctx, cmd, nil, header.KindRenderResult, result); err != nil {
				return err
			}
			if !result.Succeeded() {
				return fmt.Errorf("render of %s failed: %w", cfg.Filename, result.Err)
			}
			return nil
		},
	}
}
