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

package definition

import (
	"log/slog"
	"strings"

	"github.com/distribution/reference"

	"github.com/NVIDIA/marathon-deployer/pkg/config"
	"github.com/NVIDIA/marathon-deployer/pkg/template"
)

// Merge returns a copy of def with the overrides from cfg applied in a fixed
// order: id, docker image, uris, labels, env. Every override value is resolved
// against vars first. def itself is not modified.
//
// URIs are replaced, not appended: the configured list is the only source of
// truth at render time, so an empty list clears the definition's uris.
func Merge(def *Definition, cfg *config.DeploymentConfig, vars template.Variables, host config.HostVariables) (*Definition, error) {
	out := def.Clone()

	if id := strings.TrimSpace(cfg.AppID); id != "" {
		resolved := template.Resolve(id, vars)
		slog.Info("overriding application id", "from", out.ID(), "to", resolved)
		out.setID(resolved)
	}

	if image := strings.TrimSpace(cfg.DockerImage); image != "" {
		resolved := template.Resolve(image, vars)
		// the override is applied verbatim; the orchestrator has the final say
		if missing := template.Unresolved(image, vars); len(missing) > 0 {
			slog.Warn("docker image override has unresolved variables", "image", resolved, "variables", missing)
		} else if _, err := reference.ParseNormalizedNamed(resolved); err != nil {
			slog.Warn("docker image override is not a valid reference", "image", resolved, "error", err)
		}
		slog.Debug("overriding docker image", "from", out.Image(), "to", resolved)
		out.setImage(resolved)
	}

	out.setURIs(template.ResolveAll(cfg.URIs, vars))

	// labels object is created even when no labels are configured
	ensureObject(out.doc, FieldLabels, map[string]any{})
	for _, l := range cfg.Labels {
		out.setLabel(template.Resolve(l.Name, vars), template.Resolve(l.Value, vars))
	}

	for _, e := range cfg.Env {
		out.setEnv(template.Resolve(e.Name, vars), template.Resolve(e.Value, vars))
	}

	if cfg.InjectHostVariables {
		for _, e := range host.Injected() {
			out.setEnv(e.Name, e.Value)
		}
	}

	return out, nil
}
