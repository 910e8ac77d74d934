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

package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/NVIDIA/marathon-deployer/pkg/template"
)

// Keys written into the definition env when host variable injection is enabled.
const (
	EnvBuildNumber = "BUILD_NUMBER"
	EnvJobName     = "JOB_NAME"
	EnvGitCommit   = "GIT_COMMIT"
)

// HostVariables is the build metadata supplied by the job runner.
type HostVariables struct {
	BuildNumber string `env:"BUILD_NUMBER"`
	JobName     string `env:"JOB_NAME"`
	GitCommit   string `env:"GIT_COMMIT"`
	BuildURL    string `env:"BUILD_URL"`
	Workspace   string `env:"WORKSPACE"`
}

// LoadHostVariables reads HostVariables from the process environment.
func LoadHostVariables() (HostVariables, error) {
	hv, err := env.ParseAs[HostVariables]()
	if err != nil {
		return HostVariables{}, fmt.Errorf("failed to parse host variables: %w", err)
	}
	return hv, nil
}

// HostVariablesFrom reads HostVariables from an explicit environment map.
func HostVariablesFrom(environment map[string]string) (HostVariables, error) {
	var hv HostVariables
	if err := env.ParseWithOptions(&hv, env.Options{Environment: environment}); err != nil {
		return HostVariables{}, fmt.Errorf("failed to parse host variables: %w", err)
	}
	return hv, nil
}

// Injected returns the fixed env keys set on the definition when injection is enabled.
func (h HostVariables) Injected() []Entry {
	return []Entry{
		{Name: EnvBuildNumber, Value: h.BuildNumber},
		{Name: EnvJobName, Value: h.JobName},
		{Name: EnvGitCommit, Value: h.GitCommit},
	}
}

// Variables returns the non-empty host values as a template context.
func (h HostVariables) Variables() template.Variables {
	vars := template.Variables{}
	add := func(k, v string) {
		if v != "" {
			vars[k] = v
		}
	}
	add(EnvBuildNumber, h.BuildNumber)
	add(EnvJobName, h.JobName)
	add(EnvGitCommit, h.GitCommit)
	add("BUILD_URL", h.BuildURL)
	add("WORKSPACE", h.Workspace)
	return vars
}

// EnvironMap converts os.Environ style entries into a map.
func EnvironMap(environ []string) map[string]string {
	out := make(map[string]string, len(environ))
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		out[k] = v
	}
	return out
}

// ReadVarsFile loads a dotenv formatted file of template variables.
func ReadVarsFile(path string) (template.Variables, error) {
	m, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vars file %s: %w", path, err)
	}
	return template.Variables(m), nil
}

// BuildVariables assembles the template context. Later sources win:
// process environment, host variables, vars file, then explicit overrides.
func BuildVariables(environ []string, host HostVariables, varsFile string, overrides []Entry) (template.Variables, error) {
	layers := []template.Variables{template.Variables(EnvironMap(environ)), host.Variables()}
	if varsFile != "" {
		fileVars, err := ReadVarsFile(varsFile)
		if err != nil {
			return nil, err
		}
		layers = append(layers, fileVars)
	}
	explicit := template.Variables{}
	for _, e := range overrides {
		explicit[e.Name] = e.Value
	}
	layers = append(layers, explicit)
	return template.Merge(layers...), nil
}
