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
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/NVIDIA/marathon-deployer/pkg/defaults"
	apperrors "github.com/NVIDIA/marathon-deployer/pkg/errors"
)

// Batch is an ordered set of deployments processed one after another.
type Batch struct {
	Deployments []*DeploymentConfig
}

// batchFile is the on-disk shape of a batch; JSON is accepted as a YAML subset.
type batchFile struct {
	Defaults    batchEntry   `yaml:"defaults"`
	Deployments []batchEntry `yaml:"deployments"`
}

// batchEntry uses pointers so that unset fields inherit from defaults.
type batchEntry struct {
	URL                 *string        `yaml:"url"`
	Filename            *string        `yaml:"filename"`
	RenderedFilename    *string        `yaml:"renderedFilename"`
	AppID               *string        `yaml:"appId"`
	DockerImage         *string        `yaml:"docker"`
	ForceUpdate         *bool          `yaml:"forceUpdate"`
	InjectHostVariables *bool          `yaml:"injectHostVariables"`
	WaitForDeploy       *bool          `yaml:"wait"`
	Timeout             *time.Duration `yaml:"timeout"`
	URIs                []string       `yaml:"uris"`
	Labels              []Entry        `yaml:"labels"`
	Env                 []Entry        `yaml:"env"`
	CredentialID        *string        `yaml:"credentialId"`
	ConflictRetry       *RetrySettings `yaml:"conflictRetry"`
	PollInterval        *time.Duration `yaml:"pollInterval"`
}

// LoadBatch reads a batch file. Deployments inherit unset fields from the
// defaults section; batch runs use the longer batch poll interval and retry
// delay unless configured otherwise.
func LoadBatch(path string) (*Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewWithContext(apperrors.ErrCodeFileMissing, "batch file not found",
				map[string]any{"path": path})
		}
		return nil, fmt.Errorf("failed to read batch file %s: %w", path, err)
	}
	return ParseBatch(data)
}

// ParseBatch decodes a batch document.
func ParseBatch(data []byte) (*Batch, error) {
	var f batchFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidRequest, "invalid batch file", err)
	}
	if len(f.Deployments) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeInvalidRequest, "batch file has no deployments")
	}

	base := &DeploymentConfig{
		Timeout:       defaults.DeploymentTimeout,
		ConflictRetry: RetrySettings{MaxAttempts: defaults.ConflictRetryAttempts, Delay: defaults.BatchConflictRetryDelay},
		PollInterval:  defaults.BatchPollInterval,
	}
	f.Defaults.applyTo(base)

	b := &Batch{Deployments: make([]*DeploymentConfig, 0, len(f.Deployments))}
	for i, e := range f.Deployments {
		c := base.Clone()
		e.applyTo(c)
		if err := c.normalize(true); err != nil {
			return nil, fmt.Errorf("deployment %d: %w", i, err)
		}
		b.Deployments = append(b.Deployments, c)
	}
	return b, nil
}

func (e batchEntry) applyTo(c *DeploymentConfig) {
	setString(&c.URL, e.URL)
	setString(&c.Filename, e.Filename)
	setString(&c.RenderedFilename, e.RenderedFilename)
	setString(&c.AppID, e.AppID)
	setString(&c.DockerImage, e.DockerImage)
	setString(&c.CredentialID, e.CredentialID)
	setBool(&c.ForceUpdate, e.ForceUpdate)
	setBool(&c.InjectHostVariables, e.InjectHostVariables)
	setBool(&c.WaitForDeploy, e.WaitForDeploy)
	if e.Timeout != nil {
		c.Timeout = *e.Timeout
	}
	if e.PollInterval != nil {
		c.PollInterval = *e.PollInterval
	}
	if e.ConflictRetry != nil {
		if e.ConflictRetry.MaxAttempts > 0 {
			c.ConflictRetry.MaxAttempts = e.ConflictRetry.MaxAttempts
		}
		if e.ConflictRetry.Delay != 0 {
			c.ConflictRetry.Delay = e.ConflictRetry.Delay
		}
	}
	// list fields extend the defaults rather than replacing them
	c.URIs = append(c.URIs, e.URIs...)
	c.Labels = append(c.Labels, e.Labels...)
	c.Env = append(c.Env, e.Env...)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
