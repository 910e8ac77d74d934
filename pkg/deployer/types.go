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

package deployer

import (
	"strconv"
	"time"

	apperrors "github.com/NVIDIA/marathon-deployer/pkg/errors"
	"github.com/NVIDIA/marathon-deployer/pkg/watcher"
)

// Status is the final state of one deployment run.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusRendered  Status = "rendered"
)

// Result reports one deployment run.
type Result struct {
	AppID        string          `json:"appId,omitempty" yaml:"appId,omitempty"`
	Filename     string          `json:"filename" yaml:"filename"`
	RenderedFile string          `json:"renderedFile,omitempty" yaml:"renderedFile,omitempty"`
	DeploymentID string          `json:"deploymentId,omitempty" yaml:"deploymentId,omitempty"`
	Version      string          `json:"version,omitempty" yaml:"version,omitempty"`
	Status       Status          `json:"status" yaml:"status"`
	Outcome      watcher.Outcome `json:"outcome,omitempty" yaml:"outcome,omitempty"`
	Polls        int             `json:"polls,omitempty" yaml:"polls,omitempty"`
	Attempts     int             `json:"attempts" yaml:"attempts"`
	Duration     time.Duration   `json:"duration" yaml:"duration"`
	ErrorCode    string          `json:"errorCode,omitempty" yaml:"errorCode,omitempty"`
	Error        string          `json:"error,omitempty" yaml:"error,omitempty"`

	Err error `json:"-" yaml:"-"`
}

// Succeeded reports whether the run did what it was configured to do.
func (r *Result) Succeeded() bool {
	return r.Status == StatusSucceeded || r.Status == StatusRendered
}

func (r *Result) fail(err error) *Result {
	r.Status = StatusFailed
	r.Err = err
	r.Error = err.Error()
	r.ErrorCode = string(apperrors.CodeOf(err))
	return r
}

// BatchResult reports a multi-deployment run in configured order.
type BatchResult struct {
	Results []*Result `json:"results" yaml:"results"`
	Failed  int       `json:"failed" yaml:"failed"`
}

// Succeeded reports whether every run in the batch succeeded.
func (b *BatchResult) Succeeded() bool {
	return b.Failed == 0
}

var reportHeader = []string{"FILE", "APP", "STATUS", "DEPLOYMENT", "OUTCOME", "ATTEMPTS", "DURATION", "ERROR"}

func (r *Result) row() []string {
	return []string{
		r.Filename,
		r.AppID,
		string(r.Status),
		r.DeploymentID,
		string(r.Outcome),
		strconv.Itoa(r.Attempts),
		r.Duration.Round(time.Millisecond).String(),
		r.ErrorCode,
	}
}

// TableHeader and TableRows render results one per row.
func (r *Result) TableHeader() []string { return reportHeader }
func (r *Result) TableRows() [][]string { return [][]string{r.row()} }

func (b *BatchResult) TableHeader() []string { return reportHeader }
func (b *BatchResult) TableRows() [][]string {
	rows := make([][]string, 0, len(b.Results))
	for _, r := range b.Results {
		rows = append(rows, r.row())
	}
	return rows
}

// Submission is an accepted update, carrying what the wait step needs.
type Submission struct {
	AppID        string
	DeploymentID string
	Version      string
	Attempts     int
	SubmittedAt  time.Time

	lister watcher.Lister
}
