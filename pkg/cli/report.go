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
	"strconv"

	"github.com/NVIDIA/marathon-deployer/pkg/header"
	"github.com/NVIDIA/marathon-deployer/pkg/serializer"
)

// report is the envelope written by every command. Table output renders
// the result only.
type report struct {
	header.Header `yaml:",inline"`
	Result        serializer.Tabular `json:"result" yaml:"result"`
}

func newReport(kind header.Kind, command string, result serializer.Tabular) *report {
	h := header.New(kind, version, header.WithMetadata("command", command))
	return &report{Header: *h, Result: result}
}

func (r *report) TableHeader() []string { return r.Result.TableHeader() }
func (r *report) TableRows() [][]string { return r.Result.TableRows() }

func (t *tokenRefresh) TableHeader() []string {
	return []string{"CREDENTIAL", "TOKEN", "CHANGED"}
}

func (t *tokenRefresh) TableRows() [][]string {
	return [][]string{{t.CredentialID, t.TokenID, strconv.FormatBool(t.Changed)}}
}
