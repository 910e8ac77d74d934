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

package template

import (
	"regexp"
	"sort"
)

var placeholder = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_.\-]*)\}`)

// Variables is a flat name to value context used for placeholder expansion.
type Variables map[string]string

// Resolve returns s with every ${NAME} token replaced by its value in vars.
// Tokens whose name is not present in vars are left verbatim.
func Resolve(s string, vars Variables) string {
	if len(vars) == 0 || len(s) < 3 {
		return s
	}
	return placeholder.ReplaceAllStringFunc(s, func(token string) string {
		name := token[2 : len(token)-1]
		if v, ok := vars[name]; ok {
			return v
		}
		return token
	})
}

// ResolveAll resolves every element of values, preserving order.
func ResolveAll(values []string, vars Variables) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = Resolve(v, vars)
	}
	return out
}

// Unresolved returns the sorted, de-duplicated placeholder names in s that
// have no value in vars.
func Unresolved(s string, vars Variables) []string {
	seen := map[string]struct{}{}
	for _, m := range placeholder.FindAllStringSubmatch(s, -1) {
		if _, ok := vars[m[1]]; !ok {
			seen[m[1]] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Merge returns a new context where later layers override earlier ones.
func Merge(layers ...Variables) Variables {
	out := Variables{}
	for _, l := range layers {
		for k, v := range l {
			out[k] = v
		}
	}
	return out
}
