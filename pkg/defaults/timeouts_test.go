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

package defaults

import (
	"strings"
	"testing"
	"time"
)

func TestTimeoutConstants(t *testing.T) {
	tests := []struct {
		name     string
		timeout  time.Duration
		minValue time.Duration
		maxValue time.Duration
	}{
		// Deployment timeouts
		{"DeploymentTimeout", DeploymentTimeout, 1 * time.Minute, 60 * time.Minute},
		{"PollInterval", PollInterval, 1 * time.Second, 30 * time.Second},
		{"BatchPollInterval", BatchPollInterval, 1 * time.Second, 60 * time.Second},

		// Retry
		{"ConflictRetryDelay", ConflictRetryDelay, 500 * time.Millisecond, 30 * time.Second},
		{"BatchConflictRetryDelay", BatchConflictRetryDelay, 500 * time.Millisecond, 30 * time.Second},

		// Auth
		{"JWTExpiry", JWTExpiry, 1 * time.Minute, 15 * time.Minute},
		{"LoginTimeout", LoginTimeout, 5 * time.Second, 60 * time.Second},

		// HTTP client timeouts
		{"HTTPClientTimeout", HTTPClientTimeout, 10 * time.Second, 60 * time.Second},
		{"HTTPConnectTimeout", HTTPConnectTimeout, 1 * time.Second, 15 * time.Second},
		{"K8sRequestTimeout", K8sRequestTimeout, 5 * time.Second, 60 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.timeout < tt.minValue {
				t.Errorf("%s (%v) is below minimum expected value (%v)", tt.name, tt.timeout, tt.minValue)
			}
			if tt.timeout > tt.maxValue {
				t.Errorf("%s (%v) is above maximum expected value (%v)", tt.name, tt.timeout, tt.maxValue)
			}
		})
	}
}

func TestConflictRetryAttempts(t *testing.T) {
	if ConflictRetryAttempts < 1 {
		t.Errorf("ConflictRetryAttempts must allow at least one attempt, got %d", ConflictRetryAttempts)
	}
}

func TestRenderedFilenameHasBuildPlaceholder(t *testing.T) {
	if !strings.Contains(RenderedFilename, "${BUILD_NUMBER}") {
		t.Errorf("RenderedFilename %q should embed the build number placeholder", RenderedFilename)
	}
}
