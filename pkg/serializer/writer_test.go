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

package serializer

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"
)

type sample struct {
	Name   string            `json:"name" yaml:"name"`
	Count  int               `json:"count" yaml:"count"`
	Labels map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
	Items  []string          `json:"items,omitempty" yaml:"items,omitempty"`
}

type rows struct{}

func (rows) TableHeader() []string { return []string{"APP", "STATUS"} }
func (rows) TableRows() [][]string {
	return [][]string{{"/web", "succeeded"}, {"/api", "failed"}}
}

func TestFormatIsUnknown(t *testing.T) {
	for _, f := range SupportedFormats() {
		assert.False(t, Format(f).IsUnknown(), f)
	}
	assert.True(t, Format("xml").IsUnknown())
}

func TestWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(FormatJSON, &buf)
	require.NoError(t, w.Serialize(context.Background(), sample{Name: "a", Count: 2}))

	var got sample
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, sample{Name: "a", Count: 2}, got)
	assert.Contains(t, buf.String(), "\n  \"name\"")
}

func TestWriterYAML(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(FormatYAML, &buf)
	require.NoError(t, w.Serialize(context.Background(), sample{Name: "a", Items: []string{"x"}}))

	var got sample
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "a", got.Name)
	assert.Equal(t, []string{"x"}, got.Items)
}

func TestWriterTableTabular(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewWriter(FormatTable, &buf).Serialize(context.Background(), rows{}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "APP"))
	assert.Contains(t, lines[0], "STATUS")
	assert.Contains(t, lines[2], "/api")
	assert.Contains(t, lines[2], "failed")
}

func TestWriterTableFlattened(t *testing.T) {
	var buf bytes.Buffer
	v := sample{Name: "a", Count: 1, Labels: map[string]string{"team": "x"}, Items: []string{"p", "q"}}
	require.NoError(t, NewWriter(FormatTable, &buf).Serialize(context.Background(), v))

	out := buf.String()
	assert.Contains(t, out, "FIELD")
	assert.Contains(t, out, "labels.team")
	assert.Contains(t, out, "items.[1]")
	assert.Less(t, strings.Index(out, "count"), strings.Index(out, "name"), "keys are sorted")
}

func TestWriterTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewWriter(FormatTable, &buf).Serialize(context.Background(), map[string]string{}))
	assert.Equal(t, "<empty>\n", buf.String())
}

func TestUnknownFormatDefaultsToJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewWriter(Format("xml"), &buf).Serialize(context.Background(), sample{Name: "a"}))
	assert.True(t, json.Valid(buf.Bytes()))
}

func TestFileWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	w := NewFileWriterOrStdout(FormatJSON, path)
	require.NoError(t, w.Serialize(context.Background(), sample{Name: "file"}))
	require.NoError(t, w.Close())
	require.NoError(t, w.Close(), "second close is a no-op")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"file"`)
}

func TestParseConfigMapURI(t *testing.T) {
	tests := []struct {
		uri     string
		ns      string
		name    string
		wantErr bool
	}{
		{uri: "cm://ci/report", ns: "ci", name: "report"},
		{uri: "cm://ci", wantErr: true},
		{uri: "cm:///report", wantErr: true},
		{uri: "cm://ci/", wantErr: true},
		{uri: "file://x", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			ns, name, err := ParseConfigMapURI(tt.uri)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.ns, ns)
			assert.Equal(t, tt.name, name)
		})
	}
}

func TestConfigMapWriterCreatesAndUpdates(t *testing.T) {
	cs := fake.NewClientset()
	ctx := context.Background()

	s, err := NewReportWriter(FormatYAML, "cm://ci/deploy-report", cs)
	require.NoError(t, err)
	w, ok := s.(*ConfigMapWriter)
	require.True(t, ok)
	w.now = func() time.Time { return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC) }

	require.NoError(t, w.Serialize(ctx, sample{Name: "first"}))
	cm, err := cs.CoreV1().ConfigMaps("ci").Get(ctx, "deploy-report", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Contains(t, cm.Data["report.yaml"], "name: first")
	assert.Equal(t, "yaml", cm.Data["format"])
	assert.Equal(t, "2024-05-01T00:00:00Z", cm.Data["timestamp"])
	assert.Equal(t, "mdeploy", cm.Labels["app.kubernetes.io/name"])

	require.NoError(t, w.Serialize(ctx, sample{Name: "second"}))
	cm, err = cs.CoreV1().ConfigMaps("ci").Get(ctx, "deploy-report", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Contains(t, cm.Data["report.yaml"], "name: second")
}

func TestConfigMapWriterKeepsLabels(t *testing.T) {
	cs := fake.NewClientset(&corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{Name: "r", Namespace: "ci", Labels: map[string]string{"owner": "ops"}},
	})
	w := NewConfigMapWriter(cs, "ci", "r", FormatJSON)
	require.NoError(t, w.Serialize(context.Background(), sample{Name: "x"}))

	cm, err := cs.CoreV1().ConfigMaps("ci").Get(context.Background(), "r", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "ops", cm.Labels["owner"])
	assert.Contains(t, cm.Data, "report.json")
}

func TestNewReportWriterFileAndInvalidURI(t *testing.T) {
	s, err := NewReportWriter(FormatJSON, "", nil)
	require.NoError(t, err)
	assert.IsType(t, &Writer{}, s)

	_, err = NewReportWriter(FormatJSON, "cm://only-namespace", fake.NewClientset())
	assert.Error(t, err)
}
