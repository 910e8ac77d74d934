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

package credentials

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"

	apperrors "github.com/NVIDIA/marathon-deployer/pkg/errors"
)

const secretValue = "top-secret-value"

// storeContract runs the behavior every store must share.
func storeContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Lookup(ctx, "missing")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotFound), "got %v", err)
	assert.Contains(t, err.Error(), "credential not found")

	changed, err := s.Update(ctx, "svc", []byte(secretValue))
	require.NoError(t, err)
	assert.True(t, changed)

	cred, err := s.Lookup(ctx, "svc")
	require.NoError(t, err)
	assert.Equal(t, "svc", cred.ID)
	assert.Equal(t, secretValue, string(cred.Secret))

	changed, err = s.Update(ctx, "svc", []byte(secretValue))
	require.NoError(t, err)
	assert.False(t, changed, "identical value must not report a change")

	changed, err = s.Update(ctx, "svc", []byte("rotated"))
	require.NoError(t, err)
	assert.True(t, changed)

	cred, err = s.Lookup(ctx, "svc")
	require.NoError(t, err)
	assert.Equal(t, "rotated", string(cred.Secret))
}

func TestMemoryStore(t *testing.T) {
	storeContract(t, NewMemory(nil))
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	m := NewMemory(map[string]string{"a": "one"})
	cred, err := m.Lookup(context.Background(), "a")
	require.NoError(t, err)
	cred.Secret[0] = 'X'

	again, err := m.Lookup(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "one", string(again.Secret))
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.yaml")
	storeContract(t, NewFile(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStoreReadsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.yaml")
	require.NoError(t, os.WriteFile(path, []byte("jenkins: abc123\nother: xyz\n"), 0o600))

	s := NewFile(path)
	cred, err := s.Lookup(context.Background(), "jenkins")
	require.NoError(t, err)
	assert.Equal(t, "abc123", string(cred.Secret))

	_, err = s.Update(context.Background(), "jenkins", []byte("def456"))
	require.NoError(t, err)

	cred, err = s.Lookup(context.Background(), "other")
	require.NoError(t, err)
	assert.Equal(t, "xyz", string(cred.Secret), "other entries survive an update")
}

func TestFileStoreInvalidDoesNotLeak(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- "+secretValue+"\n"), 0o600))

	_, err := NewFile(path).Lookup(context.Background(), "svc")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), secretValue)
}

func TestKubernetesStore(t *testing.T) {
	cs := fake.NewClientset()
	storeContract(t, NewKubernetes(cs, "ci", "deploy-creds"))

	secret, err := cs.CoreV1().Secrets("ci").Get(context.Background(), "deploy-creds", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "rotated", string(secret.Data["svc"]))
	assert.Equal(t, "mdeploy", secret.Labels["app.kubernetes.io/managed-by"])
}

func TestKubernetesStoreExistingSecret(t *testing.T) {
	cs := fake.NewClientset(&corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{Name: "creds", Namespace: "default"},
		Data:       map[string][]byte{"a": []byte("1"), "b": []byte("2")},
	})
	s := NewKubernetes(cs, "", "creds")

	cred, err := s.Lookup(context.Background(), "b")
	require.NoError(t, err)
	assert.Equal(t, "2", string(cred.Secret))

	changed, err := s.Update(context.Background(), "a", []byte("10"))
	require.NoError(t, err)
	assert.True(t, changed)

	cred, err = s.Lookup(context.Background(), "b")
	require.NoError(t, err)
	assert.Equal(t, "2", string(cred.Secret))
}

type fakeManager struct {
	mu      sync.Mutex
	secrets map[string]string
	puts    int
	creates int
}

func notFoundErr() error {
	return &smithy.GenericAPIError{Code: "ResourceNotFoundException", Message: "not found"}
}

func (f *fakeManager) GetSecretValue(_ context.Context, in *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.secrets[aws.ToString(in.SecretId)]
	if !ok {
		return nil, notFoundErr()
	}
	return &secretsmanager.GetSecretValueOutput{SecretString: aws.String(v)}, nil
}

func (f *fakeManager) PutSecretValue(_ context.Context, in *secretsmanager.PutSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.PutSecretValueOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := aws.ToString(in.SecretId)
	if _, ok := f.secrets[name]; !ok {
		return nil, notFoundErr()
	}
	f.puts++
	f.secrets[name] = aws.ToString(in.SecretString)
	return &secretsmanager.PutSecretValueOutput{}, nil
}

func (f *fakeManager) CreateSecret(_ context.Context, in *secretsmanager.CreateSecretInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.CreateSecretOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	f.secrets[aws.ToString(in.Name)] = aws.ToString(in.SecretString)
	return &secretsmanager.CreateSecretOutput{}, nil
}

func TestSecretsManagerStore(t *testing.T) {
	api := &fakeManager{secrets: map[string]string{}}
	storeContract(t, NewSecretsManager(api, "deploy/"))

	assert.Equal(t, 1, api.creates)
	assert.Equal(t, 1, api.puts)
	assert.Equal(t, "rotated", api.secrets["deploy/svc"])
}

func TestKeyringStore(t *testing.T) {
	keyring.MockInit()
	storeContract(t, NewKeyring("mdeploy-test"))
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	tests := []struct {
		name     string
		uri      string
		opts     []OpenOption
		wantType any
		wantErr  bool
	}{
		{name: "empty", uri: "", wantErr: true},
		{name: "bare path", uri: filepath.Join(dir, "c.yaml"), wantType: &File{}},
		{name: "file scheme", uri: "file://" + filepath.Join(dir, "c.yaml"), wantType: &File{}},
		{name: "memory", uri: "memory://", wantType: &Memory{}},
		{name: "keyring", uri: "keyring://mdeploy", wantType: &Keyring{}},
		{name: "kubernetes", uri: "k8s://ci/creds", opts: []OpenOption{WithKubernetesClient(fake.NewClientset())}, wantType: &Kubernetes{}},
		{name: "kubernetes missing name", uri: "k8s://ci", opts: []OpenOption{WithKubernetesClient(fake.NewClientset())}, wantErr: true},
		{name: "kubernetes nested name", uri: "k8s://ci/a/b", opts: []OpenOption{WithKubernetesClient(fake.NewClientset())}, wantErr: true},
		{name: "aws", uri: "awssm://us-west-2?prefix=x/", opts: []OpenOption{WithSecretsManagerAPI(&fakeManager{secrets: map[string]string{}})}, wantType: &SecretsManager{}},
		{name: "unknown scheme", uri: "vault://secret", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(ctx, tt.uri, tt.opts...)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidRequest), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.wantType, s)
		})
	}
}

func TestOpenAWSPrefix(t *testing.T) {
	api := &fakeManager{secrets: map[string]string{"team/svc": "v"}}
	s, err := Open(context.Background(), "awssm://us-east-1?prefix=team/", WithSecretsManagerAPI(api))
	require.NoError(t, err)

	cred, err := s.Lookup(context.Background(), "svc")
	require.NoError(t, err)
	assert.Equal(t, "v", string(cred.Secret))
}
