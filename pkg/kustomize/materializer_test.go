package kustomize

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/Azure/aspire-deploy/pkg/secrets"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// tree lays out base/ with two resources and an overlay that points back at
// base, plus a base entry pointing at the overlay to form a cycle.
func tree(t *testing.T) (root string) {
	t.Helper()
	root = t.TempDir()
	writeFile(t, filepath.Join(root, "base", "kustomization.yaml"), `
resources:
- api
- cache
- dashboard.yaml
- ../overlay
`)
	writeFile(t, filepath.Join(root, "base", "dashboard.yaml"), "kind: Service\n")
	writeFile(t, filepath.Join(root, "base", "api", "kustomization.yaml"), `
resources:
- deployment.yaml
secretGenerator:
- name: api-secrets
  envs:
  - .api.secrets
  options:
    disableNameSuffixHash: true
`)
	writeFile(t, filepath.Join(root, "base", "cache", "kustomization.yaml"), `
resources:
- statefulset.yaml
secretGenerator:
- name: cache-secrets
  envs:
  - .cache.secrets
`)
	writeFile(t, filepath.Join(root, "overlay", "kustomization.yaml"), `
resources:
- ../base
`)
	return root
}

func store() *secrets.MemoryStore {
	s := secrets.NewMemoryStore()
	s.Set("api", "DB_PASSWORD", "hunter2")
	s.Set("api", "API_KEY", "k3y")
	s.Set("unrelated", "X", "y")
	return s
}

func TestMaterialize(t *testing.T) {
	root := tree(t)
	m := NewMaterializer(zerolog.New(&bytes.Buffer{}), store())

	require.NoError(t, m.Materialize(filepath.Join(root, "overlay")))

	envFile := filepath.Join(root, "base", "api", ".api.secrets")
	data, err := os.ReadFile(envFile)
	require.NoError(t, err)
	assert.Equal(t, "API_KEY=k3y\nDB_PASSWORD=hunter2\n", string(data))

	info, err := os.Stat(envFile)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	assert.NoFileExists(t, filepath.Join(root, "base", "cache", ".cache.secrets"))
	require.Len(t, m.Written(), 1)

	require.NoError(t, m.Cleanup())
	assert.NoFileExists(t, envFile)
	assert.Empty(t, m.Written())
}

func TestMaterialize_ExistingFileIsRestricted(t *testing.T) {
	root := tree(t)
	envFile := filepath.Join(root, "base", "api", ".api.secrets")
	writeFile(t, envFile, "STALE=1\n")

	m := NewMaterializer(zerolog.New(&bytes.Buffer{}), store())
	require.NoError(t, m.Materialize(filepath.Join(root, "base")))

	info, err := os.Stat(envFile)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	data, err := os.ReadFile(envFile)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "STALE")
}

func TestMaterialize_Symlink(t *testing.T) {
	root := tree(t)
	link := filepath.Join(root, "link")
	require.NoError(t, os.Symlink(filepath.Join(root, "base"), link))

	m := NewMaterializer(zerolog.New(&bytes.Buffer{}), store())
	require.NoError(t, m.Materialize(link))
	require.NoError(t, m.Materialize(filepath.Join(root, "base")))

	assert.Len(t, m.Written(), 1)
	require.NoError(t, m.Cleanup())
}

func TestMaterialize_Disabled(t *testing.T) {
	root := tree(t)
	m := NewMaterializer(zerolog.New(&bytes.Buffer{}), store(), WithDisabled(true))

	require.NoError(t, m.Materialize(filepath.Join(root, "base")))
	assert.Empty(t, m.Written())
	assert.NoFileExists(t, filepath.Join(root, "base", "api", ".api.secrets"))
	assert.NoError(t, m.Cleanup())
}

func TestMaterialize_MissingKustomization(t *testing.T) {
	m := NewMaterializer(zerolog.New(&bytes.Buffer{}), store())
	err := m.Materialize(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}

func TestResourceForEnvFile(t *testing.T) {
	tests := map[string]string{
		".api.secrets":  "api",
		"api.secrets":   "api",
		"..api.secrets": ".api",
		".api":          "api",
		"my-app.env":    "my-app.env",
	}
	for in, want := range tests {
		assert.Equal(t, want, ResourceForEnvFile(in), in)
	}
}
