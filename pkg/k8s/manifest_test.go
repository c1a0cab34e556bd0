package k8s

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadK8sObjects_MultiDocument(t *testing.T) {
	content := []byte(`apiVersion: apps/v1
kind: Deployment
metadata:
  name: api
---
apiVersion: v1
kind: Service
metadata:
  name: api
---
# just a comment
---
foo: bar
`)
	objects, err := ReadK8sObjects(content)
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, "deployment/api", objects[0].String())
	assert.True(t, objects[0].IsWorkload())
	assert.Equal(t, "service/api", objects[1].String())
	assert.False(t, objects[1].IsWorkload())
	assert.Contains(t, string(objects[1].Content), "kind: Service")
}

func TestFindK8sObjects(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "api"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "api", "deployment.yaml"), []byte("apiVersion: apps/v1\nkind: Deployment\nmetadata:\n  name: api\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "api", KustomizationFileName), []byte("apiVersion: kustomize.config.k8s.io/v1beta1\nkind: Kustomization\nmetadata:\n  name: ignored\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("kind: Nope"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("kind: [unclosed"), 0o644))

	objects, err := FindK8sObjects(dir)
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, filepath.Join(dir, "api", "deployment.yaml"), objects[0].ManifestPath)

	_, err = FindK8sObjects(filepath.Join(dir, "notes.txt"))
	assert.Error(t, err)
}
