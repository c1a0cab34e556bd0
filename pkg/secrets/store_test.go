package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Azure/aspire-deploy/pkg/domain/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	assert.False(t, s.ResourceExists("db"))

	s.Set("db", "POSTGRES_PASSWORD", "hunter2")
	s.Set("db", "ADMIN_TOKEN", "t0k3n")

	assert.True(t, s.ResourceExists("db"))
	assert.True(t, s.SecretExists("db", "POSTGRES_PASSWORD"))
	assert.False(t, s.SecretExists("db", "MISSING"))
	assert.False(t, s.SecretExists("api", "POSTGRES_PASSWORD"))
	assert.Equal(t, "hunter2", s.GetSecret("db", "POSTGRES_PASSWORD"))
	assert.Empty(t, s.GetSecret("db", "MISSING"))
	assert.Equal(t, []string{"ADMIN_TOKEN", "POSTGRES_PASSWORD"}, s.Keys("db"))
	assert.Equal(t, []string{"db"}, s.Resources())
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "db.env"), []byte("POSTGRES_PASSWORD=hunter2\n# comment\nQUOTED=\"a b\"\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.env"), 0o700))

	s, err := LoadDir(dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"db"}, s.Resources())
	assert.Equal(t, "hunter2", s.GetSecret("db", "POSTGRES_PASSWORD"))
	assert.Equal(t, "a b", s.GetSecret("db", "QUOTED"))
}

func TestLoadDir_Missing(t *testing.T) {
	_, err := LoadDir(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.True(t, errors.IsOperational(err))
}

func TestDisabled(t *testing.T) {
	var s Store = Disabled{}
	assert.False(t, s.ResourceExists("db"))
	assert.Empty(t, s.Keys("db"))
}

func TestWriteDir_RoundTrip(t *testing.T) {
	s := NewMemoryStore()
	s.Set("api", "DB_PASSWORD", "p@ss word#1")
	s.Set("api", "TOKEN", "abc")
	s.Set("worker", "QUEUE_KEY", "line1\nline2")

	dir := filepath.Join(t.TempDir(), "secrets")
	written, err := WriteDir(dir, s)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "api.env"), filepath.Join(dir, "worker.env")}, written)

	info, err := os.Stat(written[0])
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, "p@ss word#1", loaded.GetSecret("api", "DB_PASSWORD"))
	assert.Equal(t, "abc", loaded.GetSecret("api", "TOKEN"))
	assert.Equal(t, "line1\nline2", loaded.GetSecret("worker", "QUEUE_KEY"))
}
