package runner

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeCommandRunner(t *testing.T) {
	f := &FakeCommandRunner{Output: "ok"}
	out, err := f.RunCommand(context.Background(), "kubectl", "apply", "-k", "out")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)

	_, err = f.RunCommandInDir(context.Background(), "/tmp", "docker", "info")
	require.NoError(t, err)
	assert.Equal(t, []string{"kubectl apply -k out", "docker info"}, f.Calls)
	assert.Equal(t, []string{"", "/tmp"}, f.Dirs)

	f.ErrStr = "exit status 1"
	out, err = f.RunCommand(context.Background(), "kubectl", "version")
	assert.EqualError(t, err, "exit status 1")
	assert.Equal(t, "ok", out)
}

func TestLookPath(t *testing.T) {
	assert.False(t, LookPath("definitely-not-a-real-binary-4242"))
}

func TestDefaultCommandRunner_RunCommandInDir(t *testing.T) {
	if !LookPath("pwd") {
		t.Skip("pwd not available")
	}
	dir := t.TempDir()
	out, err := (&DefaultCommandRunner{}).RunCommandInDir(context.Background(), dir, "pwd")
	require.NoError(t, err)

	want, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDefaultCommandRunner_NoCommand(t *testing.T) {
	_, err := (&DefaultCommandRunner{}).RunCommand(context.Background())
	assert.EqualError(t, err, "no command given")
}
