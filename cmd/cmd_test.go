package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Azure/aspire-deploy/pkg/build"
	"github.com/Azure/aspire-deploy/pkg/common/runner"
	"github.com/Azure/aspire-deploy/pkg/config"
	"github.com/Azure/aspire-deploy/pkg/domain/errors"
	"github.com/Azure/aspire-deploy/pkg/kubernetes"
	"github.com/Azure/aspire-deploy/pkg/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeClients(fake *runner.FakeCommandRunner) ClientsFactory {
	return NewClientsFactory(&Clients{
		Runner:    fake,
		Container: build.NewContainerCmdRunner(fake, build.BuilderDocker),
		Kube:      kubernetes.NewKubeCmdRunner(fake),
	})
}

func execute(t *testing.T, factory ClientsFactory, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand(factory)
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestApplyFlags(t *testing.T) {
	t.Setenv("ASPIRE_DEPLOY_NAMESPACE", "from-env")
	t.Setenv("ASPIRE_DEPLOY_CONTAINER_REGISTRY", "env.example.com")
	cfg, err := config.Load("")
	require.NoError(t, err)

	c := newGenerateCommand(&app{})
	require.NoError(t, c.ParseFlags([]string{
		"--namespace", "shop",
		"--image-tag", "1.0,latest",
		"--skip-build",
		"--output-format", "Compose",
	}))
	applyFlags(c, cfg)

	assert.Equal(t, "shop", cfg.Namespace)
	assert.Equal(t, "env.example.com", cfg.ContainerRegistry)
	assert.Equal(t, []string{"1.0", "latest"}, cfg.ImageTags)
	assert.True(t, cfg.SkipBuild)
	assert.Equal(t, config.OutputCompose, cfg.OutputFormat)
	assert.Equal(t, "manifest.json", cfg.ManifestPath)
}

func TestGenerateCommand(t *testing.T) {
	dir := t.TempDir()
	manifestPath := filepath.Join(dir, "manifest.json")
	require.NoError(t, os.WriteFile(manifestPath, []byte(`{"resources": {
		"cache": {"type": "container.v0", "image": "redis:7",
			"bindings": {"tcp": {"scheme": "tcp", "protocol": "tcp", "transport": "tcp", "targetPort": 6379}}}
	}}`), 0o644))
	outputPath := filepath.Join(dir, "out")
	secretsDir := filepath.Join(dir, ".aspire-deploy", "secrets")
	fake := &runner.FakeCommandRunner{}

	out, err := execute(t, fakeClients(fake), "generate",
		"--manifest", manifestPath,
		"--output-path", outputPath,
		"--secrets-dir", secretsDir,
		"--namespace", "shop",
		"--log-level", "error",
	)
	require.NoError(t, err)
	assert.Empty(t, fake.Calls)
	assert.FileExists(t, filepath.Join(outputPath, "kustomization.yaml"))
	assert.FileExists(t, filepath.Join(outputPath, "namespace.yaml"))
	assert.FileExists(t, filepath.Join(outputPath, "cache", "deployment.yaml"))
	assert.FileExists(t, filepath.Join(dir, ".aspire-deploy", pipeline.RunReportFileName))
	assert.Contains(t, out, filepath.Join(outputPath, "kustomization.yaml"))
}

func TestGenerateCommand_Compose(t *testing.T) {
	dir := t.TempDir()
	manifestPath := filepath.Join(dir, "manifest.json")
	require.NoError(t, os.WriteFile(manifestPath, []byte(`{"resources": {
		"cache": {"type": "container.v0", "image": "redis:7"}
	}}`), 0o644))

	_, err := execute(t, fakeClients(&runner.FakeCommandRunner{}), "generate",
		"--manifest", manifestPath,
		"--output-path", filepath.Join(dir, "out"),
		"--output-format", "compose",
		"--secrets-dir", filepath.Join(dir, "state", "secrets"),
		"--log-level", "error",
	)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "out", "docker-compose.yaml"))
}

func TestGenerateCommand_InvalidConfiguration(t *testing.T) {
	tests := map[string][]string{
		"output format": {"generate", "--output-format", "helm"},
		"builder":       {"generate", "--container-builder", "buildah"},
		"secret modes":  {"generate", "--inline-secrets", "--disable-secrets"},
		"log level":     {"generate", "--log-level", "loud"},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			fake := &runner.FakeCommandRunner{}
			_, err := execute(t, fakeClients(fake), args...)
			require.Error(t, err)
			assert.Equal(t, errors.CodeConfigurationInvalid, errors.CodeOf(err))
			assert.Empty(t, fake.Calls)
		})
	}
}

func TestApplyAndDestroyCommands(t *testing.T) {
	dir := t.TempDir()
	tree := filepath.Join(dir, "out")
	require.NoError(t, os.MkdirAll(tree, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(tree, "kustomization.yaml"),
		[]byte("apiVersion: kustomize.config.k8s.io/v1beta1\nkind: Kustomization\nresources: []\n"), 0o644))
	secretsDir := filepath.Join(dir, "secrets")

	fake := &runner.FakeCommandRunner{}
	_, err := execute(t, fakeClients(fake), "apply", "--input-path", tree, "--secrets-dir", secretsDir,
		"--kube-context", "kind-dev", "--log-level", "error")
	require.NoError(t, err)

	_, err = execute(t, fakeClients(fake), "destroy", "--input-path", tree, "--secrets-dir", secretsDir, "--log-level", "error")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"kubectl config use-context kind-dev",
		"kubectl apply -k " + tree,
		"kubectl delete -k " + tree + " --ignore-not-found=true",
	}, fake.Calls)
}

func TestApplyCommand_WaitFlags(t *testing.T) {
	t.Setenv("ASPIRE_DEPLOY_WAIT_TIMEOUT", "1m")
	cfg, err := config.Load("")
	require.NoError(t, err)

	c := newApplyCommand(&app{})
	require.NoError(t, c.ParseFlags([]string{"--wait"}))
	applyFlags(c, cfg)
	assert.True(t, cfg.Wait)
	assert.Equal(t, "1m", cfg.WaitTimeout)

	_, err = execute(t, fakeClients(&runner.FakeCommandRunner{}), "destroy", "--wait")
	require.Error(t, err)
}

func TestPrintErrorHelp(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"tool", errors.New(errors.CodeToolNotFound, "operational", "kubectl missing", nil), "Install the missing tool"},
		{"runtime", errors.Operational(errors.CodeRuntimeUnavailable, "", "docker not answering", nil), "Start the container runtime"},
		{"config", errors.New(errors.CodeConfigurationInvalid, "config", "bad", nil), "ASPIRE_DEPLOY_"},
		{"validation", errors.Missing("api", "image"), "manifest is invalid"},
		{"kubernetes", errors.Operational(errors.CodeKubernetesApiError, "", "denied", nil), "current-context"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			printErrorHelp(&buf, tt.err)
			assert.Contains(t, buf.String(), tt.err.Error())
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}
