package pipeline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Azure/aspire-deploy/pkg/build"
	"github.com/Azure/aspire-deploy/pkg/common/runner"
	"github.com/Azure/aspire-deploy/pkg/config"
	"github.com/Azure/aspire-deploy/pkg/descriptor"
	"github.com/Azure/aspire-deploy/pkg/domain/errors"
	"github.com/Azure/aspire-deploy/pkg/k8s"
	"github.com/Azure/aspire-deploy/pkg/processors"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const shopManifest = `{
  "resources": {
    "cache": {
      "type": "container.v0",
      "image": "redis:7",
      "bindings": {"tcp": {"scheme": "tcp", "protocol": "tcp", "transport": "tcp", "targetPort": 6379}}
    },
    "pg-password": {
      "type": "parameter.v0",
      "value": "{pg-password.inputs.value}",
      "inputs": {"value": {"type": "string", "secret": true}}
    },
    "api": {
      "type": "project.v0",
      "path": "Api/Api.csproj",
      "env": {
        "REDIS": "{cache.bindings.tcp.host}:{cache.bindings.tcp.port}",
        "DB_PASSWORD": "{pg-password.value}"
      },
      "bindings": {"http": {"scheme": "http", "protocol": "tcp", "transport": "http", "external": true}}
    },
    "web": {
      "type": "dockerfile.v0",
      "path": "web/Dockerfile",
      "context": "web",
      "bindings": {"http": {"scheme": "http", "protocol": "tcp", "transport": "http", "targetPort": 3000}}
    },
    "api-dapr": {
      "type": "dapr.v0",
      "dapr": {"application": "api", "appId": "api", "components": ["statestore"]}
    },
    "statestore": {
      "type": "dapr.component.v0",
      "daprComponent": {"type": "state.redis", "metadata": {"redisHost": "cache:6379"}}
    }
  }
}`

func nop() zerolog.Logger { return zerolog.New(&bytes.Buffer{}) }

type fakeClient struct {
	builds []build.ImageBuild
	pushes []string
}

func (f *fakeClient) Info(context.Context) (string, error) { return "ok", nil }

func (f *fakeClient) Build(_ context.Context, b build.ImageBuild) (string, error) {
	f.builds = append(f.builds, b)
	return "", nil
}

func (f *fakeClient) Push(_ context.Context, image string) (string, error) {
	f.pushes = append(f.pushes, image)
	return "", nil
}

type fixture struct {
	dir    string
	cfg    *config.Config
	client *fakeClient
	runner *runner.FakeCommandRunner
	gen    *Generator
	out    *bytes.Buffer
}

func newFixture(t *testing.T, doc string) *fixture {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "manifest.json"), []byte(doc), 0o644))

	cfg := config.DefaultConfig()
	cfg.ManifestPath = filepath.Join(dir, "manifest.json")
	cfg.OutputPath = filepath.Join(dir, "out")
	cfg.SecretsDir = filepath.Join(dir, "secrets")

	f := &fixture{
		dir:    dir,
		cfg:    cfg,
		client: &fakeClient{},
		runner: &runner.FakeCommandRunner{},
		out:    &bytes.Buffer{},
	}
	f.gen = NewGenerator(nop(), processors.NewDefaultRegistry(nop()), f.client, f.runner, f.out)
	return f
}

func (f *fixture) seedSecret(t *testing.T, resource, key, value string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(f.cfg.SecretsDir, 0o700))
	require.NoError(t, godotenv.Write(map[string]string{key: value}, filepath.Join(f.cfg.SecretsDir, resource+".env")))
}

func stageNames(history []StageVisit) []string {
	names := make([]string, len(history))
	for i, v := range history {
		names[i] = v.StageID
	}
	return names
}

func TestGenerate_Kustomize(t *testing.T) {
	f := newFixture(t, shopManifest)
	f.cfg.Namespace = "shop"
	f.cfg.IncludeDashboard = true
	f.cfg.ContainerRegistry = "registry.example.com"
	f.cfg.ImageTags = []string{"1.0"}
	f.seedSecret(t, "pg-password", "value", "s3cret")

	state := NewPipelineState(f.cfg, nil)
	require.NoError(t, f.gen.Generate(context.Background(), state))

	assert.True(t, state.Success)
	assert.Equal(t, []string{StageParse, StageValidate, StageBuild, StageKustomize, StageSecrets}, stageNames(state.StageHistory))

	// api is published by the SDK, web is built and pushed by the container client.
	require.Len(t, f.runner.Calls, 1)
	assert.True(t, strings.HasPrefix(f.runner.Calls[0], "dotnet publish "))
	assert.Contains(t, f.runner.Calls[0], "-p:ContainerRegistry=registry.example.com")
	require.Len(t, f.client.builds, 1)
	assert.Equal(t, filepath.Join(f.dir, "web", "Dockerfile"), f.client.builds[0].Dockerfile)
	assert.Equal(t, []string{"registry.example.com/web:1.0"}, f.client.pushes)

	root, err := k8s.ReadKustomization(f.cfg.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"namespace.yaml", "dashboard.yaml", "cache", "api", "web", "dapr/statestore.yaml"}, root.Resources)
	for _, rel := range []string{"namespace.yaml", "dashboard.yaml", "dapr/statestore.yaml", "api/deployment.yaml", "api/service.yaml", "cache/kustomization.yaml"} {
		assert.FileExists(t, filepath.Join(f.cfg.OutputPath, rel))
	}

	apiKustomization, err := k8s.ReadKustomization(filepath.Join(f.cfg.OutputPath, "api"))
	require.NoError(t, err)
	require.Len(t, apiKustomization.SecretGenerator, 1)
	assert.Equal(t, []string{".api.secrets"}, apiKustomization.SecretGenerator[0].EnvSources)

	values, err := godotenv.Read(filepath.Join(f.cfg.SecretsDir, "api.env"))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"DB_PASSWORD": "s3cret"}, values)
	assert.Contains(t, state.Files, filepath.Join(f.cfg.SecretsDir, "api.env"))
}

func TestGenerate_InlineSecretsSkipsSecretsStage(t *testing.T) {
	f := newFixture(t, shopManifest)
	f.cfg.InlineSecrets = true
	f.cfg.SkipBuild = true
	f.seedSecret(t, "pg-password", "value", "s3cret")

	state := NewPipelineState(f.cfg, nil)
	require.NoError(t, f.gen.Generate(context.Background(), state))

	assert.Equal(t, []string{StageParse, StageValidate, StageBuild, StageKustomize}, stageNames(state.StageHistory))
	assert.Empty(t, f.runner.Calls)
	assert.Empty(t, f.client.builds)
	assert.FileExists(t, filepath.Join(f.cfg.OutputPath, "api", "secret.yaml"))
	assert.NoFileExists(t, filepath.Join(f.cfg.SecretsDir, "api.env"))
}

func TestGenerate_Compose(t *testing.T) {
	f := newFixture(t, shopManifest)
	f.cfg.OutputFormat = config.OutputCompose
	f.cfg.IncludeDashboard = true
	overrides, err := config.ParseOverrides([]byte("resources:\n  web:\n    composeBuild: true\n"))
	require.NoError(t, err)

	state := NewPipelineState(f.cfg, overrides)
	require.NoError(t, f.gen.Generate(context.Background(), state))

	assert.Equal(t, []string{StageParse, StageValidate, StageBuild, StageCompose}, stageNames(state.StageHistory))
	// web is built by compose, so only the project is published.
	assert.Empty(t, f.client.builds)
	assert.Len(t, f.runner.Calls, 1)

	path := filepath.Join(f.cfg.OutputPath, "docker-compose.yaml")
	assert.Equal(t, []string{path}, state.Files)
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc struct {
		Services map[string]map[string]any `yaml:"services"`
	}
	require.NoError(t, yaml.Unmarshal(data, &doc))
	assert.ElementsMatch(t, []string{"aspire-dashboard", "cache", "api", "api-dapr", "web"}, keys(doc.Services))
	assert.Contains(t, doc.Services["web"], "build")
	assert.NotContains(t, doc.Services["cache"], "build")
}

func TestGenerate_ValidationFailsBeforeWriting(t *testing.T) {
	f := newFixture(t, `{"resources": {
		"cache": {"type": "container.v0", "image": "redis"},
		"broken": {"type": "container.v0"}
	}}`)

	state := NewPipelineState(f.cfg, nil)
	err := f.gen.Generate(context.Background(), state)
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
	assert.Contains(t, err.Error(), "'broken'")

	assert.False(t, state.Success)
	assert.NoDirExists(t, f.cfg.OutputPath)
	outcomes := map[string]StageOutcome{}
	for _, v := range state.StageHistory {
		outcomes[v.StageID] = v.Outcome
	}
	assert.Equal(t, StageOutcomeSuccess, outcomes[StageParse])
	assert.Equal(t, StageOutcomeFailure, outcomes[StageValidate])
	assert.Equal(t, StageOutcomeSkipped, outcomes[StageKustomize])
}

func TestGenerate_MissingManifest(t *testing.T) {
	f := newFixture(t, `{"resources": {}}`)
	f.cfg.ManifestPath = filepath.Join(f.dir, "nope.json")

	err := f.gen.Generate(context.Background(), NewPipelineState(f.cfg, nil))
	require.Error(t, err)
	assert.Equal(t, errors.CodeIoError, errors.CodeOf(err))
}

func TestSettings(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Namespace = "shop"
	cfg.ImagePullPolicy = "always"
	cfg.ServiceType = "LoadBalancer"
	cfg.IncludeDashboard = true
	overrides, err := config.ParseOverrides([]byte(`
resources:
  api:
    ingress: {enabled: true, host: api.example.com}
    annotations: {team: payments}
`))
	require.NoError(t, err)

	settings, err := Settings(cfg, overrides)
	require.NoError(t, err)
	assert.Equal(t, "shop", settings.Namespace)
	assert.Equal(t, descriptor.PullAlways, settings.ImagePullPolicy)
	assert.Equal(t, descriptor.ServiceLoadBalancer, settings.ServiceType)
	assert.True(t, settings.WithDashboard)
	assert.Equal(t, "api.example.com", settings.Ingress["api"].Host)
	assert.Equal(t, map[string]string{"team": "payments"}, settings.Annotations["api"])

	cfg.ServiceType = "Headless"
	_, err = Settings(cfg, nil)
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigurationInvalid, errors.CodeOf(err))
}

func keys(m map[string]map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
