package pipeline

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/Azure/aspire-deploy/pkg/build"
	"github.com/Azure/aspire-deploy/pkg/common/runner"
	"github.com/Azure/aspire-deploy/pkg/compose"
	"github.com/Azure/aspire-deploy/pkg/config"
	"github.com/Azure/aspire-deploy/pkg/descriptor"
	"github.com/Azure/aspire-deploy/pkg/domain/errors"
	"github.com/Azure/aspire-deploy/pkg/k8s"
	"github.com/Azure/aspire-deploy/pkg/manifest"
	"github.com/Azure/aspire-deploy/pkg/processors"
	"github.com/Azure/aspire-deploy/pkg/resources"
	"github.com/Azure/aspire-deploy/pkg/secrets"
	"github.com/rs/zerolog"
)

// Stage names of the generate pipeline.
const (
	StageParse     = "parse manifest"
	StageValidate  = "validate resources"
	StageBuild     = "build images"
	StageKustomize = "write kustomize tree"
	StageCompose   = "write compose file"
	StageSecrets   = "write secrets"
)

const defaultProjectName = "aspire"

// Generator compiles a manifest into deployment artifacts.
type Generator struct {
	logger   zerolog.Logger
	registry *processors.Registry
	client   build.ContainerClient
	runner   runner.CommandRunner
	out      io.Writer
}

// NewGenerator creates a generator. client builds and pushes images, cmd
// publishes .NET projects.
func NewGenerator(logger zerolog.Logger, registry *processors.Registry, client build.ContainerClient, cmd runner.CommandRunner, out io.Writer) *Generator {
	return &Generator{
		logger:   logger.With().Str("component", "generator").Logger(),
		registry: registry,
		client:   client,
		runner:   cmd,
		out:      out,
	}
}

// Generate runs the generate pipeline for state.Config.
func (g *Generator) Generate(ctx context.Context, state *PipelineState) error {
	return NewRunner(g.logger, g.out, g.Stages(state.Config)...).Run(ctx, state)
}

// Stages returns the generate stages for the configured output format.
func (g *Generator) Stages(cfg *config.Config) []Stage {
	stages := []Stage{
		StageFunc{StageParse, g.parse},
		StageFunc{StageValidate, g.validate},
		StageFunc{StageBuild, g.build},
	}
	if cfg.OutputFormat == config.OutputCompose {
		return append(stages, StageFunc{StageCompose, g.writeCompose})
	}
	stages = append(stages, StageFunc{StageKustomize, g.writeKustomize})
	if secretMode(cfg) == k8s.SecretsGenerated {
		stages = append(stages, StageFunc{StageSecrets, g.writeSecrets})
	}
	return stages
}

func (g *Generator) parse(_ context.Context, state *PipelineState) error {
	m, err := manifest.NewParser(g.logger, g.registry).LoadFile(state.Config.ManifestPath)
	if err != nil {
		return err
	}
	state.Manifest = m
	g.logger.Info().Int("resources", len(m.Order)).Str("manifest", state.Config.ManifestPath).Msg("Loaded manifest")
	return nil
}

// validate checks every resource before anything is built or written.
func (g *Generator) validate(_ context.Context, state *PipelineState) error {
	for _, r := range state.Manifest.Ordered() {
		if err := g.registry.For(r).Validate(r); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) build(ctx context.Context, state *PipelineState) error {
	cfg := state.Config
	opts := build.Options{
		Registry:  cfg.ContainerRegistry,
		Tags:      cfg.ImageTags,
		SkipBuild: cfg.SkipBuild,
	}
	if cfg.OutputFormat == config.OutputCompose {
		opts.Skip = state.Overrides.ComposeBuilds()
	}
	return build.NewStage(g.logger, g.client, g.runner, opts).Run(ctx, state.Manifest, state.Caches)
}

func (g *Generator) writeKustomize(ctx context.Context, state *PipelineState) error {
	cfg := state.Config
	run, err := g.newRun(state)
	if err != nil {
		return err
	}
	mode := secretMode(cfg)
	if mode == k8s.SecretsGenerated {
		run.SecretSink = state.Secrets
	}

	writer := k8s.NewWriter(g.logger, cfg.OutputPath, mode)
	if cfg.Namespace != "" {
		if err := writer.WriteRootFile(k8s.NamespaceFileName, k8s.Namespace(cfg.Namespace)); err != nil {
			return err
		}
	}
	if cfg.IncludeDashboard {
		if err := writer.WriteRootFile(k8s.DashboardFileName, k8s.Dashboard(cfg.Namespace)...); err != nil {
			return err
		}
	}
	for _, r := range state.Manifest.Ordered() {
		opts := processors.CreateManifestsOptions{Resource: r, Run: run, Writer: writer}
		if err := g.registry.For(r).ValidateAndCreateManifests(ctx, opts); err != nil {
			return err
		}
	}
	if err := writer.Finalize(); err != nil {
		return err
	}
	root := filepath.Join(cfg.OutputPath, k8s.KustomizationFileName)
	state.Files = append(state.Files, root)
	g.logger.Info().Str("output_path", cfg.OutputPath).Msg("Generated kustomize tree")
	return nil
}

func (g *Generator) writeCompose(_ context.Context, state *PipelineState) error {
	cfg := state.Config
	run, err := g.newRun(state)
	if err != nil {
		return err
	}

	file := compose.NewFile(g.logger, projectName(state.Manifest))
	if cfg.IncludeDashboard {
		if err := file.AddService(compose.Dashboard()); err != nil {
			return err
		}
	}
	ports := compose.NewPortAllocator()
	for _, r := range state.Manifest.Ordered() {
		entry, err := g.registry.For(r).CreateComposeEntry(processors.CreateComposeEntryOptions{Resource: r, Run: run, Ports: ports})
		if err != nil {
			return err
		}
		if entry == nil {
			continue
		}
		if err := file.Add(entry); err != nil {
			return err
		}
	}
	path, err := file.Write(cfg.OutputPath)
	if err != nil {
		return err
	}
	state.Files = append(state.Files, path)
	return nil
}

func (g *Generator) writeSecrets(_ context.Context, state *PipelineState) error {
	if len(state.Secrets.Resources()) == 0 {
		g.logger.Debug().Msg("No secrets to write")
		return nil
	}
	written, err := secrets.WriteDir(state.Config.SecretsDir, state.Secrets)
	if err != nil {
		return err
	}
	state.Files = append(state.Files, written...)
	g.logger.Info().Int("files", len(written)).Str("secrets_dir", state.Config.SecretsDir).Msg("Wrote secrets")

	if ignored, err := secrets.IsGitIgnored(state.Manifest.Dir, state.Config.SecretsDir); err != nil {
		g.logger.Debug().Err(err).Msg("Could not read .gitignore")
	} else if !ignored {
		g.logger.Warn().Str("secrets_dir", state.Config.SecretsDir).Msg("Secrets directory is not in .gitignore, secret values are stored in plain text")
	}
	return nil
}

func (g *Generator) newRun(state *PipelineState) (*processors.Run, error) {
	settings, err := Settings(state.Config, state.Overrides)
	if err != nil {
		return nil, err
	}
	store, err := loadSecretStore(g.logger, state.Config)
	if err != nil {
		return nil, err
	}
	run := processors.NewRun(g.logger, state.Manifest)
	run.Caches = state.Caches
	run.Secrets = store
	run.Settings = settings
	return run, nil
}

// Settings turns the configuration and per-resource overrides into processor settings.
func Settings(cfg *config.Config, overrides *config.Overrides) (processors.Settings, error) {
	pull, err := descriptor.ParseImagePullPolicy(cfg.ImagePullPolicy)
	if err != nil {
		return processors.Settings{}, errors.New(errors.CodeConfigurationInvalid, "config", "image pull policy", err)
	}
	serviceType, err := descriptor.ParseServiceType(cfg.ServiceType)
	if err != nil {
		return processors.Settings{}, errors.New(errors.CodeConfigurationInvalid, "config", "service type", err)
	}
	if overrides == nil {
		overrides = &config.Overrides{}
	}
	return processors.Settings{
		Namespace:       cfg.Namespace,
		ImagePullPolicy: pull,
		ServiceType:     serviceType,
		PrivateRegistry: cfg.PrivateRegistry,
		EncodeSecrets:   cfg.EncodeSecrets,
		WithDashboard:   cfg.IncludeDashboard,
		Ingress:         overrides.Ingress(),
		Annotations:     overrides.Annotations(),
		SecurityContext: overrides.SecurityContexts(),
		ComposeBuilds:   overrides.ComposeBuilds(),
	}, nil
}

func secretMode(cfg *config.Config) k8s.SecretMode {
	switch {
	case cfg.DisableSecrets:
		return k8s.SecretsDisabled
	case cfg.InlineSecrets:
		return k8s.SecretsInline
	default:
		return k8s.SecretsGenerated
	}
}

// loadSecretStore reads previously stored secret values, so parameter inputs
// the user filled in keep their values across runs.
func loadSecretStore(logger zerolog.Logger, cfg *config.Config) (secrets.Store, error) {
	if cfg.DisableSecrets {
		return secrets.Disabled{}, nil
	}
	if _, err := os.Stat(cfg.SecretsDir); os.IsNotExist(err) {
		logger.Debug().Str("secrets_dir", cfg.SecretsDir).Msg("No secrets directory, starting empty")
		return secrets.NewMemoryStore(), nil
	}
	return secrets.LoadDir(cfg.SecretsDir)
}

func projectName(m *manifest.Manifest) string {
	if m == nil || m.Dir == "" {
		return defaultProjectName
	}
	abs, err := filepath.Abs(m.Dir)
	if err != nil {
		return defaultProjectName
	}
	if name := resources.NormalizeName(filepath.Base(abs)); name != "" {
		return name
	}
	return defaultProjectName
}
