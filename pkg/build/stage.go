package build

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Azure/aspire-deploy/pkg/buildcache"
	"github.com/Azure/aspire-deploy/pkg/common/runner"
	"github.com/Azure/aspire-deploy/pkg/domain/errors"
	"github.com/Azure/aspire-deploy/pkg/manifest"
	"github.com/Azure/aspire-deploy/pkg/resources"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// Options controls the build stage.
type Options struct {
	Registry string
	// Tags applied to every built image. Defaults to latest.
	Tags []string
	// SkipBuild only computes the image references.
	SkipBuild bool
	// Skip names resources whose images are built elsewhere, such as by Compose.
	Skip []string
}

// Stage builds every image a manifest needs and fills the run caches.
type Stage struct {
	logger  zerolog.Logger
	client  ContainerClient
	runner  runner.CommandRunner
	options Options
	// ready is set once the builder has answered.
	ready bool
}

// NewStage creates a build stage. The command runner publishes .NET projects;
// the container client builds and pushes everything else.
func NewStage(logger zerolog.Logger, client ContainerClient, cmd runner.CommandRunner, options Options) *Stage {
	if len(options.Tags) == 0 {
		options.Tags = []string{"latest"}
	}
	return &Stage{
		logger:  logger.With().Str("component", "build_stage").Logger(),
		client:  client,
		runner:  cmd,
		options: options,
	}
}

// Run visits the resources in manifest order. Explicit images are recorded as
// they are; buildable resources get container details and, unless building is
// skipped, are built and pushed.
func (s *Stage) Run(ctx context.Context, m *manifest.Manifest, caches *buildcache.Caches) error {
	for _, r := range m.Ordered() {
		if err := s.resource(ctx, m, caches, r); err != nil {
			return err
		}
	}
	return nil
}

func (s *Stage) resource(ctx context.Context, m *manifest.Manifest, caches *buildcache.Caches, r resources.Resource) error {
	name := r.ResourceName()
	switch res := r.(type) {
	case *resources.ContainerResource:
		return caches.Images.Put(name, res.Image)
	case *resources.ContainerV1Resource:
		if res.Build == nil {
			return caches.Images.Put(name, res.Image)
		}
		return s.image(ctx, caches, name, ImageBuild{
			Dockerfile: m.ResolvePath(res.Build.Dockerfile),
			Context:    m.ResolvePath(res.Build.Context),
			Args:       res.Build.Args,
			Secrets:    res.Build.Secrets,
		})
	case *resources.DockerfileResource:
		return s.image(ctx, caches, name, ImageBuild{
			Dockerfile: m.ResolvePath(res.Path),
			Context:    m.ResolvePath(res.Context),
			Args:       res.BuildArgs,
		})
	case *resources.ProjectResource:
		return s.project(ctx, caches, name, m.ResolvePath(res.Path))
	case *resources.ProjectV1Resource:
		return s.project(ctx, caches, name, m.ResolvePath(res.Path))
	}
	return nil
}

func (s *Stage) details(name string) buildcache.ContainerDetails {
	return buildcache.ContainerDetails{
		Registry:   s.options.Registry,
		Repository: name,
		Tags:       s.options.Tags,
	}
}

func (s *Stage) skip(name string) bool {
	return s.options.SkipBuild || lo.Contains(s.options.Skip, name)
}

func (s *Stage) image(ctx context.Context, caches *buildcache.Caches, name string, b ImageBuild) error {
	details := s.details(name)
	if !s.skip(name) {
		if err := s.preflight(ctx); err != nil {
			return err
		}
		b.Tags = details.Images()
		s.logger.Info().Str("resource", name).Strs("tags", b.Tags).Msg("Building image")
		if out, err := s.client.Build(ctx, b); err != nil {
			return errors.Operational(errors.CodeImageBuildFailed, name, fmt.Sprintf("building image for '%s': %s", name, out), err)
		}
		if s.options.Registry != "" {
			for _, image := range b.Tags {
				if out, err := s.client.Push(ctx, image); err != nil {
					return errors.Operational(errors.CodeImagePushFailed, name, fmt.Sprintf("pushing %s: %s", image, out), err)
				}
			}
		}
	}
	return caches.Details.Put(name, details)
}

// preflight asks the builder for its status before the first build, so an
// installed but stopped runtime fails with one clear error.
func (s *Stage) preflight(ctx context.Context) error {
	if s.ready {
		return nil
	}
	if out, err := s.client.Info(ctx); err != nil {
		return errors.Operational(errors.CodeRuntimeUnavailable, "",
			fmt.Sprintf("container builder is not answering: %s", strings.TrimSpace(out)), err)
	}
	s.ready = true
	return nil
}

// project publishes a .NET project straight to a container image with the
// SDK container target. The SDK pushes when a registry is set.
func (s *Stage) project(ctx context.Context, caches *buildcache.Caches, name, path string) error {
	details := s.details(name)
	if !s.skip(name) {
		args := []string{
			"dotnet", "publish", path,
			"-t:PublishContainer",
			"--nologo",
			"--verbosity", "quiet",
			"-r", "linux-x64",
			"-p:ContainerRepository=" + name,
			tagsProperty(s.options.Tags),
		}
		if s.options.Registry != "" {
			args = append(args, "-p:ContainerRegistry="+s.options.Registry)
		}
		s.logger.Info().Str("resource", name).Str("path", path).Msg("Publishing project container")
		if out, err := s.runner.RunCommandInDir(ctx, filepath.Dir(path), args...); err != nil {
			return errors.Operational(errors.CodeImageBuildFailed, name, fmt.Sprintf("publishing project '%s': %s", name, out), err)
		}
	}
	return caches.Details.Put(name, details)
}

// tagsProperty sets the image tags. MSBuild splits properties on ';', so a
// tag list is escaped.
func tagsProperty(tags []string) string {
	if len(tags) == 1 {
		return "-p:ContainerImageTag=" + tags[0]
	}
	return "-p:ContainerImageTags=" + strings.Join(tags, "%3B")
}
