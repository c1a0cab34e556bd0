// Package build produces the images a manifest deploys and records where they
// were pushed, for the emitters to reference.
package build

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Azure/aspire-deploy/pkg/common/runner"
	"github.com/Azure/aspire-deploy/pkg/domain/errors"
	"github.com/Azure/aspire-deploy/pkg/resources"
)

// ContainerBuilder is the CLI that builds and pushes images.
type ContainerBuilder string

const (
	BuilderDocker  ContainerBuilder = "docker"
	BuilderPodman  ContainerBuilder = "podman"
	BuilderNerdctl ContainerBuilder = "nerdctl"
)

func ListContainerBuilders() []ContainerBuilder {
	return []ContainerBuilder{BuilderDocker, BuilderPodman, BuilderNerdctl}
}

// ParseContainerBuilder accepts a builder name in any case.
func ParseContainerBuilder(s string) (ContainerBuilder, error) {
	for _, b := range ListContainerBuilders() {
		if strings.EqualFold(s, string(b)) {
			return b, nil
		}
	}
	return "", errors.New(errors.CodeConfigurationInvalid, "config",
		fmt.Sprintf("unknown container builder '%s', expected one of %v", s, ListContainerBuilders()), nil)
}

// ImageBuild is one image build request.
type ImageBuild struct {
	Dockerfile string
	Context    string
	Tags       []string
	Args       map[string]string
	Secrets    map[string]resources.BuildSecret
}

type ContainerClient interface {
	Info(ctx context.Context) (string, error)
	Build(ctx context.Context, b ImageBuild) (string, error)
	Push(ctx context.Context, image string) (string, error)
}

type ContainerCmdRunner struct {
	runner  runner.CommandRunner
	builder ContainerBuilder
}

var _ ContainerClient = &ContainerCmdRunner{}

func NewContainerCmdRunner(runner runner.CommandRunner, builder ContainerBuilder) ContainerClient {
	if builder == "" {
		builder = BuilderDocker
	}
	return &ContainerCmdRunner{
		runner:  runner,
		builder: builder,
	}
}

func (c *ContainerCmdRunner) Info(ctx context.Context) (string, error) {
	return c.runner.RunCommand(ctx, string(c.builder), "info")
}

func (c *ContainerCmdRunner) Build(ctx context.Context, b ImageBuild) (string, error) {
	args := []string{string(c.builder), "build", "-f", b.Dockerfile}
	for _, tag := range b.Tags {
		args = append(args, "-t", tag)
	}
	for _, k := range sortedKeys(b.Args) {
		args = append(args, "--build-arg", k+"="+b.Args[k])
	}
	for _, id := range sortedKeys(b.Secrets) {
		s := b.Secrets[id]
		if s.Type == resources.BuildSecretFile {
			args = append(args, "--secret", "id="+id+",src="+s.Source)
		} else {
			args = append(args, "--secret", "id="+id+",env="+id)
		}
	}
	args = append(args, b.Context)
	return c.runner.RunCommand(ctx, args...)
}

func (c *ContainerCmdRunner) Push(ctx context.Context, image string) (string, error) {
	return c.runner.RunCommand(ctx, string(c.builder), "push", image)
}

// CheckBuilderInstalled fails when the builder CLI is not on PATH.
func CheckBuilderInstalled(builder ContainerBuilder) error {
	if !runner.LookPath(string(builder)) {
		return errors.New(errors.CodeToolNotFound, "operational",
			fmt.Sprintf("%s executable not found in PATH. Please install %s or ensure it's available in your PATH", builder, builder), nil)
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
