package cmd

import (
	"github.com/Azure/aspire-deploy/pkg/build"
	"github.com/Azure/aspire-deploy/pkg/common/runner"
	"github.com/Azure/aspire-deploy/pkg/config"
	"github.com/Azure/aspire-deploy/pkg/kubernetes"
	"github.com/rs/zerolog"
)

// Clients holds the external tool clients the commands drive.
type Clients struct {
	Runner    runner.CommandRunner
	Container build.ContainerClient
	Kube      kubernetes.KubeRunner
}

// ClientsFactory creates the clients for a configuration.
type ClientsFactory func(logger zerolog.Logger, cfg *config.Config) (*Clients, error)

// DefaultClients shells out to the real container builder, dotnet and kubectl.
func DefaultClients(logger zerolog.Logger, cfg *config.Config) (*Clients, error) {
	builder, err := build.ParseContainerBuilder(cfg.ContainerBuilder)
	if err != nil {
		return nil, err
	}
	cmdRunner := &runner.DefaultCommandRunner{}
	return &Clients{
		Runner:    cmdRunner,
		Container: build.NewContainerCmdRunner(cmdRunner, builder),
		Kube:      kubernetes.NewKubeCmdRunner(cmdRunner),
	}, nil
}

// NewClientsFactory returns a factory handing out fixed clients.
func NewClientsFactory(c *Clients) ClientsFactory {
	return func(zerolog.Logger, *config.Config) (*Clients, error) { return c, nil }
}

// shellsOut reports whether the clients run real executables.
func (c *Clients) shellsOut() bool {
	_, ok := c.Runner.(*runner.DefaultCommandRunner)
	return ok
}
