package processors

import (
	"context"
	"encoding/json"

	"github.com/Azure/aspire-deploy/pkg/compose"
	"github.com/Azure/aspire-deploy/pkg/domain/errors"
	"github.com/Azure/aspire-deploy/pkg/resources"
	"k8s.io/apimachinery/pkg/runtime"
)

// DockerfileProcessor handles dockerfile.v0 resources. Their image always
// comes from the build stage.
type DockerfileProcessor struct{}

func NewDockerfileProcessor() *DockerfileProcessor { return &DockerfileProcessor{} }

func (p *DockerfileProcessor) ResourceType() string { return resources.TypeDockerfile }

func (p *DockerfileProcessor) Deserialize(name string, raw json.RawMessage) (resources.Resource, error) {
	return decodeAs(resources.TypeDockerfile, name, raw)
}

func (p *DockerfileProcessor) Validate(r resources.Resource) error {
	_, err := p.workload(r)
	return err
}

func (p *DockerfileProcessor) ValidateAndCreateManifests(ctx context.Context, opts CreateManifestsOptions) error {
	w, err := p.workload(opts.Resource)
	if err != nil {
		return err
	}
	return w.createManifests(ctx, opts)
}

func (p *DockerfileProcessor) CreateComposeEntry(opts CreateComposeEntryOptions) (*compose.Entry, error) {
	w, err := p.workload(opts.Resource)
	if err != nil {
		return nil, err
	}
	return w.composeEntry(opts)
}

func (p *DockerfileProcessor) CreateKubernetesObjects(opts CreateKubernetesObjectsOptions) ([]runtime.Object, error) {
	w, err := p.workload(opts.Resource)
	if err != nil {
		return nil, err
	}
	_, objects, err := w.kubernetesObjects(opts.Run)
	return objects, err
}

func (p *DockerfileProcessor) workload(r resources.Resource) (workload, error) {
	d, err := as[*resources.DockerfileResource](r, "dockerfile")
	if err != nil {
		return workload{}, err
	}
	switch {
	case isBlank(d.Path):
		return workload{}, errors.Missing(d.Name, "path")
	case isBlank(d.Context):
		return workload{}, errors.Missing(d.Name, "context")
	}
	return workload{
		resource: d,
		build: &resources.Build{
			Context:    d.Context,
			Dockerfile: d.Path,
			Args:       d.BuildArgs,
		},
	}, nil
}
