package processors

import (
	"context"
	"encoding/json"

	"github.com/Azure/aspire-deploy/pkg/compose"
	"github.com/Azure/aspire-deploy/pkg/domain/errors"
	"github.com/Azure/aspire-deploy/pkg/resources"
	"k8s.io/apimachinery/pkg/runtime"
)

// ProjectProcessor handles project.v0 and project.v1 resources. Projects are
// published as images by the build stage; Compose publishes their ports on
// sequential host ports.
type ProjectProcessor struct {
	resourceType string
}

func NewProjectProcessor(resourceType string) *ProjectProcessor {
	return &ProjectProcessor{resourceType: resourceType}
}

func (p *ProjectProcessor) ResourceType() string { return p.resourceType }

func (p *ProjectProcessor) Deserialize(name string, raw json.RawMessage) (resources.Resource, error) {
	return decodeAs(p.resourceType, name, raw)
}

func (p *ProjectProcessor) Validate(r resources.Resource) error {
	_, err := p.workload(r)
	return err
}

func (p *ProjectProcessor) ValidateAndCreateManifests(ctx context.Context, opts CreateManifestsOptions) error {
	w, err := p.workload(opts.Resource)
	if err != nil {
		return err
	}
	return w.createManifests(ctx, opts)
}

func (p *ProjectProcessor) CreateComposeEntry(opts CreateComposeEntryOptions) (*compose.Entry, error) {
	w, err := p.workload(opts.Resource)
	if err != nil {
		return nil, err
	}
	return w.composeEntry(opts)
}

func (p *ProjectProcessor) CreateKubernetesObjects(opts CreateKubernetesObjectsOptions) ([]runtime.Object, error) {
	w, err := p.workload(opts.Resource)
	if err != nil {
		return nil, err
	}
	_, objects, err := w.kubernetesObjects(opts.Run)
	return objects, err
}

func (p *ProjectProcessor) workload(r resources.Resource) (workload, error) {
	var (
		project    *resources.ProjectResource
		deployment *resources.DeploymentTarget
	)
	if p.resourceType == resources.TypeProjectV1 {
		v1, err := as[*resources.ProjectV1Resource](r, "project")
		if err != nil {
			return workload{}, err
		}
		project, deployment = &v1.ProjectResource, v1.Deployment
	} else {
		v0, err := as[*resources.ProjectResource](r, "project")
		if err != nil {
			return workload{}, err
		}
		project = v0
	}
	if isBlank(project.Path) {
		return workload{}, errors.Missing(project.Name, "path")
	}
	return workload{
		resource:   project,
		deployment: deployment,
		isProject:  true,
	}, nil
}
