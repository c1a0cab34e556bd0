package processors

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/Azure/aspire-deploy/pkg/compose"
	"github.com/Azure/aspire-deploy/pkg/domain/errors"
	"github.com/Azure/aspire-deploy/pkg/resources"
	"k8s.io/apimachinery/pkg/runtime"
)

// ContainerProcessor handles container.v0 and container.v1 resources.
type ContainerProcessor struct {
	resourceType string
}

// NewContainerProcessor creates the processor for one container type tag.
func NewContainerProcessor(resourceType string) *ContainerProcessor {
	return &ContainerProcessor{resourceType: resourceType}
}

func (p *ContainerProcessor) ResourceType() string { return p.resourceType }

func (p *ContainerProcessor) Deserialize(name string, raw json.RawMessage) (resources.Resource, error) {
	return decodeAs(p.resourceType, name, raw)
}

func (p *ContainerProcessor) Validate(r resources.Resource) error {
	_, err := p.workload(r)
	return err
}

func (p *ContainerProcessor) ValidateAndCreateManifests(ctx context.Context, opts CreateManifestsOptions) error {
	w, err := p.workload(opts.Resource)
	if err != nil {
		return err
	}
	return w.createManifests(ctx, opts)
}

func (p *ContainerProcessor) CreateComposeEntry(opts CreateComposeEntryOptions) (*compose.Entry, error) {
	w, err := p.workload(opts.Resource)
	if err != nil {
		return nil, err
	}
	return w.composeEntry(opts)
}

func (p *ContainerProcessor) CreateKubernetesObjects(opts CreateKubernetesObjectsOptions) ([]runtime.Object, error) {
	w, err := p.workload(opts.Resource)
	if err != nil {
		return nil, err
	}
	_, objects, err := w.kubernetesObjects(opts.Run)
	return objects, err
}

// workload validates the resource and unpacks it.
func (p *ContainerProcessor) workload(r resources.Resource) (workload, error) {
	var (
		c          *resources.ContainerResource
		build      *resources.Build
		deployment *resources.DeploymentTarget
	)
	if p.resourceType == resources.TypeContainerV1 {
		v1, err := as[*resources.ContainerV1Resource](r, "container")
		if err != nil {
			return workload{}, err
		}
		c, build, deployment = &v1.ContainerResource, v1.Build, v1.Deployment
	} else {
		v0, err := as[*resources.ContainerResource](r, "container")
		if err != nil {
			return workload{}, err
		}
		c = v0
	}

	name := r.ResourceName()
	hasImage := !isBlank(c.Image)
	switch {
	case p.resourceType == resources.TypeContainer && !hasImage:
		return workload{}, errors.Missing(name, "image")
	case hasImage && build != nil:
		return workload{}, errors.Validation(errors.CodeTypeConflict, name, "build", "cannot be combined with 'image'")
	case !hasImage && build == nil:
		return workload{}, errors.Validation(errors.CodeMissingProperty, name, "image", "or 'build' is required")
	}
	if build != nil {
		if err := validateBuild(name, build); err != nil {
			return workload{}, err
		}
	}
	if err := validateVolumes(name, c.Volumes); err != nil {
		return workload{}, err
	}
	if err := validateBindMounts(name, c.BindMounts); err != nil {
		return workload{}, err
	}

	return workload{
		resource:    c,
		image:       c.Image,
		build:       build,
		entrypoint:  c.Entrypoint,
		volumes:     c.Volumes,
		bindMounts:  c.BindMounts,
		annotations: c.Annotations,
		deployment:  deployment,
	}, nil
}

func isBlank(s string) bool { return strings.TrimSpace(s) == "" }
