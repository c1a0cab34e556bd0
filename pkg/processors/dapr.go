package processors

import (
	"context"
	"encoding/json"
	"path"

	"github.com/Azure/aspire-deploy/pkg/domain/errors"
	"github.com/Azure/aspire-deploy/pkg/k8s"
	"github.com/Azure/aspire-deploy/pkg/resources"
	"k8s.io/apimachinery/pkg/runtime"
)

// DaprProcessor validates dapr.v0 resources. The sidecar itself is emitted
// with the application it is attached to.
type DaprProcessor struct{ noArtifacts }

func NewDaprProcessor() *DaprProcessor { return &DaprProcessor{} }

func (p *DaprProcessor) ResourceType() string { return resources.TypeDapr }

func (p *DaprProcessor) Deserialize(name string, raw json.RawMessage) (resources.Resource, error) {
	return decodeAs(resources.TypeDapr, name, raw)
}

func (p *DaprProcessor) Validate(r resources.Resource) error {
	d, err := as[*resources.DaprResource](r, "dapr")
	if err != nil {
		return err
	}
	m := d.Metadata
	switch {
	case m == nil:
		return errors.Missing(d.Name, "dapr")
	case isBlank(m.Application):
		return errors.Missing(d.Name, "application")
	case isBlank(m.AppID):
		return errors.Missing(d.Name, "appId")
	case len(m.Components) == 0:
		return errors.Missing(d.Name, "components")
	}
	return nil
}

func (p *DaprProcessor) ValidateAndCreateManifests(_ context.Context, opts CreateManifestsOptions) error {
	return p.Validate(opts.Resource)
}

// DaprComponentProcessor compiles dapr.component.v0 resources into Dapr
// Component objects. Compose has no equivalent.
type DaprComponentProcessor struct{ noArtifacts }

func NewDaprComponentProcessor() *DaprComponentProcessor { return &DaprComponentProcessor{} }

func (p *DaprComponentProcessor) ResourceType() string { return resources.TypeDaprComponent }

func (p *DaprComponentProcessor) Deserialize(name string, raw json.RawMessage) (resources.Resource, error) {
	return decodeAs(resources.TypeDaprComponent, name, raw)
}

func (p *DaprComponentProcessor) Validate(r resources.Resource) error {
	_, err := p.component(r)
	return err
}

func (p *DaprComponentProcessor) CreateKubernetesObjects(opts CreateKubernetesObjectsOptions) ([]runtime.Object, error) {
	c, err := p.component(opts.Resource)
	if err != nil {
		return nil, err
	}
	return []runtime.Object{k8s.DaprComponent(c, opts.Run.Settings.Namespace)}, nil
}

func (p *DaprComponentProcessor) ValidateAndCreateManifests(_ context.Context, opts CreateManifestsOptions) error {
	if err := requireWriter(opts.Resource.ResourceName(), opts.Writer); err != nil {
		return err
	}
	objects, err := p.CreateKubernetesObjects(CreateKubernetesObjectsOptions{Resource: opts.Resource, Run: opts.Run})
	if err != nil {
		return err
	}
	return opts.Writer.WriteRootFile(path.Join(k8s.DaprDirName, resources.NormalizeName(opts.Resource.ResourceName())+".yaml"), objects...)
}

func (p *DaprComponentProcessor) component(r resources.Resource) (*resources.DaprComponentResource, error) {
	c, err := as[*resources.DaprComponentResource](r, "dapr component")
	if err != nil {
		return nil, err
	}
	switch {
	case c.Component == nil:
		return nil, errors.Missing(c.Name, "daprComponent")
	case isBlank(c.Component.Type):
		return nil, errors.Missing(c.Name, "daprComponent.type")
	}
	return c, nil
}
