package processors

import (
	"context"
	"encoding/json"

	"github.com/Azure/aspire-deploy/pkg/compose"
	"github.com/Azure/aspire-deploy/pkg/resources"
	"github.com/rs/zerolog"
	"k8s.io/apimachinery/pkg/runtime"
)

// PassthroughProcessor accepts cloud provisioning resources (Bicep,
// CloudFormation). They are provisioned elsewhere and compile to nothing.
type PassthroughProcessor struct {
	noArtifacts
	logger       zerolog.Logger
	resourceType string
}

func NewPassthroughProcessor(logger zerolog.Logger, resourceType string) *PassthroughProcessor {
	return &PassthroughProcessor{
		logger:       logger.With().Str("component", "passthrough_processor").Logger(),
		resourceType: resourceType,
	}
}

func (p *PassthroughProcessor) ResourceType() string { return p.resourceType }

func (p *PassthroughProcessor) Deserialize(name string, raw json.RawMessage) (resources.Resource, error) {
	return decodeAs(p.resourceType, name, raw)
}

func (p *PassthroughProcessor) Validate(resources.Resource) error { return nil }

func (p *PassthroughProcessor) ValidateAndCreateManifests(_ context.Context, opts CreateManifestsOptions) error {
	p.logger.Debug().
		Str("resource", opts.Resource.ResourceName()).
		Str("resource_type", p.resourceType).
		Msg("Provisioned outside the cluster, nothing to generate")
	return nil
}

// ExtensionProcessor handles resources whose type is not recognised.
type ExtensionProcessor struct {
	logger zerolog.Logger
}

func NewExtensionProcessor(logger zerolog.Logger) *ExtensionProcessor {
	return &ExtensionProcessor{logger: logger.With().Str("component", "extension_processor").Logger()}
}

func (p *ExtensionProcessor) ResourceType() string { return "extension" }

func (p *ExtensionProcessor) Deserialize(name string, raw json.RawMessage) (resources.Resource, error) {
	return resources.Decode(name, raw)
}

func (p *ExtensionProcessor) Validate(resources.Resource) error { return nil }

func (p *ExtensionProcessor) ValidateAndCreateManifests(_ context.Context, opts CreateManifestsOptions) error {
	p.skip(opts.Resource)
	return nil
}

func (p *ExtensionProcessor) CreateComposeEntry(opts CreateComposeEntryOptions) (*compose.Entry, error) {
	p.skip(opts.Resource)
	return nil, nil
}

func (p *ExtensionProcessor) CreateKubernetesObjects(opts CreateKubernetesObjectsOptions) ([]runtime.Object, error) {
	p.skip(opts.Resource)
	return nil, nil
}

func (p *ExtensionProcessor) skip(r resources.Resource) {
	p.logger.Warn().
		Str("resource", r.ResourceName()).
		Str("resource_type", r.ResourceType()).
		Msg("Unsupported resource type, skipping")
}
