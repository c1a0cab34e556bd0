package processors

import (
	"context"
	"encoding/json"

	"github.com/Azure/aspire-deploy/pkg/domain/errors"
	"github.com/Azure/aspire-deploy/pkg/resources"
)

// ExecutableProcessor validates executable.v0 resources. Host processes have
// no deployment artifact.
type ExecutableProcessor struct{ noArtifacts }

func NewExecutableProcessor() *ExecutableProcessor { return &ExecutableProcessor{} }

func (p *ExecutableProcessor) ResourceType() string { return resources.TypeExecutable }

func (p *ExecutableProcessor) Deserialize(name string, raw json.RawMessage) (resources.Resource, error) {
	return decodeAs(resources.TypeExecutable, name, raw)
}

func (p *ExecutableProcessor) Validate(r resources.Resource) error {
	e, err := as[*resources.ExecutableResource](r, "executable")
	if err != nil {
		return err
	}
	if isBlank(e.Command) {
		return errors.Missing(e.Name, "command")
	}
	return nil
}

func (p *ExecutableProcessor) ValidateAndCreateManifests(_ context.Context, opts CreateManifestsOptions) error {
	return p.Validate(opts.Resource)
}
