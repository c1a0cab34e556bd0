package processors

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/Azure/aspire-deploy/pkg/domain/errors"
	"github.com/Azure/aspire-deploy/pkg/resources"
)

// ParameterProcessor validates parameter.v0 resources. Their values reach
// workloads through placeholder substitution.
type ParameterProcessor struct{ noArtifacts }

func NewParameterProcessor() *ParameterProcessor { return &ParameterProcessor{} }

func (p *ParameterProcessor) ResourceType() string { return resources.TypeParameter }

func (p *ParameterProcessor) Deserialize(name string, raw json.RawMessage) (resources.Resource, error) {
	return decodeAs(resources.TypeParameter, name, raw)
}

func (p *ParameterProcessor) Validate(r resources.Resource) error {
	param, err := as[*resources.ParameterResource](r, "parameter")
	if err != nil {
		return err
	}
	switch {
	case isBlank(param.Value):
		return errors.Missing(param.Name, "value")
	case len(param.Inputs) == 0:
		return errors.Missing(param.Name, "inputs")
	}

	keys := make([]string, 0, len(param.Inputs))
	for k := range param.Inputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if t := param.Inputs[k].Type; t != resources.ParameterInputTypeString {
			return errors.Validation(errors.CodeInvalidValue, param.Name, "inputs."+k+".type",
				fmt.Sprintf("must be '%s', got '%s'", resources.ParameterInputTypeString, t))
		}
	}
	return nil
}

func (p *ParameterProcessor) ValidateAndCreateManifests(_ context.Context, opts CreateManifestsOptions) error {
	return p.Validate(opts.Resource)
}

// ValueProcessor accepts value.v0 resources as they are.
type ValueProcessor struct{ noArtifacts }

func NewValueProcessor() *ValueProcessor { return &ValueProcessor{} }

func (p *ValueProcessor) ResourceType() string { return resources.TypeValue }

func (p *ValueProcessor) Deserialize(name string, raw json.RawMessage) (resources.Resource, error) {
	return decodeAs(resources.TypeValue, name, raw)
}

func (p *ValueProcessor) Validate(r resources.Resource) error {
	_, err := as[*resources.ValueResource](r, "value")
	return err
}

func (p *ValueProcessor) ValidateAndCreateManifests(_ context.Context, opts CreateManifestsOptions) error {
	return p.Validate(opts.Resource)
}
