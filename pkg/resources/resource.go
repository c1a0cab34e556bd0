// Package resources is the in-memory model of an Aspire manifest: one Go type per
// resource variant, closed under the Resource interface, plus an extension variant
// that carries unrecognised resources through untouched.
package resources

import (
	"sort"
)

// Resource type discriminators.
const (
	TypeProject                = "project.v0"
	TypeProjectV1              = "project.v1"
	TypeContainer              = "container.v0"
	TypeContainerV1            = "container.v1"
	TypeDockerfile             = "dockerfile.v0"
	TypeExecutable             = "executable.v0"
	TypeDapr                   = "dapr.v0"
	TypeDaprComponent          = "dapr.component.v0"
	TypeParameter              = "parameter.v0"
	TypeValue                  = "value.v0"
	TypeBicep                  = "azure.bicep.v0"
	TypeBicepV1                = "azure.bicep.v1"
	TypeCloudFormationStack    = "aws.cloudformation.stack.v0"
	TypeCloudFormationTemplate = "aws.cloudformation.template.v0"
)

// Resource is implemented by every resource variant in this package.
type Resource interface {
	ResourceName() string
	ResourceType() string
	SetName(name string)
	isResource()
}

// Base carries the fields every resource has.
type Base struct {
	Name string `json:"-"`
	Type string `json:"type"`
}

func (b *Base) ResourceName() string { return b.Name }
func (b *Base) ResourceType() string { return b.Type }
func (b *Base) SetName(name string)  { b.Name = name }
func (*Base) isResource()            {}

// Workload is implemented by resources that end up as a running container.
type Workload interface {
	Resource
	EnvVars() map[string]string
	SetEnvVars(env map[string]string)
	BindingList() Bindings
	Arguments() []string
	SetArguments(args []string)
}

// ConnectionStringer is implemented by resources that publish a connection string.
type ConnectionStringer interface {
	Resource
	ConnectionStringValue() string
}

var constructors = map[string]func() Resource{
	TypeProject:                func() Resource { return &ProjectResource{} },
	TypeProjectV1:              func() Resource { return &ProjectV1Resource{} },
	TypeContainer:              func() Resource { return &ContainerResource{} },
	TypeContainerV1:            func() Resource { return &ContainerV1Resource{} },
	TypeDockerfile:             func() Resource { return &DockerfileResource{} },
	TypeExecutable:             func() Resource { return &ExecutableResource{} },
	TypeDapr:                   func() Resource { return &DaprResource{} },
	TypeDaprComponent:          func() Resource { return &DaprComponentResource{} },
	TypeParameter:              func() Resource { return &ParameterResource{} },
	TypeValue:                  func() Resource { return &ValueResource{} },
	TypeBicep:                  func() Resource { return &BicepResource{} },
	TypeBicepV1:                func() Resource { return &BicepV1Resource{} },
	TypeCloudFormationStack:    func() Resource { return &CloudFormationStackResource{} },
	TypeCloudFormationTemplate: func() Resource { return &CloudFormationTemplateResource{} },
}

// IsKnownType reports whether the discriminator maps to a concrete variant.
func IsKnownType(resourceType string) bool {
	_, ok := constructors[resourceType]
	return ok
}

// KnownTypes lists every recognised discriminator, sorted.
func KnownTypes() []string {
	out := make([]string, 0, len(constructors))
	for t := range constructors {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// newResource returns a zero value of the variant for the discriminator, or an
// ExtensionResource when the type is not recognised.
func newResource(resourceType string) Resource {
	if ctor, ok := constructors[resourceType]; ok {
		return ctor()
	}
	return &ExtensionResource{}
}
