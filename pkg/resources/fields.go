package resources

import (
	"sort"

	"github.com/samber/lo"
)

var (
	projectFields    = []string{"type", "path", "bindings", "env", "args"}
	containerFields  = []string{"type", "image", "entrypoint", "args", "env", "bindings", "volumes", "bindMounts", "connectionString", "annotations"}
	dockerfileFields = []string{"type", "path", "context", "buildArgs", "env", "bindings", "connectionString"}
)

// allowedFields is the set of JSON properties each resource type accepts. A nil
// entry means the type is passed through and any property is kept.
var allowedFields = map[string][]string{
	TypeProject:                projectFields,
	TypeProjectV1:              append(append([]string{}, projectFields...), "deployment"),
	TypeContainer:              containerFields,
	TypeContainerV1:            append(append([]string{}, containerFields...), "build", "deployment"),
	TypeDockerfile:             dockerfileFields,
	TypeExecutable:             {"type", "command", "workingDirectory", "args", "env", "bindings"},
	TypeDapr:                   {"type", "dapr"},
	TypeDaprComponent:          {"type", "daprComponent"},
	TypeParameter:              {"type", "value", "inputs"},
	TypeValue:                  {"type", "connectionString", "values"},
	TypeBicep:                  {"type", "path", "params", "connectionString"},
	TypeBicepV1:                {"type", "path", "params", "connectionString", "scope"},
	TypeCloudFormationStack:    nil,
	TypeCloudFormationTemplate: nil,
}

// AllowedFields returns the sorted property allowlist for a resource type and
// whether the type restricts its properties at all.
func AllowedFields(resourceType string) ([]string, bool) {
	fields, ok := allowedFields[resourceType]
	if !ok || fields == nil {
		return nil, false
	}
	out := append([]string(nil), fields...)
	sort.Strings(out)
	return out, true
}

func isAllowed(resourceType, field string) bool {
	fields, ok := allowedFields[resourceType]
	if !ok || fields == nil {
		return true
	}
	return lo.Contains(fields, field)
}
