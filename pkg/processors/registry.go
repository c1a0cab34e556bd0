package processors

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/Azure/aspire-deploy/pkg/manifest"
	"github.com/Azure/aspire-deploy/pkg/resources"
	"github.com/rs/zerolog"
)

// Registry maps resource type tags to processors.
type Registry struct {
	mu         sync.RWMutex
	processors map[string]Processor
	fallback   Processor
}

var _ manifest.Deserializer = (*Registry)(nil)

// NewRegistry creates an empty registry. Resources of unregistered types go
// to fallback.
func NewRegistry(fallback Processor) *Registry {
	return &Registry{
		processors: make(map[string]Processor),
		fallback:   fallback,
	}
}

// NewDefaultRegistry registers a processor for every known resource type.
func NewDefaultRegistry(logger zerolog.Logger) *Registry {
	r := NewRegistry(NewExtensionProcessor(logger))
	r.Register(NewProjectProcessor(resources.TypeProject))
	r.Register(NewProjectProcessor(resources.TypeProjectV1))
	r.Register(NewContainerProcessor(resources.TypeContainer))
	r.Register(NewContainerProcessor(resources.TypeContainerV1))
	r.Register(NewDockerfileProcessor())
	r.Register(NewExecutableProcessor())
	r.Register(NewDaprProcessor())
	r.Register(NewDaprComponentProcessor())
	r.Register(NewParameterProcessor())
	r.Register(NewValueProcessor())
	for _, t := range []string{
		resources.TypeBicep,
		resources.TypeBicepV1,
		resources.TypeCloudFormationStack,
		resources.TypeCloudFormationTemplate,
	} {
		r.Register(NewPassthroughProcessor(logger, t))
	}
	return r
}

// Register adds a processor. Registering a type twice is a programming error.
func (r *Registry) Register(p Processor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := p.ResourceType()
	if _, dup := r.processors[t]; dup {
		panic(fmt.Sprintf("duplicate processor registration: %s", t))
	}
	r.processors[t] = p
}

// Get returns the processor for a type tag.
func (r *Registry) Get(resourceType string) (Processor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.processors[resourceType]
	return p, ok
}

// For returns the processor that handles a resource, falling back to the
// extension processor.
func (r *Registry) For(res resources.Resource) Processor {
	if p, ok := r.Get(res.ResourceType()); ok {
		return p
	}
	return r.fallback
}

// Types returns the registered type tags, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.processors))
	for t := range r.processors {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Deserialize dispatches a manifest node to the processor of its type.
func (r *Registry) Deserialize(name string, raw json.RawMessage) (resources.Resource, error) {
	var probe struct {
		Type string `json:"type"`
	}
	// Malformed nodes are reported by the decoder itself.
	_ = json.Unmarshal(raw, &probe)

	if p, ok := r.Get(probe.Type); ok {
		return p.Deserialize(name, raw)
	}
	return r.fallback.Deserialize(name, raw)
}
