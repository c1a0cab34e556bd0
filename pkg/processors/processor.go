// Package processors validates manifest resources and compiles them into
// Kubernetes objects and Compose services, one processor per resource type.
package processors

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Azure/aspire-deploy/pkg/buildcache"
	"github.com/Azure/aspire-deploy/pkg/compose"
	"github.com/Azure/aspire-deploy/pkg/descriptor"
	"github.com/Azure/aspire-deploy/pkg/domain/errors"
	"github.com/Azure/aspire-deploy/pkg/k8s"
	"github.com/Azure/aspire-deploy/pkg/manifest"
	"github.com/Azure/aspire-deploy/pkg/resources"
	"github.com/Azure/aspire-deploy/pkg/secrets"
	"github.com/rs/zerolog"
	"k8s.io/apimachinery/pkg/runtime"
)

// Processor validates and compiles one resource type.
type Processor interface {
	ResourceType() string
	Deserialize(name string, raw json.RawMessage) (resources.Resource, error)
	Validate(r resources.Resource) error
	// ValidateAndCreateManifests validates the resource and writes its
	// Kubernetes objects into the kustomize tree.
	ValidateAndCreateManifests(ctx context.Context, opts CreateManifestsOptions) error
	// CreateComposeEntry returns nil when the resource has no Compose service.
	CreateComposeEntry(opts CreateComposeEntryOptions) (*compose.Entry, error)
	CreateKubernetesObjects(opts CreateKubernetesObjectsOptions) ([]runtime.Object, error)
}

// Settings are the run-wide knobs and per-resource overrides.
type Settings struct {
	Namespace       string
	ImagePullPolicy descriptor.ImagePullPolicy
	ServiceType     descriptor.ServiceType
	PrivateRegistry bool
	EncodeSecrets   bool
	WithoutEnvFrom  bool
	// WithDashboard points every workload's telemetry at the Aspire dashboard.
	WithDashboard bool

	Ingress         map[string]descriptor.Ingress
	Annotations     map[string]map[string]string
	SecurityContext map[string]*descriptor.SecurityContext
	// ComposeBuilds lists resources Compose builds from source instead of
	// pulling a prebuilt image.
	ComposeBuilds []string
}

// Run is the state shared by every processor call of one compilation.
type Run struct {
	Logger   zerolog.Logger
	Manifest *manifest.Manifest
	Caches   *buildcache.Caches
	Secrets  secrets.Store
	Settings Settings
	// SecretSink, when set, receives every resolved secret value so it can be
	// written out for the apply stage.
	SecretSink *secrets.MemoryStore
}

// NewRun creates run state with empty caches and no secrets.
func NewRun(logger zerolog.Logger, m *manifest.Manifest) *Run {
	return &Run{
		Logger:   logger.With().Str("component", "processors").Logger(),
		Manifest: m,
		Caches:   buildcache.New(),
		Secrets:  secrets.Disabled{},
		Settings: Settings{
			ImagePullPolicy: descriptor.PullIfNotPresent,
			ServiceType:     descriptor.ServiceClusterIP,
		},
	}
}

// CreateKubernetesObjectsOptions are the inputs of CreateKubernetesObjects.
type CreateKubernetesObjectsOptions struct {
	Resource resources.Resource
	Run      *Run
}

// CreateManifestsOptions are the inputs of ValidateAndCreateManifests.
type CreateManifestsOptions struct {
	Resource resources.Resource
	Run      *Run
	Writer   *k8s.Writer
}

// CreateComposeEntryOptions are the inputs of CreateComposeEntry.
type CreateComposeEntryOptions struct {
	Resource resources.Resource
	Run      *Run
	Ports    *compose.PortAllocator
}

func as[T resources.Resource](r resources.Resource, processor string) (T, error) {
	var zero T
	if r == nil {
		return zero, errors.New(errors.CodeMissingProperty, "validation", "no resource given to the "+processor+" processor", nil)
	}
	v, ok := r.(T)
	if !ok {
		return zero, errors.Validation(errors.CodeTypeConflict, r.ResourceName(), "type",
			fmt.Sprintf("'%s' cannot be handled by the %s processor", r.ResourceType(), processor))
	}
	return v, nil
}

func decodeAs(resourceType, name string, raw json.RawMessage) (resources.Resource, error) {
	r, err := resources.Decode(name, raw)
	if err != nil {
		return nil, err
	}
	if r.ResourceType() != resourceType {
		return nil, errors.Validation(errors.CodeTypeConflict, name, "type",
			fmt.Sprintf("is '%s', expected '%s'", r.ResourceType(), resourceType))
	}
	return r, nil
}

// noArtifacts is embedded by processors whose resources compile to nothing.
type noArtifacts struct{}

func (noArtifacts) CreateComposeEntry(CreateComposeEntryOptions) (*compose.Entry, error) {
	return nil, nil
}

func (noArtifacts) CreateKubernetesObjects(CreateKubernetesObjectsOptions) ([]runtime.Object, error) {
	return nil, nil
}
