// Package descriptor holds the deployment descriptor: the normalized,
// target-independent description of one workload that both the Kubernetes and
// the Compose emitters consume.
package descriptor

import (
	"fmt"
	"maps"

	"github.com/Azure/aspire-deploy/pkg/domain/errors"
	"github.com/Azure/aspire-deploy/pkg/resources"
	"github.com/samber/lo"
)

// Annotation keys written by the compiler.
const (
	AnnotationDeploymentTarget = "aspire.dev/deployment-target"
	LabelApp                   = "app"
)

// Port is one network port of a workload.
type Port struct {
	Name     string
	Internal int
	External int
	Protocol resources.Protocol
	// Exposed marks ports backed by an external binding.
	Exposed bool
}

// Ingress is an externally resolved ingress definition for a workload.
type Ingress struct {
	Enabled    bool
	Host       string
	Path       string
	TLSSecret  string
	PortNumber int
	Controller IngressController
}

// SecurityContext carries pod and container security settings.
type SecurityContext struct {
	RunAsUser                *int64 `json:"runAsUser,omitempty"`
	RunAsGroup               *int64 `json:"runAsGroup,omitempty"`
	FSGroup                  *int64 `json:"fsGroup,omitempty"`
	RunAsNonRoot             *bool  `json:"runAsNonRoot,omitempty"`
	ReadOnlyRootFilesystem   *bool  `json:"readOnlyRootFilesystem,omitempty"`
	AllowPrivilegeEscalation *bool  `json:"allowPrivilegeEscalation,omitempty"`
}

// Dapr enables a Dapr sidecar for the workload.
type Dapr struct {
	AppID      string
	Components []string
}

// Descriptor describes one deployable workload.
type Descriptor struct {
	Name            string
	Namespace       string
	Image           string
	Entrypoint      string
	Args            []string
	Env             map[string]string
	Secrets         map[string]string
	Annotations     map[string]string
	Volumes         []resources.Volume
	BindMounts      []resources.BindMount
	Ports           []Port
	ImagePullPolicy ImagePullPolicy
	ServiceType     ServiceType
	Ingress         Ingress
	SecurityContext *SecurityContext
	Deployment      *resources.DeploymentTarget
	Dapr            *Dapr
	PrivateRegistry bool
	EncodeSecrets   bool
	UseEnvFrom      bool
}

// Option configures a descriptor under construction.
type Option func(*Descriptor)

// New builds and validates a descriptor.
func New(opts ...Option) (*Descriptor, error) {
	d := &Descriptor{
		Env:             map[string]string{},
		Secrets:         map[string]string{},
		Annotations:     map[string]string{},
		ImagePullPolicy: PullIfNotPresent,
		ServiceType:     ServiceClusterIP,
		UseEnvFrom:      true,
	}
	for _, opt := range opts {
		opt(d)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// Validate reports whether the descriptor can be emitted.
func (d *Descriptor) Validate() error {
	if d.Name == "" {
		return errors.New(errors.CodeMissingProperty, "validation", "deployment descriptor: property 'name' is required", nil)
	}
	return nil
}

// WithName sets the workload name.
func WithName(name string) Option {
	return func(d *Descriptor) {
		d.Name = name
	}
}

// WithNamespace sets the target namespace.
func WithNamespace(namespace string) Option {
	return func(d *Descriptor) {
		d.Namespace = namespace
	}
}

// WithImage sets the container image.
func WithImage(image string) Option {
	return func(d *Descriptor) {
		d.Image = image
	}
}

// WithEnv merges plain environment variables. Empty values are dropped.
func WithEnv(env map[string]string) Option {
	return func(d *Descriptor) {
		for k, v := range env {
			if k == "" || v == "" {
				continue
			}
			d.Env[k] = v
		}
	}
}

// WithSecrets merges secret environment variables. An empty value is a
// placeholder that SetSecretsFromSecretState may fill later.
func WithSecrets(secrets map[string]string) Option {
	return func(d *Descriptor) {
		for k, v := range secrets {
			if k == "" {
				continue
			}
			d.Secrets[k] = v
		}
	}
}

// WithSecretKeys adds placeholder secrets for the given keys.
func WithSecretKeys(keys ...string) Option {
	return func(d *Descriptor) {
		for _, k := range keys {
			if _, ok := d.Secrets[k]; !ok && k != "" {
				d.Secrets[k] = ""
			}
		}
	}
}

// WithPorts sets the workload ports.
func WithPorts(ports []Port) Option {
	return func(d *Descriptor) {
		d.Ports = ports
	}
}

// WithVolumes sets the named volumes. Names are normalized.
func WithVolumes(volumes []resources.Volume) Option {
	return func(d *Descriptor) {
		d.Volumes = resources.NormalizedVolumes(volumes)
	}
}

// WithBindMounts sets the bind mounts. Missing names are derived from the source.
func WithBindMounts(mounts []resources.BindMount) Option {
	return func(d *Descriptor) {
		d.BindMounts = resources.NamedBindMounts(mounts)
	}
}

// WithEntrypoint overrides the image entrypoint.
func WithEntrypoint(entrypoint string) Option {
	return func(d *Descriptor) {
		d.Entrypoint = entrypoint
	}
}

// WithArgs sets the container arguments.
func WithArgs(args []string) Option {
	return func(d *Descriptor) {
		d.Args = args
	}
}

// WithAnnotations merges annotations.
func WithAnnotations(annotations map[string]string) Option {
	return func(d *Descriptor) {
		maps.Copy(d.Annotations, annotations)
	}
}

// WithImagePullPolicy sets the pull policy.
func WithImagePullPolicy(policy ImagePullPolicy) Option {
	return func(d *Descriptor) {
		if policy != "" {
			d.ImagePullPolicy = policy
		}
	}
}

// WithServiceType sets the Service type.
func WithServiceType(serviceType ServiceType) Option {
	return func(d *Descriptor) {
		if serviceType != "" {
			d.ServiceType = serviceType
		}
	}
}

// WithDeployment records the cloud stack the resource is provisioned by.
func WithDeployment(target *resources.DeploymentTarget) Option {
	return func(d *Descriptor) {
		d.Deployment = target
	}
}

// WithDapr enables a Dapr sidecar.
func WithDapr(appID string, components []string) Option {
	return func(d *Descriptor) {
		d.Dapr = &Dapr{AppID: appID, Components: components}
	}
}

// WithPrivateRegistry attaches the image pull secret to the pod.
func WithPrivateRegistry(enabled bool) Option {
	return func(d *Descriptor) {
		d.PrivateRegistry = enabled
	}
}

// WithEncodeSecrets base64-encodes secret values once more before emission.
func WithEncodeSecrets(enabled bool) Option {
	return func(d *Descriptor) {
		d.EncodeSecrets = enabled
	}
}

// WithoutEnvFrom inlines environment variables instead of referencing the
// ConfigMap and Secret through envFrom.
func WithoutEnvFrom() Option {
	return func(d *Descriptor) {
		d.UseEnvFrom = false
	}
}

// Labels returns the selector labels of the workload.
func (d *Descriptor) Labels() map[string]string {
	return map[string]string{LabelApp: d.Name}
}

// AllAnnotations returns the annotations including the deployment target marker.
func (d *Descriptor) AllAnnotations() map[string]string {
	out := maps.Clone(d.Annotations)
	if out == nil {
		out = map[string]string{}
	}
	if d.Deployment != nil && d.Deployment.Type != "" {
		target := d.Deployment.Type
		if d.Deployment.Path != "" {
			target = fmt.Sprintf("%s:%s", d.Deployment.Type, d.Deployment.Path)
		}
		out[AnnotationDeploymentTarget] = target
	}
	return out
}

// ResolvedSecrets returns the secrets that carry a value.
func (d *Descriptor) ResolvedSecrets() map[string]string {
	return lo.PickBy(d.Secrets, func(_ string, v string) bool { return v != "" })
}

// ConfigMapName is the name of the ConfigMap holding the plain environment.
func (d *Descriptor) ConfigMapName() string { return d.Name + "-env" }

// SecretName is the name of the Secret holding the secret environment.
func (d *Descriptor) SecretName() string { return d.Name + "-secrets" }

func (d *Descriptor) clone() *Descriptor {
	c := *d
	c.Args = append([]string(nil), d.Args...)
	c.Env = maps.Clone(d.Env)
	c.Secrets = maps.Clone(d.Secrets)
	c.Annotations = maps.Clone(d.Annotations)
	c.Volumes = append([]resources.Volume(nil), d.Volumes...)
	c.BindMounts = append([]resources.BindMount(nil), d.BindMounts...)
	c.Ports = append([]Port(nil), d.Ports...)
	if d.SecurityContext != nil {
		sc := *d.SecurityContext
		c.SecurityContext = &sc
	}
	if d.Dapr != nil {
		dapr := *d.Dapr
		c.Dapr = &dapr
	}
	return &c
}
