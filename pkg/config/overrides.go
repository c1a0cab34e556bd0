package config

import (
	"fmt"
	"os"
	"sort"

	"github.com/Azure/aspire-deploy/pkg/descriptor"
	"github.com/Azure/aspire-deploy/pkg/domain/errors"
	"sigs.k8s.io/yaml"
)

// Overrides are per-resource settings the manifest cannot express. They are
// read from a YAML file:
//
//	resources:
//	  api:
//	    ingress: {enabled: true, host: api.example.com, tlsSecret: api-tls}
//	    annotations: {team: payments}
//	    securityContext: {runAsNonRoot: true}
//	    composeBuild: true
type Overrides struct {
	Resources map[string]ResourceOverrides `json:"resources,omitempty"`
}

type ResourceOverrides struct {
	Ingress         *IngressOverride            `json:"ingress,omitempty"`
	Annotations     map[string]string           `json:"annotations,omitempty"`
	SecurityContext *descriptor.SecurityContext `json:"securityContext,omitempty"`
	ComposeBuild    bool                        `json:"composeBuild,omitempty"`
}

type IngressOverride struct {
	Enabled    bool   `json:"enabled"`
	Host       string `json:"host,omitempty"`
	Path       string `json:"path,omitempty"`
	TLSSecret  string `json:"tlsSecret,omitempty"`
	Port       int    `json:"port,omitempty"`
	Controller string `json:"controller,omitempty"`
}

// LoadOverrides reads an overrides file. An empty path yields no overrides.
func LoadOverrides(path string) (*Overrides, error) {
	if path == "" {
		return &Overrides{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Operational(errors.CodeIoError, "", "reading overrides file "+path, err)
	}
	return ParseOverrides(data)
}

// ParseOverrides decodes and validates overrides. Unknown keys are rejected.
func ParseOverrides(data []byte) (*Overrides, error) {
	var o Overrides
	if err := yaml.UnmarshalStrict(data, &o); err != nil {
		return nil, errors.New(errors.CodeConfigurationInvalid, "config", "parsing overrides", err)
	}
	for _, name := range o.names() {
		in := o.Resources[name].Ingress
		if in == nil {
			continue
		}
		if in.Controller != "" {
			controller, err := descriptor.ParseIngressController(in.Controller)
			if err != nil {
				return nil, errors.New(errors.CodeConfigurationInvalid, "config",
					fmt.Sprintf("overrides for '%s': ingress controller", name), err)
			}
			in.Controller = string(controller)
		}
		if in.Port < 0 || in.Port > 65535 {
			return nil, errors.New(errors.CodeConfigurationInvalid, "config",
				fmt.Sprintf("overrides for '%s': ingress port %d out of range", name, in.Port), nil)
		}
	}
	return &o, nil
}

func (o *Overrides) names() []string {
	names := make([]string, 0, len(o.Resources))
	for n := range o.Resources {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Ingress returns the resolved ingress definitions by resource.
func (o *Overrides) Ingress() map[string]descriptor.Ingress {
	out := map[string]descriptor.Ingress{}
	for name, r := range o.Resources {
		if r.Ingress == nil {
			continue
		}
		out[name] = descriptor.Ingress{
			Enabled:    r.Ingress.Enabled,
			Host:       r.Ingress.Host,
			Path:       r.Ingress.Path,
			TLSSecret:  r.Ingress.TLSSecret,
			PortNumber: r.Ingress.Port,
			Controller: descriptor.IngressController(r.Ingress.Controller),
		}
	}
	return out
}

// Annotations returns the annotation overrides by resource.
func (o *Overrides) Annotations() map[string]map[string]string {
	out := map[string]map[string]string{}
	for name, r := range o.Resources {
		if len(r.Annotations) > 0 {
			out[name] = r.Annotations
		}
	}
	return out
}

// SecurityContexts returns the security settings by resource.
func (o *Overrides) SecurityContexts() map[string]*descriptor.SecurityContext {
	out := map[string]*descriptor.SecurityContext{}
	for name, r := range o.Resources {
		if r.SecurityContext != nil {
			out[name] = r.SecurityContext
		}
	}
	return out
}

// ComposeBuilds lists the resources Compose builds from source, sorted.
func (o *Overrides) ComposeBuilds() []string {
	var out []string
	for _, name := range o.names() {
		if o.Resources[name].ComposeBuild {
			out = append(out, name)
		}
	}
	return out
}
