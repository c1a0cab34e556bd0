// Package substitution expands manifest placeholders such as
// {cache.bindings.tcp.host} or {password.value} into concrete values for one
// output target, and tracks whether an expansion pulled in a secret.
package substitution

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Azure/aspire-deploy/pkg/domain/errors"
	"github.com/Azure/aspire-deploy/pkg/manifest"
	"github.com/Azure/aspire-deploy/pkg/resources"
	"github.com/Azure/aspire-deploy/pkg/secrets"
	"github.com/rs/zerolog"
)

// Target selects how network placeholders resolve.
type Target string

const (
	// TargetKubernetes resolves ports to the Service port.
	TargetKubernetes Target = "kubernetes"
	// TargetCompose resolves ports to the container port on the compose network.
	TargetCompose Target = "compose"
)

const maxDepth = 10

var placeholder = regexp.MustCompile(`\{([A-Za-z0-9_\-]+)\.([A-Za-z0-9_\-.]+)\}`)

// Resolver expands placeholders against a parsed manifest.
type Resolver struct {
	logger   zerolog.Logger
	manifest *manifest.Manifest
	target   Target
	secrets  secrets.Store
}

// NewResolver creates a resolver. Parameter inputs are looked up in store
// under the parameter's name and the input key.
func NewResolver(logger zerolog.Logger, m *manifest.Manifest, target Target, store secrets.Store) *Resolver {
	if store == nil {
		store = secrets.Disabled{}
	}
	return &Resolver{
		logger:   logger.With().Str("component", "substitution").Logger(),
		manifest: m,
		target:   target,
		secrets:  store,
	}
}

// Result is a string with every placeholder expanded.
type Result struct {
	Value string
	// Secret is true when any expanded placeholder came from a secret parameter input.
	Secret bool
}

// Resolve expands every placeholder in s.
func (r *Resolver) Resolve(owner, s string) (Result, error) {
	return r.resolve(owner, s, 0)
}

func (r *Resolver) resolve(owner, s string, depth int) (Result, error) {
	if depth > maxDepth {
		return Result{}, errors.Validation(errors.CodeInvalidValue, owner, "", fmt.Sprintf("placeholder expansion of '%s' does not terminate", s))
	}
	var (
		out    strings.Builder
		secret bool
		last   int
	)
	for _, loc := range placeholder.FindAllStringSubmatchIndex(s, -1) {
		out.WriteString(s[last:loc[0]])
		last = loc[1]
		name, path := s[loc[2]:loc[3]], s[loc[4]:loc[5]]
		res, err := r.expand(owner, name, path, depth)
		if err != nil {
			return Result{}, err
		}
		secret = secret || res.Secret
		out.WriteString(res.Value)
	}
	out.WriteString(s[last:])
	return Result{Value: out.String(), Secret: secret}, nil
}

func (r *Resolver) expand(owner, name, path string, depth int) (Result, error) {
	target, ok := r.manifest.Get(name)
	if !ok {
		return Result{}, errors.Validation(errors.CodeInvalidValue, owner, "", fmt.Sprintf("placeholder references unknown resource '%s'", name))
	}
	parts := strings.Split(path, ".")

	switch parts[0] {
	case "bindings":
		if len(parts) != 3 {
			break
		}
		return r.binding(owner, target, parts[1], parts[2])
	case "connectionString":
		cs, ok := target.(resources.ConnectionStringer)
		if !ok {
			return Result{}, errors.Validation(errors.CodeInvalidValue, owner, "",
				fmt.Sprintf("resource '%s' has no connection string", name))
		}
		return r.resolve(name, cs.ConnectionStringValue(), depth+1)
	case "value":
		switch t := target.(type) {
		case *resources.ParameterResource:
			return r.resolve(name, t.Value, depth+1)
		case *resources.ValueResource:
			return r.resolve(name, t.ConnectionString, depth+1)
		}
	case "inputs":
		p, ok := target.(*resources.ParameterResource)
		if !ok || len(parts) < 2 || len(parts) > 3 || (len(parts) == 3 && parts[2] != "value") {
			break
		}
		return r.input(p, parts[1]), nil
	}
	return Result{}, errors.Validation(errors.CodeInvalidValue, owner, "",
		fmt.Sprintf("unsupported placeholder '{%s.%s}'", name, path))
}

func (r *Resolver) binding(owner string, target resources.Resource, bindingName, prop string) (Result, error) {
	w, ok := target.(resources.Workload)
	if !ok {
		return Result{}, errors.Validation(errors.CodeInvalidValue, owner, "",
			fmt.Sprintf("resource '%s' has no bindings", target.ResourceName()))
	}
	b, ok := w.BindingList().Get(bindingName)
	if !ok {
		return Result{}, errors.Validation(errors.CodeInvalidValue, owner, "",
			fmt.Sprintf("resource '%s' has no binding '%s'", target.ResourceName(), bindingName))
	}
	host := target.ResourceName()
	if r.target == TargetKubernetes {
		host = resources.NormalizeName(host)
	}
	port := r.port(target, b)

	var value string
	switch prop {
	case "url":
		value = fmt.Sprintf("%s://%s:%d", b.Scheme, host, port)
	case "host":
		value = host
	case "port":
		value = strconv.Itoa(port)
	case "targetPort":
		value = strconv.Itoa(resources.EffectiveTargetPort(target, b))
	case "scheme":
		value = string(b.Scheme)
	default:
		return Result{}, errors.Validation(errors.CodeInvalidValue, owner, "",
			fmt.Sprintf("unsupported binding property '%s'", prop))
	}
	return Result{Value: value}, nil
}

// port is the port other workloads dial: the Service port on Kubernetes, the
// container port on the compose network.
func (r *Resolver) port(target resources.Resource, b resources.Binding) int {
	internal := resources.EffectiveTargetPort(target, b)
	if r.target == TargetCompose || b.Port == 0 {
		return internal
	}
	return b.Port
}

func (r *Resolver) input(p *resources.ParameterResource, key string) Result {
	in := p.Inputs[key]
	if r.secrets.SecretExists(p.Name, key) {
		return Result{Value: r.secrets.GetSecret(p.Name, key), Secret: in.Secret}
	}
	if in.Default != nil && in.Default.Value != nil {
		return Result{Value: *in.Default.Value, Secret: in.Secret}
	}
	r.logger.Warn().Str("resource", p.Name).Str("input", key).Msg("No value for parameter input, leaving it empty")
	return Result{Secret: in.Secret}
}

// Env is a workload's environment split by sensitivity.
type Env struct {
	Plain   map[string]string
	Secrets map[string]string
}

// ResolveEnv expands a workload's environment. Variables whose value pulled in a
// secret parameter go to Secrets, the rest to Plain.
func (r *Resolver) ResolveEnv(w resources.Workload) (Env, error) {
	env := Env{Plain: map[string]string{}, Secrets: map[string]string{}}
	for key, raw := range w.EnvVars() {
		res, err := r.Resolve(w.ResourceName(), raw)
		if err != nil {
			return Env{}, err
		}
		if res.Secret {
			env.Secrets[key] = res.Value
		} else {
			env.Plain[key] = res.Value
		}
	}
	return env, nil
}

// ResolveArgs expands every argument of a workload.
func (r *Resolver) ResolveArgs(w resources.Workload) ([]string, error) {
	args := w.Arguments()
	if len(args) == 0 {
		return nil, nil
	}
	out := make([]string, len(args))
	for i, a := range args {
		res, err := r.Resolve(w.ResourceName(), a)
		if err != nil {
			return nil, err
		}
		out[i] = res.Value
	}
	return out, nil
}
