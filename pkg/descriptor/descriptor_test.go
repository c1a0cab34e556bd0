package descriptor

import (
	"testing"

	"github.com/Azure/aspire-deploy/pkg/domain/errors"
	"github.com/Azure/aspire-deploy/pkg/resources"
	"github.com/Azure/aspire-deploy/pkg/secrets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func httpBinding(name string, port, target int, external bool) resources.NamedBinding {
	return resources.NamedBinding{Name: name, Binding: resources.Binding{
		Scheme: resources.SchemeHTTP, Protocol: resources.ProtocolTCP, Transport: resources.TransportHTTP,
		Port: port, TargetPort: target, External: external,
	}}
}

func TestValidate(t *testing.T) {
	err := (&Descriptor{}).Validate()
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
	assert.Contains(t, err.Error(), "'name'")

	_, err = New()
	require.Error(t, err)

	d, err := New(WithName("api"))
	require.NoError(t, err)
	assert.NoError(t, d.Validate())
}

func TestNew_Defaults(t *testing.T) {
	d, err := New(WithName("api"))
	require.NoError(t, err)
	assert.Equal(t, PullIfNotPresent, d.ImagePullPolicy)
	assert.Equal(t, ServiceClusterIP, d.ServiceType)
	assert.True(t, d.UseEnvFrom)
	assert.Equal(t, map[string]string{"app": "api"}, d.Labels())
}

func TestWithEnv_DropsEmpty(t *testing.T) {
	d, err := New(WithName("api"), WithEnv(map[string]string{"A": "1", "B": "", "": "x"}))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"A": "1"}, d.Env)
}

func TestPortsFromBindings(t *testing.T) {
	tests := []struct {
		name     string
		binding  resources.NamedBinding
		internal int
		external int
	}{
		{"target only", httpBinding("http", 0, 8080, false), 8080, 8080},
		{"port and target", httpBinding("http", 80, 8080, false), 8080, 80},
		{"port only", httpBinding("http", 5000, 0, false), 5000, 5000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ports := PortsFromBindings(&resources.ContainerResource{}, resources.Bindings{tt.binding})
			require.Len(t, ports, 1)
			assert.Equal(t, tt.internal, ports[0].Internal)
			assert.Equal(t, tt.external, ports[0].External)
			assert.Equal(t, resources.ProtocolTCP, ports[0].Protocol)
		})
	}
}

func TestPortsFromBindings_ProjectDefaults(t *testing.T) {
	ports := PortsFromBindings(&resources.ProjectResource{}, resources.Bindings{
		httpBinding("http", 0, 0, false),
		{Name: "https", Binding: resources.Binding{Scheme: resources.SchemeHTTPS, Protocol: resources.ProtocolTCP, Transport: resources.TransportHTTP}},
	})
	require.Len(t, ports, 2)
	assert.Equal(t, 8080, ports[0].Internal)
	assert.Equal(t, 8443, ports[1].Internal)

	assert.Empty(t, PortsFromBindings(&resources.ContainerResource{}, resources.Bindings{httpBinding("http", 0, 0, false)}))
}

func TestIngressPort(t *testing.T) {
	tests := []struct {
		name     string
		bindings resources.Bindings
		explicit int
		want     int
	}{
		{"binding target port", resources.Bindings{httpBinding("http", 0, 8080, true)}, 0, 8080},
		{"binding port", resources.Bindings{httpBinding("http", 80, 8080, true)}, 0, 80},
		{"explicit wins", resources.Bindings{httpBinding("http", 0, 8080, true)}, 9000, 9000},
		{"external before internal", resources.Bindings{httpBinding("metrics", 0, 9090, false), httpBinding("http", 0, 8080, true)}, 0, 8080},
		{"first binding when none external", resources.Bindings{httpBinding("a", 0, 7000, false), httpBinding("b", 0, 7001, false)}, 0, 7000},
		{"no bindings", nil, 0, 80},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := New(WithName("api"), WithPorts(PortsFromBindings(&resources.ContainerResource{}, tt.bindings)))
			require.NoError(t, err)
			d, err = d.ApplyIngress(Ingress{Enabled: true, Host: "api.example.com", PortNumber: tt.explicit})
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.IngressPort())
		})
	}
}

func TestApplyIngress_Ambiguous(t *testing.T) {
	d, err := New(WithName("api"), WithPorts(PortsFromBindings(&resources.ContainerResource{}, resources.Bindings{
		httpBinding("http", 0, 8080, true),
		httpBinding("admin", 0, 9000, true),
	})))
	require.NoError(t, err)

	_, err = d.ApplyIngress(Ingress{Enabled: true})
	require.Error(t, err)
	assert.Equal(t, errors.CodeAmbiguousBinding, errors.CodeOf(err))
	assert.Contains(t, err.Error(), "resource 'api'")

	resolved, err := d.ApplyIngress(Ingress{Enabled: true, PortNumber: 9000})
	require.NoError(t, err)
	assert.Equal(t, 9000, resolved.IngressPort())
	assert.Equal(t, "/", resolved.Ingress.Path)
	assert.Equal(t, IngressNginx, resolved.Ingress.Controller)

	_, err = d.ApplyIngress(Ingress{})
	assert.NoError(t, err, "disabled ingress is never ambiguous")
}

func TestAppliers_IdempotentAndOrderIndependent(t *testing.T) {
	base, err := New(WithName("api"), WithAnnotations(map[string]string{"a": "1"}), WithSecretKeys("TOKEN"))
	require.NoError(t, err)

	store := secrets.NewMemoryStore()
	store.Set("api", "TOKEN", "t0k3n")
	runAsUser := int64(1000)
	sc := &SecurityContext{RunAsUser: &runAsUser}
	overrides := map[string]string{"a": "2", "b": "3"}

	one := base.ApplyAnnotations(overrides).ApplySecurityContext(sc).SetSecretsFromSecretState(store)
	two := base.SetSecretsFromSecretState(store).ApplySecurityContext(sc).ApplyAnnotations(overrides)
	twice := one.ApplyAnnotations(overrides).ApplySecurityContext(sc).SetSecretsFromSecretState(store)

	assert.Equal(t, one, two)
	assert.Equal(t, one, twice)
	assert.Equal(t, map[string]string{"a": "2", "b": "3"}, one.Annotations)
	assert.Equal(t, map[string]string{"a": "1"}, base.Annotations, "appliers must not mutate the receiver")
	assert.Equal(t, "t0k3n", one.Secrets["TOKEN"])
}

func TestSetSecretsFromSecretState_Unmatched(t *testing.T) {
	d, err := New(WithName("api"), WithSecretKeys("TOKEN", "MISSING"))
	require.NoError(t, err)

	store := secrets.NewMemoryStore()
	store.Set("api", "TOKEN", "t0k3n")

	resolved := d.SetSecretsFromSecretState(store)
	assert.Equal(t, map[string]string{"TOKEN": "t0k3n", "MISSING": ""}, resolved.Secrets)
	assert.Equal(t, map[string]string{"TOKEN": "t0k3n"}, resolved.ResolvedSecrets())

	unknown := d.SetSecretsFromSecretState(secrets.NewMemoryStore())
	assert.Empty(t, unknown.ResolvedSecrets())
}

func TestAllAnnotations_DeploymentTarget(t *testing.T) {
	d, err := New(WithName("api"), WithDeployment(&resources.DeploymentTarget{Type: "azure.bicep.v0", Path: "api.bicep"}))
	require.NoError(t, err)
	assert.Equal(t, "azure.bicep.v0:api.bicep", d.AllAnnotations()[AnnotationDeploymentTarget])
	assert.Empty(t, d.Annotations)
}

func TestParseEnums(t *testing.T) {
	p, err := ParseImagePullPolicy("always")
	require.NoError(t, err)
	assert.Equal(t, PullAlways, p)

	s, err := ParseServiceType("loadbalancer")
	require.NoError(t, err)
	assert.Equal(t, ServiceLoadBalancer, s)

	_, err = ParseIngressController("istio")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nginx, traefik")
}
