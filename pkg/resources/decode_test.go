package resources

import (
	"encoding/json"
	"testing"

	"github.com/Azure/aspire-deploy/pkg/domain/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func TestRoundTrip(t *testing.T) {
	defaultValue := "s3cr3t"
	tests := []struct {
		name     string
		resource Resource
	}{
		{
			name: "project",
			resource: &ProjectResource{
				Base: Base{Name: "api", Type: TypeProject},
				Path: "../Api/Api.csproj",
				Bindings: Bindings{
					{Name: "http", Binding: Binding{Scheme: SchemeHTTP, Protocol: ProtocolTCP, Transport: TransportHTTP}},
					{Name: "https", Binding: Binding{Scheme: SchemeHTTPS, Protocol: ProtocolTCP, Transport: TransportHTTP, External: true}},
				},
				Env:  map[string]string{"ASPNETCORE_URLS": "http://+:8080"},
				Args: []string{"--verbose"},
			},
		},
		{
			name: "project v1",
			resource: &ProjectV1Resource{
				ProjectResource: ProjectResource{Base: Base{Name: "api", Type: TypeProjectV1}, Path: "Api.csproj"},
				Deployment:      &DeploymentTarget{Type: "azure.bicep.v0", Path: "api.bicep"},
			},
		},
		{
			name: "container",
			resource: &ContainerResource{
				Base:       Base{Name: "cache", Type: TypeContainer},
				Image:      "redis:7",
				Entrypoint: "redis-server",
				Args:       []string{"--save", "60"},
				Bindings: Bindings{
					{Name: "tcp", Binding: Binding{Scheme: SchemeTCP, Protocol: ProtocolTCP, Transport: TransportTCP, TargetPort: 6379}},
				},
				Volumes:          []Volume{{Name: "data", Target: "/data", ReadOnly: boolPtr(false)}},
				BindMounts:       []BindMount{{Source: "./conf", Target: "/conf", ReadOnly: boolPtr(true)}},
				ConnectionString: "{cache.bindings.tcp.host}:{cache.bindings.tcp.port}",
				Annotations:      map[string]string{"team": "core"},
			},
		},
		{
			name: "container v1 with build",
			resource: &ContainerV1Resource{
				ContainerResource: ContainerResource{Base: Base{Name: "web", Type: TypeContainerV1}},
				Build: &Build{
					Context:    "./web",
					Dockerfile: "./web/Dockerfile",
					Args:       map[string]string{"VERSION": "1"},
					Secrets:    map[string]BuildSecret{"TOKEN": {Type: BuildSecretEnv, Value: "abc"}},
				},
			},
		},
		{
			name: "dockerfile",
			resource: &DockerfileResource{
				Base:      Base{Name: "worker", Type: TypeDockerfile},
				Path:      "worker/Dockerfile",
				Context:   "worker",
				BuildArgs: map[string]string{"GO_VERSION": "1.23"},
			},
		},
		{
			name: "executable",
			resource: &ExecutableResource{
				Base:             Base{Name: "job", Type: TypeExecutable},
				Command:          "python",
				WorkingDirectory: "./jobs",
				Args:             []string{"main.py"},
			},
		},
		{
			name: "dapr",
			resource: &DaprResource{
				Base:     Base{Name: "api-dapr", Type: TypeDapr},
				Metadata: &DaprMetadata{Application: "api", AppID: "api", Components: []string{"statestore"}},
			},
		},
		{
			name: "dapr component",
			resource: &DaprComponentResource{
				Base:      Base{Name: "statestore", Type: TypeDaprComponent},
				Component: &DaprComponentSpec{Type: "state.redis", Version: "v1", Metadata: map[string]string{"redisHost": "cache:6379"}},
			},
		},
		{
			name: "parameter",
			resource: &ParameterResource{
				Base:  Base{Name: "password", Type: TypeParameter},
				Value: "{password.inputs.value}",
				Inputs: map[string]ParameterInput{
					"value": {Type: ParameterInputTypeString, Secret: true, Default: &ParameterDefault{Value: &defaultValue}},
				},
			},
		},
		{
			name: "value",
			resource: &ValueResource{
				Base:             Base{Name: "conn", Type: TypeValue},
				ConnectionString: "Server=db",
			},
		},
		{
			name: "bicep",
			resource: &BicepResource{opaque{
				Base:   Base{Name: "storage", Type: TypeBicep},
				Fields: map[string]json.RawMessage{"path": json.RawMessage(`"storage.bicep"`)},
			}},
		},
		{
			name: "cloudformation stack",
			resource: &CloudFormationStackResource{opaque{
				Base:   Base{Name: "stack", Type: TypeCloudFormationStack},
				Fields: map[string]json.RawMessage{"stack-name": json.RawMessage(`"app"`)},
			}},
		},
		{
			name: "extension",
			resource: &ExtensionResource{
				Base: Base{Name: "custom", Type: "acme.widget.v3"},
				Raw:  json.RawMessage(`{"type":"acme.widget.v3","size":3}`),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := Encode(tt.resource)
			require.NoError(t, err)

			decoded, err := Decode(tt.resource.ResourceName(), raw)
			require.NoError(t, err)

			assert.IsType(t, tt.resource, decoded)
			assert.Equal(t, tt.resource, decoded)
		})
	}
}

func TestDecode_Failures(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		code     errors.Code
		contains string
	}{
		{
			name:     "container v0 with build",
			raw:      `{"type":"container.v0","image":"nginx","build":{"context":".","dockerfile":"Dockerfile"}}`,
			code:     errors.CodeTypeConflict,
			contains: "'build'",
		},
		{
			name:     "unexpected property",
			raw:      `{"type":"project.v0","path":"a.csproj","replicas":2}`,
			code:     errors.CodeUnexpectedProperty,
			contains: "unexpected property 'replicas'",
		},
		{
			name:     "deployment on project v0",
			raw:      `{"type":"project.v0","path":"a.csproj","deployment":{"type":"azure.bicep.v0"}}`,
			code:     errors.CodeUnexpectedProperty,
			contains: "'deployment'",
		},
		{
			name:     "bad scheme",
			raw:      `{"type":"project.v0","path":"a.csproj","bindings":{"http":{"scheme":"ftp","protocol":"tcp","transport":"http"}}}`,
			code:     errors.CodeInvalidValue,
			contains: "'bindings.http.scheme'",
		},
		{
			name:     "bad protocol",
			raw:      `{"type":"container.v0","image":"x","bindings":{"dns":{"scheme":"udp","protocol":"icmp","transport":"udp"}}}`,
			code:     errors.CodeInvalidValue,
			contains: "expected one of tcp, udp",
		},
		{
			name:     "bad transport",
			raw:      `{"type":"executable.v0","command":"x","bindings":{"h":{"scheme":"http","protocol":"tcp","transport":"quic"}}}`,
			code:     errors.CodeInvalidValue,
			contains: "'bindings.h.transport'",
		},
		{
			name:     "bad build secret type",
			raw:      `{"type":"container.v1","build":{"context":".","dockerfile":"Dockerfile","secrets":{"T":{"type":"vault"}}}}`,
			code:     errors.CodeInvalidValue,
			contains: "'build.secrets.T.type'",
		},
		{
			name:     "wrong field type",
			raw:      `{"type":"container.v0","image":42}`,
			code:     errors.CodeInvalidValue,
			contains: "'image'",
		},
		{
			name: "not an object",
			raw:  `["container.v0"]`,
			code: errors.CodeManifestInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode("res", json.RawMessage(tt.raw))
			require.Error(t, err)
			assert.True(t, errors.IsValidation(err))
			assert.Equal(t, tt.code, errors.CodeOf(err))
			assert.Contains(t, err.Error(), "resource 'res'")
			if tt.contains != "" {
				assert.Contains(t, err.Error(), tt.contains)
			}
		})
	}
}

func TestDecode_NormalisesEnumCase(t *testing.T) {
	r, err := Decode("api", json.RawMessage(`{"type":"project.v0","path":"a","bindings":{"http":{"scheme":"HTTP","protocol":"TCP","transport":"Http2"}}}`))
	require.NoError(t, err)

	b, ok := r.(*ProjectResource).Bindings.Get("http")
	require.True(t, ok)
	assert.Equal(t, SchemeHTTP, b.Scheme)
	assert.Equal(t, ProtocolTCP, b.Protocol)
	assert.Equal(t, TransportHTTP2, b.Transport)
}

func TestDecode_PreservesBindingOrder(t *testing.T) {
	r, err := Decode("api", json.RawMessage(`{"type":"project.v0","path":"a","bindings":{
		"zeta":{"scheme":"http","protocol":"tcp","transport":"http"},
		"alpha":{"scheme":"https","protocol":"tcp","transport":"http"}}}`))
	require.NoError(t, err)

	bindings := r.(*ProjectResource).Bindings
	require.Len(t, bindings, 2)
	assert.Equal(t, "zeta", bindings[0].Name)
	assert.Equal(t, "alpha", bindings[1].Name)
}

func TestDecode_UnknownAndMissingType(t *testing.T) {
	raw := json.RawMessage(`{"type":"acme.widget.v3","anything":{"goes":true}}`)
	r, err := Decode("widget", raw)
	require.NoError(t, err)
	ext, ok := r.(*ExtensionResource)
	require.True(t, ok)
	assert.Equal(t, "acme.widget.v3", ext.ResourceType())
	assert.JSONEq(t, string(raw), string(ext.Raw))

	r, err = Decode("untyped", json.RawMessage(`{"image":"nginx"}`))
	require.NoError(t, err)
	assert.IsType(t, &ExtensionResource{}, r)
	assert.Empty(t, r.ResourceType())
	assert.Equal(t, "untyped", r.ResourceName())
}

func TestDecodeOrderedObject_Duplicate(t *testing.T) {
	_, err := DecodeOrderedObject([]byte(`{"a":1,"b":2,"a":3}`))
	var dup *DuplicateKeyError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "a", dup.Key)
}

func TestAllowedFields(t *testing.T) {
	fields, restricted := AllowedFields(TypeContainerV1)
	require.True(t, restricted)
	assert.Contains(t, fields, "build")
	assert.IsIncreasing(t, fields)

	_, restricted = AllowedFields(TypeCloudFormationTemplate)
	assert.False(t, restricted)
}
