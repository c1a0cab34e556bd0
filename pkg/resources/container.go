package resources

// BuildSecretType is where a build secret is read from.
type BuildSecretType string

const (
	BuildSecretEnv  BuildSecretType = "env"
	BuildSecretFile BuildSecretType = "file"
)

// BuildSecret is a secret made available to an image build.
type BuildSecret struct {
	Type   BuildSecretType `json:"type"`
	Value  string          `json:"value,omitempty"`
	Source string          `json:"source,omitempty"`
}

// Build describes how to produce an image from source.
type Build struct {
	Context    string                 `json:"context"`
	Dockerfile string                 `json:"dockerfile"`
	Args       map[string]string      `json:"args,omitempty"`
	Secrets    map[string]BuildSecret `json:"secrets,omitempty"`
}

// ContainerResource runs a prebuilt image.
type ContainerResource struct {
	Base
	Image            string            `json:"image,omitempty"`
	Entrypoint       string            `json:"entrypoint,omitempty"`
	Args             []string          `json:"args,omitempty"`
	Env              map[string]string `json:"env,omitempty"`
	Bindings         Bindings          `json:"bindings,omitempty"`
	Volumes          []Volume          `json:"volumes,omitempty"`
	BindMounts       []BindMount       `json:"bindMounts,omitempty"`
	ConnectionString string            `json:"connectionString,omitempty"`
	Annotations      map[string]string `json:"annotations,omitempty"`
}

func (r *ContainerResource) EnvVars() map[string]string       { return r.Env }
func (r *ContainerResource) SetEnvVars(env map[string]string) { r.Env = env }
func (r *ContainerResource) BindingList() Bindings            { return r.Bindings }
func (r *ContainerResource) Arguments() []string              { return r.Args }
func (r *ContainerResource) SetArguments(args []string)       { r.Args = args }
func (r *ContainerResource) ConnectionStringValue() string    { return r.ConnectionString }

// ContainerV1Resource may build its image from source instead of naming one.
type ContainerV1Resource struct {
	ContainerResource
	Build      *Build            `json:"build,omitempty"`
	Deployment *DeploymentTarget `json:"deployment,omitempty"`
}

// DockerfileResource builds an image from a Dockerfile.
type DockerfileResource struct {
	Base
	Path             string            `json:"path,omitempty"`
	Context          string            `json:"context,omitempty"`
	BuildArgs        map[string]string `json:"buildArgs,omitempty"`
	Env              map[string]string `json:"env,omitempty"`
	Bindings         Bindings          `json:"bindings,omitempty"`
	ConnectionString string            `json:"connectionString,omitempty"`
}

func (r *DockerfileResource) EnvVars() map[string]string       { return r.Env }
func (r *DockerfileResource) SetEnvVars(env map[string]string) { r.Env = env }
func (r *DockerfileResource) BindingList() Bindings            { return r.Bindings }
func (r *DockerfileResource) Arguments() []string              { return nil }
func (r *DockerfileResource) SetArguments([]string)            {}
func (r *DockerfileResource) ConnectionStringValue() string    { return r.ConnectionString }
