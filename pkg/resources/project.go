package resources

// DeploymentTarget references the cloud stack a resource is provisioned by.
// It is carried through untouched and only surfaces as an annotation.
type DeploymentTarget struct {
	Type   string         `json:"type"`
	Path   string         `json:"path,omitempty"`
	Params map[string]any `json:"params,omitempty"`
}

// ProjectResource is a .NET project that is published as a container image.
type ProjectResource struct {
	Base
	Path     string            `json:"path,omitempty"`
	Bindings Bindings          `json:"bindings,omitempty"`
	Env      map[string]string `json:"env,omitempty"`
	Args     []string          `json:"args,omitempty"`
}

func (r *ProjectResource) EnvVars() map[string]string       { return r.Env }
func (r *ProjectResource) SetEnvVars(env map[string]string) { r.Env = env }
func (r *ProjectResource) BindingList() Bindings            { return r.Bindings }
func (r *ProjectResource) Arguments() []string              { return r.Args }
func (r *ProjectResource) SetArguments(args []string)       { r.Args = args }

// ProjectV1Resource adds a deployment target to a project.
type ProjectV1Resource struct {
	ProjectResource
	Deployment *DeploymentTarget `json:"deployment,omitempty"`
}

// ExecutableResource is a process launched from a command on the host.
type ExecutableResource struct {
	Base
	Command          string            `json:"command,omitempty"`
	WorkingDirectory string            `json:"workingDirectory,omitempty"`
	Args             []string          `json:"args,omitempty"`
	Env              map[string]string `json:"env,omitempty"`
	Bindings         Bindings          `json:"bindings,omitempty"`
}

func (r *ExecutableResource) EnvVars() map[string]string       { return r.Env }
func (r *ExecutableResource) SetEnvVars(env map[string]string) { r.Env = env }
func (r *ExecutableResource) BindingList() Bindings            { return r.Bindings }
func (r *ExecutableResource) Arguments() []string              { return r.Args }
func (r *ExecutableResource) SetArguments(args []string)       { r.Args = args }
