// Package compose turns deployment descriptors into Docker Compose services.
package compose

import (
	"sort"
	"strconv"
	"sync"

	"github.com/Azure/aspire-deploy/pkg/descriptor"
	"github.com/Azure/aspire-deploy/pkg/domain/errors"
	"github.com/Azure/aspire-deploy/pkg/resources"
	"github.com/compose-spec/compose-go/v2/types"
)

const (
	// FirstPublishedPort is the first host port handed to project resources.
	FirstPublishedPort = 10000

	DaprdImage         = "daprio/daprd:latest"
	DashboardName      = "aspire-dashboard"
	DashboardImage     = "mcr.microsoft.com/dotnet/aspire-dashboard:8.0"
	DashboardUIPort    = 18888
	DashboardOTLPPort  = 18889
	DashboardOTLPURL   = "http://aspire-dashboard:18889"
	daprSidecarSuffix  = "-dapr"
	daprComponentsPath = "/components"
)

// PortAllocator hands out published host ports in sequence, starting at 10000.
// Iterating resources in manifest order keeps the assignment stable across runs.
type PortAllocator struct {
	mu   sync.Mutex
	next int
}

// NewPortAllocator creates an allocator starting at FirstPublishedPort.
func NewPortAllocator() *PortAllocator {
	return &PortAllocator{next: FirstPublishedPort}
}

// Next returns the next free port.
func (a *PortAllocator) Next() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	p := a.next
	a.next++
	return p
}

// Entry is the compose output of one resource.
type Entry struct {
	Service types.ServiceConfig
	// Volumes are the named volumes the service mounts.
	Volumes types.Volumes
	// Sidecars are extra services that belong to this resource.
	Sidecars []types.ServiceConfig
}

// Options controls how a descriptor becomes a compose service.
type Options struct {
	Descriptor *descriptor.Descriptor
	// Build makes compose build the image instead of pulling Descriptor.Image.
	Build *resources.Build
	// IsProject publishes every port on a host port from Ports.
	IsProject bool
	Ports     *PortAllocator
}

// Emit builds the compose entry for one resource.
func Emit(opts Options) (*Entry, error) {
	d := opts.Descriptor
	if d == nil {
		return nil, errors.New(errors.CodeMissingProperty, "validation", "compose entry: no deployment descriptor", nil)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}

	svc := types.ServiceConfig{
		Name:          d.Name,
		ContainerName: d.Name,
		Restart:       types.RestartPolicyUnlessStopped,
	}
	switch {
	case opts.Build != nil:
		svc.Build = &types.BuildConfig{
			Context:    opts.Build.Context,
			Dockerfile: opts.Build.Dockerfile,
			Args:       mapping(opts.Build.Args),
		}
		if d.Image != "" {
			svc.Image = d.Image
		}
	case d.Image != "":
		svc.Image = d.Image
	default:
		return nil, errors.Missing(d.Name, "image")
	}

	if d.Entrypoint != "" {
		svc.Entrypoint = types.ShellCommand{d.Entrypoint}
	}
	if len(d.Args) > 0 {
		svc.Command = types.ShellCommand(d.Args)
	}

	env := make(map[string]string, len(d.Env)+len(d.Secrets))
	for k, v := range d.Env {
		env[k] = v
	}
	for k, v := range d.ResolvedSecrets() {
		env[k] = v
	}
	svc.Environment = mapping(env)

	for _, p := range d.Ports {
		port := types.ServicePortConfig{
			Target:   uint32(p.Internal),
			Protocol: string(p.Protocol),
		}
		switch {
		case opts.IsProject && opts.Ports != nil:
			port.Published = strconv.Itoa(opts.Ports.Next())
		default:
			port.Published = strconv.Itoa(p.External)
		}
		svc.Ports = append(svc.Ports, port)
	}

	entry := &Entry{}
	for _, v := range d.Volumes {
		svc.Volumes = append(svc.Volumes, types.ServiceVolumeConfig{
			Type:     types.VolumeTypeVolume,
			Source:   v.Name,
			Target:   v.Target,
			ReadOnly: v.IsReadOnly(),
		})
		if entry.Volumes == nil {
			entry.Volumes = types.Volumes{}
		}
		entry.Volumes[v.Name] = types.VolumeConfig{}
	}
	for _, m := range d.BindMounts {
		svc.Volumes = append(svc.Volumes, types.ServiceVolumeConfig{
			Type:     types.VolumeTypeBind,
			Source:   m.Source,
			Target:   m.Target,
			ReadOnly: m.IsReadOnly(),
		})
	}

	if annotations := d.AllAnnotations(); len(annotations) > 0 {
		svc.Labels = types.Labels(annotations)
	}

	if d.Dapr != nil {
		appPort := 0
		if len(d.Ports) > 0 {
			appPort = d.Ports[0].Internal
		}
		entry.Sidecars = append(entry.Sidecars, DaprSidecar(d.Name, d.Dapr.AppID, appPort))
	}

	entry.Service = svc
	return entry, nil
}

// DaprSidecar returns a daprd service sharing the network namespace of app.
func DaprSidecar(app, appID string, appPort int) types.ServiceConfig {
	command := types.ShellCommand{"./daprd", "-app-id", appID, "-resources-path", daprComponentsPath}
	if appPort != 0 {
		command = append(command, "-app-port", strconv.Itoa(appPort))
	}
	return types.ServiceConfig{
		Name:        app + daprSidecarSuffix,
		Image:       DaprdImage,
		Command:     command,
		NetworkMode: types.NetworkModeServicePrefix + app,
		DependsOn: types.DependsOnConfig{
			app: types.ServiceDependency{Condition: types.ServiceConditionStarted, Required: true},
		},
		Restart: types.RestartPolicyUnlessStopped,
	}
}

// Dashboard returns the Aspire dashboard service.
func Dashboard() types.ServiceConfig {
	return types.ServiceConfig{
		Name:          DashboardName,
		ContainerName: DashboardName,
		Image:         DashboardImage,
		Environment:   mapping(map[string]string{"DOTNET_DASHBOARD_UNSECURED_ALLOW_ANONYMOUS": "true"}),
		Ports: []types.ServicePortConfig{
			{Target: DashboardUIPort, Published: strconv.Itoa(DashboardUIPort), Protocol: "tcp"},
		},
		Expose:  types.StringOrNumberList{strconv.Itoa(DashboardOTLPPort)},
		Restart: types.RestartPolicyUnlessStopped,
	}
}

// OTLPEnv returns the variables that point a service's telemetry at the dashboard.
func OTLPEnv(serviceName string) map[string]string {
	return map[string]string{
		"OTEL_EXPORTER_OTLP_ENDPOINT": DashboardOTLPURL,
		"OTEL_SERVICE_NAME":           serviceName,
	}
}

func mapping(m map[string]string) types.MappingWithEquals {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make(types.MappingWithEquals, len(m))
	for _, k := range keys {
		v := m[k]
		out[k] = &v
	}
	return out
}
