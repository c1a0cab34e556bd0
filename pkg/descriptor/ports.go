package descriptor

import (
	"github.com/Azure/aspire-deploy/pkg/resources"
	"github.com/samber/lo"
)

// DefaultIngressPort is used when neither the ingress nor any binding names a port.
const DefaultIngressPort = 80

// PortsFromBindings derives ports from a resource's bindings. The internal port
// is the binding's target port; the external port is the binding's port, or the
// internal port when the binding has none.
func PortsFromBindings(r resources.Resource, bindings resources.Bindings) []Port {
	ports := make([]Port, 0, len(bindings))
	for _, b := range bindings {
		internal := resources.EffectiveTargetPort(r, b.Binding)
		external := b.Port
		if external == 0 {
			external = internal
		}
		if internal == 0 && external == 0 {
			continue
		}
		protocol := b.Protocol
		if protocol == "" {
			protocol = resources.ProtocolTCP
		}
		ports = append(ports, Port{
			Name:     b.Name,
			Internal: internal,
			External: external,
			Protocol: protocol,
			Exposed:  b.External,
		})
	}
	return ports
}

// ExposedPorts returns the ports backed by external bindings.
func (d *Descriptor) ExposedPorts() []Port {
	return lo.Filter(d.Ports, func(p Port, _ int) bool { return p.Exposed })
}

// IngressPort resolves the Service port an Ingress routes to: the explicit
// ingress port, else the first binding's external port, else its internal
// port, else 80. External bindings take precedence when there are any.
func (d *Descriptor) IngressPort() int {
	if d.Ingress.PortNumber != 0 {
		return d.Ingress.PortNumber
	}
	candidates := d.ExposedPorts()
	if len(candidates) == 0 {
		candidates = d.Ports
	}
	if len(candidates) == 0 {
		return DefaultIngressPort
	}
	first := candidates[0]
	switch {
	case first.External != 0:
		return first.External
	case first.Internal != 0:
		return first.Internal
	}
	return DefaultIngressPort
}
