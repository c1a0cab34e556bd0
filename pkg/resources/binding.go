package resources

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Scheme is the URI scheme of a binding.
type Scheme string

const (
	SchemeHTTP  Scheme = "http"
	SchemeHTTPS Scheme = "https"
	SchemeTCP   Scheme = "tcp"
	SchemeUDP   Scheme = "udp"
)

// ListSchemes returns the closed set of schemes.
func ListSchemes() []Scheme {
	return []Scheme{SchemeHTTP, SchemeHTTPS, SchemeTCP, SchemeUDP}
}

// ParseScheme validates a scheme string.
func ParseScheme(s string) (Scheme, error) {
	for _, v := range ListSchemes() {
		if string(v) == strings.ToLower(s) {
			return v, nil
		}
	}
	return "", fmt.Errorf("invalid value '%s', expected one of %s", s, joinEnum(ListSchemes()))
}

// Protocol is the transport-layer protocol of a binding.
type Protocol string

const (
	ProtocolTCP Protocol = "tcp"
	ProtocolUDP Protocol = "udp"
)

// ListProtocols returns the closed set of protocols.
func ListProtocols() []Protocol {
	return []Protocol{ProtocolTCP, ProtocolUDP}
}

// ParseProtocol validates a protocol string.
func ParseProtocol(s string) (Protocol, error) {
	for _, v := range ListProtocols() {
		if string(v) == strings.ToLower(s) {
			return v, nil
		}
	}
	return "", fmt.Errorf("invalid value '%s', expected one of %s", s, joinEnum(ListProtocols()))
}

// Transport is the application transport of a binding.
type Transport string

const (
	TransportHTTP  Transport = "http"
	TransportHTTP2 Transport = "http2"
	TransportTCP   Transport = "tcp"
	TransportUDP   Transport = "udp"
)

// ListTransports returns the closed set of transports.
func ListTransports() []Transport {
	return []Transport{TransportHTTP, TransportHTTP2, TransportTCP, TransportUDP}
}

// ParseTransport validates a transport string.
func ParseTransport(s string) (Transport, error) {
	for _, v := range ListTransports() {
		if string(v) == strings.ToLower(s) {
			return v, nil
		}
	}
	return "", fmt.Errorf("invalid value '%s', expected one of %s", s, joinEnum(ListTransports()))
}

func joinEnum[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}

// Binding is a named network endpoint exposed by a resource.
type Binding struct {
	Scheme     Scheme    `json:"scheme"`
	Protocol   Protocol  `json:"protocol"`
	Transport  Transport `json:"transport"`
	Port       int       `json:"port,omitempty"`
	TargetPort int       `json:"targetPort,omitempty"`
	External   bool      `json:"external,omitempty"`
}

// NamedBinding pairs a binding with its key in the manifest.
type NamedBinding struct {
	Name string
	Binding
}

// Bindings keeps manifest order, which decides the "first binding" used by
// ingress port resolution.
type Bindings []NamedBinding

// Get returns the binding with the given name.
func (b Bindings) Get(name string) (Binding, bool) {
	for _, nb := range b {
		if nb.Name == name {
			return nb.Binding, true
		}
	}
	return Binding{}, false
}

// External returns the bindings flagged external, in order.
func (b Bindings) External() Bindings {
	var out Bindings
	for _, nb := range b {
		if nb.External {
			out = append(out, nb)
		}
	}
	return out
}

func (b Bindings) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, nb := range b {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(nb.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(nb.Binding)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (b *Bindings) UnmarshalJSON(data []byte) error {
	members, err := DecodeOrderedObject(data)
	if err != nil {
		return err
	}
	out := make(Bindings, 0, len(members))
	for _, m := range members {
		var binding Binding
		if err := json.Unmarshal(m.Value, &binding); err != nil {
			return fmt.Errorf("binding %s: %w", m.Key, err)
		}
		out = append(out, NamedBinding{Name: m.Key, Binding: binding})
	}
	*b = out
	return nil
}

// validate checks the closed enumerations and normalises their case.
func (b Bindings) validate(resource string) error {
	for i := range b {
		nb := &b[i]
		field := "bindings." + nb.Name
		scheme, err := ParseScheme(string(nb.Scheme))
		if err != nil {
			return invalidValue(resource, field+".scheme", err)
		}
		protocol, err := ParseProtocol(string(nb.Protocol))
		if err != nil {
			return invalidValue(resource, field+".protocol", err)
		}
		transport, err := ParseTransport(string(nb.Transport))
		if err != nil {
			return invalidValue(resource, field+".transport", err)
		}
		nb.Scheme, nb.Protocol, nb.Transport = scheme, protocol, transport
	}
	return nil
}

// Default container ports for project bindings that do not declare a target port.
const (
	DefaultProjectHTTPPort  = 8080
	DefaultProjectHTTPSPort = 8443
)

// EffectiveTargetPort is the port the workload listens on for a binding. An
// explicit target port wins; projects fall back to the default ASP.NET ports
// for their scheme; anything else falls back to the binding's port.
func EffectiveTargetPort(r Resource, b Binding) int {
	if b.TargetPort != 0 {
		return b.TargetPort
	}
	if IsProject(r) {
		switch b.Scheme {
		case SchemeHTTP:
			return DefaultProjectHTTPPort
		case SchemeHTTPS:
			return DefaultProjectHTTPSPort
		}
	}
	return b.Port
}

// IsProject reports whether the resource is a .NET project.
func IsProject(r Resource) bool {
	switch r.(type) {
	case *ProjectResource, *ProjectV1Resource:
		return true
	}
	return false
}
