package descriptor

import (
	"fmt"
	"strings"
)

// ImagePullPolicy mirrors the Kubernetes container pull policy.
type ImagePullPolicy string

const (
	PullAlways       ImagePullPolicy = "Always"
	PullIfNotPresent ImagePullPolicy = "IfNotPresent"
	PullNever        ImagePullPolicy = "Never"
)

// ListImagePullPolicies returns the accepted pull policies.
func ListImagePullPolicies() []ImagePullPolicy {
	return []ImagePullPolicy{PullAlways, PullIfNotPresent, PullNever}
}

// ParseImagePullPolicy accepts a pull policy in any case.
func ParseImagePullPolicy(s string) (ImagePullPolicy, error) {
	return parseEnum(s, ListImagePullPolicies())
}

// ServiceType mirrors the Kubernetes Service type.
type ServiceType string

const (
	ServiceClusterIP    ServiceType = "ClusterIP"
	ServiceNodePort     ServiceType = "NodePort"
	ServiceLoadBalancer ServiceType = "LoadBalancer"
)

// ListServiceTypes returns the accepted service types.
func ListServiceTypes() []ServiceType {
	return []ServiceType{ServiceClusterIP, ServiceNodePort, ServiceLoadBalancer}
}

// ParseServiceType accepts a service type in any case.
func ParseServiceType(s string) (ServiceType, error) {
	return parseEnum(s, ListServiceTypes())
}

// IngressController selects the ingress class written on Ingress objects.
type IngressController string

const (
	IngressNginx   IngressController = "nginx"
	IngressTraefik IngressController = "traefik"
)

// ListIngressControllers returns the supported ingress controllers.
func ListIngressControllers() []IngressController {
	return []IngressController{IngressNginx, IngressTraefik}
}

// ParseIngressController accepts a controller name in any case.
func ParseIngressController(s string) (IngressController, error) {
	return parseEnum(s, ListIngressControllers())
}

func parseEnum[T ~string](s string, values []T) (T, error) {
	for _, v := range values {
		if strings.EqualFold(string(v), s) {
			return v, nil
		}
	}
	names := make([]string, len(values))
	for i, v := range values {
		names[i] = string(v)
	}
	var zero T
	return zero, fmt.Errorf("invalid value '%s', expected one of %s", s, strings.Join(names, ", "))
}
