package k8s

import (
	"sort"

	"github.com/Azure/aspire-deploy/pkg/resources"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/util/intstr"
)

// Aspire dashboard defaults.
const (
	DashboardName      = "aspire-dashboard"
	DashboardImage     = "mcr.microsoft.com/dotnet/aspire-dashboard:8.0"
	DashboardUIPort    = 18888
	DashboardOTLPPort  = 18889
	DashboardOTLPURL   = "http://aspire-dashboard:18889"
	DaprComponentGroup = "dapr.io/v1alpha1"
)

// Namespace returns the Namespace object for the output.
func Namespace(name string) *corev1.Namespace {
	return &corev1.Namespace{
		TypeMeta:   metav1.TypeMeta{APIVersion: "v1", Kind: "Namespace"},
		ObjectMeta: metav1.ObjectMeta{Name: name},
	}
}

// Dashboard returns the Deployment and Service of the Aspire dashboard.
func Dashboard(namespace string) []runtime.Object {
	labels := map[string]string{"app": DashboardName}
	deployment := &appsv1.Deployment{
		TypeMeta:   metav1.TypeMeta{APIVersion: "apps/v1", Kind: "Deployment"},
		ObjectMeta: metav1.ObjectMeta{Name: DashboardName, Namespace: namespace, Labels: labels},
		Spec: appsv1.DeploymentSpec{
			Replicas: ptr(int32(1)),
			Selector: &metav1.LabelSelector{MatchLabels: labels},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: labels},
				Spec: corev1.PodSpec{
					TerminationGracePeriodSeconds: ptr(int64(180)),
					Containers: []corev1.Container{{
						Name:            DashboardName,
						Image:           DashboardImage,
						ImagePullPolicy: corev1.PullIfNotPresent,
						Env: []corev1.EnvVar{
							{Name: "DOTNET_DASHBOARD_UNSECURED_ALLOW_ANONYMOUS", Value: "true"},
						},
						Ports: []corev1.ContainerPort{
							{Name: "dashboard-ui", ContainerPort: DashboardUIPort, Protocol: corev1.ProtocolTCP},
							{Name: "otlp", ContainerPort: DashboardOTLPPort, Protocol: corev1.ProtocolTCP},
						},
					}},
				},
			},
		},
	}
	service := &corev1.Service{
		TypeMeta:   metav1.TypeMeta{APIVersion: "v1", Kind: "Service"},
		ObjectMeta: metav1.ObjectMeta{Name: DashboardName, Namespace: namespace, Labels: labels},
		Spec: corev1.ServiceSpec{
			Type:     corev1.ServiceTypeClusterIP,
			Selector: labels,
			Ports: []corev1.ServicePort{
				{Name: "dashboard-ui", Port: 80, TargetPort: intstr.FromInt32(DashboardUIPort), Protocol: corev1.ProtocolTCP},
				{Name: "otlp", Port: DashboardOTLPPort, TargetPort: intstr.FromInt32(DashboardOTLPPort), Protocol: corev1.ProtocolTCP},
			},
		},
	}
	return []runtime.Object{deployment, service}
}

// OTLPEnv returns the variables that point a workload's telemetry at the dashboard.
func OTLPEnv(serviceName string) map[string]string {
	return map[string]string{
		"OTEL_EXPORTER_OTLP_ENDPOINT": DashboardOTLPURL,
		"OTEL_SERVICE_NAME":           serviceName,
	}
}

// DaprComponent returns a dapr.io/v1alpha1 Component for a component resource.
func DaprComponent(r *resources.DaprComponentResource, namespace string) *unstructured.Unstructured {
	obj := &unstructured.Unstructured{}
	obj.SetAPIVersion(DaprComponentGroup)
	obj.SetKind("Component")
	obj.SetName(resources.NormalizeName(r.Name))
	if namespace != "" {
		obj.SetNamespace(namespace)
	}

	spec := map[string]interface{}{}
	if r.Component != nil {
		spec["type"] = r.Component.Type
		version := r.Component.Version
		if version == "" {
			version = "v1"
		}
		spec["version"] = version

		keys := make([]string, 0, len(r.Component.Metadata))
		for k := range r.Component.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		metadata := make([]interface{}, 0, len(keys))
		for _, k := range keys {
			metadata = append(metadata, map[string]interface{}{"name": k, "value": r.Component.Metadata[k]})
		}
		spec["metadata"] = metadata
	}
	obj.Object["spec"] = spec
	return obj
}
