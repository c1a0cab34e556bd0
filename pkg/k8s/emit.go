package k8s

import (
	"encoding/base64"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Azure/aspire-deploy/pkg/descriptor"
	"github.com/Azure/aspire-deploy/pkg/domain/errors"
	"github.com/Azure/aspire-deploy/pkg/resources"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/util/intstr"
	"k8s.io/apimachinery/pkg/util/validation"
)

const (
	// ImagePullSecretName is the pull secret referenced in private-registry mode.
	ImagePullSecretName = "image-pull-secret"
	// DefaultVolumeSize is the storage request of every volume claim template.
	DefaultVolumeSize = "1Gi"

	maxPortNameLength = 15
)

// Emit converts a descriptor into Kubernetes objects, in the order
// ConfigMap, Secret, Deployment or StatefulSet, Service, Ingress. Objects that
// do not apply to the descriptor are omitted.
func Emit(d *descriptor.Descriptor) ([]runtime.Object, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if errs := validation.IsDNS1123Label(d.Name); len(errs) > 0 {
		return nil, errors.Validation(errors.CodeInvalidValue, d.Name, "name", strings.Join(errs, "; "))
	}

	var objects []runtime.Object
	if cm := ConfigMap(d); cm != nil {
		objects = append(objects, cm)
	}
	if secret := Secret(d); secret != nil {
		objects = append(objects, secret)
	}
	if len(d.Volumes) > 0 {
		objects = append(objects, StatefulSet(d))
	} else {
		objects = append(objects, Deployment(d))
	}
	if svc := Service(d); svc != nil {
		objects = append(objects, svc)
	}
	if ing := Ingress(d); ing != nil {
		objects = append(objects, ing)
	}
	return objects, nil
}

func objectMeta(d *descriptor.Descriptor, name string) metav1.ObjectMeta {
	return metav1.ObjectMeta{
		Name:      name,
		Namespace: d.Namespace,
		Labels:    d.Labels(),
	}
}

// ConfigMap holds the plain environment, or is nil when there is none.
func ConfigMap(d *descriptor.Descriptor) *corev1.ConfigMap {
	if len(d.Env) == 0 {
		return nil
	}
	data := make(map[string]string, len(d.Env))
	for k, v := range d.Env {
		data[k] = v
	}
	return &corev1.ConfigMap{
		TypeMeta:   metav1.TypeMeta{APIVersion: "v1", Kind: "ConfigMap"},
		ObjectMeta: objectMeta(d, d.ConfigMapName()),
		Data:       data,
	}
}

// Secret holds the resolved secret environment, or is nil when no secret has a
// value. Values are base64-encoded once by serialization; with EncodeSecrets
// they are encoded a second time first.
func Secret(d *descriptor.Descriptor) *corev1.Secret {
	resolved := d.ResolvedSecrets()
	if len(resolved) == 0 {
		return nil
	}
	data := make(map[string][]byte, len(resolved))
	for k, v := range resolved {
		if d.EncodeSecrets {
			v = base64.StdEncoding.EncodeToString([]byte(v))
		}
		data[k] = []byte(v)
	}
	return &corev1.Secret{
		TypeMeta:   metav1.TypeMeta{APIVersion: "v1", Kind: "Secret"},
		ObjectMeta: objectMeta(d, d.SecretName()),
		Type:       corev1.SecretTypeOpaque,
		Data:       data,
	}
}

// Deployment runs a stateless workload.
func Deployment(d *descriptor.Descriptor) *appsv1.Deployment {
	return &appsv1.Deployment{
		TypeMeta:   metav1.TypeMeta{APIVersion: "apps/v1", Kind: "Deployment"},
		ObjectMeta: workloadMeta(d),
		Spec: appsv1.DeploymentSpec{
			Replicas: ptr(int32(1)),
			Selector: &metav1.LabelSelector{MatchLabels: d.Labels()},
			Strategy: appsv1.DeploymentStrategy{Type: appsv1.RollingUpdateDeploymentStrategyType},
			Template: podTemplate(d),
		},
	}
}

// StatefulSet runs a workload with one volume claim template per volume.
func StatefulSet(d *descriptor.Descriptor) *appsv1.StatefulSet {
	claims := make([]corev1.PersistentVolumeClaim, 0, len(d.Volumes))
	for _, v := range d.Volumes {
		claims = append(claims, corev1.PersistentVolumeClaim{
			ObjectMeta: metav1.ObjectMeta{Name: v.Name},
			Spec: corev1.PersistentVolumeClaimSpec{
				AccessModes: []corev1.PersistentVolumeAccessMode{corev1.ReadWriteOnce},
				Resources: corev1.VolumeResourceRequirements{
					Requests: corev1.ResourceList{corev1.ResourceStorage: resource.MustParse(DefaultVolumeSize)},
				},
			},
		})
	}
	return &appsv1.StatefulSet{
		TypeMeta:   metav1.TypeMeta{APIVersion: "apps/v1", Kind: "StatefulSet"},
		ObjectMeta: workloadMeta(d),
		Spec: appsv1.StatefulSetSpec{
			Replicas:             ptr(int32(1)),
			ServiceName:          d.Name,
			Selector:             &metav1.LabelSelector{MatchLabels: d.Labels()},
			Template:             podTemplate(d),
			VolumeClaimTemplates: claims,
		},
	}
}

func workloadMeta(d *descriptor.Descriptor) metav1.ObjectMeta {
	meta := objectMeta(d, d.Name)
	if annotations := d.AllAnnotations(); len(annotations) > 0 {
		meta.Annotations = annotations
	}
	return meta
}

func podTemplate(d *descriptor.Descriptor) corev1.PodTemplateSpec {
	template := corev1.PodTemplateSpec{
		ObjectMeta: metav1.ObjectMeta{Labels: d.Labels()},
		Spec: corev1.PodSpec{
			Containers: []corev1.Container{container(d)},
		},
	}
	if annotations := DaprAnnotations(d); len(annotations) > 0 {
		template.ObjectMeta.Annotations = annotations
	}
	if d.PrivateRegistry {
		template.Spec.ImagePullSecrets = []corev1.LocalObjectReference{{Name: ImagePullSecretName}}
	}
	for _, m := range d.BindMounts {
		template.Spec.Volumes = append(template.Spec.Volumes, corev1.Volume{
			Name: m.Name,
			VolumeSource: corev1.VolumeSource{
				HostPath: &corev1.HostPathVolumeSource{Path: m.Source},
			},
		})
	}
	if sc := d.SecurityContext; sc != nil && (sc.RunAsUser != nil || sc.RunAsGroup != nil || sc.FSGroup != nil || sc.RunAsNonRoot != nil) {
		template.Spec.SecurityContext = &corev1.PodSecurityContext{
			RunAsUser:    sc.RunAsUser,
			RunAsGroup:   sc.RunAsGroup,
			FSGroup:      sc.FSGroup,
			RunAsNonRoot: sc.RunAsNonRoot,
		}
	}
	return template
}

func container(d *descriptor.Descriptor) corev1.Container {
	c := corev1.Container{
		Name:            d.Name,
		Image:           d.Image,
		ImagePullPolicy: corev1.PullPolicy(d.ImagePullPolicy),
		Args:            d.Args,
	}
	if d.Entrypoint != "" {
		c.Command = []string{d.Entrypoint}
	}
	for _, p := range d.Ports {
		c.Ports = append(c.Ports, corev1.ContainerPort{
			Name:          PortName(p.Name),
			ContainerPort: int32(p.Internal),
			Protocol:      protocol(p.Protocol),
		})
	}

	if d.UseEnvFrom {
		if len(d.Env) > 0 {
			c.EnvFrom = append(c.EnvFrom, corev1.EnvFromSource{
				ConfigMapRef: &corev1.ConfigMapEnvSource{LocalObjectReference: corev1.LocalObjectReference{Name: d.ConfigMapName()}},
			})
		}
		if len(d.Secrets) > 0 {
			c.EnvFrom = append(c.EnvFrom, corev1.EnvFromSource{
				SecretRef: &corev1.SecretEnvSource{
					LocalObjectReference: corev1.LocalObjectReference{Name: d.SecretName()},
					Optional:             ptr(true),
				},
			})
		}
	} else {
		for _, k := range sortedKeys(d.Env) {
			c.Env = append(c.Env, corev1.EnvVar{Name: k, Value: d.Env[k]})
		}
		for _, k := range sortedKeys(d.Secrets) {
			c.Env = append(c.Env, corev1.EnvVar{Name: k, ValueFrom: &corev1.EnvVarSource{
				SecretKeyRef: &corev1.SecretKeySelector{
					LocalObjectReference: corev1.LocalObjectReference{Name: d.SecretName()},
					Key:                  k,
					Optional:             ptr(true),
				},
			}})
		}
	}

	for _, v := range d.Volumes {
		c.VolumeMounts = append(c.VolumeMounts, corev1.VolumeMount{Name: v.Name, MountPath: v.Target, ReadOnly: v.IsReadOnly()})
	}
	for _, m := range d.BindMounts {
		c.VolumeMounts = append(c.VolumeMounts, corev1.VolumeMount{Name: m.Name, MountPath: m.Target, ReadOnly: m.IsReadOnly()})
	}

	if sc := d.SecurityContext; sc != nil && (sc.ReadOnlyRootFilesystem != nil || sc.AllowPrivilegeEscalation != nil) {
		c.SecurityContext = &corev1.SecurityContext{
			ReadOnlyRootFilesystem:   sc.ReadOnlyRootFilesystem,
			AllowPrivilegeEscalation: sc.AllowPrivilegeEscalation,
		}
	}
	return c
}

// Service exposes the workload ports, or is nil when there are none.
func Service(d *descriptor.Descriptor) *corev1.Service {
	if len(d.Ports) == 0 {
		return nil
	}
	ports := make([]corev1.ServicePort, 0, len(d.Ports))
	for _, p := range d.Ports {
		ports = append(ports, corev1.ServicePort{
			Name:       PortName(p.Name),
			Port:       int32(p.External),
			TargetPort: intstr.FromInt32(int32(p.Internal)),
			Protocol:   protocol(p.Protocol),
		})
	}
	return &corev1.Service{
		TypeMeta:   metav1.TypeMeta{APIVersion: "v1", Kind: "Service"},
		ObjectMeta: objectMeta(d, d.Name),
		Spec: corev1.ServiceSpec{
			Type:     corev1.ServiceType(d.ServiceType),
			Selector: d.Labels(),
			Ports:    ports,
		},
	}
}

// Ingress routes external traffic to the workload Service, or is nil when
// ingress is not enabled.
func Ingress(d *descriptor.Descriptor) *networkingv1.Ingress {
	if !d.Ingress.Enabled {
		return nil
	}
	path := d.Ingress.Path
	if path == "" {
		path = "/"
	}
	rule := networkingv1.IngressRule{
		Host: d.Ingress.Host,
		IngressRuleValue: networkingv1.IngressRuleValue{
			HTTP: &networkingv1.HTTPIngressRuleValue{
				Paths: []networkingv1.HTTPIngressPath{{
					Path:     path,
					PathType: ptr(networkingv1.PathTypePrefix),
					Backend: networkingv1.IngressBackend{
						Service: &networkingv1.IngressServiceBackend{
							Name: d.Name,
							Port: networkingv1.ServiceBackendPort{Number: int32(d.IngressPort())},
						},
					},
				}},
			},
		},
	}
	ing := &networkingv1.Ingress{
		TypeMeta:   metav1.TypeMeta{APIVersion: "networking.k8s.io/v1", Kind: "Ingress"},
		ObjectMeta: objectMeta(d, d.Name),
		Spec: networkingv1.IngressSpec{
			Rules: []networkingv1.IngressRule{rule},
		},
	}
	if d.Ingress.Controller != "" {
		ing.Spec.IngressClassName = ptr(string(d.Ingress.Controller))
	}
	if d.Ingress.TLSSecret != "" {
		tls := networkingv1.IngressTLS{SecretName: d.Ingress.TLSSecret}
		if d.Ingress.Host != "" {
			tls.Hosts = []string{d.Ingress.Host}
		}
		ing.Spec.TLS = []networkingv1.IngressTLS{tls}
	}
	return ing
}

// DaprAnnotations returns the pod annotations that enable a Dapr sidecar.
func DaprAnnotations(d *descriptor.Descriptor) map[string]string {
	if d.Dapr == nil {
		return nil
	}
	annotations := map[string]string{
		"dapr.io/enabled": "true",
		"dapr.io/app-id":  d.Dapr.AppID,
	}
	if len(d.Ports) > 0 {
		annotations["dapr.io/app-port"] = strconv.Itoa(d.Ports[0].Internal)
	}
	return annotations
}

// PortName turns a binding name into a valid port name: a DNS label of at
// most 15 characters.
func PortName(name string) string {
	n := resources.NormalizeName(name)
	if len(n) > maxPortNameLength {
		n = strings.TrimRight(n[:maxPortNameLength], "-")
	}
	return n
}

func protocol(p resources.Protocol) corev1.Protocol {
	if p == resources.ProtocolUDP {
		return corev1.ProtocolUDP
	}
	return corev1.ProtocolTCP
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func ptr[T any](v T) *T { return &v }

// Kind returns the kind of a typed or unstructured object.
func Kind(obj runtime.Object) string {
	return obj.GetObjectKind().GroupVersionKind().Kind
}

// ObjectName returns metadata.name of an object.
func ObjectName(obj runtime.Object) (string, error) {
	accessor, ok := obj.(metav1.Object)
	if !ok {
		return "", fmt.Errorf("object of kind %s has no metadata", Kind(obj))
	}
	return accessor.GetName(), nil
}
