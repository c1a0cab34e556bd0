package processors

import (
	"context"
	"fmt"

	"github.com/Azure/aspire-deploy/pkg/compose"
	"github.com/Azure/aspire-deploy/pkg/descriptor"
	"github.com/Azure/aspire-deploy/pkg/domain/errors"
	"github.com/Azure/aspire-deploy/pkg/k8s"
	"github.com/Azure/aspire-deploy/pkg/resources"
	"github.com/Azure/aspire-deploy/pkg/substitution"
	"github.com/samber/lo"
	"k8s.io/apimachinery/pkg/runtime"
)

// workload is what the container, dockerfile and project processors have in
// common once their resource has been validated.
type workload struct {
	resource    resources.Workload
	image       string
	build       *resources.Build
	entrypoint  string
	volumes     []resources.Volume
	bindMounts  []resources.BindMount
	annotations map[string]string
	deployment  *resources.DeploymentTarget
	isProject   bool
}

func (w workload) name() string { return w.resource.ResourceName() }

// imageFor resolves the one image a workload deploys: the explicit image, or
// the image the build stage recorded for it.
func imageFor(run *Run, name, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if run.Caches == nil {
		return "", errors.Validation(errors.CodeContainerDetailsNotFound, name, "",
			"container details not found, was the image built?")
	}
	return run.Caches.ImageFor(name)
}

// describe turns a workload into a deployment descriptor with all run-wide
// settings and per-resource overrides applied.
func describe(run *Run, w workload, target substitution.Target) (*descriptor.Descriptor, error) {
	name := w.name()
	resolver := substitution.NewResolver(run.Logger, run.Manifest, target, run.Secrets)

	env, err := resolver.ResolveEnv(w.resource)
	if err != nil {
		return nil, err
	}
	args, err := resolver.ResolveArgs(w.resource)
	if err != nil {
		return nil, err
	}
	if run.Settings.WithDashboard {
		otlp := k8s.OTLPEnv(name)
		if target == substitution.TargetCompose {
			otlp = compose.OTLPEnv(name)
		}
		for k, v := range otlp {
			if _, set := env.Plain[k]; !set {
				env.Plain[k] = v
			}
		}
	}

	// Kubernetes object names must be DNS-1123 labels; manifests allow mixed case.
	objectName := name
	if target == substitution.TargetKubernetes {
		objectName = resources.NormalizeName(name)
	}
	opts := []descriptor.Option{
		descriptor.WithName(objectName),
		descriptor.WithNamespace(run.Settings.Namespace),
		descriptor.WithImage(w.image),
		descriptor.WithEnv(env.Plain),
		descriptor.WithSecrets(env.Secrets),
		descriptor.WithPorts(descriptor.PortsFromBindings(w.resource, w.resource.BindingList())),
		descriptor.WithEntrypoint(w.entrypoint),
		descriptor.WithArgs(args),
		descriptor.WithVolumes(w.volumes),
		descriptor.WithBindMounts(w.bindMounts),
		descriptor.WithAnnotations(w.annotations),
		descriptor.WithDeployment(w.deployment),
		descriptor.WithImagePullPolicy(run.Settings.ImagePullPolicy),
		descriptor.WithServiceType(run.Settings.ServiceType),
		descriptor.WithPrivateRegistry(run.Settings.PrivateRegistry),
		descriptor.WithEncodeSecrets(run.Settings.EncodeSecrets),
	}
	if run.Settings.WithoutEnvFrom {
		opts = append(opts, descriptor.WithoutEnvFrom())
	}
	if dapr := daprFor(run, name); dapr != nil {
		opts = append(opts, descriptor.WithDapr(dapr.AppID, dapr.Components))
	}

	d, err := descriptor.New(opts...)
	if err != nil {
		return nil, err
	}
	d = d.ApplyAnnotations(run.Settings.Annotations[name])
	if ingress, ok := run.Settings.Ingress[name]; ok {
		if d, err = d.ApplyIngress(ingress); err != nil {
			return nil, err
		}
	}
	d = d.ApplySecurityContext(run.Settings.SecurityContext[name])
	return d.SetSecretsFromSecretState(run.Secrets), nil
}

// daprFor finds the Dapr sidecar attached to an application.
func daprFor(run *Run, application string) *resources.DaprMetadata {
	if run.Manifest == nil {
		return nil
	}
	for _, r := range run.Manifest.Ordered() {
		dapr, ok := r.(*resources.DaprResource)
		if ok && dapr.Metadata != nil && dapr.Metadata.Application == application {
			return dapr.Metadata
		}
	}
	return nil
}

func (w workload) kubernetesObjects(run *Run) (*descriptor.Descriptor, []runtime.Object, error) {
	image, err := imageFor(run, w.name(), w.image)
	if err != nil {
		return nil, nil, err
	}
	w.image = image
	d, err := describe(run, w, substitution.TargetKubernetes)
	if err != nil {
		return nil, nil, err
	}
	objects, err := k8s.Emit(d)
	if err != nil {
		return nil, nil, err
	}
	return d, objects, nil
}

func (w workload) createManifests(_ context.Context, opts CreateManifestsOptions) error {
	if err := requireWriter(w.name(), opts.Writer); err != nil {
		return err
	}
	d, objects, err := w.kubernetesObjects(opts.Run)
	if err != nil {
		return err
	}
	if err := opts.Writer.WriteResource(d, objects); err != nil {
		return err
	}
	if sink := opts.Run.SecretSink; sink != nil {
		for k, v := range d.ResolvedSecrets() {
			sink.Set(d.Name, k, v)
		}
	}
	return nil
}

func requireWriter(name string, w *k8s.Writer) error {
	if w == nil {
		return errors.New(errors.CodeMissingProperty, "validation",
			fmt.Sprintf("resource '%s': no kustomize writer", name), nil)
	}
	return nil
}

func (w workload) composeEntry(opts CreateComposeEntryOptions) (*compose.Entry, error) {
	run := opts.Run
	var build *resources.Build
	if w.build != nil && lo.Contains(run.Settings.ComposeBuilds, w.name()) {
		build = &resources.Build{
			Context:    run.Manifest.ResolvePath(w.build.Context),
			Dockerfile: run.Manifest.ResolvePath(w.build.Dockerfile),
			Args:       w.build.Args,
		}
		// A tag from the build stage names the image compose produces; it is optional here.
		if w.image == "" {
			w.image, _ = imageFor(run, w.name(), "")
		}
	} else {
		image, err := imageFor(run, w.name(), w.image)
		if err != nil {
			return nil, err
		}
		w.image = image
	}

	d, err := describe(run, w, substitution.TargetCompose)
	if err != nil {
		return nil, err
	}
	return compose.Emit(compose.Options{
		Descriptor: d,
		Build:      build,
		IsProject:  w.isProject,
		Ports:      opts.Ports,
	})
}

func validateVolumes(name string, volumes []resources.Volume) error {
	for i, v := range volumes {
		field := fmt.Sprintf("volumes[%d]", i)
		switch {
		case v.Name == "":
			return errors.Missing(name, field+".name")
		case v.Target == "":
			return errors.Missing(name, field+".target")
		case v.ReadOnly == nil:
			return errors.Missing(name, field+".readOnly")
		}
	}
	return nil
}

func validateBindMounts(name string, mounts []resources.BindMount) error {
	for i, m := range mounts {
		field := fmt.Sprintf("bindMounts[%d]", i)
		switch {
		case m.Source == "":
			return errors.Missing(name, field+".source")
		case m.Target == "":
			return errors.Missing(name, field+".target")
		case m.ReadOnly == nil:
			return errors.Missing(name, field+".readOnly")
		}
	}
	return nil
}

func validateBuild(name string, b *resources.Build) error {
	switch {
	case isBlank(b.Context):
		return errors.Missing(name, "build.context")
	case isBlank(b.Dockerfile):
		return errors.Missing(name, "build.dockerfile")
	}
	return nil
}
