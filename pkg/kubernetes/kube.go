// Package kubernetes applies and deletes generated kustomize trees with kubectl.
package kubernetes

import (
	"context"
	"fmt"
	"strings"

	"github.com/Azure/aspire-deploy/pkg/common/runner"
	"github.com/Azure/aspire-deploy/pkg/domain/errors"
)

const kubectl = "kubectl"

type KubeRunner interface {
	ApplyKustomize(ctx context.Context, dir string) (string, error)
	DeleteKustomize(ctx context.Context, dir string) (string, error)
	SetKubeContext(ctx context.Context, name string) (string, error)
	RolloutStatus(ctx context.Context, resourceType string, resourceName string, namespace string, timeout string) (string, error)
}

type KubeCmdRunner struct {
	runner runner.CommandRunner
}

var _ KubeRunner = &KubeCmdRunner{}

func NewKubeCmdRunner(runner runner.CommandRunner) KubeRunner {
	return &KubeCmdRunner{
		runner: runner,
	}
}

// ApplyKustomize runs kubectl apply -k on a kustomization directory.
func (k *KubeCmdRunner) ApplyKustomize(ctx context.Context, dir string) (string, error) {
	out, err := k.runner.RunCommand(ctx, kubectl, "apply", "-k", dir)
	if err != nil {
		return out, apiError("applying "+dir, out, err)
	}
	return out, nil
}

// DeleteKustomize runs kubectl delete -k, ignoring objects that are already gone.
func (k *KubeCmdRunner) DeleteKustomize(ctx context.Context, dir string) (string, error) {
	out, err := k.runner.RunCommand(ctx, kubectl, "delete", "-k", dir, "--ignore-not-found=true")
	if err != nil {
		return out, apiError("deleting "+dir, out, err)
	}
	return out, nil
}

func (k *KubeCmdRunner) SetKubeContext(ctx context.Context, name string) (string, error) {
	out, err := k.runner.RunCommand(ctx, kubectl, "config", "use-context", name)
	if err != nil {
		return out, apiError("switching to context "+name, out, err)
	}
	return out, nil
}

func (k *KubeCmdRunner) RolloutStatus(ctx context.Context, resourceType string, resourceName string, namespace string, timeout string) (string, error) {
	args := []string{kubectl, "rollout", "status", resourceType + "/" + resourceName}
	if namespace != "" {
		args = append(args, "-n", namespace)
	}
	if timeout != "" {
		args = append(args, "--timeout="+timeout)
	}
	out, err := k.runner.RunCommand(ctx, args...)
	if err != nil {
		return out, apiError(fmt.Sprintf("waiting for %s/%s", resourceType, resourceName), out, err)
	}
	return out, nil
}

func CheckKubectlInstalled() error {
	if !runner.LookPath(kubectl) {
		return errors.New(errors.CodeToolNotFound, "operational", "kubectl executable not found in PATH. Please install kubectl or ensure it's available in your PATH", nil)
	}
	return nil
}

func apiError(action, output string, err error) error {
	msg := "kubectl failed " + action
	if out := strings.TrimSpace(output); out != "" {
		msg += ": " + out
	}
	return errors.Operational(errors.CodeKubernetesApiError, "", msg, err)
}
