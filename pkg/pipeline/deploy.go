package pipeline

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Azure/aspire-deploy/pkg/config"
	"github.com/Azure/aspire-deploy/pkg/k8s"
	"github.com/Azure/aspire-deploy/pkg/kubernetes"
	"github.com/Azure/aspire-deploy/pkg/kustomize"
	"github.com/rs/zerolog"
)

// Deployer applies and deletes a generated kustomize tree.
type Deployer struct {
	logger zerolog.Logger
	kube   kubernetes.KubeRunner
	out    io.Writer
}

func NewDeployer(logger zerolog.Logger, kube kubernetes.KubeRunner, out io.Writer) *Deployer {
	if out == nil {
		out = io.Discard
	}
	return &Deployer{
		logger: logger.With().Str("component", "deployer").Logger(),
		kube:   kube,
		out:    out,
	}
}

// Apply writes the secret env files the tree needs, runs kubectl apply -k
// and removes the env files again. It returns the objects found in the input
// path. With cfg.Wait it then waits for each workload to roll out.
func (d *Deployer) Apply(ctx context.Context, cfg *config.Config) ([]k8s.K8sObject, error) {
	dir := target(cfg)
	err := d.withSecrets(ctx, cfg, dir, func() error {
		out, err := d.kube.ApplyKustomize(ctx, dir)
		if err != nil {
			return err
		}
		fmt.Fprint(d.out, out)
		return nil
	})
	if err != nil {
		return nil, err
	}

	objects, err := k8s.FindK8sObjects(cfg.InputPath)
	if err != nil {
		d.logger.Warn().Err(err).Str("input_path", cfg.InputPath).Msg("Could not list applied objects")
		return nil, nil
	}
	workloads := 0
	for _, o := range objects {
		if o.IsWorkload() {
			workloads++
		}
	}
	d.logger.Info().Int("objects", len(objects)).Int("workloads", workloads).Str("path", dir).Msg("Applied kustomize tree")
	if cfg.Wait {
		if err := d.waitForRollout(ctx, cfg, objects); err != nil {
			return objects, err
		}
	}
	return objects, nil
}

func (d *Deployer) waitForRollout(ctx context.Context, cfg *config.Config, objects []k8s.K8sObject) error {
	for _, o := range objects {
		if !o.IsWorkload() {
			continue
		}
		d.logger.Info().Str("object", o.String()).Str("timeout", cfg.WaitTimeout).Msg("Waiting for rollout")
		out, err := d.kube.RolloutStatus(ctx, strings.ToLower(o.Kind), o.Metadata.Name, o.Metadata.Namespace, cfg.WaitTimeout)
		if err != nil {
			return err
		}
		fmt.Fprint(d.out, out)
	}
	return nil
}

// Destroy deletes everything the tree describes. The secret env files are
// materialized for the duration of the call because kubectl renders the
// secret generators before deleting.
func (d *Deployer) Destroy(ctx context.Context, cfg *config.Config) error {
	dir := target(cfg)
	return d.withSecrets(ctx, cfg, dir, func() error {
		out, err := d.kube.DeleteKustomize(ctx, dir)
		if err != nil {
			return err
		}
		fmt.Fprint(d.out, out)
		d.logger.Info().Str("path", dir).Msg("Deleted kustomize tree")
		return nil
	})
}

func (d *Deployer) withSecrets(ctx context.Context, cfg *config.Config, dir string, fn func() error) error {
	if cfg.KubeContext != "" {
		if _, err := d.kube.SetKubeContext(ctx, cfg.KubeContext); err != nil {
			return err
		}
	}
	store, err := loadSecretStore(d.logger, cfg)
	if err != nil {
		return err
	}
	m := kustomize.NewMaterializer(d.logger, store, kustomize.WithDisabled(cfg.DisableSecrets))
	defer func() {
		if err := m.Cleanup(); err != nil {
			d.logger.Error().Err(err).Msg("Failed to remove materialized secrets")
		}
	}()
	if err := m.Materialize(dir); err != nil {
		return err
	}
	return fn()
}

// target is the directory handed to kubectl: the overlay when one is set.
func target(cfg *config.Config) string {
	if strings.TrimSpace(cfg.OverlayPath) != "" {
		return cfg.OverlayPath
	}
	return cfg.InputPath
}
