// Package kustomize writes the secret env files a generated kustomize tree
// expects, right before the tree is applied, and removes them afterwards.
package kustomize

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Azure/aspire-deploy/pkg/domain/errors"
	"github.com/Azure/aspire-deploy/pkg/k8s"
	"github.com/Azure/aspire-deploy/pkg/secrets"
	"github.com/rs/zerolog"
)

// Materializer populates secretGenerator env files from a secret store.
type Materializer struct {
	logger   zerolog.Logger
	store    secrets.Store
	disabled bool
	visited  map[string]struct{}
	written  []string
}

// Option configures a Materializer.
type Option func(*Materializer)

// WithDisabled turns the materializer into a no-op.
func WithDisabled(disabled bool) Option {
	return func(m *Materializer) {
		m.disabled = disabled
	}
}

// NewMaterializer creates a materializer reading values from store.
func NewMaterializer(logger zerolog.Logger, store secrets.Store, opts ...Option) *Materializer {
	m := &Materializer{
		logger:  logger.With().Str("component", "secret_materializer").Logger(),
		store:   store,
		visited: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.store == nil {
		m.store = secrets.Disabled{}
	}
	return m
}

// Materialize walks the kustomization at root and every kustomization it
// references through resources, writing each secret env file whose name
// matches a resource the store knows.
func (m *Materializer) Materialize(root string) error {
	if m.disabled {
		m.logger.Debug().Msg("Secrets disabled, nothing to materialize")
		return nil
	}
	return m.walk(root)
}

// Written returns the files written so far.
func (m *Materializer) Written() []string {
	return append([]string(nil), m.written...)
}

func (m *Materializer) walk(dir string) error {
	canonical, err := canonicalPath(dir)
	if err != nil {
		return errors.Operational(errors.CodeIoError, "", fmt.Sprintf("resolving %s", dir), err)
	}
	if _, seen := m.visited[canonical]; seen {
		return nil
	}
	m.visited[canonical] = struct{}{}

	k, err := k8s.ReadKustomization(canonical)
	if err != nil {
		return errors.Operational(errors.CodeIoError, "", fmt.Sprintf("reading kustomization in %s", dir), err)
	}

	for _, gen := range k.SecretGenerator {
		for _, env := range gen.EnvSources {
			if err := m.materialize(filepath.Join(canonical, env)); err != nil {
				return err
			}
		}
	}

	for _, res := range k.Resources {
		sub := filepath.Join(canonical, res)
		if !isKustomizationDir(sub) {
			continue
		}
		if err := m.walk(sub); err != nil {
			return err
		}
	}
	return nil
}

func (m *Materializer) materialize(path string) error {
	resource := ResourceForEnvFile(filepath.Base(path))
	if !m.store.ResourceExists(resource) {
		m.logger.Debug().Str("resource", resource).Str("output_path", path).Msg("No secrets stored for env file")
		return nil
	}

	var b strings.Builder
	for _, key := range m.store.Keys(resource) {
		fmt.Fprintf(&b, "%s=%s\n", key, m.store.GetSecret(resource, key))
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o600); err != nil {
		return errors.Operational(errors.CodeIoError, resource, fmt.Sprintf("writing secret env file %s", path), err)
	}
	// WriteFile keeps the mode of an existing file.
	if err := os.Chmod(path, 0o600); err != nil {
		return errors.Operational(errors.CodeIoError, resource, fmt.Sprintf("restricting %s", path), err)
	}
	m.written = append(m.written, path)
	m.logger.Info().Str("resource", resource).Str("output_path", path).Msg("Materialized secret env file")
	return nil
}

// Cleanup removes every file Materialize wrote. It keeps going past failures
// and reports the first one.
func (m *Materializer) Cleanup() error {
	var first error
	for _, path := range m.written {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			m.logger.Error().Err(err).Str("output_path", path).Msg("Failed to remove secret env file")
			if first == nil {
				first = errors.Operational(errors.CodeIoError, "", fmt.Sprintf("removing %s", path), err)
			}
		}
	}
	m.written = nil
	m.visited = make(map[string]struct{})
	return first
}

// ResourceForEnvFile maps an env file name back to its resource: one leading
// dot and the .secrets suffix are dropped.
func ResourceForEnvFile(base string) string {
	name := strings.TrimPrefix(base, ".")
	return strings.TrimSuffix(name, k8s.SecretsFileSuffix)
}

func canonicalPath(p string) (string, error) {
	resolved, err := filepath.EvalSymlinks(p)
	if err != nil {
		return "", err
	}
	return filepath.Abs(resolved)
}

func isKustomizationDir(p string) bool {
	info, err := os.Stat(p)
	if err != nil || !info.IsDir() {
		return false
	}
	_, err = os.Stat(filepath.Join(p, k8s.KustomizationFileName))
	return err == nil
}
