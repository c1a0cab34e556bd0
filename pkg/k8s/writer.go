package k8s

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Azure/aspire-deploy/pkg/descriptor"
	"github.com/Azure/aspire-deploy/pkg/domain/errors"
	"github.com/rs/zerolog"
	"k8s.io/apimachinery/pkg/runtime"
	"sigs.k8s.io/kustomize/api/types"
	"sigs.k8s.io/yaml"
)

// File names of the generated kustomize tree.
const (
	KustomizationFileName = "kustomization.yaml"
	NamespaceFileName     = "namespace.yaml"
	DashboardFileName     = "dashboard.yaml"
	DaprDirName           = "dapr"
	SecretsFileSuffix     = ".secrets"
)

// SecretsFileName is the env file a resource's secretGenerator reads. It is
// written by the secret materializer just before apply.
func SecretsFileName(resource string) string {
	return "." + resource + SecretsFileSuffix
}

// SecretMode decides how secret environment reaches the cluster.
type SecretMode int

const (
	// SecretsGenerated writes a kustomize secretGenerator over an env file that
	// is materialized at apply time.
	SecretsGenerated SecretMode = iota
	// SecretsInline writes the Secret object next to the workload.
	SecretsInline
	// SecretsDisabled drops secrets entirely.
	SecretsDisabled
)

// Writer lays out emitted objects as a kustomize tree under one output path.
type Writer struct {
	logger     zerolog.Logger
	outputPath string
	secrets    SecretMode
	entries    []string
}

// NewWriter creates a writer rooted at outputPath.
func NewWriter(logger zerolog.Logger, outputPath string, secrets SecretMode) *Writer {
	return &Writer{
		logger:     logger.With().Str("component", "kustomize_writer").Logger(),
		outputPath: outputPath,
		secrets:    secrets,
	}
}

// OutputPath returns the root of the tree.
func (w *Writer) OutputPath() string { return w.outputPath }

// WriteResource writes one workload's objects to <output>/<name>/ with a
// kustomization listing them, and registers the directory with the root.
func (w *Writer) WriteResource(d *descriptor.Descriptor, objects []runtime.Object) error {
	dir := filepath.Join(w.outputPath, d.Name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ioError(d.Name, "creating output directory "+dir, err)
	}

	k := newKustomization()
	for _, obj := range objects {
		switch Kind(obj) {
		case "ConfigMap":
			continue
		case "Secret":
			if w.secrets != SecretsInline {
				continue
			}
		}
		file := strings.ToLower(Kind(obj)) + ".yaml"
		if err := writeObjects(filepath.Join(dir, file), obj); err != nil {
			return ioError(d.Name, "writing "+file, err)
		}
		k.Resources = append(k.Resources, file)
	}

	if len(d.Env) > 0 {
		k.ConfigMapGenerator = append(k.ConfigMapGenerator, types.ConfigMapArgs{
			GeneratorArgs: types.GeneratorArgs{
				Name:          d.ConfigMapName(),
				KvPairSources: types.KvPairSources{LiteralSources: literals(d.Env)},
				Options:       &types.GeneratorOptions{DisableNameSuffixHash: true},
			},
		})
	}
	// Unresolved secrets get no generator: the env file would never be
	// materialized and the pod's secretRef is optional.
	if w.secrets == SecretsGenerated && len(d.ResolvedSecrets()) > 0 {
		k.SecretGenerator = append(k.SecretGenerator, types.SecretArgs{
			GeneratorArgs: types.GeneratorArgs{
				Name:          d.SecretName(),
				KvPairSources: types.KvPairSources{EnvSources: []string{SecretsFileName(d.Name)}},
				Options:       &types.GeneratorOptions{DisableNameSuffixHash: true},
			},
			Type: "Opaque",
		})
	}

	if err := writeKustomization(dir, k); err != nil {
		return ioError(d.Name, "writing kustomization", err)
	}
	w.entries = append(w.entries, d.Name)
	w.logger.Info().Str("resource", d.Name).Str("output_path", dir).Msg("Generated manifests")
	return nil
}

// WriteRootFile writes objects to a file relative to the output root, as one
// multi-document YAML, and registers it with the root kustomization.
func (w *Writer) WriteRootFile(rel string, objects ...runtime.Object) error {
	path := filepath.Join(w.outputPath, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return ioError("", "creating directory for "+rel, err)
	}
	if err := writeObjects(path, objects...); err != nil {
		return ioError("", "writing "+rel, err)
	}
	w.entries = append(w.entries, filepath.ToSlash(rel))
	w.logger.Debug().Str("output_path", path).Msg("Generated manifest")
	return nil
}

// Finalize writes the root kustomization aggregating everything written so far.
func (w *Writer) Finalize() error {
	if err := os.MkdirAll(w.outputPath, 0o755); err != nil {
		return ioError("", "creating output directory "+w.outputPath, err)
	}
	k := newKustomization()
	k.Resources = append(k.Resources, w.entries...)
	if err := writeKustomization(w.outputPath, k); err != nil {
		return ioError("", "writing root kustomization", err)
	}
	return nil
}

func newKustomization() *types.Kustomization {
	return &types.Kustomization{
		TypeMeta: types.TypeMeta{
			APIVersion: types.KustomizationVersion,
			Kind:       types.KustomizationKind,
		},
	}
}

func writeKustomization(dir string, k *types.Kustomization) error {
	data, err := yaml.Marshal(k)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, KustomizationFileName), data, 0o644)
}

// ReadKustomization parses the kustomization file in dir.
func ReadKustomization(dir string) (*types.Kustomization, error) {
	data, err := os.ReadFile(filepath.Join(dir, KustomizationFileName))
	if err != nil {
		return nil, err
	}
	var k types.Kustomization
	if err := yaml.Unmarshal(data, &k); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Join(dir, KustomizationFileName), err)
	}
	return &k, nil
}

// MarshalObjects renders objects as one multi-document YAML stream.
func MarshalObjects(objects ...runtime.Object) ([]byte, error) {
	var buf bytes.Buffer
	for i, obj := range objects {
		data, err := yaml.Marshal(obj)
		if err != nil {
			return nil, fmt.Errorf("marshaling %s: %w", Kind(obj), err)
		}
		if i > 0 {
			buf.WriteString(ManifestObjectDelimiter + "\n")
		}
		buf.Write(data)
	}
	return buf.Bytes(), nil
}

func writeObjects(path string, objects ...runtime.Object) error {
	data, err := MarshalObjects(objects...)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func literals(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}

func ioError(resource, message string, err error) error {
	return errors.Operational(errors.CodeIoError, resource, message, err)
}
