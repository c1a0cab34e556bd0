package k8s

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Azure/aspire-deploy/pkg/logger"
	"sigs.k8s.io/yaml"
)

const ManifestObjectDelimiter = "---"

// FindK8sObjects locates all .yml/.yaml files below path and returns the
// Kubernetes objects they contain. Files holding several documents yield one
// object per document; kustomization files and documents that are not
// Kubernetes objects are skipped.
func FindK8sObjects(path string) ([]K8sObject, error) {
	fileInfo, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("error accessing directory %s: %v", path, err)
	}
	if !fileInfo.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", path)
	}

	logger.Debugf("Finding Kubernetes manifest files in directory: %s", path)

	var k8sObjects []K8sObject
	err = filepath.WalkDir(path, func(filePath string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || d.Name() == KustomizationFileName {
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".yaml") && !strings.HasSuffix(d.Name(), ".yml") {
			return nil
		}
		fileContent, err := os.ReadFile(filePath)
		if err != nil {
			return fmt.Errorf("reading file %s: %w", filePath, err)
		}
		objects, err := ReadK8sObjects(fileContent)
		if err != nil {
			logger.Debugf("Skipping file %s: %v", filePath, err)
			return nil
		}
		for _, o := range objects {
			o.ManifestPath = filePath
			k8sObjects = append(k8sObjects, o)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking manifest directory: %v", err)
	}
	return k8sObjects, nil
}

// ReadK8sObjects splits a YAML stream into its documents and parses each one.
// Documents missing apiVersion, kind or metadata.name are skipped.
func ReadK8sObjects(content []byte) ([]K8sObject, error) {
	var out []K8sObject
	for _, doc := range splitDocuments(content) {
		var o K8sObject
		if err := yaml.Unmarshal(doc, &o); err != nil {
			return nil, fmt.Errorf("unmarshaling yaml as k8s object: %w", err)
		}
		if o.Kind == "" || o.ApiVersion == "" || o.Metadata.Name == "" {
			continue
		}
		o.Content = doc
		out = append(out, o)
	}
	return out, nil
}

func splitDocuments(content []byte) [][]byte {
	var docs [][]byte
	var current bytes.Buffer
	flush := func() {
		if len(bytes.TrimSpace(current.Bytes())) > 0 {
			docs = append(docs, append([]byte(nil), current.Bytes()...))
		}
		current.Reset()
	}
	for _, line := range bytes.SplitAfter(content, []byte("\n")) {
		if string(bytes.TrimRight(line, " \r\n")) == ManifestObjectDelimiter {
			flush()
			continue
		}
		current.Write(line)
	}
	flush()
	return docs
}

type K8sObject struct {
	ApiVersion   string      `json:"apiVersion"`
	Kind         string      `json:"kind"`
	Metadata     K8sMetadata `json:"metadata"`
	Content      []byte      `json:"-"`
	ManifestPath string      `json:"-"`
}

type K8sMetadata struct {
	Name      string            `json:"name"`
	Namespace string            `json:"namespace,omitempty"`
	Labels    map[string]string `json:"labels,omitempty"`
}

// IsWorkload reports whether the object runs pods.
func (o K8sObject) IsWorkload() bool {
	return o.ApiVersion == "apps/v1" && (o.Kind == "Deployment" || o.Kind == "StatefulSet")
}

// String renders the object as kind/name.
func (o K8sObject) String() string {
	return strings.ToLower(o.Kind) + "/" + o.Metadata.Name
}
