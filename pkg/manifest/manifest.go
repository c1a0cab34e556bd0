// Package manifest reads Aspire manifest documents into the resource model.
package manifest

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Azure/aspire-deploy/pkg/domain/errors"
	"github.com/Azure/aspire-deploy/pkg/resources"
	"github.com/rs/zerolog"
)

// Manifest is a parsed manifest. Order holds the resource names in document order.
type Manifest struct {
	Resources map[string]resources.Resource
	Order     []string
	// Dir is the directory the manifest was loaded from; relative paths in
	// resources resolve against it. Empty for manifests parsed from memory.
	Dir string
}

// Get returns the named resource.
func (m *Manifest) Get(name string) (resources.Resource, bool) {
	r, ok := m.Resources[name]
	return r, ok
}

// Ordered returns the resources in document order.
func (m *Manifest) Ordered() []resources.Resource {
	out := make([]resources.Resource, 0, len(m.Order))
	for _, name := range m.Order {
		out = append(out, m.Resources[name])
	}
	return out
}

// ResolvePath makes a resource-relative path absolute against the manifest directory.
func (m *Manifest) ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) || m.Dir == "" {
		return p
	}
	return filepath.Join(m.Dir, p)
}

// Deserializer turns one manifest node into a resource.
type Deserializer interface {
	Deserialize(name string, raw json.RawMessage) (resources.Resource, error)
}

// DeserializerFunc adapts a function to Deserializer.
type DeserializerFunc func(name string, raw json.RawMessage) (resources.Resource, error)

func (f DeserializerFunc) Deserialize(name string, raw json.RawMessage) (resources.Resource, error) {
	return f(name, raw)
}

// Parser reads manifest documents.
type Parser struct {
	logger       zerolog.Logger
	deserializer Deserializer
}

// NewParser creates a parser. A nil deserializer falls back to resources.Decode.
func NewParser(logger zerolog.Logger, deserializer Deserializer) *Parser {
	if deserializer == nil {
		deserializer = DeserializerFunc(resources.Decode)
	}
	return &Parser{
		logger:       logger.With().Str("component", "manifest_parser").Logger(),
		deserializer: deserializer,
	}
}

// LoadFile reads and parses the manifest at path.
func (p *Parser) LoadFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Operational(errors.CodeIoError, "", fmt.Sprintf("reading manifest %s", path), err)
	}
	m, err := p.Parse(data)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Operational(errors.CodeIoError, "", fmt.Sprintf("resolving manifest path %s", path), err)
	}
	m.Dir = filepath.Dir(abs)
	p.logger.Debug().Str("manifest", abs).Int("resources", len(m.Order)).Msg("Loaded manifest")
	return m, nil
}

// Parse decodes a manifest document. The first invalid resource stops parsing.
func (p *Parser) Parse(data []byte) (*Manifest, error) {
	top, err := resources.DecodeOrderedObject(data)
	if err != nil {
		return nil, errors.New(errors.CodeManifestInvalid, "validation", "manifest is not a JSON object", err)
	}

	var raw json.RawMessage
	for _, m := range top {
		if m.Key == "resources" {
			raw = m.Value
		}
	}
	if raw == nil {
		return nil, errors.New(errors.CodeManifestInvalid, "validation", "manifest has no 'resources' object", nil)
	}

	members, err := resources.DecodeOrderedObject(raw)
	if err != nil {
		var dup *resources.DuplicateKeyError
		if stderrors.As(err, &dup) {
			return nil, errors.Validation(errors.CodeDuplicateEntry, dup.Key, "", "is declared more than once")
		}
		return nil, errors.New(errors.CodeManifestInvalid, "validation", "'resources' is not a JSON object", err)
	}

	out := &Manifest{
		Resources: make(map[string]resources.Resource, len(members)),
		Order:     make([]string, 0, len(members)),
	}
	for _, m := range members {
		r, err := p.deserializer.Deserialize(m.Key, m.Value)
		if err != nil {
			return nil, err
		}
		switch {
		case r.ResourceType() == "":
			p.logger.Warn().Str("resource", m.Key).Msg("Resource has no type, keeping it as an extension")
		case !resources.IsKnownType(r.ResourceType()):
			p.logger.Warn().Str("resource", m.Key).Str("resource_type", r.ResourceType()).Msg("Unsupported resource type, it will be skipped")
		}
		out.Resources[m.Key] = r
		out.Order = append(out.Order, m.Key)
	}
	return out, nil
}
