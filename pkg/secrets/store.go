// Package secrets provides the read-only secret lookups the compiler performs
// while building descriptors and materializing kustomize env files.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/Azure/aspire-deploy/pkg/domain/errors"
	"github.com/joho/godotenv"
)

// Store resolves secret values by resource and key.
type Store interface {
	ResourceExists(resource string) bool
	SecretExists(resource, key string) bool
	GetSecret(resource, key string) string
	// Keys lists the keys held for a resource, sorted.
	Keys(resource string) []string
}

// MemoryStore is a Store backed by nested maps.
type MemoryStore struct {
	mu      sync.RWMutex
	secrets map[string]map[string]string
}

var _ Store = &MemoryStore{}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{secrets: make(map[string]map[string]string)}
}

// Set records a secret value, replacing any previous one.
func (s *MemoryStore) Set(resource, key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.secrets[resource] == nil {
		s.secrets[resource] = make(map[string]string)
	}
	s.secrets[resource][key] = value
}

func (s *MemoryStore) ResourceExists(resource string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.secrets[resource]
	return ok
}

func (s *MemoryStore) SecretExists(resource, key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.secrets[resource][key]
	return ok
}

func (s *MemoryStore) GetSecret(resource, key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.secrets[resource][key]
}

func (s *MemoryStore) Keys(resource string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.secrets[resource]))
	for k := range s.secrets[resource] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Resources lists the resources holding at least one secret, sorted.
func (s *MemoryStore) Resources() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.secrets))
	for r := range s.secrets {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// EnvFileSuffix names the per-resource dotenv files LoadDir reads.
const EnvFileSuffix = ".env"

// LoadDir builds a store from a directory of dotenv files, one per resource:
// <dir>/<resource>.env holds KEY=value lines for that resource.
func LoadDir(dir string) (*MemoryStore, error) {
	store := NewMemoryStore()
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Operational(errors.CodeIoError, "", fmt.Sprintf("reading secrets directory %s", dir), err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), EnvFileSuffix) {
			continue
		}
		resource := strings.TrimSuffix(entry.Name(), EnvFileSuffix)
		if resource == "" {
			continue
		}
		values, err := godotenv.Read(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, errors.Operational(errors.CodeIoError, resource, fmt.Sprintf("parsing secrets file %s", entry.Name()), err)
		}
		for k, v := range values {
			store.Set(resource, k, v)
		}
	}
	return store, nil
}

// Disabled is a Store that holds nothing. It stands in when secrets are turned off.
type Disabled struct{}

var _ Store = Disabled{}

func (Disabled) ResourceExists(string) bool       { return false }
func (Disabled) SecretExists(string, string) bool { return false }
func (Disabled) GetSecret(string, string) string  { return "" }
func (Disabled) Keys(string) []string             { return nil }

// WriteDir writes every resource of the store to <dir>/<resource>.env, the
// layout LoadDir reads back. Files are readable by the owner only.
func WriteDir(dir string, store *MemoryStore) ([]string, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Operational(errors.CodeIoError, "", fmt.Sprintf("creating secrets directory %s", dir), err)
	}
	var written []string
	for _, resource := range store.Resources() {
		values := make(map[string]string)
		for _, k := range store.Keys(resource) {
			values[k] = store.GetSecret(resource, k)
		}
		path := filepath.Join(dir, resource+EnvFileSuffix)
		if err := godotenv.Write(values, path); err != nil {
			return written, errors.Operational(errors.CodeIoError, resource, fmt.Sprintf("writing secrets file %s", path), err)
		}
		if err := os.Chmod(path, 0o600); err != nil {
			return written, errors.Operational(errors.CodeIoError, resource, fmt.Sprintf("restricting %s", path), err)
		}
		written = append(written, path)
	}
	return written, nil
}
