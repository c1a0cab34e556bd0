// Package buildcache holds the per-run results of the container build stage.
// Both stores are write-once per key: the build stage fills them, the
// processors read them while emitting artifacts.
package buildcache

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Azure/aspire-deploy/pkg/domain/errors"
)

// Store is a write-once, read-many map guarded by a mutex.
type Store[V any] struct {
	mu      sync.RWMutex
	entries map[string]V
}

// NewStore creates an empty store.
func NewStore[V any]() *Store[V] {
	return &Store[V]{entries: make(map[string]V)}
}

// Put records the value for key. Writing the same key twice is an error.
func (s *Store[V]) Put(key string, value V) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[key]; exists {
		return errors.Validation(errors.CodeDuplicateEntry, key, "", "build cache entry already recorded")
	}
	s.entries[key] = value
	return nil
}

// Get returns the value for key.
func (s *Store[V]) Get(key string) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.entries[key]
	return v, ok
}

// Keys returns the recorded keys, sorted.
func (s *Store[V]) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of entries.
func (s *Store[V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// ContainerDetails is where a built image was, or will be, pushed.
type ContainerDetails struct {
	Registry   string
	Repository string
	Tags       []string
}

// Images returns the fully qualified image references, one per tag.
func (d ContainerDetails) Images() []string {
	prefix := d.Repository
	if d.Registry != "" {
		prefix = d.Registry + "/" + d.Repository
	}
	tags := d.Tags
	if len(tags) == 0 {
		tags = []string{"latest"}
	}
	out := make([]string, len(tags))
	for i, tag := range tags {
		out[i] = fmt.Sprintf("%s:%s", prefix, tag)
	}
	return out
}

// Caches bundles the stores one run shares between its stages.
type Caches struct {
	// Details is keyed by resource name.
	Details *Store[ContainerDetails]
	// Images is keyed by resource name and holds the image emitted for it.
	Images *Store[string]
}

// New creates empty caches for one run.
func New() *Caches {
	return &Caches{
		Details: NewStore[ContainerDetails](),
		Images:  NewStore[string](),
	}
}

// GetCachedImages returns the image references built for the resource.
func (c *Caches) GetCachedImages(resource string) ([]string, error) {
	details, ok := c.Details.Get(resource)
	if !ok {
		return nil, errors.Validation(errors.CodeContainerDetailsNotFound, resource, "",
			"container details not found, was the image built?")
	}
	return details.Images(), nil
}

// ImageFor returns the single image a resource deploys: an explicit image
// recorded in Images wins, otherwise the first tag of its built image.
func (c *Caches) ImageFor(resource string) (string, error) {
	if image, ok := c.Images.Get(resource); ok {
		return image, nil
	}
	images, err := c.GetCachedImages(resource)
	if err != nil {
		return "", err
	}
	return images[0], nil
}
