package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// MemoryObject is an object held by MemoryBackend
type MemoryObject struct {
	ContentType string
	Data        []byte
}

// MemoryBackend keeps objects in process memory. Used for local runs and tests.
type MemoryBackend struct {
	mu      sync.RWMutex
	objects map[string]map[string]MemoryObject

	// FailDelete makes every Delete fail, for exercising rollback paths
	FailDelete error
}

// NewMemoryBackend creates an empty in-memory backend
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{objects: make(map[string]map[string]MemoryObject)}
}

func (m *MemoryBackend) Upload(ctx context.Context, bucket, name, contentType string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.objects[bucket] == nil {
		m.objects[bucket] = make(map[string]MemoryObject)
	}
	copied := make([]byte, len(data))
	copy(copied, data)
	m.objects[bucket][name] = MemoryObject{ContentType: contentType, Data: copied}
	return nil
}

func (m *MemoryBackend) Delete(ctx context.Context, bucket, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.FailDelete != nil {
		return fmt.Errorf("failed to delete object %q: %w", name, m.FailDelete)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.objects[bucket], name)
	return nil
}

func (m *MemoryBackend) List(ctx context.Context, bucket, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := []string{}
	for name := range m.objects[bucket] {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Get returns a stored object
func (m *MemoryBackend) Get(bucket, name string) (MemoryObject, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[bucket][name]
	return obj, ok
}
