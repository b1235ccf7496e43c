// Estatelake - Real Estate Listing Lakehouse Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatelake

package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
)

// MemoryStore is an in-process Store for tests and dry runs.
type MemoryStore struct {
	mu      sync.RWMutex
	buckets map[string]map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{buckets: make(map[string]map[string][]byte)}
}

// Open returns a reader over a stored object.
func (m *MemoryStore) Open(_ context.Context, bucket, key string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	objects, ok := m.buckets[bucket]
	if !ok {
		return nil, fmt.Errorf("%w: bucket %s", ErrNotFound, bucket)
	}
	data, ok := objects[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, bucket, key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Put stores a copy of data. The bucket must exist.
func (m *MemoryStore) Put(_ context.Context, bucket, key string, data []byte, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	objects, ok := m.buckets[bucket]
	if !ok {
		return fmt.Errorf("%w: bucket %s", ErrNotFound, bucket)
	}
	objects[key] = append([]byte(nil), data...)
	return nil
}

// ListBuckets returns bucket names in lexical order.
func (m *MemoryStore) ListBuckets(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.buckets))
	for name := range m.buckets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// CreateBucket creates a bucket if it is missing.
func (m *MemoryStore) CreateBucket(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.buckets[name]; !ok {
		m.buckets[name] = make(map[string][]byte)
	}
	return nil
}
