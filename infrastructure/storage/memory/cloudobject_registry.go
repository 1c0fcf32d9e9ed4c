// Package memory provides in-memory storage implementations.
package memory

import (
	"slices"
	"sync"

	"github.com/felixgeelhaar/storage-mcp/domain/storage"
)

// CloudObjectRegistry is an in-memory implementation of storage.Registry.
// A single mutex serializes every read and mutation, so an index returned
// by Append is valid at the moment it is returned.
type CloudObjectRegistry struct {
	objects []*storage.CloudObject
	mu      sync.RWMutex
}

// NewCloudObjectRegistry creates an empty registry.
func NewCloudObjectRegistry() *CloudObjectRegistry {
	return &CloudObjectRegistry{}
}

// Append adds a handle at the end and returns its index.
func (r *CloudObjectRegistry) Append(obj *storage.CloudObject) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.objects = append(r.objects, obj)
	return len(r.objects) - 1
}

// Get returns the handle at index.
func (r *CloudObjectRegistry) Get(index int) (*storage.CloudObject, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if index < 0 || index >= len(r.objects) {
		return nil, storage.IndexOutOfRange("get", index, len(r.objects))
	}
	return r.objects[index], nil
}

// Delete removes and returns the handle at index.
func (r *CloudObjectRegistry) Delete(index int) (*storage.CloudObject, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if index < 0 || index >= len(r.objects) {
		return nil, storage.IndexOutOfRange("delete", index, len(r.objects))
	}
	obj := r.objects[index]
	r.objects = slices.Delete(r.objects, index, index+1)
	return obj, nil
}

// DeleteRange removes [start, end). Bounds outside [0, Len()] or start > end
// are rejected without touching the registry; start == end removes nothing.
func (r *CloudObjectRegistry) DeleteRange(start, end int) ([]*storage.CloudObject, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.validRange(start, end) {
		return nil, storage.RangeOutOfRange("delete_range", start, end, len(r.objects))
	}
	removed := slices.Clone(r.objects[start:end])
	r.objects = slices.Delete(r.objects, start, end)
	return removed, nil
}

// Slice returns a copy of [start, end) under the same bounds policy as DeleteRange.
func (r *CloudObjectRegistry) Slice(start, end int) ([]*storage.CloudObject, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.validRange(start, end) {
		return nil, storage.RangeOutOfRange("slice", start, end, len(r.objects))
	}
	return slices.Clone(r.objects[start:end]), nil
}

// Remove deletes each given handle by identity. Handles no longer present
// are skipped.
func (r *CloudObjectRegistry) Remove(objs ...*storage.CloudObject) int {
	if len(objs) == 0 {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	drop := make(map[*storage.CloudObject]bool, len(objs))
	for _, obj := range objs {
		drop[obj] = true
	}

	before := len(r.objects)
	r.objects = slices.DeleteFunc(r.objects, func(obj *storage.CloudObject) bool {
		return drop[obj]
	})
	return before - len(r.objects)
}

// Len returns the number of handles.
func (r *CloudObjectRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.objects)
}

// List returns a snapshot of all handles.
func (r *CloudObjectRegistry) List() []*storage.CloudObject {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.objects)
}

// Clear removes all handles.
func (r *CloudObjectRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.objects = nil
}

// validRange must be called with the lock held.
func (r *CloudObjectRegistry) validRange(start, end int) bool {
	return start >= 0 && end <= len(r.objects) && start <= end
}

var _ storage.Registry = (*CloudObjectRegistry)(nil)
