package request

import (
	"iter"
	"maps"
	"sync"
)

// Data is an in-memory key/value store shared by every stage that handles
// the same request, for example to pass values from a filter to a handler.
// It lives exactly as long as the request and is never persisted. Data is
// safe for concurrent use.
type Data struct {
	mu sync.RWMutex
	m  map[string]any
}

// NewData creates an empty store.
func NewData() *Data {
	return &Data{m: make(map[string]any)}
}

// Get returns the value stored under key.
func (d *Data) Get(key string) (any, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	v, ok := d.m[key]
	return v, ok
}

// Set stores a value under key, replacing any previous value.
func (d *Data) Set(key string, value any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.m[key] = value
}

// Delete removes the value stored under key.
func (d *Data) Delete(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.m, key)
}

// Len returns the number of stored values.
func (d *Data) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.m)
}

// All iterates over a snapshot of the store, so the store may be modified
// while iterating.
func (d *Data) All() iter.Seq2[string, any] {
	d.mu.RLock()
	snapshot := maps.Clone(d.m)
	d.mu.RUnlock()
	return maps.All(snapshot)
}
