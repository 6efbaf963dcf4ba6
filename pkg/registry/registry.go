// Package registry stores the measured sizes of diagram nodes.
//
// Table boxes only know their size once a rendering surface has drawn them,
// yet layout needs sizes up front. A [Registry] bridges the two: the
// measurement path writes sizes with [Registry.Set], subscribers (usually a
// relayout orchestrator) are told about every change, and each layout run
// reads an immutable [Registry.Snapshot].
//
// A registry belongs to one diagram session. Entries are overwritten but
// never deleted, and the fallback size used for unmeasured nodes is never
// stored here.
package registry

import (
	"maps"
	"sync"

	"github.com/matzehuels/erdflow/pkg/diagram"
	"github.com/matzehuels/erdflow/pkg/errors"
)

// Listener is called after a size changed. It runs on the goroutine that
// called Set, after the registry lock is released, so it may read the
// registry but must not block for long.
type Listener func(id diagram.NodeID, size diagram.Size)

// Registry maps node ids to measured sizes. The zero value is not usable;
// use New. A Registry is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	sizes     map[diagram.NodeID]diagram.Size
	listeners map[int]Listener
	nextID    int
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		sizes:     make(map[diagram.NodeID]diagram.Size),
		listeners: make(map[int]Listener),
	}
}

// Get returns the measured size of id.
func (r *Registry) Get(id diagram.NodeID) (diagram.Size, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sz, ok := r.sizes[id]
	return sz, ok
}

// Set records a measurement for id and notifies subscribers. Recording the
// size already stored is a no-op. Non-positive or non-finite extents are
// rejected with INVALID_SIZE and nothing is written.
func (r *Registry) Set(id diagram.NodeID, size diagram.Size) error {
	if err := errors.ValidateSize(size.Width, size.Height); err != nil {
		return err
	}

	r.mu.Lock()
	if prev, ok := r.sizes[id]; ok && prev == size {
		r.mu.Unlock()
		return nil
	}
	r.sizes[id] = size
	listeners := make([]Listener, 0, len(r.listeners))
	for i := 0; i < r.nextID; i++ {
		if l, ok := r.listeners[i]; ok {
			listeners = append(listeners, l)
		}
	}
	r.mu.Unlock()

	for _, l := range listeners {
		l(id, size)
	}
	return nil
}

// SetAll records several measurements. Every size is checked first, so an
// invalid entry leaves the registry unchanged. Subscribers are notified
// once per changed entry.
func (r *Registry) SetAll(sizes map[diagram.NodeID]diagram.Size) error {
	ids := sortedIDs(sizes)
	for _, id := range ids {
		if err := errors.ValidateSize(sizes[id].Width, sizes[id].Height); err != nil {
			return errors.Wrap(errors.GetCode(err), err, "size of %s", id)
		}
	}
	for _, id := range ids {
		if err := r.Set(id, sizes[id]); err != nil {
			return err
		}
	}
	return nil
}

// Subscribe registers l for change notifications, in subscription order.
// The returned function removes it; calling it more than once is harmless.
func (r *Registry) Subscribe(l Listener) (cancel func()) {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.listeners[id] = l
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.listeners, id)
			r.mu.Unlock()
		})
	}
}

// Snapshot returns a copy of all measurements. Later writes do not affect
// it.
func (r *Registry) Snapshot() diagram.Sizes {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return maps.Clone(diagram.Sizes(r.sizes))
}

// Len returns the number of measured nodes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sizes)
}
