// Package tracking implements TrackingContext, the GlobalID-keyed
// object uniquer row materialization consults so two fetches of the
// same row return the identical Go object (spec.md §4.5 "Row
// materialization" step 2, GLOSSARY "TrackingContext").
//
// The teacher has no counterpart: redi-orm always instantiates a fresh
// struct per row and never unique across fetches. TrackingContext is
// new logic, built directly from spec.md, using a plain map keyed by
// model.GlobalID.Hash() — the identity mechanism spec.md already
// defines — rather than introducing any caching library.
package tracking

import (
	"sync"

	"github.com/core-orm/coreql/model"
)

// Context uniques objects by GlobalID within its own scope. A Context
// is typically scoped to one DatabaseChannel fetch (spec.md §4.5), but
// is safe for concurrent use since prefetch fan-out (package channel)
// may register objects from multiple goroutines.
type Context struct {
	mu      sync.Mutex
	objects map[string]any
}

// New builds an empty tracking Context.
func New() *Context {
	return &Context{objects: make(map[string]any)}
}

// Lookup returns the tracked object for id, if any.
func (c *Context) Lookup(id *model.GlobalID) (any, bool) {
	if id == nil {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	obj, ok := c.objects[id.Hash()]
	return obj, ok
}

// Register associates obj with id, so a later Lookup(id) returns it.
// Registering under an id that already has a tracked object silently
// replaces it — callers are expected to check Lookup first (spec.md
// §4.5 step 2: the tracked instance wins, a fresh instantiation never
// overwrites it).
func (c *Context) Register(id *model.GlobalID, obj any) {
	if id == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.objects[id.Hash()] = obj
}

// Len reports how many distinct objects are currently tracked.
func (c *Context) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.objects)
}
