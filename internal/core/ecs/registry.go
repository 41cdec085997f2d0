package ecs

import "fmt"

// MaxTags bounds the number of component stores a World can hold (one bit each in Mask).
const MaxTags = 64

// componentStore is implemented by all component stores so the Registry can
// bulk-remove an entity's data on destroy.
type componentStore interface {
	Tag() Tag
	Name() string
	Len() int
	ids() []EntityID
	remove(id EntityID) bool
}

// Registry tracks all component stores by Tag and supports bulk cleanup on entity destroy.
type Registry struct {
	stores []componentStore
}

func NewRegistry() *Registry {
	return &Registry{
		stores: make([]componentStore, 0, 16),
	}
}

// Register adds a component store to the registry and returns its Tag.
func (r *Registry) Register(store componentStore) Tag {
	if len(r.stores) >= MaxTags {
		panic(fmt.Sprintf("ecs: too many component stores (max %d), registering %q", MaxTags, store.Name()))
	}
	r.stores = append(r.stores, store)
	return Tag(len(r.stores) - 1)
}

// Store returns the store registered under tag.
func (r *Registry) Store(tag Tag) componentStore {
	if int(tag) >= len(r.stores) {
		return nil
	}
	return r.stores[tag]
}

// RemoveAll clears the given entity from every store named in mask.
func (r *Registry) RemoveAll(id EntityID, mask Mask) {
	for tag, s := range r.stores {
		if mask.Has(Tag(tag)) {
			s.remove(id)
		}
	}
}

// Len returns the number of registered stores.
func (r *Registry) Len() int { return len(r.stores) }
