// Package provider caches render meshes and collision shapes by logical key.
package provider

import (
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"
)

var (
	ErrNotFound     = errors.New("resource not found")
	ErrDuplicateKey = errors.New("duplicate resource key")
)

// NotFoundError reports a lookup of a key that was never created.
type NotFoundError struct {
	Kind string
	Key  string
}

func (e *NotFoundError) Error() string        { return fmt.Sprintf("%s %q not found", e.Kind, e.Key) }
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// DuplicateKeyError reports an attempt to bind a key that is already bound.
type DuplicateKeyError struct {
	Kind string
	Key  string
}

func (e *DuplicateKeyError) Error() string        { return fmt.Sprintf("%s %q already bound", e.Kind, e.Key) }
func (e *DuplicateKeyError) Is(target error) bool { return target == ErrDuplicateKey }

// Cache is a get-or-create store. Values are built at most once per key and
// disposed exactly once, in creation order, by Dispose.
// Single-goroutine access only.
type Cache[K comparable, V any] struct {
	kind     string
	items    map[K]V
	order    []K
	dispose  func(V)
	disposed bool
	log      *zap.Logger
}

// NewCache creates a cache; dispose may be nil.
func NewCache[K comparable, V any](kind string, dispose func(V), log *zap.Logger) *Cache[K, V] {
	return &Cache[K, V]{
		kind:    kind,
		items:   make(map[K]V),
		dispose: dispose,
		log:     log,
	}
}

func (c *Cache[K, V]) Len() int { return len(c.items) }

// Keys returns the cached keys in creation order.
func (c *Cache[K, V]) Keys() []K { return slices.Clone(c.order) }

func (c *Cache[K, V]) Has(key K) bool {
	_, ok := c.items[key]
	return ok
}

// Get returns the cached value or a *NotFoundError.
func (c *Cache[K, V]) Get(key K) (V, error) {
	v, ok := c.items[key]
	if !ok {
		return v, &NotFoundError{Kind: c.kind, Key: fmt.Sprint(key)}
	}
	return v, nil
}

// GetOrCreate returns the cached value, building and caching it on first use.
// A failed build caches nothing.
func (c *Cache[K, V]) GetOrCreate(key K, build func() (V, error)) (V, error) {
	if v, ok := c.items[key]; ok {
		return v, nil
	}
	if c.disposed {
		var zero V
		return zero, fmt.Errorf("%s cache disposed", c.kind)
	}
	v, err := build()
	if err != nil {
		return v, fmt.Errorf("build %s %v: %w", c.kind, key, err)
	}
	c.store(key, v)
	return v, nil
}

// Bind caches a value built by the caller. Fails with *DuplicateKeyError when
// the key is already bound.
func (c *Cache[K, V]) Bind(key K, v V) error {
	if _, ok := c.items[key]; ok {
		return &DuplicateKeyError{Kind: c.kind, Key: fmt.Sprint(key)}
	}
	if c.disposed {
		return fmt.Errorf("%s cache disposed", c.kind)
	}
	c.store(key, v)
	return nil
}

// Forget drops a key without disposing its value.
func (c *Cache[K, V]) Forget(key K) {
	if _, ok := c.items[key]; !ok {
		return
	}
	delete(c.items, key)
	if i := slices.Index(c.order, key); i >= 0 {
		c.order = slices.Delete(c.order, i, i+1)
	}
}

// Dispose disposes every cached value once. Later calls are no-ops.
func (c *Cache[K, V]) Dispose() {
	if c.disposed {
		return
	}
	c.disposed = true
	order := c.order
	items := c.items
	c.order = nil
	c.items = make(map[K]V)
	for _, k := range order {
		v, ok := items[k]
		if !ok {
			continue
		}
		if c.dispose != nil {
			c.dispose(v)
		}
	}
	c.log.Debug("provider disposed", zap.String("kind", c.kind), zap.Int("resources", len(order)))
}

func (c *Cache[K, V]) store(key K, v V) {
	c.items[key] = v
	c.order = append(c.order, key)
	c.log.Debug("provider resource created", zap.String("kind", c.kind), zap.Any("key", key))
}
