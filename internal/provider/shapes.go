package provider

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/gridforge/editor/internal/physics"
)

// Pre-built primitive shape keys.
const (
	ShapeRect     = "rect"
	ShapeBox      = "box"
	ShapeSphere   = "sphere"
	ShapeCone     = "cone"
	ShapeCapsule  = "capsule"
	ShapeCylinder = "cylinder"
)

var primitives = []struct {
	key string
	def physics.ShapeDef
}{
	{ShapeRect, physics.Rect(10, 0, 10)},
	{ShapeBox, physics.Box(.5, .5, .5)},
	{ShapeSphere, physics.Sphere(.5)},
	{ShapeCone, physics.Cone(.5, 1)},
	{ShapeCapsule, physics.Capsule(.5, 1)},
	{ShapeCylinder, physics.Cylinder(.5, 1, .5)},
}

// ShapeProvider caches collision shapes. Primitive and GetOrCreate shapes are
// shared by every body that uses them; Build shapes are owned by one body and
// leave the cache when that body disposes them.
type ShapeProvider struct {
	backend physics.Backend
	cache   *Cache[string, *physics.Shape]
}

func NewShapeProvider(backend physics.Backend, log *zap.Logger) (*ShapeProvider, error) {
	p := &ShapeProvider{
		backend: backend,
		cache:   NewCache[string, *physics.Shape]("shape", (*physics.Shape).Dispose, log),
	}
	for _, prim := range primitives {
		if _, err := p.GetOrCreate(prim.key, prim.def); err != nil {
			p.Dispose()
			return nil, err
		}
	}
	return p, nil
}

func (p *ShapeProvider) Get(key string) (*physics.Shape, error) { return p.cache.Get(key) }

func (p *ShapeProvider) Has(key string) bool { return p.cache.Has(key) }

func (p *ShapeProvider) Len() int { return p.cache.Len() }

// GetOrCreate returns the shared shape for key, building it from def once.
func (p *ShapeProvider) GetOrCreate(key string, def physics.ShapeDef) (*physics.Shape, error) {
	return p.cache.GetOrCreate(key, func() (*physics.Shape, error) {
		return physics.NewShape(p.backend, key, def, false)
	})
}

// Build creates a shape owned by a single body under a caller-chosen key.
// Fails with *DuplicateKeyError while the key is bound.
func (p *ShapeProvider) Build(key string, def physics.ShapeDef) (*physics.Shape, error) {
	if p.cache.Has(key) {
		return nil, &DuplicateKeyError{Kind: "shape", Key: key}
	}
	shape, err := physics.NewShape(p.backend, key, def, true)
	if err != nil {
		return nil, fmt.Errorf("build shape %q: %w", key, err)
	}
	if err := p.cache.Bind(key, shape); err != nil {
		shape.Dispose()
		return nil, err
	}
	shape.OnDispose(func(s *physics.Shape) { p.cache.Forget(s.Key()) })
	return shape, nil
}

// Dispose disposes every cached shape once.
func (p *ShapeProvider) Dispose() { p.cache.Dispose() }
