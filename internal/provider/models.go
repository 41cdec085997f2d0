package provider

import (
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/gridforge/editor/internal/data"
	"github.com/gridforge/editor/internal/geom"
	"github.com/gridforge/editor/internal/render"
)

// Built-in scene nodes.
const (
	NodeAxes     = "axes"
	NodeFloor    = "floor"
	NodePatch    = "patch"
	NodeCube     = "cube"
	NodeSphere   = "sphere"
	NodeCapsule  = "capsule"
	NodeCone     = "cone"
	NodeCylinder = "cylinder"
	NodeFrustum  = "frustum"
)

var builtinNodes = []string{
	NodeAxes, NodeFloor, NodePatch, NodeCube, NodeSphere,
	NodeCapsule, NodeCone, NodeCylinder, NodeFrustum,
}

// Loader builds the mesh for a key on first use.
type Loader func(key string) (*render.Mesh, error)

// ModelProvider caches render meshes by key. Built-in nodes exist from
// construction; everything else is loaded on demand or bound by the caller.
type ModelProvider struct {
	cache  *Cache[string, *render.Mesh]
	loader Loader
}

// NewModelProvider builds the built-in nodes. loader serves Load; it may be nil.
func NewModelProvider(loader Loader, log *zap.Logger) *ModelProvider {
	p := &ModelProvider{
		cache:  NewCache[string, *render.Mesh]("model", func(m *render.Mesh) { m.Dispose() }, log),
		loader: loader,
	}
	for _, node := range builtinNodes {
		// builtins have no failure path
		_ = p.cache.Bind(node, builtinMesh(node))
	}
	return p
}

func (p *ModelProvider) Get(key string) (*render.Mesh, error) { return p.cache.Get(key) }

func (p *ModelProvider) Has(key string) bool { return p.cache.Has(key) }

func (p *ModelProvider) Len() int { return p.cache.Len() }

// GetOrCreate returns the mesh for key, building it with load on first use.
func (p *ModelProvider) GetOrCreate(key string, load Loader) (*render.Mesh, error) {
	return p.cache.GetOrCreate(key, func() (*render.Mesh, error) { return load(key) })
}

// Load is GetOrCreate with the provider's loader.
func (p *ModelProvider) Load(key string) (*render.Mesh, error) {
	if p.loader == nil && !p.cache.Has(key) {
		return nil, &NotFoundError{Kind: "model", Key: key}
	}
	return p.GetOrCreate(key, p.loader)
}

// Bind registers a caller-built mesh under a custom key.
func (p *ModelProvider) Bind(key string, mesh *render.Mesh) error {
	return p.cache.Bind(key, mesh)
}

// Dispose disposes every cached mesh once.
func (p *ModelProvider) Dispose() { p.cache.Dispose() }

func defaultMaterial() render.Material {
	return render.Material{ID: "default", Diffuse: mgl64.Vec4{1, 1, 1, 1}, Opacity: 1}
}

func builtinMesh(node string) *render.Mesh {
	var g *geom.TriangleMesh
	switch node {
	case NodeFloor, NodePatch:
		g = geom.Slab(mgl64.Vec3{-.5, 0, -.5}, mgl64.Vec3{.5, 0, .5})
	case NodeCube, NodeSphere, NodeCone:
		g = geom.Slab(mgl64.Vec3{-.5, -.5, -.5}, mgl64.Vec3{.5, .5, .5})
	case NodeCapsule, NodeCylinder:
		g = geom.Slab(mgl64.Vec3{-.5, -1, -.5}, mgl64.Vec3{.5, 1, .5})
	}
	return &render.Mesh{Key: node, Node: node, Geometry: g, Materials: []render.Material{defaultMaterial()}}
}

// TileLoader loads tile meshes from a model pack. Keys are pack asset keys;
// the geometry is a z-up slab one unit wide, with side walls when the model
// has them.
func TileLoader(pack *data.ModelPack) Loader {
	byKey := make(map[string]*data.TileModel, pack.Count())
	for _, name := range pack.Names() {
		byKey[pack.Key(name)] = pack.Get(name)
	}
	return func(key string) (*render.Mesh, error) {
		m, ok := byKey[key]
		if !ok {
			return nil, &NotFoundError{Kind: "model", Key: key}
		}
		g := geom.Slab(mgl64.Vec3{-.5, -.5, 0}, mgl64.Vec3{.5, .5, m.Height})
		if m.Walls {
			for _, side := range []float64{-.5, .45} {
				wall := geom.Slab(mgl64.Vec3{-.5, side, 0}, mgl64.Vec3{.5, side + .05, m.Height + .1})
				g.Vertices = append(g.Vertices, wall.Vertices...)
			}
		}
		return &render.Mesh{
			Key:       key,
			Node:      m.ModelName(),
			Geometry:  g,
			Materials: []render.Material{defaultMaterial(), {ID: "grass", Diffuse: mgl64.Vec4{.3, .7, .3, 1}, Opacity: 1}},
		}, nil
	}
}
