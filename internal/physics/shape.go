package physics

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gridforge/editor/internal/geom"
)

// ShapeKind tags the ShapeDef union.
type ShapeKind uint8

const (
	ShapeCustom ShapeKind = iota
	ShapeRect
	ShapeBox
	ShapeSphere
	ShapeCone
	ShapeCapsule
	ShapeCylinder
)

var shapeKindNames = [...]string{
	ShapeCustom:   "custom",
	ShapeRect:     "rect",
	ShapeBox:      "box",
	ShapeSphere:   "sphere",
	ShapeCone:     "cone",
	ShapeCapsule:  "capsule",
	ShapeCylinder: "cylinder",
}

func (k ShapeKind) String() string {
	if int(k) < len(shapeKindNames) {
		return shapeKindNames[k]
	}
	return fmt.Sprintf("ShapeKind(%d)", k)
}

// ShapeDef describes a collision shape. Primitives carry dimension scalars,
// ShapeCustom carries a triangle mesh.
type ShapeDef struct {
	Kind        ShapeKind
	HalfExtents mgl64.Vec3 // rect, box, cylinder
	Radius      float64    // sphere, cone, capsule
	Height      float64    // cone, capsule
	Mesh        *geom.TriangleMesh
}

func Rect(hx, hy, hz float64) ShapeDef {
	return ShapeDef{Kind: ShapeRect, HalfExtents: mgl64.Vec3{hx, hy, hz}}
}

func Box(hx, hy, hz float64) ShapeDef {
	return ShapeDef{Kind: ShapeBox, HalfExtents: mgl64.Vec3{hx, hy, hz}}
}

func Sphere(radius float64) ShapeDef {
	return ShapeDef{Kind: ShapeSphere, Radius: radius}
}

func Cone(radius, height float64) ShapeDef {
	return ShapeDef{Kind: ShapeCone, Radius: radius, Height: height}
}

func Capsule(radius, height float64) ShapeDef {
	return ShapeDef{Kind: ShapeCapsule, Radius: radius, Height: height}
}

func Cylinder(hx, hy, hz float64) ShapeDef {
	return ShapeDef{Kind: ShapeCylinder, HalfExtents: mgl64.Vec3{hx, hy, hz}}
}

func Custom(mesh *geom.TriangleMesh) ShapeDef {
	return ShapeDef{Kind: ShapeCustom, Mesh: mesh}
}

// Validate rejects definitions a backend cannot build.
func (d ShapeDef) Validate() error {
	switch d.Kind {
	case ShapeRect, ShapeBox, ShapeCylinder:
		for i := 0; i < 3; i++ {
			if d.HalfExtents[i] < 0 || math.IsNaN(d.HalfExtents[i]) {
				return fmt.Errorf("%s shape: invalid half extents %v", d.Kind, d.HalfExtents)
			}
		}
	case ShapeSphere:
		if d.Radius <= 0 {
			return fmt.Errorf("sphere shape: radius must be positive, got %v", d.Radius)
		}
	case ShapeCone, ShapeCapsule:
		if d.Radius <= 0 || d.Height < 0 {
			return fmt.Errorf("%s shape: invalid radius %v / height %v", d.Kind, d.Radius, d.Height)
		}
	case ShapeCustom:
		if d.Mesh.Triangles() == 0 {
			return fmt.Errorf("custom shape: mesh has no triangles")
		}
	default:
		return fmt.Errorf("unknown shape kind %d", d.Kind)
	}
	return nil
}

// LocalBounds returns the local-space axis-aligned bounds of the unscaled shape.
// Capsules and cones are y-aligned, matching the primitive builders.
func (d ShapeDef) LocalBounds() (min, max mgl64.Vec3) {
	var half mgl64.Vec3
	switch d.Kind {
	case ShapeRect, ShapeBox, ShapeCylinder:
		half = d.HalfExtents
	case ShapeSphere:
		half = mgl64.Vec3{d.Radius, d.Radius, d.Radius}
	case ShapeCone:
		half = mgl64.Vec3{d.Radius, d.Height / 2, d.Radius}
	case ShapeCapsule:
		half = mgl64.Vec3{d.Radius, d.Height/2 + d.Radius, d.Radius}
	case ShapeCustom:
		return d.Mesh.Bounds()
	}
	return half.Mul(-1), half
}

// Shape is a backend collision shape plus its sharing policy. Shared shapes are
// owned by the shape provider and disposed with it; owned shapes belong to a
// single body and are disposed when that body is.
type Shape struct {
	backend   Backend
	handle    ShapeHandle
	key       string
	def       ShapeDef
	owned     bool
	refs      int
	disposed  bool
	onDispose func(*Shape)
}

// NewShape builds def on the backend.
func NewShape(backend Backend, key string, def ShapeDef, owned bool) (*Shape, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	h, err := backend.CreateShape(def)
	if err != nil {
		return nil, fmt.Errorf("create %s shape %q: %w", def.Kind, key, err)
	}
	return &Shape{backend: backend, handle: h, key: key, def: def, owned: owned}, nil
}

func (s *Shape) Handle() ShapeHandle { return s.handle }
func (s *Shape) Key() string         { return s.key }
func (s *Shape) Def() ShapeDef       { return s.def }
func (s *Shape) Owned() bool         { return s.owned }
func (s *Shape) Disposed() bool      { return s.disposed }
func (s *Shape) Refs() int           { return s.refs }

// OnDispose registers a hook run once, right after the shape is disposed.
func (s *Shape) OnDispose(fn func(*Shape)) { s.onDispose = fn }

// SetLocalScaling scales the shape on every axis.
func (s *Shape) SetLocalScaling(scale mgl64.Vec3) {
	if s.disposed {
		return
	}
	s.backend.SetShapeScaling(s.handle, scale)
}

func (s *Shape) retain() { s.refs++ }

// release drops one body reference; owned shapes are disposed with their last body.
func (s *Shape) release() {
	if s.refs > 0 {
		s.refs--
	}
	if s.owned && s.refs == 0 {
		s.Dispose()
	}
}

// Dispose frees the backend shape. Repeated calls are no-ops.
func (s *Shape) Dispose() {
	if s.disposed {
		return
	}
	s.disposed = true
	s.backend.DisposeShape(s.handle)
	if s.onDispose != nil {
		s.onDispose(s)
	}
}
