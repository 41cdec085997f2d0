// Package render holds the render-side data the editor mutates: mesh handles,
// materials and per-entity instances. Drawing itself belongs to a Submitter.
package render

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/gridforge/editor/internal/geom"
)

// Material is one named material of a mesh. Instances hold their own copies,
// so per-entity edits never leak into the shared mesh.
type Material struct {
	ID      string
	Diffuse mgl64.Vec4
	Opacity float64
	Blended bool
	Texture string
}

// Mesh is a render mesh handle. Geometry is optional and is used to derive
// collision shapes for custom models.
type Mesh struct {
	Key       string
	Node      string
	Geometry  *geom.TriangleMesh
	Materials []Material

	disposed bool
}

// Dispose releases the mesh. Returns false if it was already released.
func (m *Mesh) Dispose() bool {
	if m.disposed {
		return false
	}
	m.disposed = true
	return true
}

func (m *Mesh) Disposed() bool { return m.disposed }

// Instance is the model-instance component: a mesh placed in the world.
type Instance struct {
	Mesh *Mesh
	// Transform holds translation and rotation only. It may be shared with a
	// kinematic physics body, so it is stored by pointer.
	Transform *mgl64.Mat4
	Scale     mgl64.Vec3
	Materials []Material
	// Tint is a presentation-only colour override; zero means none.
	Tint mgl64.Vec4
}

// NewInstance places mesh at transform with unit scale and copies of its materials.
func NewInstance(mesh *Mesh, transform mgl64.Mat4) *Instance {
	xf := transform
	inst := &Instance{
		Mesh:      mesh,
		Transform: &xf,
		Scale:     mgl64.Vec3{1, 1, 1},
	}
	if mesh != nil {
		inst.Materials = append([]Material(nil), mesh.Materials...)
	}
	return inst
}

// Matrix returns the full model matrix, scale included.
func (i *Instance) Matrix() mgl64.Mat4 {
	return i.Transform.Mul4(mgl64.Scale3D(i.Scale[0], i.Scale[1], i.Scale[2]))
}

// Position returns the instance translation.
func (i *Instance) Position() mgl64.Vec3 { return geom.Translation(*i.Transform) }

// Material returns the instance material with the given id.
func (i *Instance) Material(id string) (*Material, bool) {
	for k := range i.Materials {
		if i.Materials[k].ID == id {
			return &i.Materials[k], true
		}
	}
	return nil, false
}
