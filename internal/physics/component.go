package physics

import (
	"github.com/go-gl/mathgl/mgl64"
)

// DefaultOutOfBoundsY is the height below which dynamic bodies are discarded.
const DefaultOutOfBoundsY = -10.0

// Options configures NewComponent.
type Options struct {
	Mass  float64
	Shape *Shape

	// Transform is the render transform shared with the body. When nil the
	// body keeps its own copy of Initial.
	Transform *mgl64.Mat4
	Initial   mgl64.Mat4

	// Offset is applied after Transform to get the body transform, e.g. an
	// axis correction for z-up meshes. Zero means identity.
	Offset mgl64.Mat4

	// Group and Mask default from the mass: ground for static bodies,
	// object for dynamic ones, both listening to everything.
	Group, Mask uint16

	// OutOfBoundsY overrides DefaultOutOfBoundsY when non-nil.
	OutOfBoundsY *float64
}

// Component is the physics component attached to an entity.
type Component struct {
	Body        *Body
	OutOfBounds bool

	boundsY float64
}

// NewComponent creates the body for an entity. The body is not yet in the
// simulation; World adds it when the component is attached.
func NewComponent(backend Backend, opts Options) (*Component, error) {
	c := &Component{boundsY: DefaultOutOfBoundsY}
	if opts.OutOfBoundsY != nil {
		c.boundsY = *opts.OutOfBoundsY
	}
	info := BodyInfo{
		Mass:      opts.Mass,
		Transform: opts.Initial,
		Group:     opts.Group,
		Mask:      opts.Mask,
	}
	if info.Group == 0 {
		info.Group = GroupObject
		if opts.Mass == 0 {
			info.Group = GroupGround
		}
	}
	if info.Mask == 0 {
		info.Mask = GroupGround | GroupObject
	}
	if opts.Transform != nil {
		offset := opts.Offset
		if offset == (mgl64.Mat4{}) {
			offset = mgl64.Ident4()
		}
		ms := &motionState{c: c, target: opts.Transform, offset: offset, inverse: offset.Inv()}
		info.Motion = ms
		info.Transform = ms.WorldTransform()
	}
	body, err := newBody(backend, opts.Shape, info)
	if err != nil {
		return nil, err
	}
	c.Body = body
	return c, nil
}

// BoundsY is the out-of-bounds height for this component.
func (c *Component) BoundsY() float64 { return c.boundsY }

// motionState keeps the render transform and the body transform identical up
// to a constant offset, and flags the component once it falls below boundsY.
type motionState struct {
	c       *Component
	target  *mgl64.Mat4
	offset  mgl64.Mat4
	inverse mgl64.Mat4
}

func (m *motionState) WorldTransform() mgl64.Mat4 {
	return m.target.Mul4(m.offset)
}

func (m *motionState) SetWorldTransform(t mgl64.Mat4) {
	*m.target = t.Mul4(m.inverse)
	if t[13] < m.c.boundsY {
		m.c.OutOfBounds = true
	}
}

// Sync pushes the shared render transform into the body. Used after the
// transform is edited directly while the body is out of the simulation.
func (c *Component) Sync() {
	if ms, ok := c.motion(); ok {
		c.Body.SetWorldTransform(ms.WorldTransform())
	}
}

func (c *Component) motion() (*motionState, bool) {
	if c.Body == nil {
		return nil, false
	}
	ms, ok := c.Body.motion.(*motionState)
	return ms, ok
}
